package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fehu/internal/attrservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *attrservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Host entities.
	r.Get("/entities", h.ListEntities)
	r.Post("/entities", h.CreateEntity)
	r.Get("/entities/{id}", h.GetEntity)
	r.Delete("/entities/{id}", h.DeleteEntity)

	// Attribute document and its editing session.
	r.Get("/entities/{id}/attributes", h.GetDocument)
	r.Post("/entities/{id}/attributes/ops", h.ApplyOp)
	r.Post("/entities/{id}/attributes/save", h.SaveDocument)
	r.Post("/entities/{id}/attributes/active-group", h.SelectGroup)
	r.Delete("/entities/{id}/attributes/session", h.DiscardSession)

	// Template catalog.
	r.Get("/templates", h.ListTemplates)

	// Metadata records and search.
	r.Get("/meta/search", h.SearchMeta)
	r.Post("/meta/records", h.PutMetaRecord)
	r.Get("/meta/records", h.ListMetaRecords)
	r.Delete("/meta/records/{id}", h.DeleteMetaRecord)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
