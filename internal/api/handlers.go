package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/attrservice"
	"github.com/starford/fehu/internal/checksum"
	"github.com/starford/fehu/internal/entitystore"
	"github.com/starford/fehu/internal/models"
	"github.com/starford/fehu/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	svc *attrservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *attrservice.Service) *Handler {
	return &Handler{svc: svc}
}

// respondError maps service errors onto HTTP statuses. Rejections carry
// their user-visible notice through; everything unexpected is logged and
// hidden behind a generic message.
func respondError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrRejected):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(what+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func entityResponse(e entitystore.Entity) EntityResponse {
	return EntityResponse{
		ID:        e.ID,
		Class:     string(e.Class),
		Title:     e.Title,
		Checksum:  checksum.Sum(e.Data),
		UpdatedAt: e.UpdatedAt,
	}
}

func (h *Handler) documentResponse(sess *session.Session) DocumentResponse {
	return DocumentResponse{
		Document:    sess.Document(),
		Dirty:       sess.Dirty(),
		State:       string(sess.State()),
		ActiveGroup: sess.ActiveGroup(),
		LoadNotice:  sess.LoadNotice(),
	}
}

// CreateEntity handles POST /entities.
func (h *Handler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Class == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("class is required"))
		return
	}
	ent, err := h.svc.CreateEntity(r.Context(), models.Target(req.Class), req.Title)
	if err != nil {
		respondError(w, err, "create entity")
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse(ent))
}

// ListEntities handles GET /entities.
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	class := q.Get("class")
	if class == "" {
		class = string(models.TargetOrder)
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entities, total, err := h.svc.ListEntities(r.Context(), models.Target(class), limit, offset)
	if err != nil {
		respondError(w, err, "list entities")
		return
	}
	items := make([]EntityResponse, len(entities))
	for i, e := range entities {
		items[i] = entityResponse(e)
	}
	writeJSON(w, http.StatusOK, EntityListResponse{Entities: items, Total: total})
}

// GetEntity handles GET /entities/{id}.
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	ent, err := h.svc.GetEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, "get entity")
		return
	}
	resp := entityResponse(ent)
	w.Header().Set("ETag", `"`+resp.Checksum+`"`)
	writeJSON(w, http.StatusOK, resp)
}

// DeleteEntity handles DELETE /entities/{id}.
func (h *Handler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEntity(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err, "delete entity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDocument handles GET /entities/{id}/attributes. Opening the document
// loads (and, for legacy data, migrates) it into a session; repeated calls
// reuse the session.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ent, err := h.svc.GetEntity(r.Context(), id)
	if err != nil {
		respondError(w, err, "open document")
		return
	}
	sess, err := h.svc.Open(r.Context(), id)
	if err != nil {
		respondError(w, err, "open document")
		return
	}
	// The ETag tracks the persisted bytes, usable as If-Match on save.
	w.Header().Set("ETag", `"`+checksum.Sum(ent.Data)+`"`)
	writeJSON(w, http.StatusOK, h.documentResponse(sess))
}

// ApplyOp handles POST /entities/{id}/attributes/ops.
func (h *Handler) ApplyOp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req OpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Op.Kind == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("op.kind is required"))
		return
	}

	confirm := session.ConfirmerFunc(func(string) bool { return req.Confirm })
	res, err := h.svc.Apply(r.Context(), id, req.Op, confirm)
	if err != nil {
		respondError(w, err, "apply op")
		return
	}

	sess, err := h.svc.Open(r.Context(), id)
	if err != nil {
		respondError(w, err, "open document")
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{
		CreatedGroupID:   res.CreatedGroupID,
		DocumentResponse: h.documentResponse(sess),
	})
}

// SaveDocument handles POST /entities/{id}/attributes/save. A save while
// clean or while another save is in flight is a no-op; the response always
// reports the resulting gate state. An If-Match header, when present, must
// carry the checksum of the persisted document or the save is refused.
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		ent, err := h.svc.GetEntity(r.Context(), id)
		if err != nil {
			respondError(w, err, "save document")
			return
		}
		if !checksum.Matches(ent.Data, ifMatch) {
			respondError(w, fmt.Errorf("%w: document changed since it was read", apperr.ErrConflict), "save document")
			return
		}
	}

	state, err := h.svc.Save(r.Context(), id)
	if err != nil {
		// Store failures surface as a gateway error; the session keeps its
		// edits and baseline so the client simply retries.
		if !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrRejected) {
			slog.Error("save failed", slog.String("entity", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("save failed"))
			return
		}
		respondError(w, err, "save document")
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{
		State: string(state),
		Dirty: state == session.StateDirty,
	})
}

// DiscardSession handles DELETE /entities/{id}/attributes/session,
// dropping unsaved edits.
func (h *Handler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	h.svc.Discard(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// SelectGroup handles POST /entities/{id}/attributes/active-group.
func (h *Handler) SelectGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	sess, err := h.svc.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, "open document")
		return
	}
	if err := sess.SelectGroup(req.GroupID); err != nil {
		respondError(w, err, "select group")
		return
	}
	writeJSON(w, http.StatusOK, h.documentResponse(sess))
}

// ListTemplates handles GET /templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	mapto := r.URL.Query().Get("mapto")
	if mapto == "" {
		mapto = string(models.TargetOrder)
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{
		Templates: h.svc.Templates(models.Target(mapto)),
	})
}

// PutMetaRecord handles POST /meta/records, seeding a searchable value
// record owned by a field definition.
func (h *Handler) PutMetaRecord(w http.ResponseWriter, r *http.Request) {
	var req MetaRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.svc.PutMeta(r.Context(), req.Field, models.ValueRecord{ID: req.ID, Key: req.Key, Value: req.Value})
	if err != nil {
		respondError(w, err, "put meta record")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListMetaRecords handles GET /meta/records.
func (h *Handler) ListMetaRecords(w http.ResponseWriter, r *http.Request) {
	fieldID := r.URL.Query().Get("field")
	if fieldID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'field' is required"))
		return
	}
	records, err := h.svc.ListMeta(r.Context(), fieldID)
	if err != nil {
		respondError(w, err, "list meta records")
		return
	}
	writeJSON(w, http.StatusOK, MetaRecordListResponse{Records: records})
}

// DeleteMetaRecord handles DELETE /meta/records/{id}.
func (h *Handler) DeleteMetaRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMeta(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err, "delete meta record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchMeta handles GET /meta/search. Results are bound to the entity's
// session so a stale response never replaces a fresher one.
func (h *Handler) SearchMeta(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("q")
	fieldID := q.Get("field")
	entityID := q.Get("entity")
	if term == "" || fieldID == "" || entityID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'q', 'field' and 'entity' are required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	records, err := h.svc.SearchMeta(r.Context(), entityID, term, fieldID, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(w, err, "meta search")
			return
		}
		slog.Error("meta search failed", slog.String("term", term), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, MetaSearchResponse{Success: "error", Data: []MetaSearchResult{}})
		return
	}
	results := make([]MetaSearchResult, len(records))
	for i, rec := range records {
		results[i] = MetaSearchResult{ValueRecord: rec, Class: models.ClassifyValue(rec.Value)}
	}
	writeJSON(w, http.StatusOK, MetaSearchResponse{Success: "success", Data: results})
}
