// Package attrservice coordinates the entity store, template catalog,
// metadata store, and per-entity editing sessions behind the API and MCP
// surfaces.
package attrservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/catalog"
	"github.com/starford/fehu/internal/editor"
	"github.com/starford/fehu/internal/entitystore"
	"github.com/starford/fehu/internal/metastore"
	"github.com/starford/fehu/internal/models"
	"github.com/starford/fehu/internal/session"
)

// EventCallback is invoked after state changes worth broadcasting.
// kind is "saved" or "deleted"; id is the entity id.
type EventCallback func(kind, id string)

// Service owns the open editing sessions. One session per entity; sessions
// are independent, there is no cross-document locking.
type Service struct {
	entities *entitystore.Store
	meta     *metastore.Store
	catalog  *catalog.Catalog
	engine   *editor.Engine
	timeout  time.Duration
	notify   EventCallback

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	sess  *session.Session
	class models.Target
}

// Option configures the service.
type Option func(*Service)

// WithSearchTimeout sets the metadata search timeout for new sessions.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithEventCallback wires a broadcast sink (the SSE broker).
func WithEventCallback(cb EventCallback) Option {
	return func(s *Service) { s.notify = cb }
}

// New creates the service.
func New(entities *entitystore.Store, meta *metastore.Store, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		entities: entities,
		meta:     meta,
		catalog:  cat,
		engine:   editor.New(cat),
		timeout:  session.DefaultSearchTimeout,
		sessions: make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEntity creates a host entity with an empty attribute document.
func (s *Service) CreateEntity(ctx context.Context, class models.Target, title string) (entitystore.Entity, error) {
	if class != models.TargetOrder && class != models.TargetUser {
		return entitystore.Entity{}, fmt.Errorf("%w: unknown entity class %q", apperr.ErrRejected, class)
	}
	return s.entities.Create(ctx, class, title)
}

// GetEntity returns one host entity.
func (s *Service) GetEntity(ctx context.Context, id string) (entitystore.Entity, error) {
	return s.entities.Get(ctx, id)
}

// ListEntities returns a page of entities of one class.
func (s *Service) ListEntities(ctx context.Context, class models.Target, limit, offset int) ([]entitystore.Entity, int, error) {
	return s.entities.List(ctx, class, limit, offset)
}

// DeleteEntity removes the entity and discards any open session for it.
func (s *Service) DeleteEntity(ctx context.Context, id string) error {
	if err := s.entities.Delete(ctx, id); err != nil {
		return err
	}
	s.Discard(id)
	if s.notify != nil {
		s.notify("deleted", id)
	}
	return nil
}

// Open returns the editing session for an entity, creating one from the
// stored data on first access. The parse/migration of the stored blob runs
// exactly once per open session, not per request.
func (s *Service) Open(ctx context.Context, entityID string) (*session.Session, error) {
	s.mu.Lock()
	if entry, ok := s.sessions[entityID]; ok {
		s.mu.Unlock()
		return entry.sess, nil
	}
	s.mu.Unlock()

	ent, err := s.entities.Get(ctx, entityID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have opened the session meanwhile.
	if entry, ok := s.sessions[entityID]; ok {
		return entry.sess, nil
	}
	sess := session.Open(ent.ID, ent.Data, s.engine, s.entities, s.meta,
		session.WithSearchTimeout(s.timeout))
	s.sessions[entityID] = &sessionEntry{sess: sess, class: ent.Class}
	return sess, nil
}

// Discard drops the in-memory session without saving. The next Open
// re-reads the persisted data.
func (s *Service) Discard(entityID string) {
	s.mu.Lock()
	delete(s.sessions, entityID)
	s.mu.Unlock()
}

// Apply runs one edit operation against the entity's session. Binding a
// template is additionally checked against the entity's class: only
// templates mapped to that class are offered.
func (s *Service) Apply(ctx context.Context, entityID string, op editor.Op, confirm session.Confirmer) (editor.Result, error) {
	sess, err := s.Open(ctx, entityID)
	if err != nil {
		return editor.Result{}, err
	}
	if op.Kind == editor.OpSelectAttribute {
		if err := s.checkTemplateClass(entityID, op.TemplateID); err != nil {
			return editor.Result{}, err
		}
	}
	return sess.Apply(op, confirm)
}

func (s *Service) checkTemplateClass(entityID, templateID string) error {
	s.mu.Lock()
	entry, ok := s.sessions[entityID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no session for entity %q", apperr.ErrNotFound, entityID)
	}
	tmpl, found := s.catalog.Template(templateID)
	if !found {
		return fmt.Errorf("%w: template %q", apperr.ErrNotFound, templateID)
	}
	if tmpl.MapTo != entry.class {
		return fmt.Errorf("%w: template %q is not available for %s entities", apperr.ErrRejected, templateID, entry.class)
	}
	return nil
}

// Save pushes the entity's document through the persistence gate.
func (s *Service) Save(ctx context.Context, entityID string) (session.State, error) {
	sess, err := s.Open(ctx, entityID)
	if err != nil {
		return session.StateDirty, err
	}
	wasDirty := sess.Dirty()
	state, err := sess.Save(ctx)
	if err == nil && wasDirty && state != session.StateSaving && s.notify != nil {
		s.notify("saved", entityID)
	}
	return state, err
}

// SearchMeta runs a metadata keyword search bound to the entity's session,
// so superseded responses never replace fresher ones.
func (s *Service) SearchMeta(ctx context.Context, entityID, term, fieldID string, limit int) ([]models.ValueRecord, error) {
	sess, err := s.Open(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return sess.Search(ctx, term, fieldID, limit)
}

// PutMeta inserts or replaces a metadata value record owned by a field
// definition. New records get generated ids.
func (s *Service) PutMeta(ctx context.Context, fieldID string, rec models.ValueRecord) (models.ValueRecord, error) {
	if fieldID == "" || rec.Key == "" {
		return models.ValueRecord{}, fmt.Errorf("%w: field id and key are required", apperr.ErrRejected)
	}
	return s.meta.Put(ctx, fieldID, rec)
}

// ListMeta returns all metadata records owned by a field definition.
func (s *Service) ListMeta(ctx context.Context, fieldID string) ([]models.ValueRecord, error) {
	return s.meta.ListByField(ctx, fieldID)
}

// DeleteMeta removes one metadata record.
func (s *Service) DeleteMeta(ctx context.Context, id string) error {
	return s.meta.Delete(ctx, id)
}

// Templates returns the catalog entries offered for a host entity class.
func (s *Service) Templates(target models.Target) []models.Template {
	return s.catalog.ForTarget(target)
}
