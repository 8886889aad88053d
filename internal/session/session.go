// Package session implements the per-document editing session: dirty
// tracking against a saved baseline, the save gate with its single-flight
// guard, and last-write-wins metadata search binding.
package session

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/document"
	"github.com/starford/fehu/internal/editor"
	"github.com/starford/fehu/internal/models"
)

// State is the persistence gate state of a session.
type State string

// Gate states.
const (
	StateClean  State = "clean"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
)

// DefaultSearchTimeout bounds metadata search calls when the session is not
// configured with an explicit timeout.
const DefaultSearchTimeout = 5 * time.Second

// Saver persists the serialized document into the host entity's data
// column. Implemented by the entity store.
type Saver interface {
	UpdateData(ctx context.Context, entityID string, data []byte) error
}

// Searcher performs the attribute metadata keyword search.
type Searcher interface {
	SearchMeta(ctx context.Context, term, fieldID string, limit int) ([]models.ValueRecord, error)
}

// Confirmer guards destructive operations. The caller supplies it; a false
// answer turns the operation into a rejection.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Session edits one host entity's attribute document. Methods are
// serialized by an internal mutex, giving the one-operation-at-a-time model;
// the save call runs its network write outside the lock so the document
// stays editable while a save is in flight.
type Session struct {
	entityID string
	engine   *editor.Engine
	saver    Saver
	searcher Searcher
	timeout  time.Duration

	mu          sync.Mutex
	doc         models.Document
	baseline    []byte
	activeGroup string
	loadNotice  string
	saving      bool
	searchGen   uint64
	results     []models.ValueRecord
}

// Option configures a session.
type Option func(*Session)

// WithSearchTimeout overrides the metadata search timeout.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Open creates a session from the entity's raw data blob. A malformed blob
// falls back to an empty document and records a load notice; it never fails
// the open. The baseline is the canonical serialization of the parsed
// document, so a freshly opened session is clean.
func Open(entityID string, raw []byte, engine *editor.Engine, saver Saver, searcher Searcher, opts ...Option) *Session {
	doc, err := document.Parse(raw)
	s := &Session{
		entityID: entityID,
		engine:   engine,
		saver:    saver,
		searcher: searcher,
		timeout:  DefaultSearchTimeout,
		doc:      doc,
		baseline: document.Serialize(doc),
	}
	if err != nil {
		s.loadNotice = "stored attribute data could not be read; starting from an empty document"
	}
	if len(doc) > 0 {
		s.activeGroup = doc[0].ID
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadNotice returns the user-visible notice recorded when the stored data
// failed to parse, or empty.
func (s *Session) LoadNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadNotice
}

// Document returns the current snapshot. Engine operations never mutate
// snapshots in place, so the returned value is safe to serialize
// concurrently with further edits.
func (s *Session) Document() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// ActiveGroup returns the id of the currently selected group, or empty when
// the document has no groups.
func (s *Session) ActiveGroup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeGroup
}

// SelectGroup marks a group as active.
func (s *Session) SelectGroup(groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.doc {
		if g.ID == groupID {
			s.activeGroup = groupID
			return nil
		}
	}
	return fmt.Errorf("%w: group %q", apperr.ErrNotFound, groupID)
}

// Dirty reports whether the current snapshot differs from the saved
// baseline, compared over canonical serialization.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) dirtyLocked() bool {
	return !bytes.Equal(document.Serialize(s.doc), s.baseline)
}

// State returns the current gate state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return StateSaving
	}
	if s.dirtyLocked() {
		return StateDirty
	}
	return StateClean
}

// Apply runs one edit operation against the current snapshot. Destructive
// operations require confirm to answer true; an unconfirmed destructive op
// is a no-op rejection. On success the session adopts the new snapshot and
// adjusts the active group.
func (s *Session) Apply(op editor.Op, confirm Confirmer) (editor.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.Destructive() {
		if confirm == nil || !confirm.Confirm(op.Prompt()) {
			return editor.Result{}, fmt.Errorf("%w: not confirmed", apperr.ErrRejected)
		}
	}

	next, res, err := s.engine.Apply(s.doc, op)
	if err != nil {
		return res, err
	}
	s.doc = next

	switch op.Kind {
	case editor.OpCreateGroup:
		s.activeGroup = res.CreatedGroupID
	case editor.OpDeleteGroup:
		if op.GroupID == s.activeGroup {
			// Fall back to the new first group, or none.
			s.activeGroup = ""
			if len(s.doc) > 0 {
				s.activeGroup = s.doc[0].ID
			}
		}
	}
	return res, nil
}

// Save pushes the current snapshot through the saver and re-baselines on
// success.
//
// A clean session saves nothing. A save while another save is in flight is
// suppressed as a no-op rather than racing (single-flight). A missing
// entity id is a hard error raised before any store call. On failure the
// baseline and the in-memory edits are untouched, so the session stays
// dirty and the user retries by saving again. On success the baseline
// becomes the exact bytes that were sent, not a re-read.
func (s *Session) Save(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return StateSaving, nil
	}
	if s.entityID == "" {
		s.mu.Unlock()
		return StateDirty, fmt.Errorf("%w: save requires an entity id", apperr.ErrRejected)
	}
	data := document.Serialize(s.doc)
	if bytes.Equal(data, s.baseline) {
		s.mu.Unlock()
		return StateClean, nil
	}
	s.saving = true
	s.mu.Unlock()

	err := s.saver.UpdateData(ctx, s.entityID, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		return StateDirty, fmt.Errorf("session: save %s: %w", s.entityID, err)
	}
	s.baseline = data
	if s.dirtyLocked() {
		// Edits arrived while the save was in flight.
		return StateDirty, nil
	}
	return StateClean, nil
}

// Search runs a metadata keyword search for a field definition. Responses
// bind last-write-wins: a completed response becomes the visible result set
// only when no newer search has been issued since, so a stale response can
// never replace a fresher one.
func (s *Session) Search(ctx context.Context, term, fieldID string, limit int) ([]models.ValueRecord, error) {
	s.mu.Lock()
	s.searchGen++
	gen := s.searchGen
	timeout := s.timeout
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := s.searcher.SearchMeta(ctx, term, fieldID, limit)
	if err != nil {
		return nil, fmt.Errorf("session: search %q: %w", term, err)
	}
	if records == nil {
		records = []models.ValueRecord{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.searchGen {
		s.results = records
	}
	return records, nil
}

// Results returns the most recently bound search result set.
func (s *Session) Results() []models.ValueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		return []models.ValueRecord{}
	}
	return s.results
}
