// Package editor implements the pure structural edit operations over the
// attribute document. Every operation takes a snapshot plus id-based
// selectors and returns a new snapshot; the input snapshot is never
// mutated, so a baseline held by the persistence gate stays valid as a
// rollback point.
package editor

import (
	"fmt"
	"strings"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/document"
	"github.com/starford/fehu/internal/models"
)

// Catalog resolves attribute templates. Satisfied by *catalog.Catalog.
type Catalog interface {
	Template(id string) (models.Template, bool)
}

// Engine applies structural edits against documents. Safe for concurrent
// use; all state lives in the snapshots.
type Engine struct {
	catalog Catalog
}

// New creates an edit engine backed by the given template catalog.
func New(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// reject builds a user-visible validation rejection. The operation that
// produced it is a no-op.
func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrRejected, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrNotFound, fmt.Sprintf(format, args...))
}

// CreateGroup appends a new empty group with a generated id and returns the
// new snapshot plus the id. A blank title (after trimming) is rejected.
func (e *Engine) CreateGroup(doc models.Document, title string) (models.Document, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return doc, "", reject("group title must not be blank")
	}
	next := doc.Clone()
	id := document.NewGroupID()
	next = append(next, models.Group{ID: id, Title: title, Attributes: []models.Instance{}})
	return next, id, nil
}

// RenameGroup sets the group's title (trimmed).
func (e *Engine) RenameGroup(doc models.Document, groupID, title string) (models.Document, error) {
	next := doc.Clone()
	g, err := findGroup(next, groupID)
	if err != nil {
		return doc, err
	}
	g.Title = strings.TrimSpace(title)
	return next, nil
}

// DeleteGroup removes the group and everything inside it.
func (e *Engine) DeleteGroup(doc models.Document, groupID string) (models.Document, error) {
	next := doc.Clone()
	for i, g := range next {
		if g.ID == groupID {
			return append(next[:i], next[i+1:]...), nil
		}
	}
	return doc, notFound("group %q", groupID)
}

// SelectAttribute binds a template into the group as a new empty instance.
// At most one instance per template per group; a duplicate bind is a no-op
// rejection, not an error.
func (e *Engine) SelectAttribute(doc models.Document, groupID, templateID string) (models.Document, error) {
	tmpl, ok := e.catalog.Template(templateID)
	if !ok {
		return doc, notFound("template %q", templateID)
	}
	next := doc.Clone()
	g, err := findGroup(next, groupID)
	if err != nil {
		return doc, err
	}
	for _, inst := range g.Attributes {
		if inst.ID == templateID {
			return doc, fmt.Errorf("%w: attribute %q is already in group %q", apperr.ErrAlreadyExists, tmpl.Title, g.Title)
		}
	}
	g.Attributes = append(g.Attributes, models.Instance{
		ID:    tmpl.ID,
		Title: tmpl.Title,
		Rows:  []models.Row{},
	})
	return next, nil
}

// AddRow appends a row built from the instance's template: one field per
// definition, seeded empty ([] for checkbox, "" otherwise).
func (e *Engine) AddRow(doc models.Document, groupID, attributeID string) (models.Document, error) {
	tmpl, ok := e.catalog.Template(attributeID)
	if !ok {
		return doc, reject("template %q is no longer available", attributeID)
	}
	next := doc.Clone()
	inst, err := findInstance(next, groupID, attributeID)
	if err != nil {
		return doc, err
	}
	row := make(models.Row, len(tmpl.Fields))
	for i, def := range tmpl.Fields {
		value := models.TextFieldValue("")
		if def.Type == models.FieldCheckbox {
			value = models.MultiFieldValue()
		}
		row[i] = models.Field{ID: def.ID, Title: def.Title, Value: value}
	}
	inst.Rows = append(inst.Rows, row)
	return next, nil
}

// DuplicateRow deep-copies the row at rowIndex and inserts the copy
// immediately after the original.
func (e *Engine) DuplicateRow(doc models.Document, groupID, attributeID string, rowIndex int) (models.Document, error) {
	next := doc.Clone()
	inst, err := findInstance(next, groupID, attributeID)
	if err != nil {
		return doc, err
	}
	if rowIndex < 0 || rowIndex >= len(inst.Rows) {
		return doc, notFound("row %d of attribute %q", rowIndex, attributeID)
	}
	dup := inst.Rows[rowIndex].Clone()
	inst.Rows = append(inst.Rows[:rowIndex+1], append([]models.Row{dup}, inst.Rows[rowIndex+1:]...)...)
	return next, nil
}

// DeleteRow removes the row at rowIndex.
func (e *Engine) DeleteRow(doc models.Document, groupID, attributeID string, rowIndex int) (models.Document, error) {
	next := doc.Clone()
	inst, err := findInstance(next, groupID, attributeID)
	if err != nil {
		return doc, err
	}
	if rowIndex < 0 || rowIndex >= len(inst.Rows) {
		return doc, notFound("row %d of attribute %q", rowIndex, attributeID)
	}
	inst.Rows = append(inst.Rows[:rowIndex], inst.Rows[rowIndex+1:]...)
	return next, nil
}

// DeleteInstance removes the attribute instance and all its rows.
func (e *Engine) DeleteInstance(doc models.Document, groupID, attributeID string) (models.Document, error) {
	next := doc.Clone()
	g, err := findGroup(next, groupID)
	if err != nil {
		return doc, err
	}
	for i, inst := range g.Attributes {
		if inst.ID == attributeID {
			g.Attributes = append(g.Attributes[:i], g.Attributes[i+1:]...)
			return next, nil
		}
	}
	return doc, notFound("attribute %q in group %q", attributeID, groupID)
}

// SetFieldValue replaces the field's value wholesale.
func (e *Engine) SetFieldValue(doc models.Document, groupID, attributeID string, rowIndex, fieldIndex int, value models.FieldValue) (models.Document, error) {
	next := doc.Clone()
	field, err := findField(next, groupID, attributeID, rowIndex, fieldIndex)
	if err != nil {
		return doc, err
	}
	field.Value = value.Clone()
	return next, nil
}

// AddCheckboxValue appends item to the field's multi value. A duplicate id
// is a no-op rejection.
func (e *Engine) AddCheckboxValue(doc models.Document, groupID, attributeID string, rowIndex, fieldIndex int, item models.ValueRef) (models.Document, error) {
	next := doc.Clone()
	field, err := findField(next, groupID, attributeID, rowIndex, fieldIndex)
	if err != nil {
		return doc, err
	}
	if field.Value.Contains(item.ID) {
		return doc, fmt.Errorf("%w: value %q is already selected", apperr.ErrAlreadyExists, item.Title)
	}
	if field.Value.Kind != models.MultiValue {
		field.Value = models.MultiFieldValue()
	}
	field.Value.Multi = append(field.Value.Multi, item)
	return next, nil
}

// RemoveCheckboxValue removes the entry with itemID from the field's multi
// value. An absent id is a no-op rejection.
func (e *Engine) RemoveCheckboxValue(doc models.Document, groupID, attributeID string, rowIndex, fieldIndex int, itemID string) (models.Document, error) {
	next := doc.Clone()
	field, err := findField(next, groupID, attributeID, rowIndex, fieldIndex)
	if err != nil {
		return doc, err
	}
	for i, ref := range field.Value.Multi {
		if ref.ID == itemID {
			field.Value.Multi = append(field.Value.Multi[:i], field.Value.Multi[i+1:]...)
			return next, nil
		}
	}
	return doc, notFound("value %q in field", itemID)
}

func findGroup(doc models.Document, groupID string) (*models.Group, error) {
	for i := range doc {
		if doc[i].ID == groupID {
			return &doc[i], nil
		}
	}
	return nil, notFound("group %q", groupID)
}

func findInstance(doc models.Document, groupID, attributeID string) (*models.Instance, error) {
	g, err := findGroup(doc, groupID)
	if err != nil {
		return nil, err
	}
	for i := range g.Attributes {
		if g.Attributes[i].ID == attributeID {
			return &g.Attributes[i], nil
		}
	}
	return nil, notFound("attribute %q in group %q", attributeID, groupID)
}

func findField(doc models.Document, groupID, attributeID string, rowIndex, fieldIndex int) (*models.Field, error) {
	inst, err := findInstance(doc, groupID, attributeID)
	if err != nil {
		return nil, err
	}
	if rowIndex < 0 || rowIndex >= len(inst.Rows) {
		return nil, notFound("row %d of attribute %q", rowIndex, attributeID)
	}
	row := inst.Rows[rowIndex]
	if fieldIndex < 0 || fieldIndex >= len(row) {
		return nil, notFound("field %d of row %d", fieldIndex, rowIndex)
	}
	return &row[fieldIndex], nil
}
