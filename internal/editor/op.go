package editor

import (
	"fmt"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/models"
)

// OpKind names one edit operation.
type OpKind string

// Edit operation kinds.
const (
	OpCreateGroup         OpKind = "create_group"
	OpRenameGroup         OpKind = "rename_group"
	OpDeleteGroup         OpKind = "delete_group"
	OpSelectAttribute     OpKind = "select_attribute"
	OpAddRow              OpKind = "add_row"
	OpDuplicateRow        OpKind = "duplicate_row"
	OpDeleteRow           OpKind = "delete_row"
	OpDeleteInstance      OpKind = "delete_instance"
	OpSetFieldValue       OpKind = "set_field_value"
	OpAddCheckboxValue    OpKind = "add_checkbox_value"
	OpRemoveCheckboxValue OpKind = "remove_checkbox_value"
)

// Op is the wire envelope for one edit operation. Targets are addressed by
// stable id pairs plus row/field indexes rather than object identity, so a
// re-rendered client cannot hold stale references.
type Op struct {
	Kind        OpKind             `json:"kind"`
	GroupID     string             `json:"group_id,omitempty"`
	AttributeID string             `json:"attribute_id,omitempty"`
	TemplateID  string             `json:"template_id,omitempty"`
	Title       string             `json:"title,omitempty"`
	RowIndex    int                `json:"row_index,omitempty"`
	FieldIndex  int                `json:"field_index,omitempty"`
	Value       *models.FieldValue `json:"value,omitempty"`
	Item        *models.ValueRef   `json:"item,omitempty"`
	ItemID      string             `json:"item_id,omitempty"`
}

// Destructive reports whether the operation removes data and therefore
// requires explicit confirmation before it runs.
func (o Op) Destructive() bool {
	switch o.Kind {
	case OpDeleteGroup, OpDeleteRow, OpDeleteInstance:
		return true
	}
	return false
}

// Prompt returns the confirmation prompt for a destructive operation.
func (o Op) Prompt() string {
	switch o.Kind {
	case OpDeleteGroup:
		return "Delete this group and everything inside it?"
	case OpDeleteRow:
		return "Delete this row?"
	case OpDeleteInstance:
		return "Delete this attribute and all its rows?"
	}
	return ""
}

// Result carries the outcome of Apply alongside the new snapshot.
type Result struct {
	// CreatedGroupID is set when the operation created a group.
	CreatedGroupID string
}

// Apply dispatches an op envelope to the corresponding engine operation.
// On error the returned document is the unchanged input snapshot.
func (e *Engine) Apply(doc models.Document, op Op) (models.Document, Result, error) {
	var res Result
	var next models.Document
	var err error

	switch op.Kind {
	case OpCreateGroup:
		next, res.CreatedGroupID, err = e.CreateGroup(doc, op.Title)
	case OpRenameGroup:
		next, err = e.RenameGroup(doc, op.GroupID, op.Title)
	case OpDeleteGroup:
		next, err = e.DeleteGroup(doc, op.GroupID)
	case OpSelectAttribute:
		next, err = e.SelectAttribute(doc, op.GroupID, op.TemplateID)
	case OpAddRow:
		next, err = e.AddRow(doc, op.GroupID, op.AttributeID)
	case OpDuplicateRow:
		next, err = e.DuplicateRow(doc, op.GroupID, op.AttributeID, op.RowIndex)
	case OpDeleteRow:
		next, err = e.DeleteRow(doc, op.GroupID, op.AttributeID, op.RowIndex)
	case OpDeleteInstance:
		next, err = e.DeleteInstance(doc, op.GroupID, op.AttributeID)
	case OpSetFieldValue:
		if op.Value == nil {
			return doc, res, fmt.Errorf("%w: set_field_value requires a value", apperr.ErrRejected)
		}
		next, err = e.SetFieldValue(doc, op.GroupID, op.AttributeID, op.RowIndex, op.FieldIndex, *op.Value)
	case OpAddCheckboxValue:
		if op.Item == nil {
			return doc, res, fmt.Errorf("%w: add_checkbox_value requires an item", apperr.ErrRejected)
		}
		next, err = e.AddCheckboxValue(doc, op.GroupID, op.AttributeID, op.RowIndex, op.FieldIndex, *op.Item)
	case OpRemoveCheckboxValue:
		next, err = e.RemoveCheckboxValue(doc, op.GroupID, op.AttributeID, op.RowIndex, op.FieldIndex, op.ItemID)
	default:
		return doc, res, fmt.Errorf("%w: unknown operation kind %q", apperr.ErrRejected, op.Kind)
	}

	if err != nil {
		return doc, res, err
	}
	return next, res, nil
}
