// Package models defines the domain types for Fehu: the persisted attribute
// document (groups, instances, rows, fields) and the read-only template
// catalog types.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldValueKind tags the closed union of shapes a field value may hold.
type FieldValueKind int

const (
	// TextValue is a plain string, used for text fields and unbound selects.
	TextValue FieldValueKind = iota
	// BoundValue is a single value record bound from the metadata store.
	BoundValue
	// MultiValue is an ordered, unique-by-id list of bound records (checkbox).
	MultiValue
)

// String returns the kind name for logging.
func (k FieldValueKind) String() string {
	switch k {
	case BoundValue:
		return "bound"
	case MultiValue:
		return "multi"
	default:
		return "text"
	}
}

// ValueRef is a bound metadata record stored inside a field value.
type ValueRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// FieldValue is the polymorphic value of a Field. Exactly one of Text, Ref,
// or Multi is meaningful, selected by Kind. The zero value is an empty text
// value, which is also the seed value for freshly created non-checkbox fields.
type FieldValue struct {
	Kind  FieldValueKind
	Text  string
	Ref   ValueRef
	Multi []ValueRef
}

// TextFieldValue returns a text-kind value holding s.
func TextFieldValue(s string) FieldValue {
	return FieldValue{Kind: TextValue, Text: s}
}

// BoundFieldValue returns a bound-kind value holding ref.
func BoundFieldValue(ref ValueRef) FieldValue {
	return FieldValue{Kind: BoundValue, Ref: ref}
}

// MultiFieldValue returns a multi-kind value. The seed for checkbox fields
// is MultiFieldValue() with no entries.
func MultiFieldValue(refs ...ValueRef) FieldValue {
	if refs == nil {
		refs = []ValueRef{}
	}
	return FieldValue{Kind: MultiValue, Multi: refs}
}

// Contains reports whether a multi-kind value already holds id.
func (v FieldValue) Contains(id string) bool {
	for _, ref := range v.Multi {
		if ref.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Array entries are copied by value so edits to
// one snapshot never leak into another.
func (v FieldValue) Clone() FieldValue {
	out := v
	if v.Multi != nil {
		out.Multi = make([]ValueRef, len(v.Multi))
		copy(out.Multi, v.Multi)
	}
	return out
}

// MarshalJSON emits the persisted wire shape: a bare string for text values,
// a {id,title,value} object for bound values, and an array of such objects
// for multi values. Key order is fixed by the ValueRef struct so serialized
// snapshots compare bytewise.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case BoundValue:
		return json.Marshal(v.Ref)
	case MultiValue:
		if v.Multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Multi)
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON infers the kind from the wire shape.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = FieldValue{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = FieldValue{Kind: TextValue, Text: s}
	case '{':
		var ref ValueRef
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return err
		}
		*v = FieldValue{Kind: BoundValue, Ref: ref}
	case '[':
		refs := []ValueRef{}
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return err
		}
		*v = FieldValue{Kind: MultiValue, Multi: refs}
	default:
		return fmt.Errorf("models: unsupported field value shape: %s", trimmed)
	}
	return nil
}

// Field is one typed cell in a row. ID and Title are copied from the field
// definition at row-creation time; later template edits do not rewrite them.
type Field struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Value FieldValue `json:"value"`
}

// Row is one repetition of a template's field set. Field order is positional
// against the template's field definitions as they stood when the row was
// created.
type Row []Field

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for i, f := range r {
		f.Value = f.Value.Clone()
		out[i] = f
	}
	return out
}

// Instance is one template bound into a group. ID equals the originating
// template id; Title is copied at bind time and does not track renames.
type Instance struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Rows  []Row  `json:"children"`
}

// Clone returns a deep copy of the instance.
func (in Instance) Clone() Instance {
	out := in
	out.Rows = make([]Row, len(in.Rows))
	for i, r := range in.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Group is a named, ordered collection of attribute instances. ID is a
// generated opaque token unique within the owning document.
type Group struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Attributes []Instance `json:"attributes"`
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	out := g
	out.Attributes = make([]Instance, len(g.Attributes))
	for i, in := range g.Attributes {
		out.Attributes[i] = in.Clone()
	}
	return out
}

// Document is the entire persisted attribute state for one host entity,
// stored serialized in the entity's data column. Group order is insertion
// order and is the persisted order.
type Document []Group

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for i, g := range d {
		out[i] = g.Clone()
	}
	return out
}
