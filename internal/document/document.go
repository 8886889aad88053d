// Package document parses, migrates, and serializes the persisted attribute
// document stored in a host entity's data column.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/fehu/internal/models"
)

// DefaultGroupTitle is the title of the group synthesized when migrating a
// legacy flat instance list.
const DefaultGroupTitle = "Default Group"

// ErrMalformed indicates the stored blob was not valid JSON. Callers recover
// with an empty document and surface a load notice instead of failing.
var ErrMalformed = errors.New("document: malformed data")

// Parse turns a raw data blob into a document.
//
// Empty input yields an empty document. Invalid JSON yields an empty
// document plus ErrMalformed. A current-shape array (first element carries
// an "attributes" key) is used as-is. A legacy flat instance array is
// wrapped into a single synthesized group. Any other valid JSON shape
// yields an empty document. Idempotent on current-shape input.
func Parse(raw []byte) (models.Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.Document{}, nil
	}
	if !json.Valid(trimmed) {
		return models.Document{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		// Valid JSON but not an array.
		return models.Document{}, nil
	}
	if len(elems) == 0 {
		return models.Document{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(elems[0], &probe); err != nil {
		return models.Document{}, nil
	}

	if _, ok := probe["attributes"]; ok {
		var doc models.Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return models.Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return normalize(doc), nil
	}

	// Legacy flat list of instances: wrap into one synthesized group.
	var instances []models.Instance
	if err := json.Unmarshal(trimmed, &instances); err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return normalize(models.Document{{
		ID:         NewGroupID(),
		Title:      DefaultGroupTitle,
		Attributes: instances,
	}}), nil
}

// Serialize produces the canonical JSON for a document. Struct field order
// keeps the output stable, so two serializations of structurally equal
// documents compare bytewise.
func Serialize(doc models.Document) []byte {
	if doc == nil {
		doc = models.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		// The document model contains only marshalable types.
		panic(fmt.Sprintf("document: serialize: %v", err))
	}
	return data
}

// Equal reports structural equality via canonical serialization.
func Equal(a, b models.Document) bool {
	return bytes.Equal(Serialize(a), Serialize(b))
}

// NewGroupID generates an opaque group id, unique within a document.
func NewGroupID() string {
	return uuid.NewString()
}

// normalize replaces nil slices with empty ones so serialization is stable
// across parse/edit round trips.
func normalize(doc models.Document) models.Document {
	for gi := range doc {
		if doc[gi].Attributes == nil {
			doc[gi].Attributes = []models.Instance{}
		}
		for ai := range doc[gi].Attributes {
			inst := &doc[gi].Attributes[ai]
			if inst.Rows == nil {
				inst.Rows = []models.Row{}
			}
			for ri := range inst.Rows {
				for fi := range inst.Rows[ri] {
					val := &inst.Rows[ri][fi].Value
					if val.Kind == models.MultiValue && val.Multi == nil {
						val.Multi = []models.ValueRef{}
					}
				}
			}
		}
	}
	return doc
}
