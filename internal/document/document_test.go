package document

import (
	"errors"
	"testing"

	"github.com/starford/fehu/internal/models"
)

func sampleDocument() models.Document {
	return models.Document{{
		ID:    "grp-1",
		Title: "Shipping",
		Attributes: []models.Instance{{
			ID:    "size-template",
			Title: "Size options",
			Rows: []models.Row{{
				{ID: "size", Title: "Size", Value: models.TextFieldValue("XL")},
				{ID: "color", Title: "Color", Value: models.BoundFieldValue(models.ValueRef{ID: "c1", Title: "Red", Value: "#ff0000"})},
				{ID: "tags", Title: "Tags", Value: models.MultiFieldValue(
					models.ValueRef{ID: "t1", Title: "Fragile", Value: "fragile"},
					models.ValueRef{ID: "t2", Title: "Heavy", Value: "heavy"},
				)},
			}},
		}},
	}}
}

func TestParse_RoundTrip(t *testing.T) {
	doc := sampleDocument()
	raw := Serialize(doc)

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !Equal(doc, parsed) {
		t.Errorf("round trip changed document:\n in: %s\nout: %s", raw, Serialize(parsed))
	}

	// Idempotence: parsing the re-serialized output again is stable.
	again, err := Parse(Serialize(parsed))
	if err != nil {
		t.Fatalf("Parse again: %v", err)
	}
	if !Equal(parsed, again) {
		t.Error("second parse changed document")
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "[]", "null", `{"not":"an array"}`, `"just a string"`, "42"} {
		doc, err := Parse([]byte(raw))
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", raw, err)
		}
		if len(doc) != 0 {
			t.Errorf("Parse(%q) = %v, want empty document", raw, doc)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	doc, err := Parse([]byte(`[{"id": broken`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
	if len(doc) != 0 {
		t.Errorf("doc = %v, want empty", doc)
	}
}

func TestParse_LegacyFlatList(t *testing.T) {
	legacy := []byte(`[
		{"id":"size-template","title":"Size options","children":[[{"id":"size","title":"Size","value":"M"}]]},
		{"id":"care-template","title":"Care","children":[]}
	]`)

	doc, err := Parse(legacy)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("len(doc) = %d, want 1 synthesized group", len(doc))
	}
	g := doc[0]
	if g.Title != DefaultGroupTitle {
		t.Errorf("title = %q, want %q", g.Title, DefaultGroupTitle)
	}
	if g.ID == "" {
		t.Error("synthesized group has no id")
	}
	if len(g.Attributes) != 2 {
		t.Fatalf("len(attributes) = %d, want 2", len(g.Attributes))
	}
	if g.Attributes[0].ID != "size-template" || g.Attributes[1].ID != "care-template" {
		t.Errorf("instance order not preserved: %v", g.Attributes)
	}
	if got := g.Attributes[0].Rows[0][0].Value.Text; got != "M" {
		t.Errorf("field value = %q, want M", got)
	}

	// Migrated output is current-shape: parsing it again must not re-wrap.
	again, err := Parse(Serialize(doc))
	if err != nil {
		t.Fatalf("Parse migrated: %v", err)
	}
	if !Equal(doc, again) {
		t.Error("migration is not idempotent on current shape")
	}
}

func TestClone_Independent(t *testing.T) {
	doc := sampleDocument()
	clone := doc.Clone()
	if !Equal(doc, clone) {
		t.Fatal("clone differs from original")
	}

	clone[0].Attributes[0].Rows[0][0].Value = models.TextFieldValue("S")
	clone[0].Attributes[0].Rows[0][2].Value.Multi[0].Title = "mutated"
	if doc[0].Attributes[0].Rows[0][0].Value.Text != "XL" {
		t.Error("scalar edit on clone leaked into original")
	}
	if doc[0].Attributes[0].Rows[0][2].Value.Multi[0].Title != "Fragile" {
		t.Error("array edit on clone leaked into original")
	}
}

func TestEqual(t *testing.T) {
	a := sampleDocument()
	b := sampleDocument()
	if !Equal(a, b) {
		t.Error("structurally equal documents reported unequal")
	}
	b[0].Attributes[0].Rows[0][0].Value = models.TextFieldValue("S")
	if Equal(a, b) {
		t.Error("field value change not detected")
	}
}
