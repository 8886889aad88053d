package models

import (
	"encoding/json"
	"testing"
)

func TestFieldValue_WireShapes(t *testing.T) {
	// Text values serialize as bare strings.
	data, _ := json.Marshal(TextFieldValue("XL"))
	if string(data) != `"XL"` {
		t.Errorf("text wire = %s", data)
	}

	// Bound values serialize as a single object.
	data, _ = json.Marshal(BoundFieldValue(ValueRef{ID: "c1", Title: "Red", Value: "#ff0000"}))
	if string(data) != `{"id":"c1","title":"Red","value":"#ff0000"}` {
		t.Errorf("bound wire = %s", data)
	}

	// Empty multi values serialize as [] rather than null.
	data, _ = json.Marshal(FieldValue{Kind: MultiValue})
	if string(data) != `[]` {
		t.Errorf("empty multi wire = %s", data)
	}
}

func TestFieldValue_UnmarshalInfersKind(t *testing.T) {
	cases := []struct {
		raw  string
		kind FieldValueKind
	}{
		{`"hello"`, TextValue},
		{`null`, TextValue},
		{`{"id":"a","title":"A","value":"1"}`, BoundValue},
		{`[{"id":"a","title":"A","value":"1"}]`, MultiValue},
	}
	for _, c := range cases {
		var v FieldValue
		if err := json.Unmarshal([]byte(c.raw), &v); err != nil {
			t.Errorf("unmarshal %s: %v", c.raw, err)
			continue
		}
		if v.Kind != c.kind {
			t.Errorf("kind(%s) = %v, want %v", c.raw, v.Kind, c.kind)
		}
	}

	var v FieldValue
	if err := json.Unmarshal([]byte(`42`), &v); err == nil {
		t.Error("numeric value should be rejected")
	}
}

func TestClassifyValue(t *testing.T) {
	cases := []struct {
		in   string
		want ValueClass
	}{
		{"plain text", ClassText},
		{"#fff", ClassColor},
		{"#ff0000", ClassColor},
		{"#ff0000ff", ClassColor},
		{"#ggg", ClassText},
		{"https://example.com/x", ClassURL},
		{"http://example.com", ClassURL},
		{"ftp://example.com", ClassText},
		{"", ClassText},
	}
	for _, c := range cases {
		if got := ClassifyValue(c.in); got != c.want {
			t.Errorf("ClassifyValue(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
