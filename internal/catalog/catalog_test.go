package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/fehu/internal/models"
)

const sizeTemplateYAML = `id: size-template
title: Size options
mapto: order
fields:
  - id: size
    title: Size
    type: text
  - id: color
    title: Color
    type: select
  - id: tags
    title: Tags
    type: checkbox
`

const contactTemplateYAML = `id: contact-template
title: Contact details
mapto: user
fields:
  - id: phone
    title: Phone
    type: text
`

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "size.yaml", sizeTemplateYAML)
	writeTemplate(t, dir, "contact.yml", contactTemplateYAML)
	writeTemplate(t, dir, "ignored.txt", "not a template")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	tmpl, ok := c.Template("size-template")
	if !ok {
		t.Fatal("size-template not found")
	}
	if len(tmpl.Fields) != 3 || tmpl.Fields[2].Type != models.FieldCheckbox {
		t.Errorf("fields = %v", tmpl.Fields)
	}
}

func TestForTarget(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "size.yaml", sizeTemplateYAML)
	writeTemplate(t, dir, "contact.yaml", contactTemplateYAML)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	orders := c.ForTarget(models.TargetOrder)
	if len(orders) != 1 || orders[0].ID != "size-template" {
		t.Errorf("order templates = %v", orders)
	}
	users := c.ForTarget(models.TargetUser)
	if len(users) != 1 || users[0].ID != "contact-template" {
		t.Errorf("user templates = %v", users)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad-type.yaml", strings.Replace(sizeTemplateYAML, "type: text", "type: number", 1), "invalid template"},
		{"bad-target.yaml", strings.Replace(sizeTemplateYAML, "mapto: order", "mapto: product", 1), "invalid template"},
		{"no-id.yaml", strings.Replace(sizeTemplateYAML, "id: size-template", "id: \"\"", 1), "invalid template"},
		{"dup-field.yaml", strings.Replace(sizeTemplateYAML, "id: color", "id: size", 1), "duplicate field id"},
	}
	for _, c := range cases {
		dir := t.TempDir()
		writeTemplate(t, dir, c.name, c.content)
		if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("%s: err = %v, want containing %q", c.name, err, c.wantErr)
		}
	}
}

func TestLoad_DuplicateTemplateID(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", sizeTemplateYAML)
	writeTemplate(t, dir, "b.yaml", sizeTemplateYAML)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "duplicate template id") {
		t.Errorf("err = %v, want duplicate template id", err)
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "size.yaml", sizeTemplateYAML)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	writeTemplate(t, dir, "broken.yaml", "id: broken\ntitle: Broken\nmapto: nowhere\nfields: []\n")
	if err := c.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if _, ok := c.Template("size-template"); !ok {
		t.Error("previous catalog lost after failed reload")
	}
}
