// Package catalog loads and serves the read-only attribute template
// catalog. Templates live as YAML files in a directory (one template per
// file) and are validated on load; the engine and API consume the catalog,
// never raw files.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/fehu/internal/models"
)

// Catalog holds the loaded templates. Reload swaps the whole set, so reads
// always see a consistent catalog.
type Catalog struct {
	dir string

	mu        sync.RWMutex
	templates map[string]models.Template
}

// Load reads every template file under dir and validates it.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the template directory. On any error the previous catalog
// stays in place.
func (c *Catalog) Reload() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("catalog: read dir: %w", err)
	}

	templates := make(map[string]models.Template)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isTemplateFile(name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", name, err)
		}
		var tmpl models.Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return fmt.Errorf("catalog: parse %s: %w", name, err)
		}
		if err := validateTemplate(tmpl); err != nil {
			return fmt.Errorf("catalog: invalid template %s: %w", name, err)
		}
		if _, ok := templates[tmpl.ID]; ok {
			return fmt.Errorf("catalog: duplicate template id %q in %s", tmpl.ID, name)
		}
		templates[tmpl.ID] = tmpl
	}

	c.mu.Lock()
	c.templates = templates
	c.mu.Unlock()
	return nil
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (models.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	return t, ok
}

// ForTarget returns the templates offered for a host entity class, sorted
// by id for stable listings.
func (c *Catalog) ForTarget(target models.Target) []models.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []models.Template{}
	for _, t := range c.templates {
		if t.MapTo == target {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded templates.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

func isTemplateFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// validateTemplate checks structural rules: required ids and titles, known
// target and field types, no duplicate field ids within a template.
func validateTemplate(t models.Template) error {
	err := validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.MapTo, validation.Required, validation.In(models.TargetOrder, models.TargetUser)),
		validation.Field(&t.Fields, validation.Required),
	)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if err := validation.ValidateStruct(&f,
			validation.Field(&f.ID, validation.Required),
			validation.Field(&f.Title, validation.Required),
			validation.Field(&f.Type, validation.Required, validation.In(models.FieldText, models.FieldSelect, models.FieldCheckbox)),
		); err != nil {
			return fmt.Errorf("field %q: %w", f.ID, err)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}
