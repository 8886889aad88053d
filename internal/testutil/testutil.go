// Package testutil provides shared test helpers for setting up stores and
// template catalogs.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/fehu/internal/catalog"
	"github.com/starford/fehu/internal/entitystore"
	"github.com/starford/fehu/internal/metastore"
)

// OrderTemplateYAML is a ready-made order-mapped template used across tests.
const OrderTemplateYAML = `id: size-template
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

// UserTemplateYAML is a ready-made user-mapped template used across tests.
const UserTemplateYAML = `id: contact-template
title: Contact details
mapto: user
fields:
  - id: phone
    title: Phone
    type: text
`

// TestEntityStore creates a temporary entity database that is cleaned up
// with the test.
func TestEntityStore(t *testing.T) *entitystore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "fehu-test-entities-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := entitystore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestMetaStore creates a temporary metadata database that is cleaned up
// with the test.
func TestMetaStore(t *testing.T) *metastore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "fehu-test-meta-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := metastore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestCatalog writes the given template YAML documents into a temp
// directory and loads a catalog from it.
func TestCatalog(t *testing.T, templates ...string) *catalog.Catalog {
	t.Helper()
	dir := t.TempDir()
	for i, tmpl := range templates {
		name := filepath.Join(dir, fmt.Sprintf("template-%d.yaml", i))
		if err := os.WriteFile(name, []byte(tmpl), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}
