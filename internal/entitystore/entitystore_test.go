package entitystore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "fehu-entities-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateGetUpdate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.TargetOrder, "Order #1042")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("no id generated")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Class != models.TargetOrder || got.Title != "Order #1042" {
		t.Errorf("got = %+v", got)
	}
	if len(got.Data) != 0 {
		t.Errorf("new entity data = %q, want empty", got.Data)
	}

	doc := []byte(`[{"id":"g1","title":"Shipping","attributes":[]}]`)
	if err := s.UpdateData(ctx, created.ID, doc); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	got, _ = s.Get(ctx, created.ID)
	if string(got.Data) != string(doc) {
		t.Errorf("data = %s, want %s", got.Data, doc)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateData(context.Background(), "missing", []byte("[]")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update err = %v, want ErrNotFound", err)
	}
}

func TestList_FiltersByClass(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, models.TargetOrder, "order"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, models.TargetUser, "user"); err != nil {
		t.Fatal(err)
	}

	orders, total, err := s.List(ctx, models.TargetOrder, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(orders) != 2 {
		t.Errorf("page len = %d, want 2", len(orders))
	}
	for _, e := range orders {
		if e.Class != models.TargetOrder {
			t.Errorf("wrong class in listing: %+v", e)
		}
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	e, _ := s.Create(ctx, models.TargetOrder, "doomed")
	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if err := s.Delete(ctx, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
