package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
)

type failingStore struct {
	docstore.Store
	err error
}

func (f failingStore) Get(context.Context, string, string) (*docstore.Document, error) {
	return nil, f.err
}

func TestStore_GetDistinguishesMissingFromFailure(t *testing.T) {
	ctx := context.Background()

	s := NewStore(docstore.NewMemory())
	if _, err := s.Get(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	role, err := s.Role(ctx, "u2")
	if err != nil || role != "" {
		t.Fatalf("missing record should give empty role, got %q, %v", role, err)
	}

	down := errors.New("connection refused")
	broken := NewStore(failingStore{Store: docstore.NewMemory(), err: down})
	_, err = broken.Get(ctx, "u1")
	if errors.Is(err, ErrNotFound) {
		t.Fatal("infrastructure failure must not look like a missing record")
	}
	if !errors.Is(err, down) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if _, err := broken.Role(ctx, "u1"); err == nil {
		t.Fatal("Role should surface infrastructure failures")
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(docstore.NewMemory())

	rec, err := s.Create(ctx, &RoleRecord{UID: "u1", Name: "Ada", Email: "ada@example.com", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped")
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsAdmin() || got.Email != "ada@example.com" || got.UID != "u1" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestStore_CreateRejectsBadInput(t *testing.T) {
	s := NewStore(docstore.NewMemory())
	if _, err := s.Create(context.Background(), &RoleRecord{UID: "u1", Role: "superuser"}); err == nil {
		t.Error("expected error for unknown role")
	}
	if _, err := s.Create(context.Background(), &RoleRecord{Role: RoleEmployee}); err == nil {
		t.Error("expected error for missing uid")
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(docstore.NewMemory())
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }

	in := &RoleRecord{UID: "u1", Name: "Ada", Email: "ada@example.com", Role: RoleAdmin}
	if _, err := s.Upsert(ctx, in); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	s.now = func() time.Time { return first.Add(time.Hour) }
	in.Name = "Ada L."
	got, err := s.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if got.Name != "Ada L." {
		t.Errorf("expected updated name, got %q", got.Name)
	}
	if !got.CreatedAt.Equal(first) {
		t.Errorf("createdAt should be preserved, got %v", got.CreatedAt)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore(docstore.NewMemory())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, &RoleRecord{UID: uid, Role: RoleEmployee, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].UID != "c" || list[2].UID != "a" {
		t.Errorf("unexpected order: %v", list)
	}

	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIsAdminFailsClosed(t *testing.T) {
	var nilRec *RoleRecord
	if nilRec.IsAdmin() {
		t.Error("nil record must not be admin")
	}
	if (&RoleRecord{Role: "Admin"}).IsAdmin() {
		t.Error("role matching is exact")
	}
}
