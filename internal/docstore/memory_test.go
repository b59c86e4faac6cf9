package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_GetMissing(t *testing.T) {
	s := NewMemory()
	_, err := s.Get(context.Background(), "users", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should report true")
	}
}

func TestMemory_CreateSetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Create(ctx, "users", "u1", map[string]any{"name": "Ada", "role": "admin"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, "users", "u1", map[string]any{"name": "Other"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if err := s.Update(ctx, "users", "u1", map[string]any{"role": "employee"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, err := s.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Data["name"] != "Ada" || doc.Data["role"] != "employee" {
		t.Errorf("unexpected data after update: %v", doc.Data)
	}

	if err := s.Update(ctx, "users", "missing", map[string]any{"x": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of missing doc, got %v", err)
	}

	if err := s.Set(ctx, "users", "u1", map[string]any{"name": "Replaced"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	doc, _ = s.Get(ctx, "users", "u1")
	if _, ok := doc.Data["role"]; ok {
		t.Error("Set should replace the whole document")
	}

	if err := s.Delete(ctx, "users", "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "users", "u1"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	if _, err := s.Get(ctx, "users", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemory_AddGeneratesIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a, err := s.Add(ctx, "employees", map[string]any{"name": "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Add(ctx, "employees", map[string]any{"name": "B"})
	if err != nil {
		t.Fatal(err)
	}
	if a == "" || b == "" || a == b {
		t.Fatalf("expected distinct ids, got %q and %q", a, b)
	}
}

func TestMemory_CopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	in := map[string]any{"employee": map[string]any{"name": "Ada"}}
	if err := s.Set(ctx, "leaderboard", "rank-1", in); err != nil {
		t.Fatal(err)
	}
	in["employee"].(map[string]any)["name"] = "mutated"

	doc, _ := s.Get(ctx, "leaderboard", "rank-1")
	if Map(doc.Data["employee"])["name"] != "Ada" {
		t.Error("store should not share nested maps with the caller")
	}
	Map(doc.Data["employee"])["name"] = "mutated again"
	doc2, _ := s.Get(ctx, "leaderboard", "rank-1")
	if Map(doc2.Data["employee"])["name"] != "Ada" {
		t.Error("returned documents should be copies")
	}
}

func TestMemory_FindFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		id     string
		status string
		at     time.Time
	}{
		{"n1", "pending", base},
		{"n2", "approved", base.Add(time.Hour)},
		{"n3", "pending", base.Add(2 * time.Hour)},
		{"n4", "pending", base.Add(-time.Hour)},
	}
	for _, d := range seed {
		if err := s.Set(ctx, "nominations", d.id, map[string]any{"status": d.status, "createdAt": d.at}); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := s.Find(ctx, Query{
		Collection: "nominations",
		Filters:    []Filter{{Field: "status", Value: "pending"}},
		OrderBy:    "createdAt",
		Direction:  Desc,
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []string{"n3", "n1", "n4"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d docs, got %d", len(want), len(docs))
	}
	for i, id := range want {
		if docs[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, docs[i].ID, id)
		}
	}

	limited, err := s.Find(ctx, Query{Collection: "nominations", OrderBy: "createdAt", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].ID != "n4" {
		t.Errorf("unexpected limited result: %v", limited)
	}
}

func TestMemory_FindNumericEquality(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "leaderboard", "a", map[string]any{"rank": 1})
	_ = s.Set(ctx, "leaderboard", "b", map[string]any{"rank": float64(2)})

	docs, err := ListByEquality(ctx, s, "leaderboard", "rank", float64(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Fatalf("expected int 1 to equal float 1, got %v", docs)
	}

	ordered, err := ListOrdered(ctx, s, "leaderboard", "rank", Desc)
	if err != nil {
		t.Fatal(err)
	}
	if ordered[0].ID != "b" {
		t.Errorf("expected b first in desc order, got %s", ordered[0].ID)
	}
}

func TestMemory_FindRequiresCollection(t *testing.T) {
	_, err := NewMemory().Find(context.Background(), Query{})
	if !errors.Is(err, ErrInvalidOp) {
		t.Fatalf("expected ErrInvalidOp, got %v", err)
	}
}

func TestMemory_BatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "accountEmails", "ada@example.com", map[string]any{"uid": "u1"})

	err := s.Batch(ctx, []Op{
		SetOp("accounts", "u2", map[string]any{"email": "ada@example.com"}),
		CreateOp("accountEmails", "ada@example.com", map[string]any{"uid": "u2"}),
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.Get(ctx, "accounts", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatal("failed batch must not apply earlier ops")
	}

	err = s.Batch(ctx, []Op{
		SetOp("employees", "e1", map[string]any{"name": "A"}),
		UpdateOp("employees", "e1", map[string]any{"active": false}),
		SetOp("meta", "stats", map[string]any{"totalNominations": 3}),
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	doc, err := s.Get(ctx, "employees", "e1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Data["active"] != false {
		t.Errorf("update within batch should see the earlier set, got %v", doc.Data)
	}
}

func TestMemory_BatchRejectsInvalidOps(t *testing.T) {
	err := NewMemory().Batch(context.Background(), []Op{{Kind: OpSet, Collection: "x"}})
	if !errors.Is(err, ErrInvalidOp) {
		t.Fatalf("expected ErrInvalidOp, got %v", err)
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Get(ctx, "users", "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemory_ConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "nominations", "n1", map[string]any{"status": "pending", "votes": 0})
	pending := Filter{Field: "status", Value: "pending"}

	tests := []struct {
		name    string
		op      Op
		wantErr error
	}{
		{"matching condition", UpdateOp("nominations", "n1", map[string]any{"status": "approved"}).If(pending), nil},
		{"condition no longer holds", UpdateOp("nominations", "n1", map[string]any{"status": "rejected"}).If(pending), ErrPrecondition},
		{"missing document", UpdateOp("nominations", "n9", map[string]any{"status": "approved"}).If(pending), ErrNotFound},
		{"condition on a set", SetOp("nominations", "n1", map[string]any{}).If(pending), ErrInvalidOp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Batch(ctx, []Op{tt.op})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Batch: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	doc, err := s.Get(ctx, "nominations", "n1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Data["status"] != "approved" {
		t.Errorf("expected the first update to stick, got %v", doc.Data["status"])
	}
}

func TestMemory_ConditionSeesEarlierOpsInBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "nominations", "n1", map[string]any{"status": "pending"})
	pending := Filter{Field: "status", Value: "pending"}

	err := s.Batch(ctx, []Op{
		UpdateOp("nominations", "n1", map[string]any{"status": "approved"}).If(pending),
		UpdateOp("nominations", "n1", map[string]any{"status": "rejected"}).If(pending),
	})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	doc, _ := s.Get(ctx, "nominations", "n1")
	if doc.Data["status"] != "pending" {
		t.Errorf("failed batch must leave the document alone, got %v", doc.Data["status"])
	}
}
