package nomination

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
)

func newTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store := NewStore(docstore.NewMemory())
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	store.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return NewService(store), store
}

func submit(t *testing.T, svc *Service, nominee string) *Nomination {
	t.Helper()
	n, err := svc.Submit(context.Background(), SubmitInput{
		NomineeID:   nominee,
		NomineeName: "Nominee " + nominee,
		NominatorID: "nominator",
		Category:    CategoryTeamwork,
		Reason:      "Carried the release",
		Impact:      "Shipped on time",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return n
}

func TestSubmit_StartsPendingWithNoVotes(t *testing.T) {
	svc, store := newTestService(t)
	n := submit(t, svc, "e1")

	got, err := store.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPending || got.Votes != 0 || got.CreatedAt.IsZero() {
		t.Errorf("unexpected stored nomination: %+v", got)
	}
	if got.Category != CategoryTeamwork || got.Reason != "Carried the release" {
		t.Errorf("fields not persisted: %+v", got)
	}
}

func TestSubmit_RejectsUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Submit(context.Background(), SubmitInput{NomineeID: "e1", Category: "bravery", Reason: "x"})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusAwarded, false},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusAwarded, StatusApproved, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReview_IsOneWay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	n := submit(t, svc, "e1")

	approved, err := svc.Approve(ctx, n.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}

	if _, err := svc.Reject(ctx, n.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Approve(ctx, n.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-approving should fail, got %v", err)
	}
	if _, err := svc.Approve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// lockstepStore holds every nomination read until the expected number of
// readers have all loaded the document.
type lockstepStore struct {
	*docstore.Memory
	readers sync.WaitGroup
}

func (l *lockstepStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	doc, err := l.Memory.Get(ctx, collection, id)
	if collection == Collection {
		l.readers.Done()
		l.readers.Wait()
	}
	return doc, err
}

func TestReview_ConcurrentReviewersOnlyOneWins(t *testing.T) {
	db := &lockstepStore{Memory: docstore.NewMemory()}
	store := NewStore(db)
	svc := NewService(store)
	ctx := context.Background()
	n := submit(t, svc, "e1")

	// Both reviewers see the nomination as pending before either writes.
	db.readers.Add(2)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, review := range []func(context.Context, string) (*Nomination, error){svc.Approve, svc.Reject} {
		wg.Add(1)
		go func(i int, review func(context.Context, string) (*Nomination, error)) {
			defer wg.Done()
			_, errs[i] = review(ctx, n.ID)
		}(i, review)
	}
	wg.Wait()

	var won Status
	switch {
	case errs[0] == nil && errors.Is(errs[1], ErrInvalidTransition):
		won = StatusApproved
	case errs[1] == nil && errors.Is(errs[0], ErrInvalidTransition):
		won = StatusRejected
	default:
		t.Fatalf("expected exactly one review to succeed, got approve=%v reject=%v", errs[0], errs[1])
	}

	got, err := NewStore(db.Memory).Get(ctx, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != won {
		t.Errorf("stored status %s, want the winning review %s", got.Status, won)
	}
}

func TestList_OrderAndFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first := submit(t, svc, "e1")
	second := submit(t, svc, "e2")
	third := submit(t, svc, "e3")
	if _, err := svc.Reject(ctx, second.ID); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	pending, err := svc.List(ctx, StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != third.ID || pending[1].ID != first.ID {
		t.Fatalf("unexpected pending list: %+v", pending)
	}

	if _, err := svc.List(ctx, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestLabels(t *testing.T) {
	if CategoryAboveAndBeyond.Label() != "Above & Beyond" {
		t.Errorf("unexpected label %q", CategoryAboveAndBeyond.Label())
	}
	if StatusPending.Label() != "Pending Review" {
		t.Errorf("unexpected label %q", StatusPending.Label())
	}
	if len(Categories) != 5 {
		t.Errorf("expected 5 categories, got %d", len(Categories))
	}
}
