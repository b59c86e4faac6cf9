package nomination

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTransition is returned when a review would move a
	// nomination out of anything but pending.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidCategory is returned for an unknown category.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidStatus is returned for an unknown status filter.
	ErrInvalidStatus = errors.New("invalid status")
)

// Service applies the nomination rules on top of Store.
type Service struct {
	store *Store
}

// NewService creates a nomination service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// CanTransition reports whether a reviewer may move a nomination from
// one status to another. Only pending nominations may be reviewed, and
// only into approved or rejected.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// Submit validates and stores a nomination.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Nomination, error) {
	in.NomineeID = strings.TrimSpace(in.NomineeID)
	in.Reason = strings.TrimSpace(in.Reason)
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	return s.store.Submit(ctx, in)
}

// Review moves a pending nomination to approved or rejected. The status
// write is conditional on the nomination still being pending, so of two
// concurrent reviewers exactly one succeeds.
func (s *Service) Review(ctx context.Context, id string, to Status) (*Nomination, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(n.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, n.Status, to)
	}
	if err := s.store.Transition(ctx, id, n.Status, to); err != nil {
		return nil, err
	}
	n.Status = to
	return n, nil
}

// Approve approves a pending nomination.
func (s *Service) Approve(ctx context.Context, id string) (*Nomination, error) {
	return s.Review(ctx, id, StatusApproved)
}

// Reject rejects a pending nomination.
func (s *Service) Reject(ctx context.Context, id string) (*Nomination, error) {
	return s.Review(ctx, id, StatusRejected)
}

// List returns nominations, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]Nomination, error) {
	if status == "" {
		return s.store.List(ctx)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.ListByStatus(ctx, status)
}
