// Package nomination stores nominations and enforces their review rules.
package nomination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
)

// Collection holds nominations.
const Collection = "nominations"

var ErrNotFound = errors.New("nomination not found")

// FromData decodes a stored nomination.
func FromData(id string, data map[string]any) Nomination {
	n := Nomination{
		ID:                id,
		NomineeID:         docstore.String(data["nomineeId"]),
		NomineeName:       docstore.String(data["nomineeName"]),
		NomineeRole:       docstore.String(data["nomineeRole"]),
		NomineeDepartment: docstore.String(data["nomineeDepartment"]),
		NominatorID:       docstore.String(data["nominatorId"]),
		NominatorName:     docstore.String(data["nominatorName"]),
		Category:          Category(docstore.String(data["category"])),
		Reason:            docstore.String(data["reason"]),
		Impact:            docstore.String(data["impact"]),
		Status:            Status(docstore.String(data["status"])),
		Votes:             docstore.Int(data["votes"]),
	}
	n.CreatedAt, _ = docstore.Time(data["createdAt"])
	return n
}

// ToData encodes n for storage.
func ToData(n Nomination) map[string]any {
	return map[string]any{
		"nomineeId":         n.NomineeID,
		"nomineeName":       n.NomineeName,
		"nomineeRole":       n.NomineeRole,
		"nomineeDepartment": n.NomineeDepartment,
		"nominatorId":       n.NominatorID,
		"nominatorName":     n.NominatorName,
		"category":          string(n.Category),
		"reason":            n.Reason,
		"impact":            n.Impact,
		"status":            string(n.Status),
		"createdAt":         n.CreatedAt.UTC(),
		"votes":             n.Votes,
	}
}

// Store provides nomination persistence.
type Store struct {
	db  docstore.Store
	now func() time.Time
}

// NewStore creates a new nomination store backed by db.
func NewStore(db docstore.Store) *Store {
	return &Store{db: db, now: time.Now}
}

func decodeAll(docs []*docstore.Document) []Nomination {
	out := make([]Nomination, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromData(d.ID, d.Data))
	}
	return out
}

// List returns every nomination, newest first.
func (s *Store) List(ctx context.Context) ([]Nomination, error) {
	docs, err := docstore.ListOrdered(ctx, s.db, Collection, "createdAt", docstore.Desc)
	if err != nil {
		return nil, fmt.Errorf("listing nominations: %w", err)
	}
	return decodeAll(docs), nil
}

// ListByStatus returns the nominations in status, newest first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Nomination, error) {
	docs, err := s.db.Find(ctx, docstore.Query{
		Collection: Collection,
		Filters:    []docstore.Filter{{Field: "status", Value: string(status)}},
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s nominations: %w", status, err)
	}
	return decodeAll(docs), nil
}

// Get returns one nomination.
func (s *Store) Get(ctx context.Context, id string) (*Nomination, error) {
	doc, err := s.db.Get(ctx, Collection, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting nomination: %w", err)
	}
	n := FromData(doc.ID, doc.Data)
	return &n, nil
}

// Submit stores a new pending nomination with no votes.
func (s *Store) Submit(ctx context.Context, in SubmitInput) (*Nomination, error) {
	n := Nomination{
		NomineeID:         in.NomineeID,
		NomineeName:       in.NomineeName,
		NomineeRole:       in.NomineeRole,
		NomineeDepartment: in.NomineeDepartment,
		NominatorID:       in.NominatorID,
		NominatorName:     in.NominatorName,
		Category:          in.Category,
		Reason:            in.Reason,
		Impact:            in.Impact,
		Status:            StatusPending,
		CreatedAt:         s.now().UTC(),
	}
	id, err := s.db.Add(ctx, Collection, ToData(n))
	if err != nil {
		return nil, fmt.Errorf("submitting nomination: %w", err)
	}
	n.ID = id
	return &n, nil
}

// Transition moves the nomination from one status to another. The write
// only lands while the stored status is still from; otherwise it fails with
// ErrInvalidTransition.
func (s *Store) Transition(ctx context.Context, id string, from, to Status) error {
	op := docstore.UpdateOp(Collection, id, map[string]any{"status": string(to)}).
		If(docstore.Filter{Field: "status", Value: string(from)})
	err := s.db.Batch(ctx, []docstore.Op{op})
	switch {
	case err == nil:
		return nil
	case docstore.IsNotFound(err):
		return ErrNotFound
	case errors.Is(err, docstore.ErrPrecondition):
		return fmt.Errorf("%w: no longer %s", ErrInvalidTransition, from)
	}
	return fmt.Errorf("setting nomination status: %w", err)
}
