// Package employee is the data access layer for the employee directory.
package employee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
)

// Collection holds directory entries.
const Collection = "employees"

var ErrNotFound = errors.New("employee not found")

// FromData decodes a stored employee. It is also used for the employee
// snapshots embedded in leaderboard and winner documents. A missing
// active flag means active.
func FromData(id string, data map[string]any) Employee {
	e := Employee{
		ID:         id,
		Name:       docstore.String(data["name"]),
		Role:       docstore.String(data["role"]),
		Department: docstore.String(data["department"]),
		Avatar:     docstore.String(data["avatar"]),
		Email:      docstore.String(data["email"]),
		Active:     docstore.Bool(data["active"], true),
	}
	if nested := docstore.String(data["id"]); nested != "" && id == "" {
		e.ID = nested
	}
	e.JoinedDate, _ = docstore.Time(data["joinedDate"])
	return e
}

// ToData encodes e for storage. The id is included only when withID is
// set, for embedded snapshots.
func ToData(e Employee, withID bool) map[string]any {
	data := map[string]any{
		"name":       e.Name,
		"role":       e.Role,
		"department": e.Department,
		"joinedDate": e.JoinedDate.UTC(),
		"active":     e.Active,
	}
	if e.Avatar != "" {
		data["avatar"] = e.Avatar
	}
	if e.Email != "" {
		data["email"] = e.Email
	}
	if withID {
		data["id"] = e.ID
	}
	return data
}

// Store provides directory operations.
type Store struct {
	db  docstore.Store
	now func() time.Time
}

// NewStore creates a new employee store backed by db.
func NewStore(db docstore.Store) *Store {
	return &Store{db: db, now: time.Now}
}

func decodeAll(docs []*docstore.Document) []Employee {
	out := make([]Employee, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromData(d.ID, d.Data))
	}
	return out
}

// List returns every employee ordered by name.
func (s *Store) List(ctx context.Context) ([]Employee, error) {
	docs, err := docstore.ListOrdered(ctx, s.db, Collection, "name", docstore.Asc)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return decodeAll(docs), nil
}

// ListActive returns the active employees. Entries without an active flag
// count as active, so the filter runs after decoding rather than as a
// store equality query.
func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, e := range all {
		if e.Active {
			active = append(active, e)
		}
	}
	return active, nil
}

// Get returns one employee.
func (s *Store) Get(ctx context.Context, id string) (*Employee, error) {
	doc, err := s.db.Get(ctx, Collection, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	e := FromData(doc.ID, doc.Data)
	return &e, nil
}

func (s *Store) newEmployee(in CreateInput) Employee {
	joined := in.JoinedDate
	if joined.IsZero() {
		joined = s.now()
	}
	return Employee{
		Name:       in.Name,
		Role:       in.Role,
		Department: in.Department,
		Avatar:     in.Avatar,
		Email:      in.Email,
		JoinedDate: joined.UTC(),
		Active:     true,
	}
}

// Create adds an active employee under a generated id.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Employee, error) {
	e := s.newEmployee(in)
	id, err := s.db.Add(ctx, Collection, ToData(e, false))
	if err != nil {
		return nil, fmt.Errorf("creating employee: %w", err)
	}
	e.ID = id
	return &e, nil
}

// Update applies a partial update and returns the result.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (*Employee, error) {
	fields := in.fields()
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}
	if err := s.db.Update(ctx, Collection, id, fields); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating employee: %w", err)
	}
	return s.Get(ctx, id)
}

// Deactivate marks the employee inactive.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateInput{Active: &inactive})
	return err
}

// Delete removes the employee.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	return nil
}
