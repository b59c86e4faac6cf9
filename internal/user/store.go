package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
)

// Collection holds Role Records keyed by subject id.
const Collection = "users"

// ErrNotFound is returned when no Role Record exists for a subject. It is
// an authorization outcome, not a failure of the store.
var ErrNotFound = errors.New("role record not found")

// Store reads and writes Role Records.
type Store struct {
	db  docstore.Store
	now func() time.Time
}

// NewStore creates a new Role Record store backed by db.
func NewStore(db docstore.Store) *Store {
	return &Store{db: db, now: time.Now}
}

func toRecord(doc *docstore.Document) *RoleRecord {
	r := &RoleRecord{
		UID:   doc.ID,
		Name:  docstore.String(doc.Data["name"]),
		Email: docstore.String(doc.Data["email"]),
		Role:  docstore.String(doc.Data["role"]),
	}
	if uid := docstore.String(doc.Data["uid"]); uid != "" {
		r.UID = uid
	}
	r.CreatedAt, _ = docstore.Time(doc.Data["createdAt"])
	return r
}

func toData(r *RoleRecord) map[string]any {
	return map[string]any{
		"uid":       r.UID,
		"name":      r.Name,
		"email":     r.Email,
		"role":      r.Role,
		"createdAt": r.CreatedAt,
	}
}

// Get returns the Role Record for uid. A missing record yields ErrNotFound;
// any other error means the store could not be read.
func (s *Store) Get(ctx context.Context, uid string) (*RoleRecord, error) {
	if uid == "" {
		return nil, ErrNotFound
	}
	doc, err := s.db.Get(ctx, Collection, uid)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting role record: %w", err)
	}
	return toRecord(doc), nil
}

// Role returns the role for uid, or "" when no record exists.
func (s *Store) Role(ctx context.Context, uid string) (string, error) {
	r, err := s.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return r.Role, nil
}

func (s *Store) prepare(r *RoleRecord) (*RoleRecord, error) {
	if r.UID == "" {
		return nil, errors.New("role record requires uid")
	}
	if !ValidRole(r.Role) {
		return nil, fmt.Errorf("invalid role %q", r.Role)
	}
	out := *r
	if out.CreatedAt.IsZero() {
		out.CreatedAt = s.now().UTC()
	}
	return &out, nil
}

// CreateOp returns the batch operation that writes r, for callers that
// commit it together with other documents.
func (s *Store) CreateOp(r *RoleRecord) (docstore.Op, error) {
	rec, err := s.prepare(r)
	if err != nil {
		return docstore.Op{}, err
	}
	return docstore.SetOp(Collection, rec.UID, toData(rec)), nil
}

// Create writes a new Role Record, replacing any record under the same uid.
func (s *Store) Create(ctx context.Context, r *RoleRecord) (*RoleRecord, error) {
	rec, err := s.prepare(r)
	if err != nil {
		return nil, err
	}
	if err := s.db.Set(ctx, Collection, rec.UID, toData(rec)); err != nil {
		return nil, fmt.Errorf("creating role record: %w", err)
	}
	return rec, nil
}

// Upsert updates name, email and role of an existing record, or creates it.
// CreatedAt of an existing record is preserved, so repeated calls are
// idempotent.
func (s *Store) Upsert(ctx context.Context, r *RoleRecord) (*RoleRecord, error) {
	if !ValidRole(r.Role) {
		return nil, fmt.Errorf("invalid role %q", r.Role)
	}
	err := s.db.Update(ctx, Collection, r.UID, map[string]any{
		"uid":   r.UID,
		"name":  r.Name,
		"email": r.Email,
		"role":  r.Role,
	})
	if err == nil {
		return s.Get(ctx, r.UID)
	}
	if !docstore.IsNotFound(err) {
		return nil, fmt.Errorf("updating role record: %w", err)
	}
	return s.Create(ctx, r)
}

// Delete removes the record for uid.
func (s *Store) Delete(ctx context.Context, uid string) error {
	if err := s.db.Delete(ctx, Collection, uid); err != nil {
		return fmt.Errorf("deleting role record: %w", err)
	}
	return nil
}

// List returns every Role Record, newest first.
func (s *Store) List(ctx context.Context) ([]*RoleRecord, error) {
	docs, err := docstore.ListOrdered(ctx, s.db, Collection, "createdAt", docstore.Desc)
	if err != nil {
		return nil, fmt.Errorf("listing role records: %w", err)
	}
	out := make([]*RoleRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, toRecord(d))
	}
	return out, nil
}
