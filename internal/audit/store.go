// Package audit persists the admin action trail.
package audit

import (
	"context"
	"fmt"

	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/ids"
)

// Collection holds audit entries.
const Collection = "auditLog"

// Store writes and reads audit entries.
type Store struct {
	db docstore.Store
}

// NewStore creates a new Store backed by db.
func NewStore(db docstore.Store) *Store {
	return &Store{db: db}
}

func toData(e Entry) map[string]any {
	data := map[string]any{
		"action":       e.Action,
		"resourceType": e.ResourceType,
		"resourceId":   e.ResourceID,
		"actorId":      e.ActorID,
		"actorEmail":   e.ActorEmail,
		"actorRole":    e.ActorRole,
		"ip":           e.IP,
		"requestId":    e.RequestID,
		"timestamp":    e.Timestamp.UTC(),
	}
	if len(e.Detail) > 0 {
		data["detail"] = e.Detail
	}
	return data
}

func fromDoc(doc *docstore.Document) Entry {
	e := Entry{
		ID:           doc.ID,
		Action:       docstore.String(doc.Data["action"]),
		ResourceType: docstore.String(doc.Data["resourceType"]),
		ResourceID:   docstore.String(doc.Data["resourceId"]),
		ActorID:      docstore.String(doc.Data["actorId"]),
		ActorEmail:   docstore.String(doc.Data["actorEmail"]),
		ActorRole:    docstore.String(doc.Data["actorRole"]),
		IP:           docstore.String(doc.Data["ip"]),
		RequestID:    docstore.String(doc.Data["requestId"]),
		Detail:       docstore.Map(doc.Data["detail"]),
	}
	e.Timestamp, _ = docstore.Time(doc.Data["timestamp"])
	return e
}

// BatchInsert writes entries in one batch. It is a no-op when entries is
// empty.
func (s *Store) BatchInsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ops := make([]docstore.Op, 0, len(entries))
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = ids.New()
		}
		ops = append(ops, docstore.CreateOp(Collection, id, toData(e)))
	}
	if err := s.db.Batch(ctx, ops); err != nil {
		return fmt.Errorf("batch inserting audit entries: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	docs, err := s.db.Find(ctx, docstore.Query{
		Collection: Collection,
		OrderBy:    "timestamp",
		Direction:  docstore.Desc,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}
