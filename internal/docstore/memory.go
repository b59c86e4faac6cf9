package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alecgard/accolade/internal/ids"
)

// Memory is an in-process Store. Values are deep-copied on the way in and
// out so callers never share maps with the store.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]any)}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, ErrNotFound)
	}
	return &Document{ID: id, Data: cloneMap(data)}, nil
}

func (m *Memory) Find(ctx context.Context, q Query) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Collection == "" {
		return nil, fmt.Errorf("%w: query requires a collection", ErrInvalidOp)
	}

	m.mu.RLock()
	var docs []*Document
	for id, data := range m.collections[q.Collection] {
		if !matches(data, q.Filters) {
			continue
		}
		docs = append(docs, &Document{ID: id, Data: cloneMap(data)})
	}
	m.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if c != 0 {
				if q.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !equalValues(v, f.Value) {
			return false
		}
	}
	return true
}

func (m *Memory) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := ids.New()
	if err := m.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, data map[string]any) error {
	return m.Batch(ctx, []Op{CreateOp(collection, id, data)})
}

func (m *Memory) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return m.Batch(ctx, []Op{SetOp(collection, id, data)})
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return m.Batch(ctx, []Op{UpdateOp(collection, id, fields)})
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	return m.Batch(ctx, []Op{DeleteOp(collection, id)})
}

// Batch stages every op against a private view of the affected documents
// and commits only when all of them succeed, all under the write lock.
func (m *Memory) Batch(ctx context.Context, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type docKey struct{ collection, id string }
	// staged holds the batch's view of each touched document; nil means
	// deleted.
	staged := make(map[docKey]map[string]any)
	var order []docKey
	current := func(k docKey) (map[string]any, bool) {
		if data, ok := staged[k]; ok {
			return data, data != nil
		}
		data, ok := m.collections[k.collection][k.id]
		return data, ok
	}
	stage := func(k docKey, data map[string]any) {
		if _, ok := staged[k]; !ok {
			order = append(order, k)
		}
		staged[k] = data
	}

	for _, op := range ops {
		k := docKey{op.Collection, op.ID}
		data, present := current(k)
		switch op.Kind {
		case OpCreate:
			if present {
				return fmt.Errorf("creating %s/%s: %w", op.Collection, op.ID, ErrAlreadyExists)
			}
			stage(k, cloneMap(op.Data))
		case OpSet:
			stage(k, cloneMap(op.Data))
		case OpUpdate:
			if !present {
				return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, ErrNotFound)
			}
			if !matches(data, op.Where) {
				return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, ErrPrecondition)
			}
			next := cloneMap(data)
			for f, v := range op.Data {
				next[f] = cloneValue(v)
			}
			stage(k, next)
		case OpDelete:
			stage(k, nil)
		default:
			return fmt.Errorf("%w: unknown op %s", ErrInvalidOp, op.Kind)
		}
	}

	for _, k := range order {
		data := staged[k]
		if data == nil {
			delete(m.collections[k.collection], k.id)
			continue
		}
		coll, ok := m.collections[k.collection]
		if !ok {
			coll = make(map[string]map[string]any)
			m.collections[k.collection] = coll
		}
		coll[k.id] = data
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close(context.Context) error {
	return nil
}
