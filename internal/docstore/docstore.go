// Package docstore is the document database client used by every
// data-access package. Documents are schemaless field maps grouped into
// named collections and addressed by string ids.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist. It is an
	// expected outcome, not an infrastructure failure.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("docstore: document already exists")

	// ErrInvalidOp is returned for malformed batch operations or queries.
	ErrInvalidOp = errors.New("docstore: invalid operation")

	// ErrPrecondition is returned when an update's Where filters no longer
	// match the stored document.
	ErrPrecondition = errors.New("docstore: precondition failed")
)

// Document is a single stored document.
type Document struct {
	ID   string
	Data map[string]any
}

// Direction is a sort direction for ordered queries.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Filter is an equality filter on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection. Without filters it
// returns the whole collection; without OrderBy the order is by id.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

// OpKind identifies a batch operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one write inside an atomic batch. Where applies to updates only:
// the update happens only while every filter matches the document, checked
// atomically with the write.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Data       map[string]any
	Where      []Filter
}

// SetOp replaces (or creates) a document.
func SetOp(collection, id string, data map[string]any) Op {
	return Op{Kind: OpSet, Collection: collection, ID: id, Data: data}
}

// CreateOp creates a document, failing the batch if it already exists.
func CreateOp(collection, id string, data map[string]any) Op {
	return Op{Kind: OpCreate, Collection: collection, ID: id, Data: data}
}

// UpdateOp merges fields into an existing document.
func UpdateOp(collection, id string, fields map[string]any) Op {
	return Op{Kind: OpUpdate, Collection: collection, ID: id, Data: fields}
}

// If returns o guarded by filters.
func (o Op) If(filters ...Filter) Op {
	o.Where = append(append([]Filter(nil), o.Where...), filters...)
	return o
}

// DeleteOp removes a document.
func DeleteOp(collection, id string) Op {
	return Op{Kind: OpDelete, Collection: collection, ID: id}
}

func (o Op) validate() error {
	if o.Collection == "" || o.ID == "" {
		return fmt.Errorf("%w: %s requires collection and id", ErrInvalidOp, o.Kind)
	}
	if o.Kind != OpDelete && o.Data == nil {
		return fmt.Errorf("%w: %s %s/%s has no data", ErrInvalidOp, o.Kind, o.Collection, o.ID)
	}
	if len(o.Where) > 0 && o.Kind != OpUpdate {
		return fmt.Errorf("%w: %s %s/%s cannot carry conditions", ErrInvalidOp, o.Kind, o.Collection, o.ID)
	}
	return nil
}

// Store is the document database contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Find runs a query.
	Find(ctx context.Context, q Query) ([]*Document, error)
	// Add stores data under a new generated id and returns the id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Create stores data under id, or returns ErrAlreadyExists.
	Create(ctx context.Context, collection, id string, data map[string]any) error
	// Set replaces the document under id, creating it if needed.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges fields into an existing document, or returns ErrNotFound.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Batch applies all ops atomically: either every op is applied or none.
	// An update whose Where filters do not match fails with ErrPrecondition.
	Batch(ctx context.Context, ops []Op) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases resources.
	Close(ctx context.Context) error
}

// ListAll returns every document in a collection.
func ListAll(ctx context.Context, s Store, collection string) ([]*Document, error) {
	return s.Find(ctx, Query{Collection: collection})
}

// ListByEquality returns the documents whose field equals value.
func ListByEquality(ctx context.Context, s Store, collection, field string, value any) ([]*Document, error) {
	return s.Find(ctx, Query{
		Collection: collection,
		Filters:    []Filter{{Field: field, Value: value}},
	})
}

// ListOrdered returns every document in a collection sorted by field.
func ListOrdered(ctx context.Context, s Store, collection, field string, dir Direction) ([]*Document, error) {
	return s.Find(ctx, Query{Collection: collection, OrderBy: field, Direction: dir})
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
