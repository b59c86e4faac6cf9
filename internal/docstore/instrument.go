package docstore

import (
	"context"
	"time"
)

// Observer receives the outcome of every store operation.
type Observer interface {
	ObserveStoreOp(backend, op string, seconds float64, err error)
}

type instrumented struct {
	next    Store
	backend string
	obs     Observer
}

// Instrument wraps s so that every call is reported to obs.
func Instrument(s Store, backend string, obs Observer) Store {
	if obs == nil {
		return s
	}
	return &instrumented{next: s, backend: backend, obs: obs}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.obs.ObserveStoreOp(i.backend, op, time.Since(start).Seconds(), err)
}

func (i *instrumented) Get(ctx context.Context, collection, id string) (doc *Document, err error) {
	defer func(start time.Time) { i.observe("get", start, notFoundIsOK(err)) }(time.Now())
	return i.next.Get(ctx, collection, id)
}

func (i *instrumented) Find(ctx context.Context, q Query) (docs []*Document, err error) {
	defer func(start time.Time) { i.observe("find", start, err) }(time.Now())
	return i.next.Find(ctx, q)
}

func (i *instrumented) Add(ctx context.Context, collection string, data map[string]any) (id string, err error) {
	defer func(start time.Time) { i.observe("add", start, err) }(time.Now())
	return i.next.Add(ctx, collection, data)
}

func (i *instrumented) Create(ctx context.Context, collection, id string, data map[string]any) (err error) {
	defer func(start time.Time) { i.observe("create", start, err) }(time.Now())
	return i.next.Create(ctx, collection, id, data)
}

func (i *instrumented) Set(ctx context.Context, collection, id string, data map[string]any) (err error) {
	defer func(start time.Time) { i.observe("set", start, err) }(time.Now())
	return i.next.Set(ctx, collection, id, data)
}

func (i *instrumented) Update(ctx context.Context, collection, id string, fields map[string]any) (err error) {
	defer func(start time.Time) { i.observe("update", start, err) }(time.Now())
	return i.next.Update(ctx, collection, id, fields)
}

func (i *instrumented) Delete(ctx context.Context, collection, id string) (err error) {
	defer func(start time.Time) { i.observe("delete", start, err) }(time.Now())
	return i.next.Delete(ctx, collection, id)
}

func (i *instrumented) Batch(ctx context.Context, ops []Op) (err error) {
	defer func(start time.Time) { i.observe("batch", start, err) }(time.Now())
	return i.next.Batch(ctx, ops)
}

func (i *instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}

func (i *instrumented) Close(ctx context.Context) error {
	return i.next.Close(ctx)
}

// A missing document is a normal lookup result, not a failed operation.
func notFoundIsOK(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}
