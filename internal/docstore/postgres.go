package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alecgard/accolade/internal/ids"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents as JSONB rows in a single documents table
// (see migrations/). Times are stored as TimeLayout strings.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a store backed by the given connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPostgres connects to url and verifies the connection.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// PoolStats returns connection pool statistics for metrics.
func (p *Postgres) PoolStats() (total, idle, acquired int32) {
	st := p.pool.Stat()
	return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
}

// pgExecer is satisfied by both the pool and a transaction.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("getting %s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	data, err := decodeJSONB(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Data: data}, nil
}

// buildFindSQL renders q into SQL and its arguments.
func buildFindSQL(q Query) (string, []any, error) {
	if q.Collection == "" {
		return "", nil, fmt.Errorf("%w: query requires a collection", ErrInvalidOp)
	}

	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	if len(q.Filters) > 0 {
		raw, err := containsJSON(q.Filters)
		if err != nil {
			return "", nil, err
		}
		args = append(args, raw)
		fmt.Fprintf(&sb, ` AND data @> $%d::jsonb`, len(args))
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		dir := "ASC"
		if q.Direction == Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY data -> $%d %s, id ASC`, len(args), dir)
	} else {
		sb.WriteString(` ORDER BY id ASC`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args, nil
}

// containsJSON renders equality filters as a JSONB containment document.
func containsJSON(filters []Filter) ([]byte, error) {
	contains := make(map[string]any, len(filters))
	for _, f := range filters {
		contains[f.Field] = encodeForJSON(f.Value)
	}
	raw, err := json.Marshal(contains)
	if err != nil {
		return nil, fmt.Errorf("encoding filter: %w", err)
	}
	return raw, nil
}

func (p *Postgres) Find(ctx context.Context, q Query) ([]*Document, error) {
	query, args, err := buildFindSQL(q)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", q.Collection, err)
		}
		data, err := decodeJSONB(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, &Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", q.Collection, err)
	}
	return docs, nil
}

func (p *Postgres) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := ids.New()
	if err := p.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Create(ctx context.Context, collection, id string, data map[string]any) error {
	return applyPG(ctx, p.pool, CreateOp(collection, id, data))
}

func (p *Postgres) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return applyPG(ctx, p.pool, SetOp(collection, id, data))
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return applyPG(ctx, p.pool, UpdateOp(collection, id, fields))
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	return applyPG(ctx, p.pool, DeleteOp(collection, id))
}

// Batch applies ops inside one transaction.
func (p *Postgres) Batch(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		if err := op.validate(); err != nil {
			return err
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, op := range ops {
		if err := applyPG(ctx, tx, op); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func applyPG(ctx context.Context, db pgExecer, op Op) error {
	if err := op.validate(); err != nil {
		return err
	}

	var raw []byte
	if op.Kind != OpDelete {
		var err error
		raw, err = json.Marshal(encodeForJSON(op.Data))
		if err != nil {
			return fmt.Errorf("encoding %s/%s: %w", op.Collection, op.ID, err)
		}
	}

	switch op.Kind {
	case OpCreate:
		tag, err := db.Exec(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
			 ON CONFLICT (collection, id) DO NOTHING`,
			op.Collection, op.ID, raw)
		if err != nil {
			return fmt.Errorf("creating %s/%s: %w", op.Collection, op.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("creating %s/%s: %w", op.Collection, op.ID, ErrAlreadyExists)
		}
	case OpSet:
		_, err := db.Exec(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
			 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
			op.Collection, op.ID, raw)
		if err != nil {
			return fmt.Errorf("setting %s/%s: %w", op.Collection, op.ID, err)
		}
	case OpUpdate:
		query, args, err := buildUpdateSQL(op, raw)
		if err != nil {
			return err
		}
		tag, err := db.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, missOrPrecondition(ctx, db, op))
		}
	case OpDelete:
		_, err := db.Exec(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			op.Collection, op.ID)
		if err != nil {
			return fmt.Errorf("deleting %s/%s: %w", op.Collection, op.ID, err)
		}
	default:
		return fmt.Errorf("%w: unknown op %s", ErrInvalidOp, op.Kind)
	}
	return nil
}

// buildUpdateSQL renders a merge update, guarded by op.Where when set.
func buildUpdateSQL(op Op, patch []byte) (string, []any, error) {
	query := `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
			 WHERE collection = $1 AND id = $2`
	args := []any{op.Collection, op.ID, patch}
	if len(op.Where) == 0 {
		return query, args, nil
	}
	where, err := containsJSON(op.Where)
	if err != nil {
		return "", nil, err
	}
	return query + ` AND data @> $4::jsonb`, append(args, where), nil
}

// missOrPrecondition explains an update that touched no rows.
func missOrPrecondition(ctx context.Context, db pgExecer, op Op) error {
	if len(op.Where) == 0 {
		return ErrNotFound
	}
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		op.Collection, op.ID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrPrecondition
}

func decodeJSONB(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}
