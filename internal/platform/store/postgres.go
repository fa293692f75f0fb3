package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a durable collection. Records of one kind share the records
// table and are stored as JSONB; the per-kind counter lives in
// record_sequences and is advanced inside the insert transaction, so
// concurrent inserts serialize on the counter row.
type Postgres[T any] struct {
	pool *pgxpool.Pool
	kind string
	seq  Sequence
}

// NewPostgres creates a collection for records of the given kind.
func NewPostgres[T any](pool *pgxpool.Pool, kind string, seq Sequence) *Postgres[T] {
	return &Postgres[T]{pool: pool, kind: kind, seq: seq}
}

func (p *Postgres[T]) Insert(ctx context.Context, build func(id string) (T, error)) (T, error) {
	var zero T

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return zero, classify("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var n int
	err = tx.QueryRow(ctx, `
		INSERT INTO record_sequences (kind, last_value) VALUES ($1, 1)
		ON CONFLICT (kind) DO UPDATE SET last_value = record_sequences.last_value + 1
		RETURNING last_value`, p.kind).Scan(&n)
	if err != nil {
		return zero, classify("advance sequence", err)
	}

	id := p.seq.Format(n)
	rec, err := build(id)
	if err != nil {
		return zero, err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("encode %s %s: %w", p.kind, id, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO records (kind, id, seq, body) VALUES ($1, $2, $3, $4)`,
		p.kind, id, n, body,
	); err != nil {
		return zero, classify("insert record", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, classify("commit", err)
	}
	return rec, nil
}

func (p *Postgres[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var body []byte
	err := p.pool.QueryRow(ctx,
		`SELECT body FROM records WHERE kind = $1 AND id = $2`, p.kind, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, classify("get record", err)
	}
	var rec T
	if err := json.Unmarshal(body, &rec); err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", p.kind, id, err)
	}
	return rec, nil
}

func (p *Postgres[T]) List(ctx context.Context) ([]T, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT body FROM records WHERE kind = $1 ORDER BY seq`, p.kind)
	if err != nil {
		return nil, classify("list records", err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.kind, err)
		}
		var rec T
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p.kind, err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate records", err)
	}
	return items, nil
}

func (p *Postgres[T]) Len(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM records WHERE kind = $1`, p.kind,
	).Scan(&n); err != nil {
		return 0, classify("count records", err)
	}
	return n, nil
}

// classify wraps connection-level failures with ErrUnavailable so callers
// can retry them.
func classify(op string, err error) error {
	var connErr *pgconn.ConnectError
	if pgconn.SafeToRetry(err) || errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
