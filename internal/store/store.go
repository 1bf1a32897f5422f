// Package store composes the SQL behind every API read and the card writes.
// Postgres renders the JSON (json_agg / row_to_json); the store hands the
// bytes back untouched so handlers can pass them through.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/StevenLove/fantazy/internal/db"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store runs queries against an injected pool.
type Store struct {
	db    db.Querier
	newID func() uuid.UUID
}

// New creates a Store over q (normally the API's *pgxpool.Pool).
func New(q db.Querier) *Store {
	return &Store{db: q, newID: uuid.New}
}

// Ping verifies the database answers the health statement.
func (s *Store) Ping(ctx context.Context) error {
	var n int
	return s.db.QueryRow(ctx, db.StmtHealthCheck).Scan(&n)
}

// queryJSON scans a single JSON column. No rows maps to ErrNotFound; a SQL
// NULL maps to nil bytes.
func (s *Store) queryJSON(ctx context.Context, sql string, args ...any) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, sql, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// queryOptionalJSON is queryJSON where absence is a valid answer: it returns
// nil bytes, which encode as JSON null.
func (s *Store) queryOptionalJSON(ctx context.Context, sql string, args ...any) ([]byte, error) {
	raw, err := s.queryJSON(ctx, sql, args...)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

// queryJSONList is queryJSON for json_agg queries, which always return a row.
func (s *Store) queryJSONList(ctx context.Context, sql string, args ...any) ([]byte, error) {
	raw, err := s.queryJSON(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []byte("[]"), nil
	}
	return raw, nil
}

// placeholders accumulates positional arguments for a composed query.
type placeholders struct {
	args []any
}

// next appends v and returns its "$N" marker.
func (p *placeholders) next(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}
