// Package repository provides PostgreSQL persistence for users, leads,
// sessions, and audit entries.
//
// Queries are hand-written against a pgx connection pool. The one
// correctness-critical statement in the whole store is the conditional
// quota update in ConsumeQuota; everything else is plain CRUD.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx pool with typed queries.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
