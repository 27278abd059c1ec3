// Package db is the data access shim: typed CRUD methods over a pgx pool.
// Every read is a live round-trip; there is no caching and no coordination
// beyond the database's own transactions. Failures surface as apierr.Data.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the slice of pgxpool.Pool the shim uses. It exists so the tests
// can substitute a mock pool.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool Conn
}

// NewDB initializes a new database connection pool.
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// New wraps an existing connection. Used by tests.
func New(conn Conn) *DB {
	return &DB{pool: conn}
}

// Close closes the database connection pool.
func (db *DB) Close() {
	if pool, ok := db.pool.(*pgxpool.Pool); ok {
		pool.Close()
	}
}
