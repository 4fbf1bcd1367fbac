// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend behind a DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a DATABASE_TYPE value.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case Postgres:
		return Postgres, nil
	case SQLite:
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q (want postgres or sqlite)", s)
}

// Querier is satisfied by *sql.DB and *sql.Tx so that lookups can run either
// standalone or inside the caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a connection pool that knows which dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the database and verifies the connection.
//
// SQLite has a single writer, so the pool is pinned to one connection and
// transactions take the write lock up front. That gives the same per-key
// serialization PostgreSQL gets from row locks and unique constraints.
func Open(ctx context.Context, dialect Dialect, url string) (*DB, error) {
	driver := string(dialect)
	dsn := url
	if dialect == SQLite {
		dsn = sqliteDSN(url)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &DB{DB: conn, Dialect: dialect}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// ShareLock is the row-lock suffix for reads that must block concurrent
// status transitions until the reading transaction ends.
func (d *DB) ShareLock() string {
	if d.Dialect == Postgres {
		return " FOR SHARE"
	}
	return ""
}

// UpdateLock is the row-lock suffix for read-then-update sequences.
func (d *DB) UpdateLock() string {
	if d.Dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// SnapshotTxOptions returns options for a read-only transaction that sees one
// consistent snapshot for all of its statements.
func (d *DB) SnapshotTxOptions() *sql.TxOptions {
	if d.Dialect == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	// A SQLite transaction already reads from one snapshot.
	return nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise, including when ctx is cancelled. Storage
// conflicts are reported as models.ErrConcurrencyConflict.
func (d *DB) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.BeginTx(ctx, opts)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return classify(err)
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
