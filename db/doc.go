// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the connection pool, the schema, and the transaction helpers.

# Connecting

Open accepts either backend:

	conn, err := db.Open(ctx, db.Postgres, "postgres://...")
	conn, err := db.Open(ctx, db.SQLite, "/var/lib/elections.db")

SQLite connections are pinned to a single writer with busy_timeout and
immediate transactions, and foreign keys are switched on.

# Schema Creation

	if err := conn.CreateSchema(ctx); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: metadata, voting window and lifecycle status
  - election_position: offices on the ballot, unique title per election
  - candidate: nominees per position
  - eligible_voter: enrollment and has_voted flag per (election, voter)
  - vote: one row per (election, position, voter)

# Relationships

	election 1──* election_position 1──* candidate
	election 1──* eligible_voter
	election 1──* vote *──1 candidate

All foreign keys use ON DELETE CASCADE.

# Transactions

WithTx commits on success and rolls back on any error. Unique violations,
serialization failures, deadlocks and SQLITE_BUSY come back wrapped in
models.ErrConcurrencyConflict so callers can retry with errors.Is.

ShareLock and UpdateLock return the PostgreSQL row-lock suffix, or nothing on
SQLite where the write lock already serializes transactions.
*/
package db
