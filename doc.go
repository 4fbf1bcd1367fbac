// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the college election API server.

Administrators create elections with positions and candidates, enroll the
voters allowed to take part, and move each election through
pending → active → completed → archived. Enrolled voters cast one vote per
position while the election is active. Results are tallied from the stored
votes and pushed to websocket observers as they change.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... JWT_SECRET=... go run .

Or against a local SQLite file:

	go run . -t sqlite -d elections.db -jwt-secret dev-secret

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite file path
  - JWT_SECRET (-jwt-secret): HS256 key for bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres or sqlite (default: postgres)
  - RESUBMIT_POLICY (-resubmit): reject or replace (default: reject)
  - RESULTS_VISIBILITY (-results): live or final (default: live)
  - VOTE_MAX_RETRIES (-vote-retries): retries after a storage conflict (default: 2)
  - AUDIT_BUFFER (-audit-buffer): queued audit entries (default: 256)
  - LOG_LEVEL (-log-level): debug, info, warn or error (default: info)
  - IP_SALT (-ip-salt): salt for hashed client addresses in the audit trail

# Architecture

  - lifecycle: election state machine and transitions
  - eligibility: voter enrollment
  - ballot: vote casting under the resubmission policy
  - tally: result computation and visibility
  - broadcast: per-election live result fan-out
  - audit: asynchronous audit trail
  - handlers, router, middleware: HTTP surface
  - db: PostgreSQL and SQLite access
  - auth: bearer tokens and capabilities
  - cliparse: configuration
*/
package main
