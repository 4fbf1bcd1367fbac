// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the election API.

# Handler Types

Each handler is a struct over the core services it needs:

  - ElectionHandler: election lifecycle, ballot setup, enrollment, listing, ballot view
  - VotingHandler: vote casting and the caller's own votes
  - ResultsHandler: published results and the live results websocket

	electionHandler := handlers.NewElectionHandler(conn, manager, ledger, box, auditSink)

Handlers read the caller from auth.FromContext; the router is responsible for
authentication and capability checks. Voters only see elections they are
enrolled in: ListElections filters by enrollment and GetElection answers 404.

# Election Lifecycle

Elections progress through four states: pending → active → completed → archived

	POST /api/elections/{id}/start   → StartElection
	POST /api/elections/{id}/end     → EndElection
	POST /api/elections/{id}/archive → ArchiveElection

Positions and candidates can be added while an election is pending or active.

# Errors

Core errors are mapped in one place (errors.go) to a status and code:

	not_found                                   404
	invalid_transition, election_not_open,
	not_eligible, already_voted,
	invalid_ballot, results_not_available       400
	election_locked, concurrency_conflict,
	duplicate                                   409

Anything else is a 500 with a generic message.

# Live Results

GET /ws/public/elections/{id}/live-results upgrades to a websocket after
checking the election exists. Each message is a models.LiveFrame: type "results" with the
current tally, or type "unavailable" while results are hidden.
*/
package handlers
