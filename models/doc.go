// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and error types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, start_datetime, end_datetime
  - AddPositionRequest: title, description, order
  - AddCandidateRequest: name, bio, order
  - EnrollVotersRequest: voter_ids
  - CastVoteRequest: election, position, candidate

# Response Types

  - StatusResponse: status after a lifecycle transition
  - CastVoteResponse: vote, replaced, policy
  - ElectionResults: per-position, per-candidate vote counts
  - ElectionDetail: election with the caller's ballot status
  - VoterBallotResponse: the caller's votes in one election
  - LiveFrame: one websocket message on the live results channel
  - ErrorResponse: error, code

# Errors

Sentinel errors shared by the core packages and mapped to HTTP statuses in
package handlers:

	ErrNotFound, ErrInvalidTransition, ErrElectionNotOpen, ErrNotEligible,
	ErrAlreadyVoted, ErrInvalidBallot, ErrConcurrencyConflict,
	ErrResultsNotAvailable, ErrElectionLocked

Callers wrap them with fmt.Errorf("...: %w", err) and match with errors.Is.

# Constants

Election status values:

	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
*/
package models
