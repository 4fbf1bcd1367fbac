// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid election status transition")
	ErrElectionNotOpen     = errors.New("election is not open for voting")
	ErrNotEligible         = errors.New("voter is not eligible for this election")
	ErrAlreadyVoted        = errors.New("you have already voted for this position")
	ErrInvalidBallot       = errors.New("candidate does not belong to this position and election")
	ErrConcurrencyConflict = errors.New("concurrent update conflict, please retry")
	ErrResultsNotAvailable = errors.New("results are not available for this election")
	ErrElectionLocked      = errors.New("election can no longer be edited")
)
