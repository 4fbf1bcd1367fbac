// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nelsonterdoo1000/college-election-portal/middleware"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{models.ErrNotFound, http.StatusNotFound, middleware.CodeNotFound},
	{models.ErrInvalidTransition, http.StatusBadRequest, middleware.CodeInvalidTransition},
	{models.ErrElectionNotOpen, http.StatusBadRequest, middleware.CodeElectionNotOpen},
	{models.ErrNotEligible, http.StatusBadRequest, middleware.CodeNotEligible},
	{models.ErrAlreadyVoted, http.StatusBadRequest, middleware.CodeAlreadyVoted},
	{models.ErrInvalidBallot, http.StatusBadRequest, middleware.CodeInvalidBallot},
	{models.ErrResultsNotAvailable, http.StatusBadRequest, middleware.CodeResultsNotAvailable},
	{models.ErrElectionLocked, http.StatusConflict, middleware.CodeElectionLocked},
	{models.ErrConcurrencyConflict, http.StatusConflict, middleware.CodeConcurrencyConflict},
}

// writeDomainError maps a core error to its HTTP status and error code.
// The client sees the sentinel message only; the wrapped context is logged.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status == http.StatusConflict {
				slog.Warn("request conflict", "error", err)
			}
			middleware.ErrorResponse(w, m.status, m.code, m.err.Error())
			return
		}
	}

	slog.Error("request failed", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "internal server error")
}
