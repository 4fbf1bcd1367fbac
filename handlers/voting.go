// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/nelsonterdoo1000/college-election-portal/auth"
	"github.com/nelsonterdoo1000/college-election-portal/ballot"
	"github.com/nelsonterdoo1000/college-election-portal/cliparse"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/middleware"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

type VotingHandler struct {
	db  *db.DB
	box *ballot.Box
	cfg cliparse.Config
}

func NewVotingHandler(conn *db.DB, box *ballot.Box, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: conn, box: box, cfg: cfg}
}

// CastVote handles POST /api/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "Invalid JSON")
		return
	}

	req.ElectionID = strings.TrimSpace(req.ElectionID)
	req.PositionID = strings.TrimSpace(req.PositionID)
	req.CandidateID = strings.TrimSpace(req.CandidateID)
	if req.ElectionID == "" || req.PositionID == "" || req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "election, position and candidate are required")
		return
	}

	receipt, err := h.box.CastVote(r.Context(), ballot.Request{
		ElectionID:  req.ElectionID,
		PositionID:  req.PositionID,
		CandidateID: req.CandidateID,
		VoterID:     auth.FromContext(r.Context()).ID,
		IPHash:      auth.HashIP(middleware.GetClientIP(r), h.cfg.IPSalt),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if receipt.Replaced {
		status = http.StatusOK
	}

	middleware.JSONResponse(w, status, models.CastVoteResponse{
		Vote:     receipt.Vote,
		Replaced: receipt.Replaced,
		Policy:   string(h.box.Policy()),
	})
}

// ListVotes handles GET /api/votes?election={id}
// Only the caller's own votes are returned.
func (h *VotingHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	electionID := strings.TrimSpace(r.URL.Query().Get("election"))
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "election query parameter is required")
		return
	}

	if _, err := lifecycle.Load(r.Context(), h.db, electionID, ""); err != nil {
		writeDomainError(w, err)
		return
	}

	voterID := auth.FromContext(r.Context()).ID
	current, err := h.box.VoterBallot(r.Context(), electionID, voterID)
	if err != nil {
		slog.Error("failed to query voter ballot", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "Database error")
		return
	}

	votes := make([]models.BallotVote, 0, len(current))
	for positionID, summary := range current {
		votes = append(votes, models.BallotVote{PositionID: positionID, VoteSummary: summary})
	}
	slices.SortFunc(votes, func(a, b models.BallotVote) int {
		return strings.Compare(a.PositionID, b.PositionID)
	})

	middleware.JSONResponse(w, http.StatusOK, models.VoterBallotResponse{ElectionID: electionID, Votes: votes})
}
