// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nelsonterdoo1000/college-election-portal/audit"
	"github.com/nelsonterdoo1000/college-election-portal/auth"
	"github.com/nelsonterdoo1000/college-election-portal/ballot"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/eligibility"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/middleware"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

var errDuplicatePosition = errors.New("a position with this title already exists in the election")

type ElectionHandler struct {
	db        *db.DB
	lifecycle *lifecycle.Manager
	ledger    *eligibility.Ledger
	box       *ballot.Box
	audit     audit.Sink
}

func NewElectionHandler(conn *db.DB, manager *lifecycle.Manager, ledger *eligibility.Ledger, box *ballot.Box, sink audit.Sink) *ElectionHandler {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &ElectionHandler{db: conn, lifecycle: manager, ledger: ledger, box: box, audit: sink}
}

// CreateElection handles POST /api/elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "title is required")
		return
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "start_datetime and end_datetime are required")
		return
	}
	if !req.StartAt.Before(req.EndAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "end_datetime must be after start_datetime")
		return
	}

	now := time.Now().UTC()
	election := models.Election{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt.UTC(),
		EndAt:       req.EndAt.UTC(),
		Status:      models.StatusPending,
		CreatedBy:   auth.FromContext(r.Context()).ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO election (id, title, description, start_at, end_at, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, election.ID, election.Title, election.Description, election.StartAt, election.EndAt,
		election.Status, election.CreatedBy, now)
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", election.ID, "created_by", election.CreatedBy)
	h.audit.Record(r.Context(), election.CreatedBy, audit.ActionCreateElection, map[string]any{
		"election_id": election.ID,
		"details":     "Created election: " + election.Title,
	})

	middleware.JSONResponse(w, http.StatusCreated, election)
}

// ListElections handles GET /api/elections
// Administrators see every election, voters the ones they are enrolled in.
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	principal := auth.FromContext(r.Context())

	var (
		elections []models.Election
		err       error
	)
	if principal.Role == auth.Administrator {
		elections, err = lifecycle.List(r.Context(), h.db)
	} else {
		elections, err = h.ledger.Elections(r.Context(), principal.ID)
	}
	if err != nil {
		slog.Error("failed to list elections", "principal", principal.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /api/elections/{id}
// Voters also see their eligibility and current choices. An election a voter
// is not enrolled in is reported as not found.
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	ctx := r.Context()

	election, err := lifecycle.Load(ctx, h.db, electionID, "")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	principal := auth.FromContext(ctx)
	var enrolled bool
	if principal.Role != auth.Administrator {
		_, enrolled, err = h.ledger.Get(ctx, electionID, principal.ID)
		if err != nil {
			slog.Error("failed to query eligibility", "election_id", electionID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "Database error")
			return
		}
		if !enrolled {
			writeDomainError(w, fmt.Errorf("election %s for voter %s: %w", electionID, principal.ID, models.ErrNotFound))
			return
		}
	}

	positions, err := h.loadPositions(ctx, electionID)
	if err != nil {
		slog.Error("failed to query positions", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "Database error")
		return
	}

	detail := models.ElectionDetail{Election: election, Positions: positions}

	if principal.Role == auth.Voter {
		votes, err := h.box.VoterBallot(ctx, electionID, principal.ID)
		if err != nil {
			slog.Error("failed to query voter ballot", "election_id", electionID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, middleware.CodeInternal, "Database error")
			return
		}
		applyVoterStatus(&detail, enrolled, votes)
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

func applyVoterStatus(detail *models.ElectionDetail, enrolled bool, votes map[string]models.VoteSummary) {
	detail.UserIsEligible = enrolled
	detail.UserTotalVotes = len(votes)
	for i := range detail.Positions {
		p := &detail.Positions[i]
		vote, ok := votes[p.ID]
		if !ok {
			continue
		}
		p.UserHasVoted = true
		p.UserVote = &vote
		for j := range p.Candidates {
			p.Candidates[j].HasVotedFor = p.Candidates[j].ID == vote.CandidateID
		}
	}
}

func (h *ElectionHandler) loadPositions(ctx context.Context, electionID string) ([]models.PositionDetail, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT p.id, p.election_id, p.title, p.description, p.display_order,
		       c.id, c.name, c.bio, c.display_order
		FROM election_position p
		LEFT JOIN candidate c ON c.position_id = p.id
		WHERE p.election_id = $1
		ORDER BY p.display_order, p.title, p.id, c.display_order, c.name, c.id
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := []models.PositionDetail{}
	for rows.Next() {
		var (
			p            models.Position
			candidateID  sql.NullString
			name, bio    sql.NullString
			displayOrder sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Title, &p.Description, &p.DisplayOrder,
			&candidateID, &name, &bio, &displayOrder); err != nil {
			return nil, err
		}

		if n := len(positions); n == 0 || positions[n-1].ID != p.ID {
			positions = append(positions, models.PositionDetail{Position: p, Candidates: []models.CandidateDetail{}})
		}
		if !candidateID.Valid {
			continue
		}
		last := &positions[len(positions)-1]
		last.Candidates = append(last.Candidates, models.CandidateDetail{Candidate: models.Candidate{
			ID:           candidateID.String,
			PositionID:   p.ID,
			Name:         name.String,
			Bio:          bio.String,
			DisplayOrder: int(displayOrder.Int64),
		}})
	}
	return positions, rows.Err()
}

// StartElection handles POST /api/elections/{id}/start
func (h *ElectionHandler) StartElection(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Start)
}

// EndElection handles POST /api/elections/{id}/end
func (h *ElectionHandler) EndElection(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.End)
}

// ArchiveElection handles POST /api/elections/{id}/archive
func (h *ElectionHandler) ArchiveElection(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Archive)
}

func (h *ElectionHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor, electionID string) (models.Election, error)) {
	actor := auth.FromContext(r.Context()).ID
	election, err := op(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatusResponse{Status: election.Status})
}

// AddPosition handles POST /api/elections/{id}/positions
func (h *ElectionHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var req models.AddPositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "Invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "title is required")
		return
	}

	position := models.Position{
		ID:           uuid.NewString(),
		ElectionID:   electionID,
		Title:        req.Title,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	}

	err := h.db.WithTx(r.Context(), nil, func(tx *sql.Tx) error {
		if err := h.lockEditable(r.Context(), tx, electionID); err != nil {
			return err
		}

		var exists int
		err := tx.QueryRowContext(r.Context(), `
			SELECT 1 FROM election_position WHERE election_id = $1 AND title = $2
		`, electionID, position.Title).Scan(&exists)
		if err == nil {
			return errDuplicatePosition
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO election_position (id, election_id, title, description, display_order)
			VALUES ($1, $2, $3, $4, $5)
		`, position.ID, position.ElectionID, position.Title, position.Description, position.DisplayOrder)
		return err
	})
	if errors.Is(err, errDuplicatePosition) {
		middleware.ErrorResponse(w, http.StatusConflict, middleware.CodeDuplicate, errDuplicatePosition.Error())
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("position added", "election_id", electionID, "position_id", position.ID)

	middleware.JSONResponse(w, http.StatusCreated, position)
}

// AddCandidate handles POST /api/elections/{id}/positions/{positionID}/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	positionID := r.PathValue("positionID")

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "name is required")
		return
	}

	candidate := models.Candidate{
		ID:           uuid.NewString(),
		PositionID:   positionID,
		Name:         req.Name,
		Bio:          req.Bio,
		DisplayOrder: req.DisplayOrder,
	}

	err := h.db.WithTx(r.Context(), nil, func(tx *sql.Tx) error {
		if err := h.lockEditable(r.Context(), tx, electionID); err != nil {
			return err
		}

		var found string
		err := tx.QueryRowContext(r.Context(), `
			SELECT id FROM election_position WHERE id = $1 AND election_id = $2
		`, positionID, electionID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("position %s: %w", positionID, models.ErrNotFound)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO candidate (id, position_id, name, bio, display_order)
			VALUES ($1, $2, $3, $4, $5)
		`, candidate.ID, candidate.PositionID, candidate.Name, candidate.Bio, candidate.DisplayOrder)
		return err
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("candidate added", "election_id", electionID, "position_id", positionID, "candidate_id", candidate.ID)

	middleware.JSONResponse(w, http.StatusCreated, candidate)
}

// lockEditable locks the election row and checks the ballot may still change.
func (h *ElectionHandler) lockEditable(ctx context.Context, tx *sql.Tx, electionID string) error {
	election, err := lifecycle.Load(ctx, tx, electionID, h.db.UpdateLock())
	if err != nil {
		return err
	}
	if !lifecycle.CanEditBallot(election.Status) {
		return fmt.Errorf("%w: election is %s", models.ErrElectionLocked, election.Status)
	}
	return nil
}

// EnrollVoters handles POST /api/elections/{id}/voters
func (h *ElectionHandler) EnrollVoters(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var req models.EnrollVotersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "Invalid JSON")
		return
	}
	if len(req.VoterIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, middleware.CodeBadRequest, "voter_ids is required")
		return
	}

	enrolled, err := h.ledger.Enroll(r.Context(), electionID, req.VoterIDs...)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("voters enrolled", "election_id", electionID, "enrolled", enrolled)

	middleware.JSONResponse(w, http.StatusOK, models.EnrollVotersResponse{Enrolled: enrolled})
}
