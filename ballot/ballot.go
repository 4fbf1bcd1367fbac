// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nelsonterdoo1000/college-election-portal/audit"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/eligibility"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// Policy decides what a second vote for the same position does.
type Policy string

const (
	// PolicyReject keeps the first vote and refuses later ones.
	PolicyReject Policy = "reject"
	// PolicyReplace overwrites the earlier choice with the new one.
	PolicyReplace Policy = "replace"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyReject:
		return PolicyReject, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return "", fmt.Errorf("unsupported resubmit policy %q (want reject or replace)", s)
}

// Request is one voter's choice for one position.
type Request struct {
	ElectionID  string
	PositionID  string
	CandidateID string
	VoterID     string
	// IPHash goes to the audit trail only.
	IPHash string
}

type Receipt struct {
	Vote     models.Vote
	Replaced bool
}

// Box accepts votes. It is safe for concurrent use.
type Box struct {
	db         *db.DB
	policy     Policy
	maxRetries int
	notifier   lifecycle.Notifier
	audit      audit.Sink
	logger     *slog.Logger
	now        func() time.Time
}

func NewBox(conn *db.DB, policy Policy, maxRetries int, notifier lifecycle.Notifier, sink audit.Sink, logger *slog.Logger) *Box {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = audit.Discard{}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Box{
		db:         conn,
		policy:     policy,
		maxRetries: maxRetries,
		notifier:   notifier,
		audit:      sink,
		logger:     logger,
		now:        time.Now,
	}
}

func (b *Box) Policy() Policy {
	return b.policy
}

// ballotNames carries display names for the audit trail.
type ballotNames struct {
	position  string
	candidate string
}

// CastVote records req under the configured policy. The election status, the
// ballot references, eligibility and the vote write are all checked and
// applied in one transaction, so a vote either lands while the election is
// active or fails with ErrElectionNotOpen.
func (b *Box) CastVote(ctx context.Context, req Request) (Receipt, error) {
	var (
		receipt Receipt
		names   ballotNames
		err     error
	)
	for attempt := 0; ; attempt++ {
		receipt, names, err = b.castOnce(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrConcurrencyConflict) || attempt >= b.maxRetries || ctx.Err() != nil {
			return Receipt{}, err
		}
		b.logger.Warn("vote conflict, retrying",
			"election_id", req.ElectionID,
			"position_id", req.PositionID,
			"attempt", attempt+1,
			"error", err,
		)
	}

	b.logger.Info("vote cast",
		"vote_id", receipt.Vote.ID,
		"election_id", req.ElectionID,
		"position_id", req.PositionID,
		"replaced", receipt.Replaced,
	)

	if b.notifier != nil {
		b.notifier.Notify(req.ElectionID)
	}

	details := map[string]any{
		"election_id":  req.ElectionID,
		"position_id":  req.PositionID,
		"candidate_id": req.CandidateID,
		"details":      fmt.Sprintf("Voted for %s in %s", names.candidate, names.position),
		"replaced":     receipt.Replaced,
	}
	if req.IPHash != "" {
		details["ip"] = req.IPHash
	}
	b.audit.Record(ctx, req.VoterID, audit.ActionCastVote, details)

	return receipt, nil
}

func (b *Box) castOnce(ctx context.Context, req Request) (Receipt, ballotNames, error) {
	var (
		receipt Receipt
		names   ballotNames
	)
	err := b.db.WithTx(ctx, nil, func(tx *sql.Tx) error {
		// The share lock holds off End until this transaction finishes.
		election, err := lifecycle.Load(ctx, tx, req.ElectionID, b.db.ShareLock())
		if err != nil {
			return err
		}
		if !lifecycle.CanAcceptVotes(election.Status) {
			return fmt.Errorf("%w: election is %s", models.ErrElectionNotOpen, election.Status)
		}

		names, err = lookupNames(ctx, tx, req)
		if err != nil {
			return err
		}

		eligible, err := eligibility.IsEligible(ctx, tx, req.ElectionID, req.VoterID)
		if err != nil {
			return err
		}
		if !eligible {
			return models.ErrNotEligible
		}

		now := b.now().UTC()
		switch b.policy {
		case PolicyReplace:
			receipt, err = b.upsert(ctx, tx, req, now)
		default:
			receipt, err = b.insert(ctx, tx, req, now)
		}
		if err != nil {
			return err
		}

		return eligibility.MarkVoted(ctx, tx, req.ElectionID, req.VoterID)
	})
	if err != nil {
		return Receipt{}, ballotNames{}, err
	}
	return receipt, names, nil
}

func lookupNames(ctx context.Context, q db.Querier, req Request) (ballotNames, error) {
	var names ballotNames
	err := q.QueryRowContext(ctx, `
		SELECT p.title, c.name
		FROM candidate c
		JOIN election_position p ON p.id = c.position_id
		WHERE c.id = $1 AND p.id = $2 AND p.election_id = $3
	`, req.CandidateID, req.PositionID, req.ElectionID).Scan(&names.position, &names.candidate)
	if errors.Is(err, sql.ErrNoRows) {
		return ballotNames{}, models.ErrInvalidBallot
	}
	if err != nil {
		return ballotNames{}, fmt.Errorf("check ballot: %w", err)
	}
	return names, nil
}

// insert writes a first vote. An existing vote for the key wins.
func (b *Box) insert(ctx context.Context, tx *sql.Tx, req Request, now time.Time) (Receipt, error) {
	vote := newVote(req, now)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO vote (id, election_id, position_id, candidate_id, voter_id, cast_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (election_id, position_id, voter_id) DO NOTHING
	`, vote.ID, vote.ElectionID, vote.PositionID, vote.CandidateID, vote.VoterID, now)
	if err != nil {
		return Receipt{}, fmt.Errorf("insert vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Receipt{}, fmt.Errorf("insert vote: %w", err)
	}
	if n == 0 {
		return Receipt{}, models.ErrAlreadyVoted
	}
	return Receipt{Vote: vote}, nil
}

// upsert writes the vote, replacing the candidate of an existing one. The
// original id and cast_at survive a replacement.
func (b *Box) upsert(ctx context.Context, tx *sql.Tx, req Request, now time.Time) (Receipt, error) {
	vote := newVote(req, now)
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO vote (id, election_id, position_id, candidate_id, voter_id, cast_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (election_id, position_id, voter_id)
		DO UPDATE SET candidate_id = excluded.candidate_id, updated_at = excluded.updated_at
		RETURNING id
	`, vote.ID, vote.ElectionID, vote.PositionID, vote.CandidateID, vote.VoterID, now).Scan(&id)
	if err != nil {
		return Receipt{}, fmt.Errorf("upsert vote: %w", err)
	}
	if id == vote.ID {
		return Receipt{Vote: vote}, nil
	}

	vote.ID = id
	if err := tx.QueryRowContext(ctx, `SELECT cast_at FROM vote WHERE id = $1`, id).Scan(&vote.CastAt); err != nil {
		return Receipt{}, fmt.Errorf("load replaced vote: %w", err)
	}
	return Receipt{Vote: vote, Replaced: true}, nil
}

func newVote(req Request, now time.Time) models.Vote {
	return models.Vote{
		ID:          uuid.NewString(),
		ElectionID:  req.ElectionID,
		PositionID:  req.PositionID,
		CandidateID: req.CandidateID,
		VoterID:     req.VoterID,
		CastAt:      now,
		UpdatedAt:   now,
	}
}

// VoterBallot returns the voter's current vote in each position of the
// election, keyed by position id.
func (b *Box) VoterBallot(ctx context.Context, electionID, voterID string) (map[string]models.VoteSummary, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT v.position_id, v.candidate_id, c.name, v.updated_at
		FROM vote v
		JOIN candidate c ON c.id = v.candidate_id
		WHERE v.election_id = $1 AND v.voter_id = $2
	`, electionID, voterID)
	if err != nil {
		return nil, fmt.Errorf("query voter ballot: %w", err)
	}
	defer rows.Close()

	ballot := make(map[string]models.VoteSummary)
	for rows.Next() {
		var positionID string
		var s models.VoteSummary
		if err := rows.Scan(&positionID, &s.CandidateID, &s.CandidateName, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan voter ballot: %w", err)
		}
		ballot[positionID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voter ballot: %w", err)
	}
	return ballot, nil
}
