// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eligibility

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// IsEligible reports whether voterID is enrolled in electionID.
func IsEligible(ctx context.Context, q db.Querier, electionID, voterID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `
		SELECT 1 FROM eligible_voter WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check eligibility: %w", err)
	}
	return true, nil
}

// MarkVoted sets the has_voted hint. Calling it again is a no-op.
func MarkVoted(ctx context.Context, q db.Querier, electionID, voterID string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE eligible_voter SET has_voted = TRUE
		WHERE election_id = $1 AND voter_id = $2 AND has_voted = FALSE
	`, electionID, voterID)
	if err != nil {
		return fmt.Errorf("mark voted: %w", err)
	}
	return nil
}

// Ledger is the administrative side of eligibility.
type Ledger struct {
	db  *db.DB
	now func() time.Time
}

func NewLedger(conn *db.DB) *Ledger {
	return &Ledger{db: conn, now: time.Now}
}

// Enroll makes each voter eligible for the election and returns how many were
// newly enrolled. Existing enrollments are left untouched.
func (l *Ledger) Enroll(ctx context.Context, electionID string, voterIDs ...string) (int, error) {
	enrolled := 0
	err := l.db.WithTx(ctx, nil, func(tx *sql.Tx) error {
		enrolled = 0
		if _, err := loadElectionID(ctx, tx, electionID); err != nil {
			return err
		}

		now := l.now().UTC()
		for _, voterID := range voterIDs {
			voterID = strings.TrimSpace(voterID)
			if voterID == "" {
				continue
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO eligible_voter (election_id, voter_id, has_voted, enrolled_at)
				VALUES ($1, $2, FALSE, $3)
				ON CONFLICT (election_id, voter_id) DO NOTHING
			`, electionID, voterID, now)
			if err != nil {
				return fmt.Errorf("enroll voter %s: %w", voterID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				enrolled++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return enrolled, nil
}

// Get returns the enrollment record and whether one exists.
func (l *Ledger) Get(ctx context.Context, electionID, voterID string) (models.EligibleVoter, bool, error) {
	var v models.EligibleVoter
	err := l.db.QueryRowContext(ctx, `
		SELECT election_id, voter_id, has_voted, enrolled_at
		FROM eligible_voter
		WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID).Scan(&v.ElectionID, &v.VoterID, &v.HasVoted, &v.EnrolledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EligibleVoter{}, false, nil
	}
	if err != nil {
		return models.EligibleVoter{}, false, fmt.Errorf("get eligible voter: %w", err)
	}
	return v, true, nil
}

// Elections lists the elections voterID is enrolled in, newest first.
func (l *Ledger) Elections(ctx context.Context, voterID string) ([]models.Election, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.description, e.start_at, e.end_at, e.status, e.created_by, e.created_at, e.updated_at
		FROM election e
		JOIN eligible_voter ev ON ev.election_id = e.id
		WHERE ev.voter_id = $1
		ORDER BY e.start_at DESC, e.id
	`, voterID)
	if err != nil {
		return nil, fmt.Errorf("list enrolled elections: %w", err)
	}
	return lifecycle.ScanElections(rows)
}

func loadElectionID(ctx context.Context, q db.Querier, electionID string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM election WHERE id = $1`, electionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("election %s: %w", electionID, models.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load election: %w", err)
	}
	return id, nil
}
