// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// Engine counts votes. Counts are derived on every call and never stored.
type Engine struct {
	db         *db.DB
	visibility lifecycle.Visibility
	now        func() time.Time
}

func NewEngine(conn *db.DB, visibility lifecycle.Visibility) *Engine {
	return &Engine{db: conn, visibility: visibility, now: time.Now}
}

func (e *Engine) Visibility() lifecycle.Visibility {
	return e.visibility
}

// ComputeResults counts the votes of every candidate in the election,
// regardless of whether results may be shown yet.
func (e *Engine) ComputeResults(ctx context.Context, electionID string) (models.ElectionResults, error) {
	return e.compute(ctx, electionID, false)
}

// PublishedResults is ComputeResults gated by the visibility rule. The status
// check and the counts come from the same snapshot.
func (e *Engine) PublishedResults(ctx context.Context, electionID string) (models.ElectionResults, error) {
	return e.compute(ctx, electionID, true)
}

func (e *Engine) compute(ctx context.Context, electionID string, published bool) (models.ElectionResults, error) {
	var results models.ElectionResults
	err := e.db.WithTx(ctx, e.db.SnapshotTxOptions(), func(tx *sql.Tx) error {
		election, err := lifecycle.Load(ctx, tx, electionID, "")
		if err != nil {
			return err
		}
		if published && !lifecycle.CanShowResults(election.Status, e.visibility) {
			return fmt.Errorf("%w: election is %s", models.ErrResultsNotAvailable, election.Status)
		}

		positions, err := countVotes(ctx, tx, electionID)
		if err != nil {
			return err
		}

		results = models.ElectionResults{
			ElectionID:    election.ID,
			ElectionTitle: election.Title,
			Status:        election.Status,
			Positions:     positions,
			ComputedAt:    e.now().UTC(),
		}
		return nil
	})
	if err != nil {
		return models.ElectionResults{}, err
	}
	return results, nil
}

// countVotes aggregates per candidate. The LEFT JOINs keep positions without
// candidates and candidates without votes.
func countVotes(ctx context.Context, q db.Querier, electionID string) ([]models.PositionResult, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.title, c.id, c.name, COUNT(v.id)
		FROM election_position p
		LEFT JOIN candidate c ON c.position_id = p.id
		LEFT JOIN vote v ON v.candidate_id = c.id AND v.position_id = p.id AND v.election_id = p.election_id
		WHERE p.election_id = $1
		GROUP BY p.id, p.title, p.display_order, c.id, c.name, c.display_order
		ORDER BY p.display_order, p.title, p.id, c.display_order, c.name, c.id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	defer rows.Close()

	positions := []models.PositionResult{}
	for rows.Next() {
		var (
			positionID, positionTitle string
			candidateID, name         sql.NullString
			count                     int
		)
		if err := rows.Scan(&positionID, &positionTitle, &candidateID, &name, &count); err != nil {
			return nil, fmt.Errorf("scan vote count: %w", err)
		}

		if n := len(positions); n == 0 || positions[n-1].PositionID != positionID {
			positions = append(positions, models.PositionResult{
				PositionID:    positionID,
				PositionTitle: positionTitle,
				Candidates:    []models.CandidateResult{},
			})
		}
		if !candidateID.Valid {
			continue
		}

		p := &positions[len(positions)-1]
		p.Candidates = append(p.Candidates, models.CandidateResult{
			CandidateID:   candidateID.String,
			CandidateName: name.String,
			VoteCount:     count,
		})
		p.TotalVotes += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote counts: %w", err)
	}

	return positions, nil
}
