// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/audit"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// Visibility controls when tallies are published.
type Visibility string

const (
	// VisibilityLive publishes while voting is open and after it closes.
	VisibilityLive Visibility = "live"
	// VisibilityFinal publishes only once the election is completed.
	VisibilityFinal Visibility = "final"
)

func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(strings.ToLower(strings.TrimSpace(s))) {
	case VisibilityLive:
		return VisibilityLive, nil
	case VisibilityFinal:
		return VisibilityFinal, nil
	}
	return "", fmt.Errorf("unsupported results visibility %q (want live or final)", s)
}

var transitions = map[string]string{
	models.StatusPending:   models.StatusActive,
	models.StatusActive:    models.StatusCompleted,
	models.StatusCompleted: models.StatusArchived,
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	return ok && next == to
}

func CanAcceptVotes(status string) bool {
	return status == models.StatusActive
}

func CanShowResults(status string, v Visibility) bool {
	switch status {
	case models.StatusCompleted:
		return true
	case models.StatusActive:
		return v == VisibilityLive
	default:
		return false
	}
}

// CanEditBallot reports whether positions and candidates may still be added.
func CanEditBallot(status string) bool {
	return status == models.StatusPending || status == models.StatusActive
}

// Load reads one election through q. lock is appended to the SELECT, so pass
// db.DB.ShareLock or db.DB.UpdateLock inside a transaction, or "" otherwise.
func Load(ctx context.Context, q db.Querier, electionID, lock string) (models.Election, error) {
	e, err := ScanElection(q.QueryRowContext(ctx, `
		SELECT id, title, description, start_at, end_at, status, created_by, created_at, updated_at
		FROM election
		WHERE id = $1`+lock, electionID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, fmt.Errorf("election %s: %w", electionID, models.ErrNotFound)
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("load election %s: %w", electionID, err)
	}
	return e, nil
}

// List returns every election, newest first.
func List(ctx context.Context, q db.Querier) ([]models.Election, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, description, start_at, end_at, status, created_by, created_at, updated_at
		FROM election
		ORDER BY start_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	return ScanElections(rows)
}

// ScanElection reads the columns id, title, description, start_at, end_at,
// status, created_by, created_at, updated_at in that order.
func ScanElection(row interface{ Scan(dest ...any) error }) (models.Election, error) {
	var e models.Election
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartAt, &e.EndAt, &e.Status,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// ScanElections drains rows with ScanElection and closes them.
func ScanElections(rows *sql.Rows) ([]models.Election, error) {
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := ScanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elections: %w", err)
	}
	return elections, nil
}

// Notifier is told about every committed change that can alter published
// results.
type Notifier interface {
	Notify(electionID string)
}

// Manager owns status transitions. It is the only code that opens or closes
// voting.
type Manager struct {
	db       *db.DB
	notifier Notifier
	audit    audit.Sink
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(conn *db.DB, notifier Notifier, sink audit.Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Manager{
		db:       conn,
		notifier: notifier,
		audit:    sink,
		logger:   logger,
		now:      time.Now,
	}
}

// Start opens voting. Only a pending election can be started.
func (m *Manager) Start(ctx context.Context, actor, electionID string) (models.Election, error) {
	return m.transition(ctx, actor, electionID, models.StatusActive, audit.ActionStartElection)
}

// End closes voting. Only an active election can be ended. Ballots that
// committed before End are counted; later ones see ErrElectionNotOpen.
func (m *Manager) End(ctx context.Context, actor, electionID string) (models.Election, error) {
	return m.transition(ctx, actor, electionID, models.StatusCompleted, audit.ActionEndElection)
}

// Archive retires a completed election.
func (m *Manager) Archive(ctx context.Context, actor, electionID string) (models.Election, error) {
	return m.transition(ctx, actor, electionID, models.StatusArchived, audit.ActionArchiveElection)
}

func (m *Manager) transition(ctx context.Context, actor, electionID, to, action string) (models.Election, error) {
	var e models.Election
	err := m.db.WithTx(ctx, nil, func(tx *sql.Tx) error {
		var err error
		e, err = Load(ctx, tx, electionID, m.db.UpdateLock())
		if err != nil {
			return err
		}
		if !CanTransition(e.Status, to) {
			return fmt.Errorf("%w: cannot move election from %s to %s", models.ErrInvalidTransition, e.Status, to)
		}

		now := m.now().UTC()
		if _, err := tx.ExecContext(ctx, `
			UPDATE election SET status = $1, updated_at = $2 WHERE id = $3
		`, to, now, electionID); err != nil {
			return fmt.Errorf("update election status: %w", err)
		}
		e.Status = to
		e.UpdatedAt = now
		return nil
	})
	if err != nil {
		return models.Election{}, err
	}

	m.logger.Info("election status changed", "election_id", electionID, "status", to, "actor", actor)
	if m.notifier != nil {
		m.notifier.Notify(electionID)
	}
	m.audit.Record(ctx, actor, action, map[string]any{
		"election_id": electionID,
		"details":     fmt.Sprintf("%s election %s", statusVerb(to), e.Title),
	})
	return e, nil
}

func statusVerb(status string) string {
	switch status {
	case models.StatusActive:
		return "Started"
	case models.StatusCompleted:
		return "Ended"
	default:
		return "Archived"
	}
}
