// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"testing"

	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/models"
	"github.com/nelsonterdoo1000/college-election-portal/testutil"
)

func TestComputeResults_CountsAndOrdering(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	engine := NewEngine(conn, lifecycle.VisibilityLive)

	electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
	// Inserted out of display order on purpose.
	secretary := testutil.AddTestPosition(t, conn, electionID, "Secretary", 2)
	president := testutil.AddTestPosition(t, conn, electionID, "President", 1)
	treasurer := testutil.AddTestPosition(t, conn, electionID, "Treasurer", 2)
	testutil.AddTestPosition(t, conn, electionID, "Auditor", 3)

	grace := testutil.AddTestCandidate(t, conn, president, "Grace", 2)
	ada := testutil.AddTestCandidate(t, conn, president, "Ada", 1)
	barbara := testutil.AddTestCandidate(t, conn, president, "Barbara", 1)
	linus := testutil.AddTestCandidate(t, conn, secretary, "Linus", 1)
	testutil.AddTestCandidate(t, conn, treasurer, "Ken", 1)

	testutil.EnrollTestVoters(t, conn, electionID, "s1", "s2", "s3", "s4")
	testutil.CastTestVote(t, conn, electionID, president, ada, "s1")
	testutil.CastTestVote(t, conn, electionID, president, ada, "s2")
	testutil.CastTestVote(t, conn, electionID, president, grace, "s3")
	testutil.CastTestVote(t, conn, electionID, secretary, linus, "s1")

	results, err := engine.ComputeResults(ctx, electionID)
	if err != nil {
		t.Fatalf("ComputeResults failed: %v", err)
	}

	if results.ElectionID != electionID || results.ElectionTitle != "Student Council 2025" {
		t.Errorf("Unexpected header: %s %q", results.ElectionID, results.ElectionTitle)
	}
	if results.Status != models.StatusActive {
		t.Errorf("Expected status active, got %s", results.Status)
	}

	wantPositions := []string{"President", "Secretary", "Treasurer", "Auditor"}
	if len(results.Positions) != len(wantPositions) {
		t.Fatalf("Expected %d positions, got %d", len(wantPositions), len(results.Positions))
	}
	for i, title := range wantPositions {
		if results.Positions[i].PositionTitle != title {
			t.Errorf("position[%d] = %s, want %s", i, results.Positions[i].PositionTitle, title)
		}
	}

	pres := results.Positions[0]
	wantCandidates := []struct {
		id    string
		name  string
		count int
	}{
		{ada, "Ada", 2},
		{barbara, "Barbara", 0},
		{grace, "Grace", 1},
	}
	if len(pres.Candidates) != len(wantCandidates) {
		t.Fatalf("Expected %d candidates, got %d", len(wantCandidates), len(pres.Candidates))
	}
	for i, want := range wantCandidates {
		got := pres.Candidates[i]
		if got.CandidateID != want.id || got.CandidateName != want.name || got.VoteCount != want.count {
			t.Errorf("candidate[%d] = %+v, want %s/%d", i, got, want.name, want.count)
		}
	}
	if pres.TotalVotes != 3 {
		t.Errorf("Expected 3 total votes for President, got %d", pres.TotalVotes)
	}

	if results.Positions[1].TotalVotes != 1 {
		t.Errorf("Expected 1 vote for Secretary, got %d", results.Positions[1].TotalVotes)
	}
	if got := results.Positions[2].Candidates; len(got) != 1 || got[0].VoteCount != 0 {
		t.Errorf("Treasurer should list Ken with zero votes, got %+v", got)
	}
	if got := results.Positions[3].Candidates; got == nil || len(got) != 0 {
		t.Errorf("Auditor should have an empty candidate list, got %+v", got)
	}
}

func TestComputeResults_SumsMatchStoredVotes(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	engine := NewEngine(conn, lifecycle.VisibilityLive)

	electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
	otherID := testutil.CreateTestElection(t, conn, models.StatusActive)
	president := testutil.AddTestPosition(t, conn, electionID, "President", 1)
	otherPres := testutil.AddTestPosition(t, conn, otherID, "President", 1)
	a := testutil.AddTestCandidate(t, conn, president, "A", 1)
	b := testutil.AddTestCandidate(t, conn, president, "B", 2)
	o := testutil.AddTestCandidate(t, conn, otherPres, "O", 1)

	voters := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"}
	for i, v := range voters {
		c := a
		if i%3 == 0 {
			c = b
		}
		testutil.CastTestVote(t, conn, electionID, president, c, v)
		testutil.CastTestVote(t, conn, otherID, otherPres, o, v)
	}

	results, err := engine.ComputeResults(context.Background(), electionID)
	if err != nil {
		t.Fatal(err)
	}

	var stored int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE election_id = $1`, electionID).Scan(&stored); err != nil {
		t.Fatal(err)
	}

	sum := 0
	for _, p := range results.Positions {
		perPosition := 0
		for _, c := range p.Candidates {
			perPosition += c.VoteCount
		}
		if perPosition != p.TotalVotes {
			t.Errorf("%s: candidate sum %d != total %d", p.PositionTitle, perPosition, p.TotalVotes)
		}
		sum += p.TotalVotes
	}
	if sum != stored {
		t.Errorf("Tally %d does not match %d stored votes", sum, stored)
	}
}

func TestPublishedResults_Visibility(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		status     string
		visibility lifecycle.Visibility
		wantErr    error
	}{
		{models.StatusPending, lifecycle.VisibilityLive, models.ErrResultsNotAvailable},
		{models.StatusActive, lifecycle.VisibilityLive, nil},
		{models.StatusCompleted, lifecycle.VisibilityLive, nil},
		{models.StatusArchived, lifecycle.VisibilityLive, models.ErrResultsNotAvailable},
		{models.StatusPending, lifecycle.VisibilityFinal, models.ErrResultsNotAvailable},
		{models.StatusActive, lifecycle.VisibilityFinal, models.ErrResultsNotAvailable},
		{models.StatusCompleted, lifecycle.VisibilityFinal, nil},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+string(tt.visibility), func(t *testing.T) {
			electionID := testutil.CreateTestElection(t, conn, tt.status)
			engine := NewEngine(conn, tt.visibility)

			results, err := engine.PublishedResults(ctx, electionID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PublishedResults failed: %v", err)
			}
			if results.Status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, results.Status)
			}

			// ComputeResults ignores visibility.
			if _, err := engine.ComputeResults(ctx, electionID); err != nil {
				t.Errorf("ComputeResults failed: %v", err)
			}
		})
	}
}

func TestResults_NotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	engine := NewEngine(conn, lifecycle.VisibilityLive)

	if _, err := engine.ComputeResults(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := engine.PublishedResults(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
