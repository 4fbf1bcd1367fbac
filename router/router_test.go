// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/audit"
	"github.com/nelsonterdoo1000/college-election-portal/auth"
	"github.com/nelsonterdoo1000/college-election-portal/ballot"
	"github.com/nelsonterdoo1000/college-election-portal/broadcast"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/eligibility"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/models"
	"github.com/nelsonterdoo1000/college-election-portal/tally"
	"github.com/nelsonterdoo1000/college-election-portal/testutil"
)

func setupRouter(t *testing.T) (*http.ServeMux, *db.DB) {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	engine := tally.NewEngine(conn, lifecycle.VisibilityLive)
	broadcaster := broadcast.New(engine, nil)
	t.Cleanup(broadcaster.Close)

	mux := NewRouter(Services{
		DB:          conn,
		Config:      cfg,
		Verifier:    auth.NewVerifier(cfg.JWTSecret),
		Lifecycle:   lifecycle.NewManager(conn, broadcaster, audit.Discard{}, nil),
		Ledger:      eligibility.NewLedger(conn),
		Box:         ballot.NewBox(conn, ballot.PolicyReject, cfg.VoteMaxRetries, broadcaster, audit.Discard{}, nil),
		Engine:      engine,
		Broadcaster: broadcaster,
		Audit:       audit.Discard{},
	})
	return mux, conn
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "college-election-portal API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := setupRouter(t)

	// Routes respond through their handlers; 400, 401 and 404 are all valid here
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/api/elections"},
		{"POST", "/api/elections/test-id/start"},
		{"POST", "/api/elections/test-id/end"},
		{"POST", "/api/elections/test-id/archive"},
		{"POST", "/api/elections/test-id/positions"},
		{"POST", "/api/elections/test-id/positions/p1/candidates"},
		{"POST", "/api/elections/test-id/voters"},

		{"GET", "/api/elections"},
		{"GET", "/api/elections/test-id"},
		{"GET", "/api/votes"},
		{"POST", "/api/votes"},

		{"GET", "/api/elections/test-id/results"},
		{"GET", "/ws/public/elections/test-id/live-results"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := setupRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/api/elections/test-id"},
		{"PUT", "/api/elections/test-id/positions"},
		{"DELETE", "/api/votes"},
		{"PUT", "/api/elections"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestRouteAuthorization(t *testing.T) {
	mux, conn := setupRouter(t)
	electionID := testutil.CreateTestElection(t, conn, models.StatusPending)

	testCases := []struct {
		name           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
	}{
		{"anonymous start", "POST", "/api/elections/" + electionID + "/start", nil, http.StatusUnauthorized},
		{"voter start", "POST", "/api/elections/" + electionID + "/start", testutil.BearerHeader(t, "s1", "student"), http.StatusForbidden},
		{"admin start", "POST", "/api/elections/" + electionID + "/start", testutil.BearerHeader(t, "admin-1", "admin"), http.StatusOK},
		{"bad token", "GET", "/api/elections/" + electionID, map[string]string{"Authorization": "Bearer garbage"}, http.StatusUnauthorized},
		{"anonymous ballot view", "GET", "/api/elections/" + electionID, nil, http.StatusUnauthorized},
		{"anonymous election list", "GET", "/api/elections", nil, http.StatusUnauthorized},
		{"anonymous vote list", "GET", "/api/votes?election=" + electionID, nil, http.StatusUnauthorized},
		{"admin ballot view", "GET", "/api/elections/" + electionID, testutil.BearerHeader(t, "admin-1", "admin"), http.StatusOK},
		{"unenrolled voter ballot view", "GET", "/api/elections/" + electionID, testutil.BearerHeader(t, "s1", "student"), http.StatusNotFound},
		{"anonymous vote", "POST", "/api/votes", nil, http.StatusUnauthorized},
		{"admin vote", "POST", "/api/votes", testutil.BearerHeader(t, "admin-1", "admin"), http.StatusForbidden},
		{"voter vote without body", "POST", "/api/votes", testutil.BearerHeader(t, "s1", "student"), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(tc.method, tc.path, nil, tc.headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}

// TestVoteThroughRouter drives a vote end to end with real bearer tokens
func TestVoteThroughRouter(t *testing.T) {
	mux, conn := setupRouter(t)
	electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
	positionID := testutil.AddTestPosition(t, conn, electionID, "President", 1)
	candidateID := testutil.AddTestCandidate(t, conn, positionID, "Ada", 1)
	testutil.EnrollTestVoters(t, conn, electionID, "s1")

	vote := models.CastVoteRequest{ElectionID: electionID, PositionID: positionID, CandidateID: candidateID}
	voter := testutil.BearerHeader(t, "s1", "student")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/api/votes", vote, voter))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CastVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Vote.VoterID != "s1" {
		t.Errorf("Expected vote recorded for token subject s1, got %q", resp.Vote.VoterID)
	}
	if time.Since(resp.Vote.CastAt) > time.Minute {
		t.Errorf("Unexpected cast time %v", resp.Vote.CastAt)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/api/votes", vote, voter))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/api/elections/"+electionID+"/results", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var results models.ElectionResults
	testutil.AssertJSON(t, w, &results)
	if results.Positions[0].TotalVotes != 1 {
		t.Errorf("Expected 1 vote in results, got %d", results.Positions[0].TotalVotes)
	}
}

func TestListingThroughRouter(t *testing.T) {
	mux, conn := setupRouter(t)
	enrolled := testutil.CreateTestElection(t, conn, models.StatusActive)
	other := testutil.CreateTestElection(t, conn, models.StatusActive)
	positionID := testutil.AddTestPosition(t, conn, enrolled, "President", 1)
	candidateID := testutil.AddTestCandidate(t, conn, positionID, "Ada", 1)
	testutil.EnrollTestVoters(t, conn, enrolled, "s1")

	voter := testutil.BearerHeader(t, "s1", "student")
	admin := testutil.BearerHeader(t, "admin-1", "admin")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/api/elections", nil, voter))
	testutil.AssertStatus(t, w, http.StatusOK)
	var mine []models.Election
	testutil.AssertJSON(t, w, &mine)
	if len(mine) != 1 || mine[0].ID != enrolled {
		t.Errorf("Expected voter to see only %s, got %+v", enrolled, mine)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/api/elections", nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	var all []models.Election
	testutil.AssertJSON(t, w, &all)
	if len(all) != 2 {
		t.Errorf("Expected admin to see 2 elections, got %d", len(all))
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/api/elections/"+other, nil, voter))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	vote := models.CastVoteRequest{ElectionID: enrolled, PositionID: positionID, CandidateID: candidateID}
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/api/votes", vote, voter))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/api/votes?election="+enrolled, nil, voter))
	testutil.AssertStatus(t, w, http.StatusOK)
	var ballot models.VoterBallotResponse
	testutil.AssertJSON(t, w, &ballot)
	if len(ballot.Votes) != 1 || ballot.Votes[0].CandidateID != candidateID {
		t.Errorf("Expected own vote for %s, got %+v", candidateID, ballot.Votes)
	}
}
