// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nelsonterdoo1000/college-election-portal/cliparse"
	"github.com/nelsonterdoo1000/college-election-portal/db"
)

// TestJWTSecret signs tokens in handler tests
const TestJWTSecret = "test-jwt-secret"

// SetupTestDB creates a fresh SQLite database with the full schema. The file
// lives in t.TempDir, so every test gets its own database.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, filepath.Join(t.TempDir(), "elections.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       "elections-test.db",
		DatabaseType:      "sqlite",
		JWTSecret:         TestJWTSecret,
		ResubmitPolicy:    "reject",
		ResultsVisibility: "live",
		VoteMaxRetries:    2,
		AuditBuffer:       16,
		LogLevel:          "info",
		IPSalt:            "test-ip-salt",
	}
}

// CreateTestElection inserts an election with the given status and returns its ID.
// The voting window is the hour around now.
func CreateTestElection(t *testing.T, conn *db.DB, status string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, start_at, end_at, status, created_by, created_at, updated_at)
		VALUES ($1, 'Student Council 2025', 'Annual student council election', $2, $3, $4, 'admin-1', $5, $5)
	`, id, now.Add(-30*time.Minute), now.Add(30*time.Minute), status, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return id
}

// SetTestElectionStatus forces an election into status, bypassing the lifecycle rules
func SetTestElectionStatus(t *testing.T, conn *db.DB, electionID, status string) {
	t.Helper()

	if _, err := conn.Exec(`UPDATE election SET status = $1 WHERE id = $2`, status, electionID); err != nil {
		t.Fatalf("Failed to set election status: %v", err)
	}
}

// AddTestPosition adds a position to an election and returns the position ID
func AddTestPosition(t *testing.T, conn *db.DB, electionID, title string, order int) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO election_position (id, election_id, title, description, display_order)
		VALUES ($1, $2, $3, '', $4)
	`, id, electionID, title, order)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	return id
}

// AddTestCandidate adds a candidate to a position and returns the candidate ID
func AddTestCandidate(t *testing.T, conn *db.DB, positionID, name string, order int) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, position_id, name, bio, display_order)
		VALUES ($1, $2, $3, '', $4)
	`, id, positionID, name, order)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// EnrollTestVoters makes each voter eligible for the election
func EnrollTestVoters(t *testing.T, conn *db.DB, electionID string, voterIDs ...string) {
	t.Helper()

	for _, voterID := range voterIDs {
		_, err := conn.Exec(`
			INSERT INTO eligible_voter (election_id, voter_id, has_voted, enrolled_at)
			VALUES ($1, $2, FALSE, $3)
		`, electionID, voterID, time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to enroll test voter: %v", err)
		}
	}
}

// CastTestVote writes a vote row directly and returns its ID
func CastTestVote(t *testing.T, conn *db.DB, electionID, positionID, candidateID, voterID string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO vote (id, election_id, position_id, candidate_id, voter_id, cast_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id, electionID, positionID, candidateID, voterID, now)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	return id
}

// CountVotes returns the number of vote rows for a (election, position, voter) key
func CountVotes(t *testing.T, conn *db.DB, electionID, positionID, voterID string) int {
	t.Helper()

	var count int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE election_id = $1 AND position_id = $2 AND voter_id = $3
	`, electionID, positionID, voterID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}

	return count
}

// TokenFor signs a bearer token for the given subject and role
func TokenFor(t *testing.T, subject, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}

	return signed
}

// BearerHeader returns request headers carrying a token for subject and role
func BearerHeader(t *testing.T, subject, role string) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + TokenFor(t, subject, role)}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
