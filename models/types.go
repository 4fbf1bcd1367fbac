package models

import "time"

// Election status constants
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// Request types

type CreateElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_datetime"`
	EndAt       time.Time `json:"end_datetime"`
}

type AddPositionRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"order"`
}

type AddCandidateRequest struct {
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	DisplayOrder int    `json:"order"`
}

type EnrollVotersRequest struct {
	VoterIDs []string `json:"voter_ids"`
}

// Field names follow the original vote form: election, position, candidate.
type CastVoteRequest struct {
	ElectionID  string `json:"election"`
	PositionID  string `json:"position"`
	CandidateID string `json:"candidate"`
}

// Response types

type StatusResponse struct {
	Status string `json:"status"`
}

type EnrollVotersResponse struct {
	Enrolled int `json:"enrolled"`
}

type CastVoteResponse struct {
	Vote     Vote   `json:"vote"`
	Replaced bool   `json:"replaced"`
	Policy   string `json:"policy"`
}

// Domain types

type Election struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_datetime"`
	EndAt       time.Time `json:"end_datetime"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Position struct {
	ID           string `json:"id"`
	ElectionID   string `json:"election"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"order"`
}

type Candidate struct {
	ID           string `json:"id"`
	PositionID   string `json:"position"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	DisplayOrder int    `json:"order"`
}

// EligibleVoter pairs a voter with an election. HasVoted means "cast at least
// one vote in this election"; per-position completion comes from Vote rows.
type EligibleVoter struct {
	ElectionID string    `json:"election"`
	VoterID    string    `json:"voter"`
	HasVoted   bool      `json:"has_voted"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type Vote struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election"`
	PositionID  string    `json:"position"`
	CandidateID string    `json:"candidate"`
	VoterID     string    `json:"voter"`
	CastAt      time.Time `json:"timestamp"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Election detail as seen by one principal

type CandidateDetail struct {
	Candidate
	HasVotedFor bool `json:"has_voted_for"`
}

type VoteSummary struct {
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	Timestamp     time.Time `json:"timestamp"`
}

type PositionDetail struct {
	Position
	Candidates   []CandidateDetail `json:"candidates"`
	UserHasVoted bool              `json:"user_has_voted"`
	UserVote     *VoteSummary      `json:"user_vote"`
}

// BallotVote is one of the caller's votes, listed by GET /api/votes.
type BallotVote struct {
	PositionID string `json:"position"`
	VoteSummary
}

type VoterBallotResponse struct {
	ElectionID string       `json:"election"`
	Votes      []BallotVote `json:"votes"`
}

type ElectionDetail struct {
	Election
	Positions      []PositionDetail `json:"positions"`
	UserIsEligible bool             `json:"user_is_eligible"`
	UserTotalVotes int              `json:"user_total_votes"`
}

// Tally types

type CandidateResult struct {
	CandidateID   string `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	VoteCount     int    `json:"vote_count"`
}

type PositionResult struct {
	PositionID    string            `json:"position_id"`
	PositionTitle string            `json:"position_title"`
	Candidates    []CandidateResult `json:"candidates"`
	TotalVotes    int               `json:"total_votes"`
}

type ElectionResults struct {
	ElectionID    string           `json:"election_id"`
	ElectionTitle string           `json:"election_title"`
	Status        string           `json:"status"`
	Positions     []PositionResult `json:"positions"`
	ComputedAt    time.Time        `json:"computed_at"`
}

// Live results frames

const (
	FrameResults     = "results"
	FrameUnavailable = "unavailable"
)

type LiveFrame struct {
	Type    string           `json:"type"`
	Results *ElectionResults `json:"results,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
