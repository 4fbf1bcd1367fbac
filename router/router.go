// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/nelsonterdoo1000/college-election-portal/audit"
	"github.com/nelsonterdoo1000/college-election-portal/auth"
	"github.com/nelsonterdoo1000/college-election-portal/ballot"
	"github.com/nelsonterdoo1000/college-election-portal/broadcast"
	"github.com/nelsonterdoo1000/college-election-portal/cliparse"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/eligibility"
	"github.com/nelsonterdoo1000/college-election-portal/handlers"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/middleware"
	"github.com/nelsonterdoo1000/college-election-portal/tally"
)

// Services are the long-lived components the routes are served by.
type Services struct {
	DB          *db.DB
	Config      cliparse.Config
	Verifier    *auth.Verifier
	Lifecycle   *lifecycle.Manager
	Ledger      *eligibility.Ledger
	Box         *ballot.Box
	Engine      *tally.Engine
	Broadcaster *broadcast.Broadcaster
	Audit       audit.Sink
}

func NewRouter(svc Services) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(svc.DB, svc.Lifecycle, svc.Ledger, svc.Box, svc.Audit)
	votingHandler := handlers.NewVotingHandler(svc.DB, svc.Box, svc.Config)
	resultsHandler := handlers.NewResultsHandler(svc.DB, svc.Engine, svc.Broadcaster)

	route := func(c auth.Capability, h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.Authenticate(svc.Verifier, middleware.Require(c, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election management (administrators)
	mux.HandleFunc("POST /api/elections", route(auth.ManageElections, electionHandler.CreateElection))
	mux.HandleFunc("POST /api/elections/{id}/start", route(auth.ManageElections, electionHandler.StartElection))
	mux.HandleFunc("POST /api/elections/{id}/end", route(auth.ManageElections, electionHandler.EndElection))
	mux.HandleFunc("POST /api/elections/{id}/archive", route(auth.ManageElections, electionHandler.ArchiveElection))
	mux.HandleFunc("POST /api/elections/{id}/positions", route(auth.ManageElections, electionHandler.AddPosition))
	mux.HandleFunc("POST /api/elections/{id}/positions/{positionID}/candidates", route(auth.ManageElections, electionHandler.AddCandidate))
	mux.HandleFunc("POST /api/elections/{id}/voters", route(auth.ManageElections, electionHandler.EnrollVoters))

	// Ballot and voting
	mux.HandleFunc("GET /api/elections", route(auth.ViewBallot, electionHandler.ListElections))
	mux.HandleFunc("GET /api/elections/{id}", route(auth.ViewBallot, electionHandler.GetElection))
	mux.HandleFunc("GET /api/votes", route(auth.ViewBallot, votingHandler.ListVotes))
	mux.HandleFunc("POST /api/votes", route(auth.CastVote, votingHandler.CastVote))

	// Results
	mux.HandleFunc("GET /api/elections/{id}/results", route(auth.ViewResults, resultsHandler.GetResults))
	mux.HandleFunc("GET /ws/public/elections/{id}/live-results", route(auth.ViewResults, resultsHandler.LiveResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("college-election-portal API v1"))
	})

	return mux
}
