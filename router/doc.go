// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the election API.

# Route Registration

NewRouter creates a configured http.ServeMux from the long-lived services:

	mux := router.NewRouter(router.Services{DB: conn, Config: cfg, ...})

Every API route runs through middleware.WithLogging, middleware.Authenticate
and middleware.Require with the capability listed below.

# Endpoints

Health:

	GET /health

Election management (ManageElections, administrators):

	POST /api/elections                                      - Create election
	POST /api/elections/{id}/start                           - pending → active
	POST /api/elections/{id}/end                             - active → completed
	POST /api/elections/{id}/archive                         - completed → archived
	POST /api/elections/{id}/positions                       - Add position
	POST /api/elections/{id}/positions/{positionID}/candidates - Add candidate
	POST /api/elections/{id}/voters                          - Enroll voters

Ballot and voting:

	GET  /api/elections            - Elections the caller may see (ViewBallot)
	GET  /api/elections/{id}       - Ballot with the caller's choices (ViewBallot)
	GET  /api/votes?election={id}  - The caller's own votes (ViewBallot)
	POST /api/votes                - Cast a vote (CastVote, voters)

Voters only see elections they are enrolled in; administrators see all.

Results (ViewResults):

	GET /api/elections/{id}/results - Published results
	GET /ws/public/elections/{id}/live-results - Websocket stream of result frames
*/
package router
