// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/nelsonterdoo1000/college-election-portal/broadcast"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/middleware"
	"github.com/nelsonterdoo1000/college-election-portal/models"
	"github.com/nelsonterdoo1000/college-election-portal/tally"
)

type ResultsHandler struct {
	db          *db.DB
	engine      *tally.Engine
	broadcaster *broadcast.Broadcaster
}

func NewResultsHandler(conn *db.DB, engine *tally.Engine, broadcaster *broadcast.Broadcaster) *ResultsHandler {
	return &ResultsHandler{db: conn, engine: engine, broadcaster: broadcaster}
}

// GetResults handles GET /api/elections/{id}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.PublishedResults(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// LiveResults handles GET /ws/public/elections/{id}/live-results (websocket upgrade)
func (h *ResultsHandler) LiveResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	// Unknown elections are refused before the upgrade.
	if _, err := lifecycle.Load(r.Context(), h.db, electionID, ""); err != nil {
		writeDomainError(w, err)
		return
	}

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()
		h.stream(conn, electionID)
	})
	wsHandler.ServeHTTP(w, r)
}

func (h *ResultsHandler) stream(conn *websocket.Conn, electionID string) {
	sub := h.broadcaster.Subscribe(electionID)
	defer sub.Close()

	slog.Info("live results observer connected", "election_id", electionID)
	defer slog.Info("live results observer disconnected", "election_id", electionID)

	// Observers never send anything meaningful; a read error means they left.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-sub.Done():
			return
		case u := <-sub.Updates():
			if err := websocket.JSON.Send(conn, liveFrame(u)); err != nil {
				slog.Debug("live results send failed", "election_id", electionID, "error", err)
				return
			}
		}
	}
}

func liveFrame(u broadcast.Update) models.LiveFrame {
	switch {
	case u.Err == nil:
		results := u.Results
		return models.LiveFrame{Type: models.FrameResults, Results: &results}
	case errors.Is(u.Err, models.ErrResultsNotAvailable):
		return models.LiveFrame{Type: models.FrameUnavailable, Error: models.ErrResultsNotAvailable.Error()}
	case errors.Is(u.Err, models.ErrNotFound):
		return models.LiveFrame{Type: models.FrameUnavailable, Error: models.ErrNotFound.Error()}
	default:
		return models.LiveFrame{Type: models.FrameUnavailable, Error: "results could not be computed"}
	}
}
