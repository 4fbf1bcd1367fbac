// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/auth"
	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// Machine-readable error codes
const (
	CodeNotFound            = "not_found"
	CodeInvalidTransition   = "invalid_transition"
	CodeElectionNotOpen     = "election_not_open"
	CodeNotEligible         = "not_eligible"
	CodeAlreadyVoted        = "already_voted"
	CodeInvalidBallot       = "invalid_ballot"
	CodeConcurrencyConflict = "concurrency_conflict"
	CodeResultsNotAvailable = "results_not_available"
	CodeElectionLocked      = "election_locked"
	CodeDuplicate           = "duplicate"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal"
)

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Log request
		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		// Call the next handler
		next(w, r)

		// Log completion
		duration := time.Since(start)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// Authenticate resolves the request principal from the Authorization header.
// Requests without a bearer token continue as anonymous; a token that fails
// verification is rejected with 401.
func Authenticate(v *auth.Verifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next(w, r)
			return
		}

		principal, err := v.Verify(token)
		if err != nil {
			slog.Warn("rejected bearer token", "path", r.URL.Path, "error", err)
			ErrorResponse(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired token")
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// Require rejects requests whose principal lacks capability c. Anonymous
// callers get 401, authenticated ones 403.
func Require(c auth.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.FromContext(r.Context())
		if principal.Can(c) {
			next(w, r)
			return
		}
		if principal.IsAnonymous() {
			ErrorResponse(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
			return
		}
		ErrorResponse(w, http.StatusForbidden, CodeForbidden, "you do not have permission to "+strings.ReplaceAll(c.String(), "_", " "))
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// CORS middleware allows cross-origin requests from the frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	// Strip port if present
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
