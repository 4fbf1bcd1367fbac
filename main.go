// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/audit"
	"github.com/nelsonterdoo1000/college-election-portal/auth"
	"github.com/nelsonterdoo1000/college-election-portal/ballot"
	"github.com/nelsonterdoo1000/college-election-portal/broadcast"
	"github.com/nelsonterdoo1000/college-election-portal/cliparse"
	"github.com/nelsonterdoo1000/college-election-portal/db"
	"github.com/nelsonterdoo1000/college-election-portal/eligibility"
	"github.com/nelsonterdoo1000/college-election-portal/lifecycle"
	"github.com/nelsonterdoo1000/college-election-portal/middleware"
	"github.com/nelsonterdoo1000/college-election-portal/router"
	"github.com/nelsonterdoo1000/college-election-portal/tally"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Error("invalid log level", "level", cfg.LogLevel, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg cliparse.Config, logger *slog.Logger) error {
	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return err
	}
	policy, err := ballot.ParsePolicy(cfg.ResubmitPolicy)
	if err != nil {
		return err
	}
	visibility, err := lifecycle.ParseVisibility(cfg.ResultsVisibility)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	conn, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Create schema (tables)
	if err := conn.CreateSchema(ctx); err != nil {
		return err
	}
	logger.Info("Database schema ready", "dialect", dialect)

	auditLog := audit.NewAsync(audit.NewLogSink(logger), cfg.AuditBuffer, logger)
	defer auditLog.Close()

	engine := tally.NewEngine(conn, visibility)
	broadcaster := broadcast.New(engine, logger)
	defer broadcaster.Close()

	// Create router
	mux := router.NewRouter(router.Services{
		DB:          conn,
		Config:      cfg,
		Verifier:    auth.NewVerifier(cfg.JWTSecret),
		Lifecycle:   lifecycle.NewManager(conn, broadcaster, auditLog, logger),
		Ledger:      eligibility.NewLedger(conn),
		Box:         ballot.NewBox(conn, policy, cfg.VoteMaxRetries, broadcaster, auditLog, logger),
		Engine:      engine,
		Broadcaster: broadcaster,
		Audit:       auditLog,
	})

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()

		// Live results connections are hijacked, so Shutdown does not wait
		// for them; closing the broadcaster ends their streams.
		broadcaster.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("Listening", "port", cfg.Port, "resubmit_policy", policy, "results_visibility", visibility)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server closed")
	return nil
}
