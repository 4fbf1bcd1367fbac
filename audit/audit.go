// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Audit actions
const (
	ActionCastVote        = "cast_vote"
	ActionCreateElection  = "create_election"
	ActionStartElection   = "start_election"
	ActionEndElection     = "end_election"
	ActionArchiveElection = "archive_election"
)

// Sink receives audit events. Record must not block the caller for long and
// must not fail the operation being audited.
type Sink interface {
	Record(ctx context.Context, actor, action string, details map[string]any)
}

// Entry is one audit event.
type Entry struct {
	Actor     string
	Action    string
	Details   map[string]any
	Timestamp time.Time
}

// LogSink writes each event as a structured log record.
type LogSink struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, now: time.Now}
}

func (s *LogSink) Record(ctx context.Context, actor, action string, details map[string]any) {
	s.write(ctx, Entry{Actor: actor, Action: action, Details: details, Timestamp: s.now()})
}

func (s *LogSink) write(ctx context.Context, e Entry) {
	attrs := make([]any, 0, 3+len(e.Details))
	attrs = append(attrs,
		slog.String("actor", e.Actor),
		slog.String("action", e.Action),
		slog.Time("at", e.Timestamp),
	)
	for k, v := range e.Details {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.InfoContext(ctx, "audit", attrs...)
}

// entryWriter is implemented by sinks that can write an Entry with the
// timestamp it was queued with.
type entryWriter interface {
	write(ctx context.Context, e Entry)
}

// Async hands events to a Sink on a background goroutine through a bounded
// queue. When the queue is full the event is dropped with a warning.
type Async struct {
	next   Sink
	logger *slog.Logger
	queue  chan Entry

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync starts the worker. buffer <= 0 means 1.
func NewAsync(next Sink, buffer int, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 1
	}
	a := &Async{
		next:   next,
		logger: logger,
		queue:  make(chan Entry, buffer),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for e := range a.queue {
		// The request that produced the event is usually gone by now.
		if w, ok := a.next.(entryWriter); ok {
			w.write(context.Background(), e)
			continue
		}
		a.next.Record(context.Background(), e.Actor, e.Action, e.Details)
	}
}

func (a *Async) Record(_ context.Context, actor, action string, details map[string]any) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Warn("audit sink closed, dropping event", "action", action, "actor", actor)
		return
	}

	select {
	case a.queue <- Entry{Actor: actor, Action: action, Details: details, Timestamp: time.Now()}:
	default:
		a.logger.Warn("audit queue full, dropping event", "action", action, "actor", actor)
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(context.Context, string, string, map[string]any) {}
