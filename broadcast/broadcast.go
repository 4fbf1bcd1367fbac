// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// Source produces the results observers are allowed to see.
type Source interface {
	PublishedResults(ctx context.Context, electionID string) (models.ElectionResults, error)
}

// Update is one snapshot pushed to subscribers. Err is set when results could
// not be produced, e.g. models.ErrResultsNotAvailable.
type Update struct {
	ElectionID string
	Results    models.ElectionResults
	Err        error
}

// Broadcaster keeps one channel per election that has live observers.
type Broadcaster struct {
	source Source
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards channel membership only; results are computed outside it.
	mu       sync.Mutex
	channels map[string]*channel
	closed   bool
}

type channel struct {
	electionID string
	// kick has room for one pending refresh; extra Notify calls coalesce.
	kick chan struct{}
	subs map[*Subscription]struct{}
	ctx  context.Context
	stop context.CancelFunc
}

func New(source Source, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Broadcaster{
		source:   source,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		channels: make(map[string]*channel),
	}
}

// Notify asks for fresh results to be sent to the election's observers. It
// never blocks and does nothing when nobody is watching.
func (b *Broadcaster) Notify(electionID string) {
	b.mu.Lock()
	ch := b.channels[electionID]
	b.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch.kick <- struct{}{}:
	default:
	}
}

// Subscribe registers an observer. The subscriber receives a fresh snapshot
// shortly after subscribing and then one after every change. Call Close when
// done.
func (b *Broadcaster) Subscribe(electionID string) *Subscription {
	sub := &Subscription{
		b:          b,
		electionID: electionID,
		updates:    make(chan Update, 1),
		done:       make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.finish()
		return sub
	}
	ch := b.channels[electionID]
	if ch == nil {
		ctx, stop := context.WithCancel(b.ctx)
		ch = &channel{
			electionID: electionID,
			kick:       make(chan struct{}, 1),
			subs:       make(map[*Subscription]struct{}),
			ctx:        ctx,
			stop:       stop,
		}
		b.channels[electionID] = ch
		b.wg.Add(1)
		go b.run(ch)
	}
	ch.subs[sub] = struct{}{}
	sub.ch = ch
	b.mu.Unlock()

	b.Notify(electionID)
	return sub
}

func (b *Broadcaster) run(ch *channel) {
	defer b.wg.Done()
	for {
		select {
		case <-ch.ctx.Done():
			return
		case <-ch.kick:
		}

		results, err := b.source.PublishedResults(ch.ctx, ch.electionID)
		if ch.ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, models.ErrResultsNotAvailable) {
			b.logger.Warn("failed to compute live results", "election_id", ch.electionID, "error", err)
		}

		u := Update{ElectionID: ch.electionID, Results: results, Err: err}
		for _, sub := range b.subscribers(ch) {
			sub.deliver(u)
		}
	}
}

func (b *Broadcaster) subscribers(ch *channel) []*Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := make([]*Subscription, 0, len(ch.subs))
	for sub := range ch.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := sub.ch
	if ch == nil {
		return
	}
	delete(ch.subs, sub)
	if len(ch.subs) == 0 && b.channels[ch.electionID] == ch {
		delete(b.channels, ch.electionID)
		ch.stop()
	}
}

// Close stops every worker and ends all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var subs []*Subscription
	for id, ch := range b.channels {
		for sub := range ch.subs {
			subs = append(subs, sub)
		}
		delete(b.channels, id)
	}
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	for _, sub := range subs {
		sub.finish()
	}
}

// Subscription is one observer of one election.
type Subscription struct {
	b          *Broadcaster
	ch         *channel
	electionID string
	updates    chan Update
	done       chan struct{}
	once       sync.Once
}

// Updates delivers the newest snapshot. Intermediate snapshots are dropped
// when the reader falls behind. The channel is never closed; select on Done.
func (s *Subscription) Updates() <-chan Update {
	return s.updates
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) ElectionID() string {
	return s.electionID
}

// Close unsubscribes. The last subscriber to leave stops the election's worker.
func (s *Subscription) Close() {
	s.b.remove(s)
	s.finish()
}

func (s *Subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

// deliver replaces any unread update with u. Only the election's worker sends,
// so the buffer is empty after the drain.
func (s *Subscription) deliver(u Update) {
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- u:
	default:
	}
}
