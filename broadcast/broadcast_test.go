// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nelsonterdoo1000/college-election-portal/models"
)

// fakeSource reports the current version as the total of its only position.
type fakeSource struct {
	version atomic.Int32
	calls   atomic.Int32
	delay   time.Duration

	mu  sync.Mutex
	err error
}

func (s *fakeSource) PublishedResults(_ context.Context, electionID string) (models.ElectionResults, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return models.ElectionResults{}, err
	}
	return models.ElectionResults{
		ElectionID: electionID,
		Positions:  []models.PositionResult{{PositionID: "p1", TotalVotes: int(s.version.Load())}},
	}, nil
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (b *Broadcaster) channelCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.channels)
}

func next(t *testing.T, sub *Subscription) Update {
	t.Helper()
	select {
	case u := <-sub.Updates():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

// waitForVersion reads until an update carries version want.
func waitForVersion(t *testing.T, sub *Subscription, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-sub.Updates():
			if u.Err == nil && u.Results.Positions[0].TotalVotes == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for version %d", want)
		}
	}
}

func TestSubscribe_InitialSnapshot(t *testing.T) {
	src := &fakeSource{}
	src.version.Store(7)
	b := New(src, nil)
	defer b.Close()

	sub := b.Subscribe("e1")
	defer sub.Close()

	u := next(t, sub)
	if u.Err != nil {
		t.Fatalf("unexpected error: %v", u.Err)
	}
	if u.ElectionID != "e1" || u.Results.Positions[0].TotalVotes != 7 {
		t.Errorf("unexpected initial update: %+v", u)
	}
}

func TestNotify_DeliversToAllSubscribers(t *testing.T) {
	src := &fakeSource{}
	b := New(src, nil)
	defer b.Close()

	subs := []*Subscription{b.Subscribe("e1"), b.Subscribe("e1"), b.Subscribe("e1")}
	for _, sub := range subs {
		defer sub.Close()
	}

	src.version.Store(1)
	b.Notify("e1")

	for _, sub := range subs {
		waitForVersion(t, sub, 1)
	}
}

func TestNotify_WithoutSubscribersIsNoop(t *testing.T) {
	src := &fakeSource{}
	b := New(src, nil)
	defer b.Close()

	b.Notify("nobody-watching")
	time.Sleep(20 * time.Millisecond)

	if src.calls.Load() != 0 {
		t.Errorf("expected no computation, got %d", src.calls.Load())
	}
	if b.channelCount() != 0 {
		t.Errorf("expected no channels, got %d", b.channelCount())
	}
}

func TestSlowSubscriber_GetsLatest(t *testing.T) {
	src := &fakeSource{}
	b := New(src, nil)
	defer b.Close()

	sub := b.Subscribe("e1")
	defer sub.Close()

	// Nobody reads while many changes land.
	for i := 1; i <= 50; i++ {
		src.version.Store(int32(i))
		b.Notify("e1")
	}

	waitForVersion(t, sub, 50)

	select {
	case u := <-sub.Updates():
		if u.Results.Positions[0].TotalVotes != 50 {
			t.Errorf("stale update after latest: %+v", u)
		}
	default:
	}
}

func TestNotify_Coalesces(t *testing.T) {
	src := &fakeSource{delay: 5 * time.Millisecond}
	b := New(src, nil)
	defer b.Close()

	sub := b.Subscribe("e1")
	defer sub.Close()
	next(t, sub)

	for i := 0; i < 100; i++ {
		b.Notify("e1")
	}
	time.Sleep(50 * time.Millisecond)

	// One initial snapshot plus far fewer than 100 refreshes.
	if calls := src.calls.Load(); calls >= 100 {
		t.Errorf("expected coalesced refreshes, got %d computations", calls)
	}
}

func TestUnavailableResults(t *testing.T) {
	src := &fakeSource{}
	src.setErr(models.ErrResultsNotAvailable)
	b := New(src, nil)
	defer b.Close()

	sub := b.Subscribe("e1")
	defer sub.Close()

	u := next(t, sub)
	if !errors.Is(u.Err, models.ErrResultsNotAvailable) {
		t.Errorf("expected ErrResultsNotAvailable, got %v", u.Err)
	}

	src.setErr(nil)
	src.version.Store(3)
	b.Notify("e1")
	waitForVersion(t, sub, 3)
}

func TestElectionsAreIndependent(t *testing.T) {
	src := &fakeSource{}
	b := New(src, nil)
	defer b.Close()

	s1 := b.Subscribe("e1")
	defer s1.Close()
	s2 := b.Subscribe("e2")
	defer s2.Close()

	if got := next(t, s1); got.ElectionID != "e1" {
		t.Errorf("e1 subscriber got %s", got.ElectionID)
	}
	if got := next(t, s2); got.ElectionID != "e2" {
		t.Errorf("e2 subscriber got %s", got.ElectionID)
	}

	b.Notify("e2")
	if got := next(t, s2); got.ElectionID != "e2" {
		t.Errorf("e2 subscriber got %s", got.ElectionID)
	}
	select {
	case u := <-s1.Updates():
		t.Errorf("e1 subscriber should not see e2 refresh: %+v", u)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestLastUnsubscribeRemovesChannel(t *testing.T) {
	b := New(&fakeSource{}, nil)
	defer b.Close()

	s1 := b.Subscribe("e1")
	s2 := b.Subscribe("e1")
	if b.channelCount() != 1 {
		t.Fatalf("expected 1 channel, got %d", b.channelCount())
	}

	s1.Close()
	if b.channelCount() != 1 {
		t.Errorf("channel removed while a subscriber remains")
	}
	select {
	case <-s1.Done():
	default:
		t.Error("closed subscription should report done")
	}

	s2.Close()
	s2.Close()
	if b.channelCount() != 0 {
		t.Errorf("expected channel removed, got %d", b.channelCount())
	}

	// Resubscribing starts a fresh channel.
	s3 := b.Subscribe("e1")
	defer s3.Close()
	next(t, s3)
}

func TestClose_EndsSubscriptions(t *testing.T) {
	b := New(&fakeSource{}, nil)
	sub := b.Subscribe("e1")

	b.Close()
	b.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not ended by Close")
	}

	// Safe after Close.
	b.Notify("e1")
	sub.Close()

	late := b.Subscribe("e1")
	select {
	case <-late.Done():
	default:
		t.Error("subscription after Close should be done immediately")
	}
}

func TestConcurrentSubscribeNotify(t *testing.T) {
	src := &fakeSource{}
	b := New(src, nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe("e1")
			defer sub.Close()
			select {
			case <-sub.Updates():
			case <-time.After(2 * time.Second):
				t.Error("timed out waiting for update")
			}
		}()
		go func() {
			defer wg.Done()
			b.Notify("e1")
		}()
	}
	wg.Wait()

	if b.channelCount() != 0 {
		t.Errorf("expected all channels removed, got %d", b.channelCount())
	}
}
