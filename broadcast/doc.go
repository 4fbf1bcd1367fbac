// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast pushes live results to observers.

The Broadcaster keeps a registry of per-election channels. A channel exists
while at least one Subscription is open and owns a single worker goroutine:

	Notify(id) ──> kick (1 slot) ──> worker ──> Source.PublishedResults ──> subscribers

Notify is called after a write commits. Refreshes coalesce: if a refresh is
already pending, further Notify calls add nothing. Because one worker serves
a channel, snapshots on it are delivered in the order they were computed.

Each subscriber holds at most one unread Update. A slow reader skips
intermediate snapshots but always ends up with the newest one.
*/
package broadcast
