// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package eligibility answers "may this voter vote in this election" and keeps
// the has_voted hint. The hint means the voter has cast at least one vote in
// the election; it is never used to reject a ballot.
package eligibility
