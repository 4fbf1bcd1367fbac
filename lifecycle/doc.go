// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle manages election status.

	pending ──Start──> active ──End──> completed ──Archive──> archived

Manager performs each transition inside a transaction that locks the election
row, then notifies live observers and records an audit event. The predicates
CanAcceptVotes and CanShowResults are the single source of truth for "is voting
open" and "may results be shown".
*/
package lifecycle
