// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes election results.

Every call reads the election and its vote counts inside one read-only
transaction (REPEATABLE READ on PostgreSQL), so a result never mixes counts
from before and after a concurrent commit.

Positions are ordered by display order then title, candidates by display
order then name. Candidates with no votes are listed with a zero count. No
winner is declared.
*/
package tally
