// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot accepts votes.

Box.CastVote is the only way a vote reaches storage. Inside one transaction it
checks, in order:

 1. the election exists (models.ErrNotFound)
 2. the election is active (models.ErrElectionNotOpen)
 3. the candidate stands for the position and the position is on this
    election's ballot (models.ErrInvalidBallot)
 4. the voter is enrolled (models.ErrNotEligible)

It then writes the vote under the process-wide Policy:

	PolicyReject   INSERT ... ON CONFLICT DO NOTHING; a second vote gets ErrAlreadyVoted
	PolicyReplace  INSERT ... ON CONFLICT DO UPDATE; the latest choice wins

The UNIQUE (election_id, position_id, voter_id) constraint is what serializes
concurrent votes for the same key. Storage conflicts are retried a bounded
number of times before ErrConcurrencyConflict reaches the caller.

After commit the Box notifies the live results broadcaster and records a
cast_vote audit event. Neither can fail the vote.
*/
package ballot
