// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth resolves who is calling and what they may do.

# Bearer Tokens

Tokens are HS256 JWTs issued by the login service. This package only
verifies them:

	v := auth.NewVerifier(cfg.JWTSecret)
	principal, err := v.Verify(auth.BearerToken(r.Header.Get("Authorization")))

The sub claim is the user ID and the role claim is "admin" or "student".

# Capabilities

Permissions are a closed switch over three roles:

	                  Anonymous  Voter  Administrator
	CastVote              -        x         -
	ManageElections       -        -         x
	ViewResults           x        x         x
	ViewBallot            -        x         x

Whether results are visible yet is decided by the election status, not here.
Which elections a voter may see is decided by enrollment.

# IP Hashing

For the audit trail:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
