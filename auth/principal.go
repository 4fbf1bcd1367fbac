// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"fmt"
	"strings"
)

type Role int

const (
	Anonymous Role = iota
	Voter
	Administrator
)

func (r Role) String() string {
	switch r {
	case Voter:
		return "voter"
	case Administrator:
		return "admin"
	default:
		return "anonymous"
	}
}

// ParseRole maps a token role claim to a Role. "student" is the voter role
// name used by the login service.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator":
		return Administrator, nil
	case "student", "voter":
		return Voter, nil
	}
	return Anonymous, fmt.Errorf("unknown role %q", s)
}

// Capability is something a request may be allowed to do.
type Capability int

const (
	CastVote Capability = iota
	ManageElections
	ViewResults
	ViewBallot
)

func (c Capability) String() string {
	switch c {
	case CastVote:
		return "cast_vote"
	case ManageElections:
		return "manage_elections"
	case ViewResults:
		return "view_results"
	case ViewBallot:
		return "view_ballot"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Principal is the caller of one request.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) Can(c Capability) bool {
	switch c {
	case CastVote:
		return p.Role == Voter
	case ManageElections:
		return p.Role == Administrator
	case ViewBallot:
		return p.Role == Voter || p.Role == Administrator
	case ViewResults:
		return true
	default:
		return false
	}
}

func (p Principal) IsAnonymous() bool {
	return p.Role == Anonymous
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the request principal, or an anonymous one.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
