// internal/workflow/status.go
//
// Package workflow is the single source of truth for the recruitment
// pipeline state machines. Every write path that changes an application
// or interview status must go through this package; no handler carries
// its own transition logic.
//
// Application status graph:
//
//	DRAFT ──► SUBMITTED ──► FOLLOWED_UP ──► INTERVIEW ──► OFFER ──► ACCEPTED
//	  │           │              │              │           │
//	  │           │              └──────────────┴───────────┴─────► REFUSED
//	  └───────────┴──────────────────────────────────────────────► WITHDRAWN
//	                                                  (candidate-side only)
//
// ACCEPTED, REFUSED and WITHDRAWN are terminal. Every status allows a
// self-transition so metadata-only updates pass the same guard.
package workflow

import "fmt"

// Status values mirror the application_status values stored in PostgreSQL.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusSubmitted  Status = "SUBMITTED"
	StatusFollowedUp Status = "FOLLOWED_UP"
	StatusInterview  Status = "INTERVIEW"
	StatusOffer      Status = "OFFER"
	StatusAccepted   Status = "ACCEPTED"
	StatusRefused    Status = "REFUSED"
	StatusWithdrawn  Status = "WITHDRAWN"
)

// MaxInterviewRounds caps applications.interview_round.
const MaxInterviewRounds = 3

// validTransitions lists every allowed (from → to) pair. Self-transitions
// are implicit and handled by IsTransitionAllowed.
var validTransitions = map[Status][]Status{
	StatusDraft:      {StatusSubmitted, StatusWithdrawn},
	StatusSubmitted:  {StatusFollowedUp, StatusWithdrawn},
	StatusFollowedUp: {StatusInterview, StatusRefused},
	StatusInterview:  {StatusOffer, StatusRefused},
	StatusOffer:      {StatusAccepted, StatusRefused},
	// ACCEPTED, REFUSED and WITHDRAWN are terminal, no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDraft, StatusSubmitted, StatusFollowedUp, StatusInterview,
		StatusOffer, StatusAccepted, StatusRefused, StatusWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
// A status may always transition to itself.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates from → to and returns the target status. This is the
// authoritative guard: callers persist the returned value or propagate the
// error, never both.
func Transition(from, to Status) (Status, error) {
	if !IsTransitionAllowed(from, to) {
		return "", fmt.Errorf("illegal status transition %s → %s", from, to)
	}
	return to, nil
}

// IsTerminal reports whether no further progress is possible.
func IsTerminal(s Status) bool {
	return s == StatusAccepted || s == StatusRefused || s == StatusWithdrawn
}

// IsActive reports whether the application still counts toward the open
// pipeline (non-terminal, past draft).
func IsActive(s Status) bool {
	return !IsTerminal(s) && s != StatusDraft
}

// QuickAction names a one-click pipeline move exposed to recruiters.
type QuickAction string

const (
	ActionAdvanceToInterview QuickAction = "advance-to-interview"
	ActionHoldForReview      QuickAction = "hold-for-review"
	ActionAccept             QuickAction = "accept"
	ActionRefuse             QuickAction = "refuse"
)

// quickActionTargets maps each quick action to the status it requests. The
// mapping is intentionally dumb: legality is still decided by Transition.
var quickActionTargets = map[QuickAction]Status{
	ActionAdvanceToInterview: StatusInterview,
	ActionHoldForReview:      StatusFollowedUp,
	ActionAccept:             StatusAccepted,
	ActionRefuse:             StatusRefused,
}

// ResolveQuickAction returns the target status a quick action requests.
func ResolveQuickAction(a QuickAction) (Status, error) {
	target, ok := quickActionTargets[a]
	if !ok {
		return "", fmt.Errorf("unknown quick action %q", a)
	}
	return target, nil
}
