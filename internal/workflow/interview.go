// internal/workflow/interview.go
package workflow

import "fmt"

// InterviewStatus values mirror the interview_status values stored in
// PostgreSQL.
//
// Graph: PLANNED → CONFIRMED → DONE, with CANCELLED and POSTPONED reachable
// from any non-terminal state. A POSTPONED interview returns to PLANNED or
// CONFIRMED once rescheduled. DONE and CANCELLED are terminal.
type InterviewStatus string

const (
	InterviewPlanned   InterviewStatus = "PLANNED"
	InterviewConfirmed InterviewStatus = "CONFIRMED"
	InterviewDone      InterviewStatus = "DONE"
	InterviewCancelled InterviewStatus = "CANCELLED"
	InterviewPostponed InterviewStatus = "POSTPONED"
)

var validInterviewTransitions = map[InterviewStatus][]InterviewStatus{
	InterviewPlanned:   {InterviewConfirmed, InterviewDone, InterviewCancelled, InterviewPostponed},
	InterviewConfirmed: {InterviewDone, InterviewCancelled, InterviewPostponed},
	InterviewPostponed: {InterviewPlanned, InterviewConfirmed, InterviewCancelled},
	// DONE and CANCELLED are terminal
}

// ParseInterviewStatus converts a raw string to an InterviewStatus,
// returning an error for unknown values.
func ParseInterviewStatus(s string) (InterviewStatus, error) {
	st := InterviewStatus(s)
	switch st {
	case InterviewPlanned, InterviewConfirmed, InterviewDone, InterviewCancelled, InterviewPostponed:
		return st, nil
	}
	return "", fmt.Errorf("unknown interview status %q", s)
}

// IsInterviewTransitionAllowed returns true when moving from → to is
// permitted. Self-transitions are allowed for metadata updates.
func IsInterviewTransitionAllowed(from, to InterviewStatus) bool {
	if from == to {
		return true
	}
	for _, s := range validInterviewTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionInterview is the authoritative guard for interview status
// changes, mirroring Transition for applications.
func TransitionInterview(from, to InterviewStatus) (InterviewStatus, error) {
	if !IsInterviewTransitionAllowed(from, to) {
		return "", fmt.Errorf("illegal interview transition %s → %s", from, to)
	}
	return to, nil
}

// IsInterviewTerminal reports whether the interview can no longer change
// state.
func IsInterviewTerminal(s InterviewStatus) bool {
	return s == InterviewDone || s == InterviewCancelled
}

// InterviewAction names a one-click interview move exposed to recruiters.
type InterviewAction string

const (
	InterviewActionConfirm  InterviewAction = "confirm"
	InterviewActionPostpone InterviewAction = "postpone"
	InterviewActionMarkDone InterviewAction = "mark-done"
	InterviewActionCancel   InterviewAction = "cancel"
)

var interviewActionTargets = map[InterviewAction]InterviewStatus{
	InterviewActionConfirm:  InterviewConfirmed,
	InterviewActionPostpone: InterviewPostponed,
	InterviewActionMarkDone: InterviewDone,
	InterviewActionCancel:   InterviewCancelled,
}

// ResolveInterviewAction returns the target status an interview quick
// action requests. Legality is still decided by TransitionInterview.
func ResolveInterviewAction(a InterviewAction) (InterviewStatus, error) {
	target, ok := interviewActionTargets[a]
	if !ok {
		return "", fmt.Errorf("unknown interview action %q", a)
	}
	return target, nil
}
