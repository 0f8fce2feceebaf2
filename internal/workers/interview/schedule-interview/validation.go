// internal/workers/interview/schedule-interview/validation.go
package scheduleinterview

import (
	"fmt"
	"time"

	"hrflow-workers/internal/common/validation"
)

var allowedInterviewTypes = []string{"PHONE", "VIDEO", "ON_SITE", "TECHNICAL", "HR", "FINAL"}

// validateInput checks the scheduling request and returns the parsed slot.
func validateInput(input *Input, now time.Time) (time.Time, error) {
	if input.ApplicationID == "" {
		return time.Time{}, fmt.Errorf("%w: applicationId is required", ErrInvalidInput)
	}
	if err := validation.ValidateEnum("interviewType", input.InterviewType, allowedInterviewTypes); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	slot, err := validation.ValidateRFC3339("scheduledAt", input.ScheduledAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if slot.Before(now) {
		return time.Time{}, fmt.Errorf("%w: scheduledAt %s is in the past", ErrPastInterviewDate, input.ScheduledAt)
	}
	if input.DurationMinutes < 0 {
		return time.Time{}, fmt.Errorf("%w: durationMinutes must not be negative", ErrInvalidInput)
	}
	return slot, nil
}
