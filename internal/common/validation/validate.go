// internal/common/validation/validate.go
//
// Package validation collects the small input checks shared by worker
// validation files. Anything schema-shaped goes through gojsonschema in
// pkg/registry instead.
package validation

import (
	"fmt"
	"regexp"
	"time"
)

// ValidateEnum checks membership in an allowed value set.
func ValidateEnum(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", field, allowed, value)
}

// ValidateScoreRange checks an integer score against inclusive bounds.
func ValidateScoreRange(field string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", field, min, max, value)
	}
	return nil
}

// ValidateRFC3339 parses a timestamp field.
func ValidateRFC3339(field, value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339: %v", field, err)
	}
	return ts, nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	emailPattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	phonePattern := regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
	return phonePattern.MatchString(phone)
}
