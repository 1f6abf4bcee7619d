package domain

import (
	"strings"
	"unicode/utf8"
)

// NormalizeStatus trims a requested status and checks it fits the column.
// Any non-empty value is accepted; there is no transition graph.
func NormalizeStatus(status string) (string, error) {
	s := strings.TrimSpace(status)
	if s == "" {
		return "", NewValidationError("status", "status is required")
	}
	if utf8.RuneCountInString(s) > MaxStatusLength {
		return "", NewValidationError("status", "status cannot exceed 50 characters")
	}
	return s, nil
}

// IsKnownStatus reports whether s is one of the statuses the dashboard offers.
func IsKnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
