package services

import "strings"

// isUniqueViolation detects sqlite unique-constraint failures so they can be
// reported as domain conflicts instead of leaking driver error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
