package db

import "strings"

// IsUniqueViolation reports whether err is a Postgres unique violation.
// When constraintName is given, it additionally checks that the named
// constraint appears in the error text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
