// Package env reads process environment knobs that are needed before
// the envconfig-backed config is loaded, such as the log format the
// bootstrap logger uses while config parsing can still fail.
package env

import "os"

// Get returns the variable's value, or fallback when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
