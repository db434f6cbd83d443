package utils

import "os"

// Getenv reads an environment variable, falling back to the given default
// when the variable is unset or empty. Empty counts as unset because a blank
// value in a .env file is never a deliberate configuration.
func Getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
