package utils

import "fmt"

// Wrap adds context to an error while preserving the wrapped error
// chain for errors.Is() checks against package sentinels.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
