package data

import (
	"errors"
	"fmt"
)

// ConfigurationError means that a required structured-data input was missing, unreadable, or
// malformed. Fatal is set for inputs whose absence should terminate the process rather than fail
// a single test, such as the credential file.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
	Fatal  bool
}

func (e ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error in %q: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}

// IsFatal returns true if err is or wraps a ConfigurationError with Fatal set.
func IsFatal(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce) && ce.Fatal
}
