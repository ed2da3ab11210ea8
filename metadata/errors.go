package metadata

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is matched by ConfigurationError.
var ErrNotConfigured = errors.New("metadata provider not initialized")

// ValidationError reports a calendars payload that could not be used.
type ValidationError struct {
	URL    string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid calendars metadata from %s", e.URL)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError is returned when Op needs a provider that was never
// initialized through a Registry.
type ConfigurationError struct {
	Op string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v; call Instance first", e.Op, ErrNotConfigured)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrNotConfigured }
