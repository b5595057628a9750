// Package errs holds the error types shared by the index, discovery and
// offline layers.
package errs

import (
	"errors"
	"fmt"
)

// ConfigError signals a broken offline-event setup: a missing or malformed
// index artifact, a class id the catalog cannot resolve, or a class that does
// not implement the capability it is indexed for. It is fatal to the operation
// that needed the data.
type ConfigError struct {
	Op      string // operation that needed the data, e.g. "index load"
	Subject string // file path, event name or class id
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Subject, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config constructs a ConfigError.
func Config(op, subject string, err error) error {
	return &ConfigError{Op: op, Subject: subject, Err: err}
}

// Configf constructs a ConfigError with a formatted cause.
func Configf(op, subject, format string, a ...any) error {
	return &ConfigError{Op: op, Subject: subject, Err: fmt.Errorf(format, a...)}
}

// IsConfig reports whether err (or anything it wraps) is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
