package manager

import (
	"errors"
	"fmt"
)

// invalidConfigurationError signals a config rejected at construction.
type invalidConfigurationError struct{ msg string }

func (e invalidConfigurationError) Error() string { return "invalid configuration: " + e.msg }

// IsInvalidConfiguration reports whether err was raised by New for a bad config.
func IsInvalidConfiguration(err error) bool {
	var target invalidConfigurationError
	return errors.As(err, &target)
}

func errInvalidProvider(p ExecutionProvider) error {
	return invalidConfigurationError{msg: fmt.Sprintf("unsupported execution provider %q", string(p))}
}

// initializationFailedError wraps the cause of a failed Init. The manager is
// left uninitialized, so Init may be retried.
type initializationFailedError struct {
	stage string
	err   error
}

func (e initializationFailedError) Error() string {
	return "initialization failed (" + e.stage + "): " + e.err.Error()
}

func (e initializationFailedError) Unwrap() error { return e.err }

// IsInitializationFailed reports whether err came from a failed Init.
func IsInitializationFailed(err error) bool {
	var target initializationFailedError
	return errors.As(err, &target)
}

// notInitializedError is returned by Run when no session exists.
type notInitializedError struct{}

func (notInitializedError) Error() string { return "session not initialized; call Init first" }

// ErrNotInitialized is returned by Run before a successful Init or after Release.
var ErrNotInitialized error = notInitializedError{}

// IsNotInitialized reports whether err indicates Run without a live session.
func IsNotInitialized(err error) bool {
	var target notInitializedError
	return errors.As(err, &target)
}

// StatusCode maps the error onto HTTP semantics for the API layer.
func (initializationFailedError) StatusCode() int { return 503 }

func (notInitializedError) StatusCode() int { return 409 }

func (invalidConfigurationError) StatusCode() int { return 400 }
