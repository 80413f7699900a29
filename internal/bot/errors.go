// ABOUTME: Typed error kinds for the turn pipeline failure taxonomy
// ABOUTME: Distinguishes recoverable handler failures from fatal recovery failures

package bot

import "fmt"

// HandlerError wraps a failure raised by the dialog or invoke handler during
// a turn. It is recovered locally by the ErrorBoundary (state reset plus user
// notification) and is not surfaced to the transport layer.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string { return "handler failure: " + e.Err.Error() }

func (e *HandlerError) Unwrap() error { return e.Err }

// RecoveryError wraps a failure that occurred while the ErrorBoundary was
// resetting state or notifying the user. There is no further recovery tier:
// it is fatal for the request and surfaces as HTTP 500.
type RecoveryError struct {
	// Cause is the original handler failure being recovered from.
	Cause error
	// Err is the failure of the recovery step itself.
	Err error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recovery failure: %v (while recovering from: %v)", e.Err, e.Cause)
}

func (e *RecoveryError) Unwrap() error { return e.Err }
