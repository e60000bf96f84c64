// Package errs defines the error kinds from the tiering engine's error
// handling design: Config, Telemetry, Walk, FileAccess, Migration, Journal,
// and Planning failures, each wrapped with github.com/pkg/errors so callers
// can recover the root cause with errors.Cause while still testing the kind
// with errors.As.
package errs

import "github.com/pkg/errors"

// Kind identifies which subsystem an error originated in.
type Kind string

const (
	KindConfig     Kind = "config"
	KindTelemetry  Kind = "telemetry"
	KindWalk       Kind = "walk"
	KindFileAccess Kind = "file_access"
	KindMigration  Kind = "migration"
	KindJournal    Kind = "journal"
	KindPlanning   Kind = "planning"
)

// Error wraps a root cause with a Kind and a short operator-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Wrap builds a Kind-tagged Error around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.Wrap(cause, message)}
}

// Is reports whether err is a sharetier Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Cause recovers the root error beneath any wrapping, via pkg/errors.
func Cause(err error) error {
	return errors.Cause(err)
}
