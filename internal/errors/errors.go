// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. Every failure of a tenant connection (invalid spec,
// handshake, schema, execution, commit) is represented as an *E so callers can
// report it per connection without inspecting driver-specific error types.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidSpec indicates a connection spec missing required fields. Detected before any I/O.
	InvalidSpec Kind = "invalid_spec"
	// AuthenticationFailed indicates the server rejected the user or password.
	AuthenticationFailed Kind = "authentication_failed"
	// ConnectionRefused indicates the server could not be reached.
	ConnectionRefused Kind = "connection_refused"
	// DatabaseNotFound indicates the requested database does not exist.
	DatabaseNotFound Kind = "database_not_found"
	// ConnectFailed covers every other connection failure, including a connection lost mid-invocation.
	ConnectFailed Kind = "connect_failed"
	// SchemaFailed indicates the session search_path directive failed.
	SchemaFailed Kind = "schema_failed"
	// TransactionBeginFailed indicates BEGIN failed.
	TransactionBeginFailed Kind = "transaction_begin_failed"
	// BatchExecutionFailed indicates the transactional batch send failed.
	BatchExecutionFailed Kind = "batch_execution_failed"
	// CommitFailed indicates COMMIT failed after a successful batch.
	CommitFailed Kind = "commit_failed"
	// SimpleExecutionFailed indicates a single direct statement failed.
	SimpleExecutionFailed Kind = "simple_execution_failed"
)

// IsConnect reports whether k belongs to the connect-error family.
func (k Kind) IsConnect() bool {
	switch k {
	case AuthenticationFailed, ConnectionRefused, DatabaseNotFound, ConnectFailed:
		return true
	}
	return false
}

// E wraps an error with kind and human-friendly message.
// Code holds the vendor error code (SQLSTATE) when the cause exposes one.
type E struct {
	Kind    Kind
	Message string
	Code    string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// WithCode returns e with the vendor code set.
func (e *E) WithCode(code string) *E {
	e.Code = code
	return e
}

// KindOf returns the Kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the human-readable message of err. For an *E that is its
// Message; any other error falls back to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
