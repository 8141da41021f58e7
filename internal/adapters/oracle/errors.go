package oracle

import (
	"errors"
	"fmt"
)

// Kind classifies oracle failures for retry decisions.
type Kind string

const (
	// KindTransient covers rate limits, network timeouts and 5xx replies;
	// these are retried with backoff.
	KindTransient Kind = "transient"

	// KindFatal covers invalid credentials, provider outages and
	// transient errors that exhausted their retry budget.
	KindFatal Kind = "fatal"

	// KindMalformed covers replies that do not satisfy the requested
	// schema; retried like transient errors, escalated to fatal after.
	KindMalformed Kind = "malformed"
)

// Error is the classified oracle failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retryable oracle error.
func Transient(err error) *Error { return &Error{Kind: KindTransient, Err: err} }

// Fatal wraps err as an unrecoverable oracle error.
func Fatal(err error) *Error { return &Error{Kind: KindFatal, Err: err} }

// Malformed wraps err as a schema-violation oracle error.
func Malformed(err error) *Error { return &Error{Kind: KindMalformed, Err: err} }

// KindOf extracts the classification from err, defaulting to fatal for
// unclassified failures.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindFatal
}

// Retryable reports whether err may succeed on another attempt.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindTransient || k == KindMalformed
}

// IsFatal reports whether err is unrecoverable.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }
