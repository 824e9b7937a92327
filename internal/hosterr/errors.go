// Package hosterr defines the error taxonomy propagated to callers of
// Assess/ReachCompliance across the compliance engine. Every kind carries an
// optional detail string and, via Unwrap, an optional wrapped cause, so
// callers can errors.Is/errors.As against the taxonomy, using
// fmt.Errorf("...: %w", err) wrapping instead of string-matching error text.
package hosterr

import (
	"errors"
	"fmt"
)

// Sentinel kinds with no detail payload.
var (
	ErrNotConnectedToHost    = errors.New("hosterr: not connected to host")
	ErrWrongInitialization   = errors.New("hosterr: wrong initialization")
	ErrMissingInitialization = errors.New("hosterr: missing initialization")
)

// Kind identifies a taxonomy member for errors.As matching independent of
// its detail text.
type Kind int

const (
	KindFailedInitialization Kind = iota
	KindFailedTcpBinding
	KindFailureToEstablishConnection
	KindFailureToRunCommand
	KindFailedDryRunEvaluation
	KindFailedDryRunEvaluationParallel
	KindIncoherentExpectedState
	KindInternalLogicError
	KindAnyOtherError
)

func (k Kind) String() string {
	switch k {
	case KindFailedInitialization:
		return "FailedInitialization"
	case KindFailedTcpBinding:
		return "FailedTcpBinding"
	case KindFailureToEstablishConnection:
		return "FailureToEstablishConnection"
	case KindFailureToRunCommand:
		return "FailureToRunCommand"
	case KindFailedDryRunEvaluation:
		return "FailedDryRunEvaluation"
	case KindFailedDryRunEvaluationParallel:
		return "FailedDryRunEvaluationParallel"
	case KindIncoherentExpectedState:
		return "IncoherentExpectedState"
	case KindInternalLogicError:
		return "InternalLogicError"
	default:
		return "AnyOtherError"
	}
}

// Error is a taxonomy member carrying a human-readable detail and,
// optionally, the lower-level error it wraps.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a taxonomy error with no wrapped cause.
func New(kind Kind, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap builds a taxonomy error around an existing error.
func Wrap(kind Kind, detail string, cause error) error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// Is reports whether err belongs to the given taxonomy Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
