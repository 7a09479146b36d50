// Package corefail defines the typed error taxonomy shared by every
// keyforge core package. Callers compare kinds with errors.Is, the way the
// rest of this module wraps errors with fmt.Errorf("...: %w", err) instead
// of inventing per-package sentinel values.
package corefail

import (
	"errors"
	"fmt"
)

// Kind is a coarse error classification. The set matches the taxonomy
// named by the core specification; no other kinds are added.
type Kind string

const (
	BadLength         Kind = "bad_length"
	AeadFailure       Kind = "aead_failure"
	VaultCorrupt      Kind = "vault_corrupt"
	NotFound          Kind = "not_found"
	AlreadyExists     Kind = "already_exists"
	Io                Kind = "io"
	InvalidFormat     Kind = "invalid_format"
	InsufficientFunds Kind = "insufficient_funds"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// failure category without parsing message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so
// errors.Is(err, corefail.New(corefail.NotFound, "", nil)) style checks
// aren't required — callers instead use Has(err, kind).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New constructs an *Error for op (the failing operation's name) wrapping
// cause (may be nil).
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Has reports whether err (or anything it wraps) is a corefail error of
// the given kind.
func Has(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
