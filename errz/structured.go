// Package errz defines the error kinds raised by the variable store and the
// composite values built on it.
//
// Misses are values, not errors: a lookup of an absent key returns a none
// value. The kinds here describe failures that are either fatal (a caller
// broke a fixed system limit, the store ran out of room, or an internal
// reference-count invariant was violated) or that belong to the binding
// layer, which reports invalid script input back to the host.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrNotFound indicates a missing key or slot. Only the binding layer
	// reports it; the core read path returns none instead.
	ErrNotFound ErrorKind = iota
	// ErrInvalidKey indicates an index outside the representable key space.
	ErrInvalidKey
	// ErrStoreExhausted indicates the variable store has no free slot.
	ErrStoreExhausted
	// ErrReferenceMisuse indicates a broken reference-count invariant, such as
	// releasing a node that is already free.
	ErrReferenceMisuse
	// ErrType indicates a script value of the wrong dynamic type.
	ErrType
	// ErrInvalidEntity indicates a script entity that cannot be used for the
	// requested operation.
	ErrInvalidEntity
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "not found"
	case ErrInvalidKey:
		return "invalid key"
	case ErrStoreExhausted:
		return "store exhausted"
	case ErrReferenceMisuse:
		return "reference misuse"
	case ErrType:
		return "type error"
	case ErrInvalidEntity:
		return "invalid entity"
	default:
		return "error"
	}
}

// Error is the structured error type used throughout scrvar.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, errz.InvalidKey) style checks work against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// IsFatal returns whether the error is unrecoverable at the layer that
// raised it.
func (e *Error) IsFatal() bool {
	switch e.Kind {
	case ErrInvalidKey, ErrStoreExhausted, ErrReferenceMisuse:
		return true
	default:
		return false
	}
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Sentinels for errors.Is comparisons.
var (
	NotFound         = &Error{Kind: ErrNotFound}
	InvalidKey       = &Error{Kind: ErrInvalidKey}
	StoreExhausted   = &Error{Kind: ErrStoreExhausted}
	ReferenceMisuse  = &Error{Kind: ErrReferenceMisuse}
	TypeMismatch     = &Error{Kind: ErrType}
	InvalidEntityErr = &Error{Kind: ErrInvalidEntity}
)

// New creates a new Error with the given kind and message.
func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return Newf(ErrNotFound, format, args...)
}

func InvalidKeyf(format string, args ...any) *Error {
	return Newf(ErrInvalidKey, format, args...)
}

func StoreExhaustedf(format string, args ...any) *Error {
	return Newf(ErrStoreExhausted, format, args...)
}

func ReferenceMisusef(format string, args ...any) *Error {
	return Newf(ErrReferenceMisuse, format, args...)
}

func TypeErrorf(format string, args ...any) *Error {
	return Newf(ErrType, format, args...)
}

func InvalidEntityf(format string, args ...any) *Error {
	return Newf(ErrInvalidEntity, format, args...)
}

// FatalError is an interface for errors that may or may not be fatal.
type FatalError interface {
	Error() string
	IsFatal() bool
}

// Fatal aborts the current operation by panicking with err. It is reserved
// for fatal kinds; Recover turns the panic back into an error at the host
// boundary.
func Fatal(err *Error) {
	if !err.IsFatal() {
		panic(fmt.Sprintf("errz: Fatal called with non-fatal error: %v", err))
	}
	panic(err)
}

// Recover runs fn and returns the fatal *Error it panicked with, if any.
// Panics carrying anything else are re-raised unchanged.
func Recover(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(*Error); ok && e.IsFatal() {
			err = e
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

// IsFatal reports whether err, or any error it wraps, is fatal.
func IsFatal(err error) bool {
	var fe FatalError
	if errors.As(err, &fe) {
		return fe.IsFatal()
	}
	return false
}
