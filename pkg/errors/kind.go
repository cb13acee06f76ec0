package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it with errors.Is.
type Kind string

// Failure kinds surfaced by library operations.
const (
	KindValidation           Kind = "VALIDATION"
	KindFingerprint          Kind = "FINGERPRINT"
	KindTransfer             Kind = "TRANSFER"
	KindVerificationMismatch Kind = "VERIFICATION_MISMATCH"
	KindShortcutSync         Kind = "SHORTCUT_SYNC"
	KindStore                Kind = "STORE"
	KindConfig               Kind = "CONFIG"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrFingerprint          = &Error{Kind: KindFingerprint}
	ErrTransfer             = &Error{Kind: KindTransfer}
	ErrVerificationMismatch = &Error{Kind: KindVerificationMismatch}
	ErrShortcutSync         = &Error{Kind: KindShortcutSync}
	ErrStore                = &Error{Kind: KindStore}
	ErrConfig               = &Error{Kind: KindConfig}
)

// Error is a kinded failure with the operation and path it concerns.
type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Message string
	Err     error
}

// New creates an Error with a message and no cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. Returns nil for a nil err.
func Wrap(err error, kind Kind, op string) *Error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, kind Kind, op, format string, args ...any) *Error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithPath returns e with Path set.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}

	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}

	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.Kind
	}

	return ""
}

// Is and As forward to the standard library so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
