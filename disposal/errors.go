package disposal

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure surfaced to callers
type Kind string

// Error kinds
const (
	KindValidation        Kind = "ValidationError"
	KindInvalidDate       Kind = "InvalidDateError"
	KindIllegalTransition Kind = "IllegalTransitionError"
	KindAccessDenied      Kind = "AccessDeniedError"
	KindNotFound          Kind = "NotFoundError"
	KindConflict          Kind = "ConflictError"
)

// Error is a failure with a kind and a message safe to show to users
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, disposal.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInvalidDate       = &Error{Kind: KindInvalidDate, Message: "invalid date"}
	ErrIllegalTransition = &Error{Kind: KindIllegalTransition, Message: "illegal transition"}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied, Message: "access denied"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
)

func newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf returns a ValidationError
func Validationf(format string, args ...interface{}) error {
	return newf(KindValidation, format, args...)
}

// InvalidDatef returns an InvalidDateError
func InvalidDatef(format string, args ...interface{}) error {
	return newf(KindInvalidDate, format, args...)
}

// IllegalTransitionf returns an IllegalTransitionError
func IllegalTransitionf(format string, args ...interface{}) error {
	return newf(KindIllegalTransition, format, args...)
}

// AccessDeniedf returns an AccessDeniedError
func AccessDeniedf(format string, args ...interface{}) error {
	return newf(KindAccessDenied, format, args...)
}

// NotFoundf returns a NotFoundError
func NotFoundf(format string, args ...interface{}) error {
	return newf(KindNotFound, format, args...)
}

// Conflictf returns a ConflictError
func Conflictf(format string, args ...interface{}) error {
	return newf(KindConflict, format, args...)
}

// KindOf returns the kind of err, or "" when err is not a disposal error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
