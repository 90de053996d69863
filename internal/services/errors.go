package services

import (
	"errors"

	"github.com/isdelr/blog-api/internal/validation"
)

// Kind classifies an Error for the HTTP boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

// Error is a client-facing failure. Message is safe to return to callers.
type Error struct {
	Kind    Kind
	Message string
	Fields  validation.Errors
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func invalid(msg string, fields validation.Errors) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}
