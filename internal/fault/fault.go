// internal/fault/fault.go

// Package fault defines the caller-visible error kinds of the licensing
// ledger, so callers compare kinds instead of matching error text.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

// keep in alphabetic order
const (
	AlreadyExists       Kind = "already_exists" // reserved
	ExpiredLicense      Kind = "expired_license"
	InsufficientPayment Kind = "insufficient_payment"
	InvalidLicense      Kind = "invalid_license"
	InvalidRoyalty      Kind = "invalid_royalty"
	NotAuthorized       Kind = "not_authorized"
	NotFound            Kind = "not_found"
	TransferFailed      Kind = "transfer_failed"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, fault.New(fault.NotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first fault in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
