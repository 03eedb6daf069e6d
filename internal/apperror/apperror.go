// Package apperror defines the typed result used for expected failures of
// the card and transfer operations. Each error carries a kind and an
// application code that the RPC layer resolves against the error catalog.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error
type Kind int

const (
	KindValidation Kind = iota + 1
	KindState
	KindBusiness
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindBusiness:
		return "business"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Application error codes, resolved against the error catalog
const (
	CodeValidation        = 1001
	CodeWrongOTP          = 1002
	CodeAttemptsExhausted = 1003
	CodeTransferNotFound  = 1004
	CodeInvalidState      = 1005
)

// Error is an expected failure with structured detail
type Error struct {
	Kind   Kind
	Code   int
	Fields map[string][]string // validation failures, field -> messages
	Data   map[string]any
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error %d", e.Kind, e.Code)
	if len(e.Fields) > 0 {
		msg += fmt.Sprintf(": %v", e.Fields)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the payload attached to the error for clients
func (e *Error) Detail() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	if len(e.Data) > 0 {
		return e.Data
	}
	return nil
}

// Validation builds a validation error from per-field messages
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Fields: fields}
}

// State builds a state error
func State(code int, data map[string]any) *Error {
	return &Error{Kind: KindState, Code: code, Data: data}
}

// Business builds a business-rule error
func Business(code int, data map[string]any) *Error {
	return &Error{Kind: KindBusiness, Code: code, Data: data}
}

// Transient wraps a collaborator failure
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Err: err}
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
