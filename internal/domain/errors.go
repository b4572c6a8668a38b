package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeValidation ErrorCode = "VALIDATION"
	CodeAuth       ErrorCode = "AUTH"
	CodeTransport  ErrorCode = "TRANSPORT"
	CodeNotFound   ErrorCode = "NOT_FOUND"
)

// Error is the client error taxonomy. Reason is user-presentable text.
type Error struct {
	Code       ErrorCode
	Reason     string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error with the same code, so sentinels compare by category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && (t.Reason == "" || t.Reason == e.Reason)
}

func NewValidationError(reason string) *Error {
	return &Error{Code: CodeValidation, Reason: reason}
}

func NewAuthError(reason string, status int) *Error {
	return &Error{Code: CodeAuth, Reason: reason, StatusCode: status}
}

func NewTransportError(reason string, status int, err error) *Error {
	return &Error{Code: CodeTransport, Reason: reason, StatusCode: status, Err: err}
}

func NewNotFoundError(reason string) *Error {
	return &Error{Code: CodeNotFound, Reason: reason, StatusCode: 404}
}

func codeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsValidation(err error) bool { return codeOf(err) == CodeValidation }
func IsAuth(err error) bool       { return codeOf(err) == CodeAuth }
func IsTransport(err error) bool  { return codeOf(err) == CodeTransport }
func IsNotFound(err error) bool   { return codeOf(err) == CodeNotFound }

// Reason returns the user-presentable text of err.
func Reason(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Reason != "" {
		return de.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
