package domain

import (
	"errors"
	"strings"
)

type ErrorCode string

const (
	CodeFetchFailed     ErrorCode = "FETCH_FAILED"
	CodeParseFailed     ErrorCode = "PARSE_FAILED"
	CodeSchemaInvalid   ErrorCode = "SCHEMA_INVALID"
	CodeIOFailed        ErrorCode = "IO_FAILED"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeCacheCorrupt    ErrorCode = "CACHE_CORRUPT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeInternal        ErrorCode = "INTERNAL"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Hint    string
	Cause   error
}

// Error renders as "op: CODE: message", dropping the parts that are
// empty. An empty message falls back to the cause's text.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	parts = append(parts, string(e.Code))
	switch {
	case e.Message != "":
		parts = append(parts, e.Message)
	case e.Cause != nil:
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithHint attaches an actionable remediation string and returns the error.
func (e *Error) WithHint(hint string) *Error {
	if e == nil {
		return nil
	}
	e.Hint = hint
	return e
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: msg, Cause: cause}
}

// Wrap attaches code and op to err. An Error that already names its
// operation passes through untouched.
func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if !errors.As(err, &inner) {
		return E(code, op, "", err)
	}
	if inner.Op != "" || op == "" {
		return inner
	}
	clone := *inner
	clone.Op = op
	return &clone
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrToolNotFound), errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrManifestNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrSourceExists), errors.Is(err, ErrInvalidSourceName):
		return CodeInvalidArgument, true
	default:
		return "", false
	}
}

// HintFrom extracts the remediation hint carried by err, if any.
func HintFrom(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Hint
	}
	return ""
}
