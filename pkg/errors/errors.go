// Package errors provides structured error types for kabelplan.
//
// Every failure that crosses a package boundary towards the CLI or the HTTP
// API carries a machine-readable [Code]. The CLI prints [UserMessage], the
// server maps the code to a status with [HTTPStatus] and returns it in the
// JSON body.
//
// # Error Codes
//
// Codes follow a category prefix:
//   - INVALID_*: input validation failures (HTTP 400)
//   - *NOT_FOUND: missing resources (HTTP 404)
//   - FETCH_FAILED, NETWORK_ERROR, TIMEOUT, RATE_LIMITED: upstream trouble (HTTP 502)
//   - EMPTY_RESULT: the selection contains nothing to draw
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // reject the request
//	}
//
//	err := errors.Wrap(errors.ErrCodeFetchFailed, origErr, "load site %s", slug)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidStrategy Code = "INVALID_STRATEGY"
	ErrCodeInvalidSite     Code = "INVALID_SITE"
	ErrCodeInvalidTopology Code = "INVALID_TOPOLOGY"
	ErrCodeInvalidFilename Code = "INVALID_FILENAME"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Pipeline outcomes
	ErrCodeEmptyResult       Code = "EMPTY_RESULT"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"
	ErrCodeRoutingExhausted  Code = "ROUTING_EXHAUSTED"
	ErrCodeStaleLoad         Code = "STALE_LOAD"

	// Upstream errors
	ErrCodeFetchFailed Code = "FETCH_FAILED"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded failure. Message is written for the person running the
// command; Cause keeps the lower-level error for logs and errors.Is.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause == nil {
		return msg
	}
	return msg + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an [Error] with a formatted message and no cause.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an [Error] with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first coded error in err's chain has code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// GetCode returns the code of the first coded error in err's chain, or ""
// when there is none. A bare [RateLimitedError] counts as RATE_LIMITED.
func GetCode(err error) Code {
	if e := (*Error)(nil); errors.As(err, &e) {
		return e.Code
	}
	if rl := (*RateLimitedError)(nil); errors.As(err, &rl) {
		return rl.Code()
	}
	return ""
}

// UserMessage strips the code prefix and cause from coded errors.
func UserMessage(err error) string {
	if e := (*Error)(nil); errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus is the status the server answers with for err: 400 for bad
// input, 404 for missing resources, 502 when NetBox failed us and 500 for
// everything else.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidStrategy,
		ErrCodeInvalidSite, ErrCodeInvalidTopology, ErrCodeInvalidFilename:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeFetchFailed, ErrCodeNetwork, ErrCodeTimeout, ErrCodeRateLimited,
		ErrCodeUnauthorized, ErrCodeForbidden:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// RateLimitedError is a 429 from NetBox. RetryAfter is the Retry-After
// header in seconds, 0 when absent.
type RateLimitedError struct {
	RetryAfter int
	Message    string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter <= 0 {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited: retry after %ds", e.RetryAfter)
}

// Code is always [ErrCodeRateLimited].
func (e *RateLimitedError) Code() Code { return ErrCodeRateLimited }
