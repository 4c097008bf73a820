package route

import (
	"errors"
	"fmt"
)

// Error reports why a URL or parameter set could not become a link.
//
// None of these are fatal: callers treat every code as "no link". The code
// tells diagnostics and the CLI which kind of failure happened.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Input is the URL being parsed, if any.
	Input string

	// Route is the route being built, if any.
	Route Name
}

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeNoMatch indicates no route survived matching.
	ErrCodeNoMatch ErrorCode = "NO_MATCH"

	// ErrCodeMalformedURL indicates the input failed basic URL syntax.
	ErrCodeMalformedURL ErrorCode = "MALFORMED_URL"

	// ErrCodeUnknownRoute indicates a build request named no known route.
	ErrCodeUnknownRoute ErrorCode = "UNKNOWN_ROUTE"

	// ErrCodeMissingParameter indicates a required parameter was absent.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeInvalidParameter indicates a value failed its declared format.
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Input != "":
		return fmt.Sprintf("%s: %s (url=%s)", e.Code, e.Message, e.Input)
	case e.Route != "":
		return fmt.Sprintf("%s: %s (route=%s)", e.Code, e.Message, e.Route)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewNoMatchError creates an Error for an input that matched no route.
func NewNoMatchError(input string) *Error {
	return &Error{Code: ErrCodeNoMatch, Message: "no route matched", Input: input}
}

// NewMalformedError creates an Error for an input that is not a usable URL.
func NewMalformedError(input string, cause error) *Error {
	msg := "malformed url"
	if cause != nil {
		msg = fmt.Sprintf("malformed url: %v", cause)
	}
	return &Error{Code: ErrCodeMalformedURL, Message: msg, Input: input}
}

// NewUnknownRouteError creates an Error for a build request naming no route.
func NewUnknownRouteError(name Name) *Error {
	return &Error{Code: ErrCodeUnknownRoute, Message: "unknown route", Route: name}
}

// NewMissingParameterError creates an Error for an absent required parameter.
func NewMissingParameterError(name Name, param string) *Error {
	return &Error{
		Code:    ErrCodeMissingParameter,
		Message: fmt.Sprintf("required parameter %q is missing", param),
		Route:   name,
	}
}

// NewInvalidParameterError creates an Error for a value failing its format.
func NewInvalidParameterError(name Name, param, value string) *Error {
	return &Error{
		Code:    ErrCodeInvalidParameter,
		Message: fmt.Sprintf("parameter %q has invalid value %q", param, value),
		Route:   name,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsNoMatch returns true if no route matched.
func IsNoMatch(err error) bool {
	return hasCode(err, ErrCodeNoMatch)
}

// IsMalformed returns true if the input was not a usable URL.
func IsMalformed(err error) bool {
	return hasCode(err, ErrCodeMalformedURL)
}

// IsUnknownRoute returns true if a build request named no known route.
func IsUnknownRoute(err error) bool {
	return hasCode(err, ErrCodeUnknownRoute)
}

// IsInvalidParams returns true for missing or badly formatted parameters.
func IsInvalidParams(err error) bool {
	return hasCode(err, ErrCodeMissingParameter) || hasCode(err, ErrCodeInvalidParameter)
}

// CodeOf returns the error code of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
