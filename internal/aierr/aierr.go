// Package aierr defines the getaddrinfo-style error codes surfaced by
// the lookup facade (spec.md §6/§7), plus the legacy h_errno value
// carried alongside the gethostbyname-style entry points.
//
// netdb.c returns these as plain ints (EAI_NONAME, EAI_SERVICE, ...);
// Code gives them a named Go type, and *Error wraps a Code as an
// ordinary Go error, so callers can either inspect the numeric value
// (for wire/legacy compatibility) or recover the *Error with a type
// assertion or errors.As and read its Code.
package aierr

import "fmt"

// Code is one of the getaddrinfo error codes. Values are normative:
// they are returned to callers that still expect the classical EAI_*
// integers.
type Code int

// getaddrinfo error codes (spec.md §6, normative values).
const (
	// NONAME: node/service cannot be resolved, or family mismatch
	// under the NUMERICHOST hint.
	NONAME Code = -2
	// SERVICE: service string is not a decimal integer in range.
	SERVICE Code = -8
	// FAMILY: hint requests an unsupported family.
	FAMILY Code = -6
	// FAIL: resolver returned no usable answer, or the name exceeds
	// the DNS maximum length.
	FAIL Code = -4
	// MEMORY: allocation failed building the result list.
	MEMORY Code = -10
)

var names = map[Code]string{
	NONAME:  "EAI_NONAME",
	SERVICE: "EAI_SERVICE",
	FAMILY:  "EAI_FAMILY",
	FAIL:    "EAI_FAIL",
	MEMORY:  "EAI_MEMORY",
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("aierr.Code(%d)", int(c))
}

// Error implements the error interface, satisfying callers that treat
// a Code as an ordinary Go error.
type Error struct {
	Code Code
	// Detail is an optional human-readable reason, never consulted by
	// callers that only care about Code (wire compatibility with
	// getaddrinfo's single-integer return).
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// New builds an *Error for code with an optional formatted detail.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// HErrno is the legacy h_errno value, set by the gethostbyname-family
// entry points via an out-parameter instead of the process-wide global
// the original C implementation used (spec.md §5 "Shared state").
type HErrno int

// HostNotFound is the sole legacy h_errno value the facade produces;
// netdb.c's other h_errno values (TRY_AGAIN, NO_RECOVERY, NO_DATA) have
// no analog in the DNS collaborator this facade delegates to.
const HostNotFound HErrno = 1

func (h HErrno) String() string {
	if h == HostNotFound {
		return "HOST_NOT_FOUND"
	}
	return fmt.Sprintf("h_errno(%d)", int(h))
}
