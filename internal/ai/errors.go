package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuth      = errors.New("ai credential missing or rejected")
	ErrRateLimit = errors.New("ai rate limit exceeded")
	ErrQuota     = errors.New("ai usage quota exhausted")
	ErrUpstream  = errors.New("ai upstream failure")
)

// Error carries the category, the upstream HTTP status (0 when there was no
// response) and a user-facing message.
type Error struct {
	Kind    error
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

// fromStatus maps a non-success upstream status onto the error taxonomy.
func fromStatus(status int, detail string) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return &Error{Kind: ErrRateLimit, Status: status, Message: "Rate limit exceeded. Please try again later."}
	case http.StatusPaymentRequired:
		return &Error{Kind: ErrQuota, Status: status, Message: "AI usage limit reached. Please add credits."}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: ErrAuth, Status: status, Message: "AI credential rejected"}
	}
	msg := fmt.Sprintf("AI gateway error (status %d)", status)
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{Kind: ErrUpstream, Status: status, Message: msg}
}

func upstream(format string, args ...any) *Error {
	return &Error{Kind: ErrUpstream, Message: fmt.Sprintf(format, args...)}
}

// outcome labels an error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrRateLimit):
		return "rate_limited"
	case errors.Is(err, ErrQuota):
		return "quota"
	default:
		return "upstream"
	}
}
