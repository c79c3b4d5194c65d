package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Fallback messages, matching the precedence order of ErrorMessage.
const (
	genericErrorMessage    = "An error occurred"
	networkErrorMessage    = "Network error occurred"
	unexpectedErrorMessage = "An unexpected error occurred"
)

// Error is a non-2xx backend response. Detail mirrors the backend's error
// envelope: a plain string, or a list of structured validation errors.
type Error struct {
	StatusCode int
	Detail     any
}

func (e *Error) Error() string {
	if msg, ok := e.Detail.(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// ErrorMessage normalizes any error from a client call into a single
// display string. Precedence: structured detail string, first validation
// message, generic HTTP message, fallback constant.
func ErrorMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch detail := apiErr.Detail.(type) {
		case string:
			if detail != "" {
				return detail
			}
		case []any:
			if msg := firstValidationMessage(detail); msg != "" {
				return msg
			}
			return genericErrorMessage
		}
		if text := http.StatusText(apiErr.StatusCode); text != "" {
			return text
		}
		return genericErrorMessage
	}

	if errors.Is(err, ErrUnauthorized) {
		return "Your session has expired. Please log in again."
	}

	if err != nil {
		return networkErrorMessage
	}
	return unexpectedErrorMessage
}

func firstValidationMessage(detail []any) string {
	if len(detail) == 0 {
		return ""
	}
	entry, ok := detail[0].(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := entry["msg"].(string)
	return msg
}
