// ABOUTME: Error types returned by the backend client
// ABOUTME: Maps HTTP failures onto sentinel errors callers can test with errors.Is

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a login
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized matches any 401 that reaches the caller
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches 403 responses
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound matches 404 responses
	ErrNotFound = errors.New("not found")
	// ErrRefreshFailed wraps a failed token refresh; the session is gone
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrBackendUnavailable is returned while the circuit breaker is open
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ErrorResponse is the backend's error body. message may be a string or a
// list of validation messages.
type ErrorResponse struct {
	Message    json.RawMessage `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
}

// FirstMessage returns the most specific message in the body
func (e *ErrorResponse) FirstMessage() string {
	if len(e.Message) > 0 {
		var single string
		if err := json.Unmarshal(e.Message, &single); err == nil && single != "" {
			return single
		}
		var list []string
		if err := json.Unmarshal(e.Message, &list); err == nil && len(list) > 0 {
			return list[0]
		}
	}
	return e.Error
}

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// ConnectionError means the backend could not be reached or did not answer in time
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	return e.Message
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
