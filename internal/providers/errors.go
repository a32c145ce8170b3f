package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMissingCredential is returned by constructors when the provider's API
// key is not present in the environment.
var ErrMissingCredential = errors.New("missing API credential")

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type rateLimitError struct {
	message string
}

func (e *rateLimitError) Error() string {
	if e.message == "" {
		return "rate limited"
	}
	return "rate limited: " + e.message
}

// StatusError is a non-success HTTP status from the endpoint that is neither
// an authentication nor a rate-limit failure.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Code, e.Body)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimited reports whether err is a rate-limit response.
func IsRateLimited(err error) bool {
	var re *rateLimitError
	return errors.As(err, &re)
}

// checkStatus maps an HTTP status to the package's typed errors. It returns
// nil for 200.
func checkStatus(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &authError{message: msg}
	case code == http.StatusTooManyRequests:
		return &rateLimitError{message: msg}
	default:
		return &StatusError{Code: code, Body: msg}
	}
}

func missingKey(name string) error {
	return fmt.Errorf("%w: %s environment variable is not set", ErrMissingCredential, name)
}
