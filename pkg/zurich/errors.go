package zurich

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// StatusError reports a non-2xx answer of an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string // first bytes of the response body, for logs
}

func newStatusError(service string, status int, body []byte) *StatusError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return &StatusError{Service: service, StatusCode: status, Body: snippet}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected HTTP status %d", e.Service, e.StatusCode)
}

// APIError is a failure reported inside an otherwise successful response,
// such as a CKAN envelope with success=false.
type APIError struct {
	Service string
	Message string
}

func (e *APIError) Error() string {
	if e.Service == ServiceCKAN {
		return "CKAN API error: " + e.Message
	}
	return fmt.Sprintf("%s API error: %s", e.Service, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
