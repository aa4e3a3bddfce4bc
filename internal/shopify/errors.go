package shopify

import (
	"fmt"
	"strings"
)

// TransportError is returned when the API answers with a non-success status
// or cannot be reached at all.
type TransportError struct {
	StatusCode int
	Body       string
	// Err is set for network failures, when no response was received.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return "shopify transport: " + e.Err.Error()
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError carries the error entries of a response that otherwise succeeded,
// including cart mutation user errors.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	return strings.Join(e.Messages, "\n")
}
