package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the server rejects the session token. The
// session has already been cleared when it is returned.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response decoded from the server error envelope.
type APIError struct {
	Status  int               `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
