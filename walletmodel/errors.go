package walletmodel

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the backend's error envelope, decoded from the
// {"error": "..."} body of any non-2xx response.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorMessage string `json:"error"`
}

func (e *APIError) Error() string {
	msg := e.ErrorMessage
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, msg)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}
