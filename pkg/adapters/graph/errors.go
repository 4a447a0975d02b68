package graph

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx Graph response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("graph: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unauthorized reports whether the token was rejected.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		e.Code = gjson.GetBytes(body, "error.code").String()
		e.Message = gjson.GetBytes(body, "error.message").String()
	}
	return e
}
