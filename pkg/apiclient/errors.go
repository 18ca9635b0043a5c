package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Error is a non-2xx response from the REST API.
type Error struct {
	StatusCode int
	Method     string
	URL        string
	// Detail is the "detail" field of the response body, if any.
	Detail string
	// Body is the decoded JSON object of the response, nil when the body was
	// not a JSON object.
	Body map[string]any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// FieldErrors returns the per-field validation messages of a 400 response.
func (e *Error) FieldErrors() map[string]string {
	out := map[string]string{}
	for k, v := range e.Body {
		if k == "detail" {
			continue
		}
		switch t := v.(type) {
		case string:
			out[k] = t
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			out[k] = strings.Join(parts, " ")
		}
	}
	return out
}

func newError(method, rawURL string, status int, body []byte) *Error {
	e := &Error{StatusCode: status, Method: method, URL: rawURL}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil {
		e.Body = decoded
		if d, ok := decoded["detail"].(string); ok {
			e.Detail = d
		}
	}
	return e
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func hasStatus(err error, status int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == status
}

func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}
