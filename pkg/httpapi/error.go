package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/automationhub/console/pkg/apiclient"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteUpstreamError answers with the status of a failed REST API call, or
// 502 when err did not come from the API.
func WriteUpstreamError(w http.ResponseWriter, err error) error {
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return WriteError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", err.Error(), nil)
	}
	meta := apiErr.FieldErrors()
	meta["upstream_status"] = strconv.Itoa(apiErr.StatusCode)
	message := apiErr.Detail
	if message == "" {
		message = http.StatusText(apiErr.StatusCode)
	}
	return WriteError(w, apiErr.StatusCode, "UPSTREAM_ERROR", message, meta)
}
