package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/httpapi"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) httpapi.ErrorEnvelope {
	t.Helper()
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteError(rec, http.StatusTeapot, "TEAPOT", "short and stout", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.Equal(t, "TEAPOT", env.Code)
	assert.Equal(t, "short and stout", env.Message)
}

func TestWriteUpstreamError(t *testing.T) {
	t.Run("api error keeps status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := errors.Wrap(&apiclient.Error{
			StatusCode: http.StatusBadRequest,
			Detail:     "bad",
			Body:       map[string]any{"detail": "bad", "name": []any{"required"}},
		}, "save")
		require.NoError(t, httpapi.WriteUpstreamError(rec, err))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, "bad", env.Message)
		assert.Equal(t, "required", env.Meta["name"])
		assert.Equal(t, "400", env.Meta["upstream_status"])
	})

	t.Run("transport error is bad gateway", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, httpapi.WriteUpstreamError(rec, errors.New("dial tcp: refused")))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "UPSTREAM_UNAVAILABLE", decode(t, rec).Code)
	})
}
