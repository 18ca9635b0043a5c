package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/qs"
)

type team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/api/v2"})
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestResource_Read(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/teams/", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   12,
			"results": []team{{ID: 1, Name: "ops"}, {ID: 2, Name: "dev"}},
		})
	}))

	teams := NewResource[team](c, "teams")
	page, err := teams.Read(context.Background(), qs.Params{"page": 2, "page_size": 5, "order_by": "-name"})
	require.NoError(t, err)
	assert.Equal(t, "order_by=-name&page=2&page_size=5", gotQuery)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, []team{{1, "ops"}, {2, "dev"}}, page.Results)
}

func TestResource_EmptyResultsNotNil(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":0}`))
	}))
	page, err := NewResource[team](c, "teams").Read(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestClient_ErrorDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	}))
	_, err := NewResource[team](c, "teams").ReadDetail(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Not found.", apiErr.Detail)
	assert.Contains(t, apiErr.Error(), "/api/v2/teams/42/")
}

func TestError_FieldErrors(t *testing.T) {
	e := newError(http.MethodPost, "/x", http.StatusBadRequest, []byte(`{"name":["This field is required."],"detail":"bad"}`))
	assert.Equal(t, map[string]string{"name": "This field is required."}, e.FieldErrors())
}

func TestClient_CredentialsAndCSRF(t *testing.T) {
	type seen struct {
		session, csrfCookie, csrfHeader string
	}
	var got []seen
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{csrfHeader: r.Header.Get("X-CSRFToken")}
		if ck, err := r.Cookie("sessionid"); err == nil {
			s.session = ck.Value
		}
		if ck, err := r.Cookie("csrftoken"); err == nil {
			s.csrfCookie = ck.Value
		}
		got = append(got, s)
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := WithCredentials(context.Background(), &Credentials{SessionID: "sess", CSRFToken: "tok"})
	_, err := NewResource[team](c, "teams").Read(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, c.CreateTeamRole(ctx, 3, 7))

	require.Len(t, got, 2)
	assert.Equal(t, seen{session: "sess", csrfCookie: "tok"}, got[0], "safe methods carry no CSRF header")
	assert.Equal(t, seen{session: "sess", csrfCookie: "tok", csrfHeader: "tok"}, got[1])
}

func TestClient_RoleGrantPaths(t *testing.T) {
	var paths []string
	var bodies []map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx := context.Background()
	require.NoError(t, c.CreateUserRole(ctx, 1, 10))
	require.NoError(t, c.CreateTeamRole(ctx, 2, 20))
	require.NoError(t, NewResource[team](c, "job_templates").Disassociate(ctx, 5, "credentials", 9))

	assert.Equal(t, []string{
		"POST /api/v2/users/1/roles/",
		"POST /api/v2/teams/2/roles/",
		"POST /api/v2/job_templates/5/credentials/",
	}, paths)
	assert.Equal(t, float64(10), bodies[0]["id"])
	assert.Equal(t, true, bodies[2]["disassociate"])
}

func TestClient_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "first", Path: "/"})
		case http.MethodPost:
			if r.Header.Get("X-CSRFToken") != "first" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_ = r.ParseForm()
			if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "secret" {
				w.WriteHeader(http.StatusOK)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s3ss", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "rotated", Path: "/"})
			http.Redirect(w, r, "/api/v2/", http.StatusFound)
		}
	})
	c := newTestClient(t, mux)

	creds, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, &Credentials{SessionID: "s3ss", CSRFToken: "rotated"}, creds)

	_, err = c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestUseCredentials(t *testing.T) {
	_, ok := UseCredentials(context.Background())
	assert.False(t, ok)
	_, ok = UseCredentials(WithCredentials(context.Background(), &Credentials{}))
	assert.False(t, ok, "empty session is not usable")
}

func TestClient_LogsToRequestLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	fallback, fallbackHook := test.NewNullLogger()
	fallback.SetLevel(logrus.DebugLevel)
	c, err := New(Options{BaseURL: srv.URL + "/api/v2", Logger: fallback})
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))
	require.Len(t, fallbackHook.AllEntries(), 1)
	assert.Equal(t, http.MethodGet, fallbackHook.LastEntry().Data["api-method"])

	scoped, scopedHook := test.NewNullLogger()
	scoped.SetLevel(logrus.DebugLevel)
	ctx := context.WithValue(context.Background(), constants.LoggerKey, logrus.NewEntry(scoped).WithField("request-id", "r-1"))
	require.NoError(t, c.Ping(ctx))
	require.Len(t, scopedHook.AllEntries(), 1)
	assert.Equal(t, "r-1", scopedHook.LastEntry().Data["request-id"])
	assert.Len(t, fallbackHook.AllEntries(), 1)
}
