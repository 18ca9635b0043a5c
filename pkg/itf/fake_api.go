// Package itf is the console's integration test framework: a fake REST API
// served by httptest and a suite that mounts controllers behind the real
// middleware stack.
package itf

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/automationhub/console/pkg/apiclient"
)

const APIPrefix = "/api/v2/"

// Call is one request received by the fake API.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// FakeAPI records every request and answers the routes registered on it.
// Unknown routes answer 404 with a JSON detail, like the real API.
type FakeAPI struct {
	Server *httptest.Server
	Router *mux.Router

	mu    sync.Mutex
	calls []Call
}

func NewFakeAPI(tb testing.TB) *FakeAPI {
	tb.Helper()
	f := &FakeAPI{Router: mux.NewRouter()}
	f.Router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
	})
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	tb.Cleanup(f.Server.Close)
	return f
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.Body)
		}
		r.Body = io.NopCloser(strings.NewReader(string(raw)))
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	f.Router.ServeHTTP(w, r)
}

// URL is the API base URL to configure a client with.
func (f *FakeAPI) URL() string {
	return f.Server.URL + APIPrefix
}

func (f *FakeAPI) Client(tb testing.TB) *apiclient.Client {
	tb.Helper()
	c, err := apiclient.New(apiclient.Options{BaseURL: f.URL()})
	if err != nil {
		tb.Fatal(err)
	}
	return c
}

// Handle registers h for method on path, path is relative to the API root.
func (f *FakeAPI) Handle(method, path string, h http.HandlerFunc) *FakeAPI {
	f.Router.HandleFunc(APIPrefix+strings.TrimPrefix(path, "/"), h).Methods(method)
	return f
}

// JSON answers method on path with status and body.
func (f *FakeAPI) JSON(method, path string, status int, body any) *FakeAPI {
	return f.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// List answers GET path with one page holding results.
func (f *FakeAPI) List(path string, count int, results any) *FakeAPI {
	return f.JSON(http.MethodGet, path, http.StatusOK, map[string]any{
		"count":    count,
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}

// NoContent answers method on path with 204.
func (f *FakeAPI) NoContent(method, path string) *FakeAPI {
	return f.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// Calls returns the recorded calls, oldest first.
func (f *FakeAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the calls matching method and path; path is relative to
// the API root.
func (f *FakeAPI) CallsTo(method, path string) []Call {
	want := APIPrefix + strings.TrimPrefix(path, "/")
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method && c.Path == want {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeAPI) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Login serves the login page and form of the API: the page hands out a
// CSRF cookie, the form accepts username with password and sets the session
// cookie.
func (f *FakeAPI) Login(username, password string) *FakeAPI {
	f.Router.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-" + username, Path: "/"})
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	f.Router.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Header.Get("X-CSRFToken") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.PostForm.Get("username") == username && r.PostForm.Get("password") == password {
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "session-" + username, Path: "/"})
		}
		w.WriteHeader(http.StatusFound)
	}).Methods(http.MethodPost)
	f.Router.HandleFunc("/api/logout/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	return f
}
