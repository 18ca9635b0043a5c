package itf

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/session"
)

// SidCookieKey is the session cookie used by suites.
const SidCookieKey = "sid"

// Environment is what a built suite runs against.
type Environment struct {
	Ctx     context.Context
	App     application.Application
	API     *FakeAPI
	Session *session.Session
	Logger  *logrus.Logger
}

type SuiteBuilder struct {
	tb       testing.TB
	modules  []application.Module
	username string
	api      *FakeAPI
}

func NewSuiteBuilder(tb testing.TB) *SuiteBuilder {
	tb.Helper()
	return &SuiteBuilder{tb: tb}
}

func (b *SuiteBuilder) WithModules(modules ...application.Module) *SuiteBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

// WithAPI serves the suite from api instead of a fresh fake.
func (b *SuiteBuilder) WithAPI(api *FakeAPI) *SuiteBuilder {
	b.api = api
	return b
}

// AsUser signs every request in as username.
func (b *SuiteBuilder) AsUser(username string) *SuiteBuilder {
	b.username = username
	return b
}

func (b *SuiteBuilder) Build() *Suite {
	tb := b.tb
	tb.Helper()

	api := b.api
	if api == nil {
		api = NewFakeAPI(tb)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions := session.NewMemoryStore()
	app := application.New(&application.ApplicationOptions{
		API:      api.Client(tb),
		Sessions: sessions,
		Logger:   logger,
		Bundle:   application.LoadBundle(),
	})
	for _, m := range b.modules {
		if err := m.Register(app); err != nil {
			tb.Fatalf("register module %s: %v", m.Name(), err)
		}
	}

	env := &Environment{
		Ctx:    context.Background(),
		App:    app,
		API:    api,
		Logger: logger,
	}
	if b.username != "" {
		sess := session.New(b.username, apiclient.Credentials{
			SessionID: "session-" + b.username,
			CSRFToken: "csrf-" + b.username,
		}, time.Hour)
		if err := sessions.Save(env.Ctx, sess); err != nil {
			tb.Fatal(err)
		}
		env.Session = sess
		env.Ctx = apiclient.WithCredentials(env.Ctx, &sess.Credentials)
	}

	return &Suite{tb: tb, env: env, logger: logger}
}

// Suite serves registered controllers behind the request middleware the
// server uses.
type Suite struct {
	tb          testing.TB
	env         *Environment
	logger      *logrus.Logger
	controllers []application.Controller
	router      *mux.Router
}

func (s *Suite) Env() *Environment {
	return s.env
}

// Register mounts controllers, the router is rebuilt on the next request.
func (s *Suite) Register(controllers ...application.Controller) *Suite {
	s.controllers = append(s.controllers, controllers...)
	s.router = nil
	return s
}

func (s *Suite) handler() http.Handler {
	if s.router != nil {
		return s.router
	}
	r := mux.NewRouter()
	r.Use(
		middleware.WithLogger(s.logger, middleware.DefaultLoggerOptions()),
		middleware.Provide(constants.AppKey, s.env.App),
		middleware.RequestParams(),
		middleware.WithSession(s.env.App.Sessions(), SidCookieKey, s.env.App.EventPublisher()),
	)
	r.Use(s.env.App.Middleware()...)
	controllers := s.controllers
	if len(controllers) == 0 {
		controllers = s.env.App.Controllers()
	}
	for _, c := range controllers {
		c.Register(r)
	}
	s.router = r
	return r
}

func (s *Suite) GET(path string) *Request {
	return s.newRequest(http.MethodGet, path)
}

func (s *Suite) POST(path string) *Request {
	return s.newRequest(http.MethodPost, path)
}

func (s *Suite) DELETE(path string) *Request {
	return s.newRequest(http.MethodDelete, path)
}

func (s *Suite) newRequest(method, path string) *Request {
	return &Request{suite: s, method: method, path: path, header: http.Header{}}
}

// Request is a request to the suite under construction.
type Request struct {
	suite   *Suite
	method  string
	path    string
	form    url.Values
	header  http.Header
	cookies []*http.Cookie
	anon    bool
}

// Form sends values as a urlencoded body.
func (r *Request) Form(values url.Values) *Request {
	r.form = values
	return r
}

func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

// Cookie sends c, e.g. a flash cookie set by a previous response.
func (r *Request) Cookie(c *http.Cookie) *Request {
	r.cookies = append(r.cookies, c)
	return r
}

// Anonymous sends the request without the suite's session cookie.
func (r *Request) Anonymous() *Request {
	r.anon = true
	return r
}

func (r *Request) Do() *Response {
	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range r.header {
		req.Header[k] = v
	}
	if sess := r.suite.env.Session; sess != nil && !r.anon {
		req.AddCookie(&http.Cookie{Name: SidCookieKey, Value: sess.ID})
	}
	for _, c := range r.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	r.suite.handler().ServeHTTP(rec, req)
	return &Response{Recorder: rec}
}

// Assert runs the request and returns its response for assertions.
func (r *Request) Assert(t *testing.T) *Assertion {
	t.Helper()
	return &Assertion{t: t, Response: r.Do()}
}

type Response struct {
	Recorder *httptest.ResponseRecorder
}

func (r *Response) Status() int {
	return r.Recorder.Code
}

func (r *Response) Location() string {
	return r.Recorder.Header().Get("Location")
}

func (r *Response) Body() string {
	return r.Recorder.Body.String()
}

func (r *Response) Cookie(name string) (*http.Cookie, bool) {
	for _, c := range r.Recorder.Result().Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (r *Response) Doc() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(r.Body()))
}

// Assertion chains expectations on a response.
type Assertion struct {
	t *testing.T
	*Response
}

func (a *Assertion) ExpectStatus(code int) *Assertion {
	a.t.Helper()
	assert.Equal(a.t, code, a.Status(), "unexpected status, body: %s", a.Body())
	return a
}

func (a *Assertion) ExpectRedirect(location string) *Assertion {
	a.t.Helper()
	assert.Contains(a.t, []int{http.StatusFound, http.StatusSeeOther}, a.Status(), "expected a redirect, body: %s", a.Body())
	assert.Equal(a.t, location, a.Location())
	return a
}

func (a *Assertion) ExpectBodyContains(s string) *Assertion {
	a.t.Helper()
	assert.Contains(a.t, a.Body(), s)
	return a
}

// HTML parses the body, failing the test when it is not HTML.
func (a *Assertion) HTML() *goquery.Document {
	a.t.Helper()
	doc, err := a.Doc()
	require.NoError(a.t, err)
	return doc
}
