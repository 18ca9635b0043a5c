// Package apiclient talks to the automation platform's REST API. A single
// Client is built at start-up and shared by every screen; the API session of
// the user being served travels in the request context.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/automationhub/console/pkg/constants"
)

var tracer = otel.Tracer("console-apiclient")

type Options struct {
	// BaseURL is the API root, e.g. https://automation.example.com/api/v2/.
	BaseURL         string
	LoginPath       string
	LogoutPath      string
	SessionCookie   string
	CSRFCookie      string
	CSRFHeader      string
	RequestIDHeader string
	Timeout         time.Duration
	Transport       http.RoundTripper
	// Logger is used when the request context carries no logger.
	Logger *logrus.Logger
}

func (o *Options) setDefaults() {
	if o.LoginPath == "" {
		o.LoginPath = "/api/login/"
	}
	if o.LogoutPath == "" {
		o.LogoutPath = "/api/logout/"
	}
	if o.SessionCookie == "" {
		o.SessionCookie = "sessionid"
	}
	if o.CSRFCookie == "" {
		o.CSRFCookie = "csrftoken"
	}
	if o.CSRFHeader == "" {
		o.CSRFHeader = "X-CSRFToken"
	}
	if o.RequestIDHeader == "" {
		o.RequestIDHeader = "X-Request-ID"
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Transport == nil {
		o.Transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        200,
			MaxIdleConnsPerHost: 200,
			IdleConnTimeout:     90 * time.Second,
		}
	}
}

type Client struct {
	base *url.URL
	http *http.Client
	opts Options
}

func New(opts Options) (*Client, error) {
	opts.setDefaults()
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("apiclient: invalid base url %q", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		opts: opts,
	}, nil
}

// logger prefers the request-scoped entry installed by the logging
// middleware.
func (c *Client) logger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(c.opts.Logger)
}

func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, errors.Wrapf(err, "apiclient: invalid path %q", path)
	}
	return c.base.ResolveReference(ref), nil
}

// Login obtains an API session for username. The CSRF cookie handed out by
// the login page is echoed in the CSRF header of the login form post, the
// resulting session cookie and token become the Credentials.
func (c *Client) Login(ctx context.Context, username, password string) (*Credentials, error) {
	loginURL, err := c.resolve(c.opts.LoginPath)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: cookie jar")
	}
	hc := &http.Client{
		Timeout:   c.opts.Timeout,
		Transport: c.opts.Transport,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: login request")
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: login page")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	csrf := cookieValue(jar.Cookies(loginURL), c.opts.CSRFCookie)
	if csrf == "" {
		return nil, errors.New("apiclient: login page did not set a CSRF cookie")
	}

	form := url.Values{
		"username": {username},
		"password": {password},
		"next":     {c.base.Path},
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(c.opts.CSRFHeader, csrf)
	req.Header.Set("Referer", loginURL.String())
	resp, err = hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: login")
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newError(http.MethodPost, loginURL.String(), resp.StatusCode, body)
	}

	session := cookieValue(jar.Cookies(loginURL), c.opts.SessionCookie)
	if session == "" {
		return nil, &Error{
			StatusCode: http.StatusUnauthorized,
			Method:     http.MethodPost,
			URL:        loginURL.String(),
			Detail:     "invalid username or password",
		}
	}
	if rotated := cookieValue(jar.Cookies(loginURL), c.opts.CSRFCookie); rotated != "" {
		csrf = rotated
	}
	return &Credentials{SessionID: session, CSRFToken: csrf}, nil
}

// Logout ends the API session bound to ctx.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.opts.LogoutPath, "", nil, nil)
}

// Me returns the user owning the API session bound to ctx.
func (c *Client) Me(ctx context.Context, out any) error {
	return c.do(ctx, http.MethodGet, "me/", "", nil, out)
}

// Ping checks the API answers. It needs no session.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "ping/", "", nil, nil)
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path, query string, body, out any) error {
	u, err := c.resolve(path)
	if err != nil {
		return err
	}
	if query != "" {
		u.RawQuery = query
	}

	ctx, span := tracer.Start(ctx, "apiclient."+strings.ToLower(method), trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", u.String()),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "apiclient: encode request body")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.Wrap(err, "apiclient: build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(c.opts.RequestIDHeader, requestID)
	if creds, ok := UseCredentials(ctx); ok {
		req.AddCookie(&http.Cookie{Name: c.opts.SessionCookie, Value: creds.SessionID})
		if creds.CSRFToken != "" {
			req.AddCookie(&http.Cookie{Name: c.opts.CSRFCookie, Value: creds.CSRFToken})
			if !isSafeMethod(method) {
				req.Header.Set(c.opts.CSRFHeader, creds.CSRFToken)
				req.Header.Set("Referer", c.base.String())
			}
		}
	}

	logger := c.logger(ctx).WithFields(logrus.Fields{
		"api-method":     method,
		"api-url":        u.String(),
		"api-request-id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Warn("api request failed")
		return errors.Wrapf(err, "apiclient: %s %s", method, u.Path)
	}
	defer func() { _ = resp.Body.Close() }()

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "apiclient: read %s %s", method, u.Path)
	}
	logger.WithFields(logrus.Fields{
		"status-code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("api request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newError(method, u.String(), resp.StatusCode, respBody)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}
	if out == nil || len(respBody) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(err, "apiclient: decode %s %s", method, u.Path)
	}
	return nil
}
