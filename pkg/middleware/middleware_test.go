package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/configuration"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/intl"
	"github.com/automationhub/console/pkg/session"
	"github.com/automationhub/console/pkg/types"
)

func quietLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func TestWithLogger_ProvidesRequestScope(t *testing.T) {
	logger, hook := quietLogger()
	var sawParams bool
	h := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		composables.UseLogger(r.Context()).Info("inside")
		params, ok := composables.UseParams(r.Context())
		sawParams = ok && params.IP == "10.0.0.9"
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("X-Real-IP", "10.0.0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	assert.True(t, sawParams)

	var inside, completed *logrus.Entry
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "inside":
			inside = e
		case "request completed":
			completed = e
		}
	}
	require.NotNil(t, inside)
	assert.Equal(t, "req-1", inside.Data["request-id"])
	require.NotNil(t, completed)
	assert.Equal(t, http.StatusAccepted, completed.Data["status-code"])
}

func TestWithLogger_RecoversPanics(t *testing.T) {
	logger, hook := quietLogger()
	h := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	t.Run("page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Internal Server Error")
	})

	t.Run("api", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lookup", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
	})

	assert.Equal(t, "panic recovered in request handler", hook.LastEntry().Message)
}

func TestFormatFormValues_Redacts(t *testing.T) {
	got := formatFormValues(url.Values{
		"username": {"admin"},
		"Password": {"hunter2"},
		"bio":      {strings.Repeat("x", 20)},
	}, 8)
	assert.Equal(t, "admin", got["username"])
	assert.Equal(t, "[redacted]", got["Password"])
	assert.Equal(t, "xxxxxxxx...", got["bio"])
}

func TestIPRateLimitPeriod(t *testing.T) {
	h := IPRateLimitPeriod(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "192.0.2.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(RateLimitConfig{})(next)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestOpsGuard(t *testing.T) {
	conf := &configuration.Configuration{
		GoAppEnvironment: configuration.Production,
		RealIPHeader:     "X-Real-IP",
		OpsGuard: configuration.OpsGuardOptions{
			Enabled: true,
			CIDRs:   "10.1.0.0/16",
			Token:   "secret",
		},
	}
	h := OpsGuard(conf, "/debug/prometheus", "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{name: "app path untouched", path: "/teams", want: http.StatusOK},
		{name: "ops path hidden", path: "/health", want: http.StatusNotFound},
		{name: "token header", path: "/health", header: map[string]string{"X-Ops-Token": "secret"}, want: http.StatusOK},
		{name: "bearer token", path: "/debug/prometheus", header: map[string]string{"Authorization": "Bearer secret"}, want: http.StatusOK},
		{name: "wrong token", path: "/health", header: map[string]string{"X-Ops-Token": "nope"}, want: http.StatusNotFound},
		{name: "allowed cidr", path: "/health", header: map[string]string{"X-Real-IP": "10.1.2.3"}, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	t.Run("development is open", func(t *testing.T) {
		dev := *conf
		dev.GoAppEnvironment = "development"
		open := OpsGuard(&dev, "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestWithSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	sess := session.New("admin", apiclient.Credentials{SessionID: "api-sess", CSRFToken: "tok"}, time.Hour)
	require.NoError(t, store.Save(ctx, sess))

	bus := eventbus.NewEventPublisher(logrus.New())
	var ended []string
	bus.Subscribe(func(e *eventbus.SessionEndedEvent) {
		ended = append(ended, e.SessionID)
	})

	var gotUser string
	var gotCreds *apiclient.Credentials
	h := WithSession(store, "sid", bus)(RedirectNotAuthenticated()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := composables.UseSession(r.Context())
		require.NoError(t, err)
		gotUser = s.Username
		gotCreds, _ = apiclient.UseCredentials(r.Context())
	})))

	t.Run("known session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: sess.ID})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", gotUser)
		require.NotNil(t, gotCreds)
		assert.Equal(t, "api-sess", gotCreds.SessionID)
		assert.Empty(t, ended)
	})

	t.Run("unknown session redirects and clears cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams?team.page=2", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "missing"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?next=%2Fteams%3Fteam.page%3D2", rec.Header().Get("Location"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "sid=;")
		assert.Equal(t, []string{"missing"}, ended)
	})

	t.Run("expired session ends", func(t *testing.T) {
		old := session.New("admin", apiclient.Credentials{SessionID: "old"}, time.Millisecond)
		old.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, store.Save(ctx, old))

		req := httptest.NewRequest(http.MethodGet, "/teams", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: old.ID})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, []string{"missing", old.ID}, ended)
	})

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

type localizable struct{ bundle *i18n.Bundle }

func (l localizable) Bundle() *i18n.Bundle            { return l.bundle }
func (l localizable) GetSupportedLanguages() []string { return []string{"en", "zh"} }

func TestProvideLocalizer(t *testing.T) {
	bundle := i18n.NewBundle(language.English)
	require.NoError(t, bundle.AddMessages(language.English, &i18n.Message{ID: "Hello", Other: "Hello"}))
	require.NoError(t, bundle.AddMessages(language.Chinese, &i18n.Message{ID: "Hello", Other: "你好"}))

	var got string
	var locale language.Tag
	h := ProvideLocalizer(localizable{bundle})(WithPageContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = composables.UsePageCtx(r.Context()).T("Hello")
		locale = intl.UseLocale(r.Context(), language.Und)
	})))

	t.Run("accept-language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "你好", got)
		assert.Equal(t, language.Chinese, locale)
	})

	t.Run("cookie wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "zh")
		req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "en"})
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "Hello", got)
	})

	t.Run("unsupported falls back to english", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "Hello", got)
	})
}

func TestActivePrefix(t *testing.T) {
	items := []types.NavigationItem{
		{Name: "Resources", Children: []types.NavigationItem{
			{Name: "Templates", Href: "/job_templates"},
			{Name: "Credentials", Href: "/credentials"},
		}},
		{Name: "Access", Children: []types.NavigationItem{
			{Name: "Teams", Href: "/teams"},
			{Name: "Users", Href: "/users"},
		}},
	}
	assert.Equal(t, "/teams", ActivePrefix(items, "/teams/4"))
	assert.Equal(t, "/job_templates", ActivePrefix(items, "/job_templates"))
	assert.Equal(t, "", ActivePrefix(items, "/teamsx"))
}

func TestGetEnabledNavItems_CollapsesSingleChild(t *testing.T) {
	items := []types.NavigationItem{
		{Name: "Empty", Children: []types.NavigationItem{{Name: "Sub", Children: []types.NavigationItem{}}}},
		{Name: "Single", Children: []types.NavigationItem{{Name: "Only", Href: "/only"}}},
		{Name: "Leaf", Href: "/leaf"},
	}
	got := getEnabledNavItems(items)
	require.Len(t, got, 3)
	assert.Equal(t, "Sub", got[0].Name)
	assert.Equal(t, "Only", got[1].Name)
	assert.Equal(t, "Leaf", got[2].Name)
}
