package controllers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/modules/core"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/itf"
)

// rawCalls counts calls to a path outside the API root.
func rawCalls(api *itf.FakeAPI, method, path string) int {
	n := 0
	for _, c := range api.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func loginSuite(t *testing.T) (*itf.Suite, *itf.FakeAPI) {
	t.Helper()
	api := itf.NewFakeAPI(t).Login("admin", "secret")
	suite := itf.NewSuiteBuilder(t).
		WithAPI(api).
		WithModules(core.NewModule(nil)).
		Build()
	return suite, api
}

func TestLoginController_Get(t *testing.T) {
	t.Parallel()
	suite, _ := loginSuite(t)

	doc := suite.GET("/login?next=%2Fteams&notice=logged_out").
		Assert(t).
		ExpectStatus(http.StatusOK).
		HTML()

	action, _ := doc.Find("form.login-form").Attr("action")
	assert.Equal(t, "/login?next=%2Fteams", action)
	assert.Contains(t, doc.Find(".notice").Text(), "You have been logged out")
}

func TestLoginController_Post(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials start a session", func(t *testing.T) {
		suite, _ := loginSuite(t)
		resp := suite.POST("/login?next=%2Fteams").
			Form(url.Values{"username": {"admin"}, "password": {"secret"}}).
			Do()

		assert.Equal(t, http.StatusFound, resp.Status())
		assert.Equal(t, "/teams", resp.Location())
		sid, ok := resp.Cookie(itf.SidCookieKey)
		require.True(t, ok)
		assert.True(t, sid.HttpOnly)

		sess, err := suite.Env().App.Sessions().Get(suite.Env().Ctx, sid.Value)
		require.NoError(t, err)
		assert.Equal(t, "admin", sess.Username)
		assert.Equal(t, "session-admin", sess.Credentials.SessionID)
		assert.Equal(t, "csrf-admin", sess.Credentials.CSRFToken)
	})

	t.Run("foreign next is ignored", func(t *testing.T) {
		suite, _ := loginSuite(t)
		suite.POST("/login?next=%2F%2Fevil.example.com").
			Form(url.Values{"username": {"admin"}, "password": {"secret"}}).
			Assert(t).
			ExpectRedirect("/")
	})

	t.Run("wrong password", func(t *testing.T) {
		suite, _ := loginSuite(t)
		resp := suite.POST("/login").
			Form(url.Values{"username": {"admin"}, "password": {"nope"}}).
			Do()

		assert.Equal(t, http.StatusFound, resp.Status())
		assert.Equal(t, "/login?username=admin", resp.Location())
		_, ok := resp.Cookie(itf.SidCookieKey)
		assert.False(t, ok)
		flash, ok := resp.Cookie("error")
		require.True(t, ok)

		doc := suite.GET(resp.Location()).Cookie(flash).Assert(t).ExpectStatus(http.StatusOK).HTML()
		assert.Contains(t, doc.Find(".notice[data-variant=error]").Text(), "Invalid username or password")
		value, _ := doc.Find("input[name=username]").Attr("value")
		assert.Equal(t, "admin", value)
	})

	t.Run("missing fields", func(t *testing.T) {
		suite, api := loginSuite(t)
		resp := suite.POST("/login").Form(url.Values{"username": {"admin"}}).Do()

		assert.Equal(t, http.StatusFound, resp.Status())
		assert.Zero(t, rawCalls(api, http.MethodPost, "/api/login/"))
		flash, ok := resp.Cookie("errorsMap")
		require.True(t, ok)

		doc := suite.GET(resp.Location()).Cookie(flash).Assert(t).HTML()
		assert.Equal(t, 1, doc.Find("small.field-error[data-field=password]").Length())
	})
}

func TestLoginController_Logout(t *testing.T) {
	t.Parallel()
	api := itf.NewFakeAPI(t).Login("admin", "secret")
	suite := itf.NewSuiteBuilder(t).
		WithAPI(api).
		WithModules(core.NewModule(nil)).
		AsUser("admin").
		Build()
	env := suite.Env()
	var ended []string
	env.App.EventPublisher().Subscribe(func(e *eventbus.SessionEndedEvent) {
		ended = append(ended, e.SessionID)
	})

	resp := suite.GET("/logout").Do()
	assert.Equal(t, http.StatusFound, resp.Status())
	assert.Equal(t, "/login", resp.Location())
	sid, ok := resp.Cookie(itf.SidCookieKey)
	require.True(t, ok)
	assert.Equal(t, -1, sid.MaxAge)

	_, err := env.App.Sessions().Get(env.Ctx, env.Session.ID)
	require.Error(t, err)

	assert.Equal(t, 1, rawCalls(api, http.MethodPost, "/api/logout/"))
	assert.Equal(t, []string{env.Session.ID}, ended)
}

func TestLoginController_RedirectsSignedInUser(t *testing.T) {
	t.Parallel()
	suite := itf.NewSuiteBuilder(t).
		WithModules(core.NewModule(nil)).
		AsUser("admin").
		Build()

	suite.GET("/login?next=%2Fteams").Assert(t).ExpectRedirect("/teams")
}
