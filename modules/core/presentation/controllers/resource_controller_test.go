package controllers_test

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/modules/core"
	"github.com/automationhub/console/pkg/itf"
)

var teams = []map[string]any{
	{"id": 1, "name": "alpha", "summary_fields": map[string]any{"organization": map[string]any{"id": 3, "name": "Default"}}},
	{"id": 2, "name": "beta"},
	{"id": 3, "name": "gamma"},
}

func teamsAPI(t *testing.T) *itf.FakeAPI {
	t.Helper()
	api := itf.NewFakeAPI(t)
	api.List("teams/", 45, teams)
	api.Handle(http.MethodGet, "teams/{id:[0-9]+}/", func(w http.ResponseWriter, r *http.Request) {
		for _, team := range teams {
			if id := mux.Vars(r)["id"]; id == strconv.Itoa(team["id"].(int)) {
				itf.WriteJSON(w, http.StatusOK, team)
				return
			}
		}
		itf.WriteJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
	})
	return api
}

func teamsSuite(t *testing.T, api *itf.FakeAPI) *itf.Suite {
	t.Helper()
	return itf.NewSuiteBuilder(t).
		WithAPI(api).
		WithModules(core.NewModule(nil)).
		AsUser("admin").
		Build()
}

func TestResourceController_RequiresSession(t *testing.T) {
	t.Parallel()
	suite := teamsSuite(t, teamsAPI(t))

	suite.GET("/teams?team.page=2").Anonymous().Assert(t).
		ExpectRedirect("/login?next=%2Fteams%3Fteam.page%3D2")
}

func TestResourceController_List(t *testing.T) {
	t.Parallel()
	api := teamsAPI(t)
	suite := teamsSuite(t, api)

	doc := suite.GET("/teams?team.page=2&team.name__icontains=al&host.page=4").
		Assert(t).
		ExpectStatus(http.StatusOK).
		HTML()

	calls := api.CallsTo(http.MethodGet, "teams/")
	require.Len(t, calls, 1)
	assert.Equal(t, "name__icontains=al&order_by=name&page=2&page_size=20", calls[0].Query)

	assert.Equal(t, 3, doc.Find("li.list-row").Length())
	assert.Equal(t, "2 / 3", doc.Find(".pagination .page-position").Text())
	prev, _ := doc.Find(".pagination a.page-prev").Attr("href")
	assert.Equal(t, "/teams?host.page=4&team.name__icontains=al", prev)
	next, _ := doc.Find(".pagination a.page-next").Attr("href")
	assert.Equal(t, "/teams?host.page=4&team.name__icontains=al&team.page=3", next)
	searchValue, _ := doc.Find("form.search input[name=value]").Attr("value")
	assert.Equal(t, "al", searchValue)
}

func TestResourceController_Actions(t *testing.T) {
	t.Parallel()
	suite := teamsSuite(t, teamsAPI(t))

	t.Run("sort resets the page", func(t *testing.T) {
		suite.POST("/teams/sort?team.page=3").
			Form(url.Values{"key": {"name"}, "order": {"descending"}}).
			Assert(t).
			ExpectStatus(http.StatusSeeOther).
			ExpectRedirect("/teams?team.order_by=-name")
	})

	t.Run("page keeps other keys", func(t *testing.T) {
		suite.POST("/teams/page?team.order_by=-name").
			Form(url.Values{"page": {"2"}, "page_size": {"50"}}).
			Assert(t).
			ExpectRedirect("/teams?team.order_by=-name&team.page=2&team.page_size=50")
	})

	t.Run("search replaces the previous filter", func(t *testing.T) {
		suite.POST("/teams/search?team.name__icontains=old&team.page=2").
			Form(url.Values{"key": {"description"}, "value": {" new "}}).
			Assert(t).
			ExpectRedirect("/teams?team.description__icontains=new")
	})

	t.Run("search with an unknown key", func(t *testing.T) {
		suite.POST("/teams/search").
			Form(url.Values{"key": {"password"}, "value": {"x"}}).
			Assert(t).
			ExpectStatus(http.StatusBadRequest)
	})

	t.Run("invalid page", func(t *testing.T) {
		suite.POST("/teams/page").
			Form(url.Values{"page": {"0"}, "page_size": {"20"}}).
			Assert(t).
			ExpectStatus(http.StatusBadRequest)
	})
}

func TestResourceController_Details(t *testing.T) {
	t.Parallel()
	suite := teamsSuite(t, teamsAPI(t))

	doc := suite.GET("/teams/1").Assert(t).ExpectStatus(http.StatusOK).HTML()
	assert.Equal(t, "alpha", doc.Find("dd[data-field=Name]").Text())
	href, _ := doc.Find("dd[data-field=Organization] a").Attr("href")
	assert.Equal(t, "/organizations/3", href)
	addRoles, _ := doc.Find("a.add-roles").Attr("href")
	assert.Equal(t, "/teams/1/access/add", addRoles)

	suite.GET("/teams/9").Assert(t).ExpectRedirect("/?notice=not_found")
}

func TestResourceController_UpstreamError(t *testing.T) {
	t.Parallel()
	api := itf.NewFakeAPI(t)
	api.JSON(http.MethodGet, "teams/", http.StatusForbidden, map[string]any{
		"detail": "You do not have permission to perform this action.",
	})
	suite := teamsSuite(t, api)

	doc := suite.GET("/teams").Assert(t).ExpectStatus(http.StatusForbidden).HTML()
	assert.Equal(t, 1, doc.Find(".content-error").Length())
	assert.Contains(t, doc.Find(".content-error .error-detail").Text(), "You do not have permission")
	assert.Zero(t, doc.Find(".content-empty").Length())
}

func TestResourceController_ExpiredAPISession(t *testing.T) {
	t.Parallel()
	api := itf.NewFakeAPI(t)
	api.JSON(http.MethodGet, "teams/", http.StatusUnauthorized, map[string]any{
		"detail": "Authentication credentials were not provided.",
	})
	suite := teamsSuite(t, api)
	env := suite.Env()

	resp := suite.GET("/teams").Do()
	assert.Equal(t, http.StatusFound, resp.Status())
	assert.Equal(t, "/login?notice=logged_out", resp.Location())
	_, err := env.App.Sessions().Get(env.Ctx, env.Session.ID)
	assert.Error(t, err)
}

func TestResourceController_BulkDelete(t *testing.T) {
	t.Parallel()
	api := teamsAPI(t)
	api.NoContent(http.MethodDelete, "teams/1/")
	api.JSON(http.MethodDelete, "teams/2/", http.StatusForbidden, map[string]any{
		"detail": "You do not have permission to perform this action.",
	})
	suite := teamsSuite(t, api)

	suite.POST("/teams/select_all?team.page=1").
		Form(url.Values{"select_all": {"true"}}).
		Assert(t).
		ExpectStatus(http.StatusSeeOther)
	suite.POST("/teams/select?team.page=1").
		Form(url.Values{"id": {"3"}}).
		Assert(t).
		ExpectRedirect("/teams?team.page=1")

	doc := suite.GET("/teams").Assert(t).ExpectStatus(http.StatusOK).HTML()
	assert.Contains(t, doc.Find("button.delete-selected").Text(), "Delete (2)")
	assert.Equal(t, 2, doc.Find("li.list-row input[name=checked][checked]").Length())

	resp := suite.POST("/teams/delete").Do()
	assert.Equal(t, http.StatusSeeOther, resp.Status())
	assert.Len(t, api.CallsTo(http.MethodDelete, "teams/1/"), 1)
	assert.Len(t, api.CallsTo(http.MethodDelete, "teams/2/"), 1)
	assert.Empty(t, api.CallsTo(http.MethodDelete, "teams/3/"))
	failures, ok := resp.Cookie("deleteFailures")
	require.True(t, ok)

	doc = suite.GET("/teams").Cookie(failures).Assert(t).HTML()
	report := doc.Find(`.delete-failures li[data-id="2"]`)
	require.Equal(t, 1, report.Length())
	assert.Contains(t, report.Text(), "You do not have permission")
	// the failed row stays selected
	assert.Contains(t, doc.Find("button.delete-selected").Text(), "Delete (1)")
}
