package controllers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/modules/access"
	"github.com/automationhub/console/modules/core"
	"github.com/automationhub/console/pkg/itf"
)

const wizardPath = "/job_templates/4/access/add"

func accessAPI(t *testing.T) *itf.FakeAPI {
	t.Helper()
	api := itf.NewFakeAPI(t)
	api.List("job_templates/4/object_roles/", 3, []map[string]any{
		{"id": 10, "name": "Admin", "description": "Can manage all aspects of the job template"},
		{"id": 11, "name": "Execute", "description": "May run the job template"},
		{"id": 12, "name": "Read", "description": "May view settings for the job template"},
	})
	api.List("users/", 2, []map[string]any{
		{"id": 3, "username": "alice"},
		{"id": 5, "username": "bob"},
	})
	api.JSON(http.MethodGet, "users/3/", http.StatusOK, map[string]any{"id": 3, "username": "alice"})
	api.List("teams/", 1, []map[string]any{{"id": 8, "name": "ops"}})
	return api
}

func accessSuite(t *testing.T, api *itf.FakeAPI) *itf.Suite {
	t.Helper()
	return itf.NewSuiteBuilder(t).
		WithAPI(api).
		WithModules(core.NewModule(nil), access.NewModule(nil)).
		AsUser("admin").
		Build()
}

func post(t *testing.T, suite *itf.Suite, action string, form url.Values) {
	t.Helper()
	req := suite.POST(wizardPath + "/" + action)
	if form != nil {
		req = req.Form(form)
	}
	req.Assert(t).ExpectStatus(http.StatusSeeOther)
}

func TestAccessController_FirstStep(t *testing.T) {
	t.Parallel()
	suite := accessSuite(t, accessAPI(t))

	doc := suite.GET(wizardPath).Assert(t).ExpectStatus(http.StatusOK).HTML()
	step, _ := doc.Find(".wizard").Attr("data-step")
	assert.Equal(t, "1", step)
	assert.Equal(t, 2, doc.Find("button.resource-kind-card").Length())
	_, disabled := doc.Find("button.wizard-next").Attr("disabled")
	assert.True(t, disabled)

	suite.POST(wizardPath + "/next").Assert(t).ExpectStatus(http.StatusConflict)
	suite.POST(wizardPath + "/kind").Form(url.Values{"kind": {"groups"}}).Assert(t).
		ExpectStatus(http.StatusBadRequest)

	post(t, suite, "kind", url.Values{"kind": {"teams"}})
	doc = suite.GET(wizardPath).Assert(t).HTML()
	pressed, _ := doc.Find(`button.resource-kind-card[data-kind=teams]`).Attr("aria-pressed")
	assert.Equal(t, "true", pressed)
	_, disabled = doc.Find("button.wizard-next").Attr("disabled")
	assert.False(t, disabled)
}

func TestAccessController_GrantsEveryPair(t *testing.T) {
	t.Parallel()
	api := accessAPI(t)
	api.NoContent(http.MethodPost, "users/3/roles/")
	suite := accessSuite(t, api)

	post(t, suite, "kind", url.Values{"kind": {"users"}})
	post(t, suite, "next", nil)

	doc := suite.GET(wizardPath).Assert(t).ExpectStatus(http.StatusOK).HTML()
	assert.Equal(t, 2, doc.Find(".wizard-body li.list-row").Length())
	calls := api.CallsTo(http.MethodGet, "users/")
	require.Len(t, calls, 1)
	assert.Equal(t, "order_by=username&page=1&page_size=5", calls[0].Query)

	post(t, suite, "toggle_resource", url.Values{"id": {"3"}})
	doc = suite.GET(wizardPath).Assert(t).HTML()
	assert.Equal(t, 1, doc.Find(".selected-rows .chip[data-chip=alice]").Length())
	assert.Equal(t, 1, doc.Find(`li.list-row[data-id="3"] input[checked]`).Length())

	post(t, suite, "next", nil)
	doc = suite.GET(wizardPath).Assert(t).HTML()
	assert.Equal(t, 3, doc.Find("button.role-card").Length())
	assert.Equal(t, 1, doc.Find(".selected-rows .chip").Length())
	assert.Contains(t, doc.Find("button.wizard-next").Text(), "Save")

	post(t, suite, "toggle_role", url.Values{"id": {"10"}})
	post(t, suite, "toggle_role", url.Values{"id": {"12"}})
	suite.POST(wizardPath + "/toggle_role").Form(url.Values{"id": {"99"}}).Assert(t).
		ExpectStatus(http.StatusBadRequest)

	resp := suite.POST(wizardPath + "/finish").Do()
	assert.Equal(t, http.StatusSeeOther, resp.Status())
	assert.Equal(t, "/job_templates/4", resp.Location())
	_, ok := resp.Cookie("notice")
	assert.True(t, ok)

	grants := api.CallsTo(http.MethodPost, "users/3/roles/")
	require.Len(t, grants, 2)
	var ids []any
	for _, c := range grants {
		ids = append(ids, c.Body["id"])
	}
	assert.ElementsMatch(t, []any{float64(10), float64(12)}, ids)

	// the finished wizard starts over
	doc = suite.GET(wizardPath).Assert(t).HTML()
	step, _ := doc.Find(".wizard").Attr("data-step")
	assert.Equal(t, "1", step)
}

func TestAccessController_PartialFailure(t *testing.T) {
	t.Parallel()
	api := accessAPI(t)
	api.Handle(http.MethodPost, "users/3/roles/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID int `json:"id"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if body.ID == 12 {
			itf.WriteJSON(w, http.StatusForbidden, map[string]any{"detail": "You do not have permission to perform this action."})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	suite := accessSuite(t, api)

	post(t, suite, "kind", url.Values{"kind": {"users"}})
	post(t, suite, "next", nil)
	post(t, suite, "toggle_resource", url.Values{"id": {"3"}})
	post(t, suite, "next", nil)
	post(t, suite, "toggle_role", url.Values{"id": {"11"}})
	post(t, suite, "toggle_role", url.Values{"id": {"12"}})

	suite.POST(wizardPath + "/finish").Assert(t).ExpectRedirect(wizardPath)
	assert.Len(t, api.CallsTo(http.MethodPost, "users/3/roles/"), 2)

	doc := suite.GET(wizardPath).Assert(t).ExpectStatus(http.StatusOK).HTML()
	report := doc.Find(".assignment-error")
	require.Equal(t, 1, report.Length())
	assert.Contains(t, report.Text(), "1 of 2 roles could not be granted")
	failed := report.Find(`li[data-role-id="12"]`)
	require.Equal(t, 1, failed.Length())
	assert.Contains(t, failed.Text(), "You do not have permission")
	// the picks survive for a retry
	assert.Equal(t, 2, doc.Find(`button.role-card[aria-pressed=true]`).Length())
}

func TestAccessController_Cancel(t *testing.T) {
	t.Parallel()
	suite := accessSuite(t, accessAPI(t))

	post(t, suite, "kind", url.Values{"kind": {"teams"}})
	suite.POST(wizardPath + "/cancel").Assert(t).ExpectRedirect("/job_templates/4")

	doc := suite.GET(wizardPath).Assert(t).HTML()
	assert.Zero(t, doc.Find(`button.resource-kind-card[aria-pressed=true]`).Length())
}

func TestAccessController_SearchKeepsTheNamespace(t *testing.T) {
	t.Parallel()
	api := accessAPI(t)
	suite := accessSuite(t, api)

	post(t, suite, "kind", url.Values{"kind": {"teams"}})
	post(t, suite, "next", nil)

	suite.POST(wizardPath + "/search?team.page=2").
		Form(url.Values{"key": {"name"}, "value": {"op"}}).
		Assert(t).
		ExpectRedirect(wizardPath + "?team.name__icontains=op")
	suite.POST(wizardPath + "/search").
		Form(url.Values{"key": {"username"}, "value": {"op"}}).
		Assert(t).
		ExpectStatus(http.StatusBadRequest)

	suite.GET(wizardPath + "?team.name__icontains=op").Assert(t).ExpectStatus(http.StatusOK)
	calls := api.CallsTo(http.MethodGet, "teams/")
	require.NotEmpty(t, calls)
	assert.Equal(t, "name__icontains=op&order_by=name&page=1&page_size=5", calls[len(calls)-1].Query)
}

func TestAccessController_UnknownRecord(t *testing.T) {
	t.Parallel()
	suite := accessSuite(t, accessAPI(t))

	suite.GET("/job_templates/7/access/add").Assert(t).ExpectRedirect("/?notice=not_found")
	suite.GET("/schedules/4/access/add").Assert(t).ExpectStatus(http.StatusNotFound)
}

func TestAccessController_DetailLinksToWizard(t *testing.T) {
	t.Parallel()
	api := accessAPI(t)
	api.JSON(http.MethodGet, "job_templates/4/", http.StatusOK, map[string]any{"id": 4, "name": "deploy"})
	suite := accessSuite(t, api)

	doc := suite.GET("/job_templates/4").Assert(t).ExpectStatus(http.StatusOK).HTML()
	href, _ := doc.Find("a.add-roles").Attr("href")
	assert.Equal(t, wizardPath, href)
}

func TestAccessController_FinishOnlyFromRolesStep(t *testing.T) {
	t.Parallel()
	api := accessAPI(t)
	api.NoContent(http.MethodPost, "users/3/roles/")
	suite := accessSuite(t, api)

	post(t, suite, "kind", url.Values{"kind": {"users"}})
	post(t, suite, "next", nil)
	post(t, suite, "toggle_resource", url.Values{"id": {"3"}})
	post(t, suite, "next", nil)
	post(t, suite, "toggle_role", url.Values{"id": {"10"}})
	post(t, suite, "back", nil)

	suite.POST(wizardPath + "/finish").Assert(t).ExpectStatus(http.StatusConflict)
	assert.Empty(t, api.CallsTo(http.MethodPost, "users/3/roles/"))

	// another kind drops the picks and returns to the first step
	post(t, suite, "kind", url.Values{"kind": {"teams"}})
	doc := suite.GET(wizardPath).Assert(t).HTML()
	step, _ := doc.Find(".wizard").Attr("data-step")
	assert.Equal(t, "1", step)
	suite.POST(wizardPath + "/finish").Assert(t).ExpectStatus(http.StatusConflict)
}
