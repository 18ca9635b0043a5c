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

func jobTemplateAPI(t *testing.T) *itf.FakeAPI {
	t.Helper()
	api := itf.NewFakeAPI(t)
	api.JSON(http.MethodGet, "job_templates/4/", http.StatusOK, map[string]any{
		"id":   4,
		"name": "deploy",
		"summary_fields": map[string]any{
			"credentials": []map[string]any{{"id": 1, "name": "ssh", "kind": "ssh"}},
		},
	})
	api.List("credentials/", 2, []map[string]any{
		{"id": 1, "name": "ssh", "kind": "ssh"},
		{"id": 7, "name": "vault", "kind": "vault"},
	})
	return api
}

func TestCredentialLookupController_SaveAppliesTheDiff(t *testing.T) {
	t.Parallel()
	api := jobTemplateAPI(t)
	api.NoContent(http.MethodPost, "job_templates/4/credentials/")
	suite := teamsSuite(t, api)

	doc := suite.GET("/job_templates/4").Assert(t).ExpectStatus(http.StatusOK).HTML()
	assert.Equal(t, 1, doc.Find(".lookup-value .chip[data-chip=ssh]").Length())
	assert.Zero(t, doc.Find(".lookup-modal").Length())

	suite.POST("/job_templates/4/credentials/open").Assert(t).
		ExpectRedirect("/job_templates/4")
	calls := api.CallsTo(http.MethodGet, "credentials/")
	require.Len(t, calls, 1)
	assert.Equal(t, "order_by=name&page=1&page_size=5", calls[0].Query)

	doc = suite.GET("/job_templates/4").Assert(t).HTML()
	assert.Equal(t, 2, doc.Find(".lookup-modal li.lookup-row").Length())
	assert.Equal(t, 1, doc.Find(".lookup-selected .chip[data-chip=ssh]").Length())

	suite.POST("/job_templates/4/credentials/toggle").Form(url.Values{"id": {"7"}}).Assert(t).
		ExpectStatus(http.StatusSeeOther)
	suite.POST("/job_templates/4/credentials/toggle").Form(url.Values{"id": {"1"}}).Assert(t).
		ExpectStatus(http.StatusSeeOther)
	suite.POST("/job_templates/4/credentials/toggle").Form(url.Values{"id": {"99"}}).Assert(t).
		ExpectStatus(http.StatusBadRequest)

	resp := suite.POST("/job_templates/4/credentials/save").Do()
	assert.Equal(t, http.StatusSeeOther, resp.Status())
	_, ok := resp.Cookie("notice")
	assert.True(t, ok)

	posts := api.CallsTo(http.MethodPost, "job_templates/4/credentials/")
	require.Len(t, posts, 2)
	var bodies []map[string]any
	for _, c := range posts {
		bodies = append(bodies, c.Body)
	}
	assert.ElementsMatch(t, []map[string]any{
		{"id": float64(7)},
		{"id": float64(1), "disassociate": true},
	}, bodies)
}

func TestCredentialLookupController_CancelKeepsTheValue(t *testing.T) {
	t.Parallel()
	api := jobTemplateAPI(t)
	suite := teamsSuite(t, api)

	suite.POST("/job_templates/4/credentials/open").Assert(t).ExpectStatus(http.StatusSeeOther)
	suite.POST("/job_templates/4/credentials/toggle").Form(url.Values{"id": {"7"}}).Assert(t).
		ExpectStatus(http.StatusSeeOther)
	suite.POST("/job_templates/4/credentials/cancel").Assert(t).ExpectRedirect("/job_templates/4")

	assert.Empty(t, api.CallsTo(http.MethodPost, "job_templates/4/credentials/"))
	doc := suite.GET("/job_templates/4").Assert(t).HTML()
	assert.Equal(t, 1, doc.Find(".lookup-value .chip").Length())
	assert.Zero(t, doc.Find(".lookup-modal").Length())
}

func TestCredentialLookupController_EndedSessionDropsWidget(t *testing.T) {
	t.Parallel()
	api := jobTemplateAPI(t)
	suite := teamsSuite(t, api)
	env := suite.Env()

	suite.POST("/job_templates/4/credentials/open").Assert(t).ExpectStatus(http.StatusSeeOther)
	suite.POST("/job_templates/4/credentials/toggle").Form(url.Values{"id": {"7"}}).Assert(t).
		ExpectStatus(http.StatusSeeOther)
	doc := suite.GET("/job_templates/4").Assert(t).HTML()
	require.Equal(t, 1, doc.Find(".lookup-modal").Length())

	env.App.EventPublisher().Publish(&eventbus.SessionEndedEvent{SessionID: env.Session.ID})

	doc = suite.GET("/job_templates/4").Assert(t).HTML()
	assert.Zero(t, doc.Find(".lookup-modal").Length())
	assert.Equal(t, 1, doc.Find(".lookup-value .chip").Length())
}

func TestCredentialLookupController_RemoveFailure(t *testing.T) {
	t.Parallel()
	api := jobTemplateAPI(t)
	api.JSON(http.MethodPost, "job_templates/4/credentials/", http.StatusBadRequest, map[string]any{
		"detail": "Cannot remove the machine credential.",
	})
	suite := teamsSuite(t, api)

	resp := suite.POST("/job_templates/4/credentials/remove").Form(url.Values{"id": {"1"}}).Do()
	assert.Equal(t, http.StatusSeeOther, resp.Status())
	assert.Equal(t, "/job_templates/4", resp.Location())
	flash, ok := resp.Cookie("error")
	require.True(t, ok)

	doc := suite.GET("/job_templates/4").Cookie(flash).Assert(t).HTML()
	assert.Contains(t, doc.Find(".notice[data-variant=error]").Text(), "Cannot remove the machine credential")
	// the record still links the credential
	assert.Equal(t, 1, doc.Find(".lookup-value .chip[data-chip=ssh]").Length())
}

func TestCredentialLookupController_UnknownTemplate(t *testing.T) {
	t.Parallel()
	suite := itf.NewSuiteBuilder(t).
		WithAPI(jobTemplateAPI(t)).
		WithModules(core.NewModule(nil)).
		AsUser("admin").
		Build()

	suite.POST("/job_templates/5/credentials/open").Assert(t).ExpectRedirect("/?notice=not_found")
}
