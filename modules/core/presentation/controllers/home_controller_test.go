package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHomeController_Cards(t *testing.T) {
	t.Parallel()
	api := teamsAPI(t)
	api.List("users/", 12, []map[string]any{{"id": 1, "username": "admin"}})
	api.JSON(http.MethodGet, "credentials/", http.StatusForbidden, map[string]any{
		"detail": "You do not have permission to perform this action.",
	})
	suite := teamsSuite(t, api)

	doc := suite.GET("/").Assert(t).ExpectStatus(http.StatusOK).HTML()
	assert.Equal(t, 7, doc.Find(".dashboard a.card").Length())
	assert.Equal(t, "45", doc.Find(`a.card[data-card="/teams"] .count`).Text())
	assert.Equal(t, "12", doc.Find(`a.card[data-card="/users"] .count`).Text())
	assert.Equal(t, "-", doc.Find(`a.card[data-card="/credentials"] .count`).Text())
	// unknown collections answer 404 and are shown as unknown too
	assert.Equal(t, "-", doc.Find(`a.card[data-card="/schedules"] .count`).Text())

	for _, c := range api.CallsTo(http.MethodGet, "teams/") {
		assert.Equal(t, "page_size=1", c.Query)
	}
}

func TestHomeController_ExpiredAPISession(t *testing.T) {
	t.Parallel()
	api := teamsAPI(t)
	api.JSON(http.MethodGet, "users/", http.StatusUnauthorized, map[string]any{
		"detail": "Authentication credentials were not provided.",
	})
	suite := teamsSuite(t, api)

	suite.GET("/").Assert(t).ExpectRedirect("/login?notice=logged_out")
}

func TestHomeController_NotFoundNotice(t *testing.T) {
	t.Parallel()
	suite := teamsSuite(t, teamsAPI(t))

	doc := suite.GET("/?notice=not_found").Assert(t).ExpectStatus(http.StatusOK).HTML()
	assert.Equal(t, 1, doc.Find(".notice").Length())
}
