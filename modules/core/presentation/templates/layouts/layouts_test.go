package layouts_test

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/automationhub/console/modules/core"
	"github.com/automationhub/console/modules/core/presentation/templates/layouts"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/session"
	"github.com/automationhub/console/pkg/types"
)

func render(t *testing.T, ctx context.Context, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestAuthenticated_Navigation(t *testing.T) {
	u := &url.URL{Path: "/teams/4"}
	ctx := composables.WithPageCtx(context.Background(), types.NewPageContext(i18n.NewBundle(language.English), language.English, u))
	ctx = context.WithValue(ctx, constants.NavItemsKey, []types.NavigationItem{core.DashboardLink, core.AccessLink})
	ctx = composables.WithSession(ctx, &session.Session{ID: "s1", Username: "admin"})

	doc := render(t, ctx, layouts.Authenticated(layouts.BaseProps{Title: "Teams"}, templ.Raw(`<p class="body">ok</p>`)))

	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "Teams", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("main p.body").Length())
	assert.Equal(t, "admin", doc.Find(".username").Text())

	icons := doc.Find("nav.sidebar > ul > li > .nav-icon")
	require.Equal(t, 2, icons.Length(), "top level links carry their icon")
	assert.Equal(t, 2, icons.Find("svg").Length())
	assert.Equal(t, 0, doc.Find("nav.sidebar ul ul .nav-icon").Length())

	active := doc.Find(".nav-item.active a")
	require.Equal(t, 1, active.Length())
	assert.Equal(t, "/teams", active.AttrOr("href", ""))
}

func TestNotice(t *testing.T) {
	doc := render(t, context.Background(), layouts.Notice("saved", "error"))
	notice := doc.Find(".notice")
	require.Equal(t, 1, notice.Length())
	assert.Equal(t, "error", notice.AttrOr("data-variant", ""))
	assert.True(t, notice.HasClass("bg-red-50"))

	doc = render(t, context.Background(), layouts.Notice("", "info"))
	assert.Equal(t, 0, doc.Find(".notice").Length())
}
