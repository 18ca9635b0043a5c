// Package layouts holds the page shells every console screen renders into.
package layouts

import (
	"context"

	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/types"
)

type BaseProps struct {
	Title string
}

func lang(ctx context.Context) string {
	if pageCtx, ok := composables.TryUsePageCtx(ctx); ok {
		return pageCtx.GetLocale().String()
	}
	return "en"
}

// navigation returns the nav items of the request and the href of the one
// matching the current path.
func navigation(ctx context.Context) ([]types.NavigationItem, string) {
	items := composables.UseNavItems(ctx)
	if pageCtx, ok := composables.TryUsePageCtx(ctx); ok && pageCtx.GetURL() != nil {
		return items, middleware.ActivePrefix(items, pageCtx.GetURL().Path)
	}
	return items, ""
}

func username(ctx context.Context) (string, bool) {
	sess, err := composables.UseSession(ctx)
	if err != nil {
		return "", false
	}
	return sess.Username, true
}

func navItemClass(item types.NavigationItem, active string) string {
	if item.Href != "" && item.Href == active {
		return "nav-item active font-semibold"
	}
	return "nav-item"
}

func noticeClass(variant string) string {
	const class = "notice mb-3 rounded border px-3 py-2"
	if variant == "error" {
		return base.Classes(class, "border-red-300 bg-red-50 text-red-800")
	}
	return base.Classes(class, "border-blue-300 bg-blue-50 text-blue-800")
}
