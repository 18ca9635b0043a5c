package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/intl"
	"github.com/automationhub/console/pkg/types"
)

// ActivePrefix returns the href of the item whose href is the longest prefix
// of path, or "" when none matches.
func ActivePrefix(items []types.NavigationItem, path string) string {
	best := ""
	var walk func([]types.NavigationItem)
	walk = func(items []types.NavigationItem) {
		for _, item := range items {
			href := strings.TrimSuffix(item.Href, "/")
			if item.Href != "" && (path == item.Href || path == href || strings.HasPrefix(path, href+"/")) {
				if len(item.Href) > len(best) {
					best = item.Href
				}
			}
			walk(item.Children)
		}
	}
	walk(items)
	return best
}

func getEnabledNavItems(items []types.NavigationItem) []types.NavigationItem {
	var out []types.NavigationItem
	for _, item := range items {
		if len(item.Children) > 0 {
			children := getEnabledNavItems(item.Children)
			switch len(children) {
			case 0:
				continue
			case 1:
				out = append(out, children[0])
			default:
				item.Children = children
				out = append(out, item)
			}
		} else {
			out = append(out, item)
		}
	}
	return out
}

// NavItems translates the registered navigation for the request locale.
func NavItems() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				app, err := application.UseApp(r.Context())
				if err != nil {
					panic(err.Error())
				}
				localizer, ok := intl.UseLocalizer(r.Context())
				if !ok {
					panic("localizer not found in context")
				}
				items := getEnabledNavItems(app.NavItems(localizer))
				ctx := context.WithValue(r.Context(), constants.NavItemsKey, items)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}
