package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/intl"
	"github.com/automationhub/console/pkg/types"
)

// WithPageContext needs ProvideLocalizer earlier in the chain.
func WithPageContext() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				localizer, found := intl.UseLocalizer(r.Context())
				if !found {
					panic("localizer not found in context")
				}
				pageCtx := &types.PageContext{
					URL:       r.URL,
					Localizer: localizer,
					Locale:    intl.UseLocale(r.Context(), language.English),
				}
				next.ServeHTTP(w, r.WithContext(composables.WithPageCtx(r.Context(), pageCtx)))
			},
		)
	}
}
