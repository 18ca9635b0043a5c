package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/session"
)

// WithSession loads the session named by the cookieKey cookie and binds its
// API credentials to the request context. Unknown or expired sessions clear
// the cookie and continue anonymously; for them a SessionEndedEvent goes to
// bus when one is given.
func WithSession(store session.Store, cookieKey string, bus eventbus.EventBus) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				c, err := r.Cookie(cookieKey)
				if err != nil || c.Value == "" {
					next.ServeHTTP(w, r)
					return
				}
				sess, err := store.Get(r.Context(), c.Value)
				if err != nil {
					if !errors.Is(err, session.ErrNotFound) {
						composables.UseLogger(r.Context()).WithError(err).Error("failed to load session")
					}
					if bus != nil {
						bus.Publish(&eventbus.SessionEndedEvent{SessionID: c.Value, At: time.Now()})
					}
					http.SetCookie(w, &http.Cookie{Name: cookieKey, Path: "/", MaxAge: -1})
					next.ServeHTTP(w, r)
					return
				}
				ctx := composables.WithSession(r.Context(), sess)
				ctx = apiclient.WithCredentials(ctx, &sess.Credentials)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

// LoginURL builds the login redirect that returns to next afterwards.
func LoginURL(next string, notice string) string {
	q := url.Values{}
	if next != "" && next != "/" {
		q.Set("next", next)
	}
	if notice != "" {
		q.Set("notice", notice)
	}
	if len(q) == 0 {
		return "/login"
	}
	return "/login?" + q.Encode()
}

func RedirectNotAuthenticated() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if _, err := composables.UseSession(r.Context()); err != nil {
					http.Redirect(w, r, LoginURL(r.URL.RequestURI(), ""), http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
			},
		)
	}
}
