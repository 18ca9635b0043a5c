package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/automationhub/console/modules/core/presentation/templates/pages/error_pages"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/httpapi"
	"github.com/automationhub/console/pkg/middleware"
)

const (
	NoticeLoggedOut = "logged_out"
	NoticeNotFound  = "not_found"
	apiPathPrefix   = "/api/"
)

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, apiPathPrefix)
}

func handler404(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	if err := error_pages.NotFoundContent().Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func handler405(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
	if err := error_pages.MethodNotAllowedContent().Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func NotFound(app application.Application) http.HandlerFunc {
	page := middleware.ProvideLocalizer(app)(middleware.WithPageContext()(http.HandlerFunc(handler404)))
	return func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "not found", map[string]string{
				"path": r.URL.Path,
			})
			return
		}
		page.ServeHTTP(w, r)
	}
}

func MethodNotAllowed(app application.Application) http.HandlerFunc {
	page := middleware.ProvideLocalizer(app)(middleware.WithPageContext()(http.HandlerFunc(handler405)))
	return func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]string{
				"path":   r.URL.Path,
				"method": r.Method,
			})
			return
		}
		page.ServeHTTP(w, r)
	}
}

// NoticeText translates a notice code found in the query string.
func NoticeText(ctx context.Context, code string) string {
	switch code {
	case NoticeLoggedOut:
		return base.T(ctx, "Notices.LoggedOut", "You have been logged out, please log in again.")
	case NoticeNotFound:
		return base.T(ctx, "Notices.NotFound", "The record you were looking for no longer exists.")
	}
	return ""
}

// APIErrors turns API failures that end the current screen into redirects.
type APIErrors struct {
	App          application.Application
	SidCookieKey string
}

// Handle answers err when it cannot be shown inline and reports whether it
// did. A 401 ends the console session, a 404 returns to the dashboard.
func (e *APIErrors) Handle(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	logger := composables.UseLogger(r.Context())
	switch {
	case apiclient.IsUnauthorized(err):
		logger.WithError(err).Info("api session expired")
		e.endSession(w, r)
		http.Redirect(w, r, middleware.LoginURL("", NoticeLoggedOut), http.StatusFound)
		return true
	case apiclient.IsNotFound(err):
		logger.WithError(err).Debug("api record not found")
		http.Redirect(w, r, "/?notice="+NoticeNotFound, http.StatusFound)
		return true
	}
	logger.WithError(err).Warn("api request failed")
	return false
}

func (e *APIErrors) endSession(w http.ResponseWriter, r *http.Request) {
	if sess, err := composables.UseSession(r.Context()); err == nil {
		if err := e.App.Sessions().Delete(r.Context(), sess.ID); err != nil {
			composables.UseLogger(r.Context()).WithError(err).Error("failed to delete session")
		}
		e.App.EventPublisher().Publish(&eventbus.SessionEndedEvent{SessionID: sess.ID, At: time.Now()})
	}
	http.SetCookie(w, &http.Cookie{Name: e.SidCookieKey, Path: "/", MaxAge: -1})
}

// UpstreamStatus is the status a screen answers with when err is shown
// inline.
func UpstreamStatus(err error) int {
	if apiErr, ok := apiclient.AsError(err); ok && apiErr.StatusCode >= 400 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

// Reason is the text shown for err next to a record.
func Reason(err error) string {
	if apiErr, ok := apiclient.AsError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
