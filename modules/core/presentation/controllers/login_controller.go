package controllers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/automationhub/console/modules/core/presentation/controllers/dtos"
	"github.com/automationhub/console/modules/core/presentation/templates/pages/login"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/session"
	"github.com/automationhub/console/pkg/shared"
)

type LoginControllerOptions struct {
	SidCookieKey    string
	SessionDuration time.Duration
	LoginAttempts   int
}

func NewLoginController(app application.Application, opts LoginControllerOptions) application.Controller {
	if opts.SidCookieKey == "" {
		opts.SidCookieKey = "sid"
	}
	if opts.SessionDuration == 0 {
		opts.SessionDuration = 720 * time.Hour
	}
	if opts.LoginAttempts <= 0 {
		opts.LoginAttempts = 10
	}
	return &LoginController{
		app:  app,
		opts: opts,
	}
}

type LoginController struct {
	app  application.Application
	opts LoginControllerOptions
}

func (c *LoginController) Key() string {
	return "/login"
}

func (c *LoginController) Register(r *mux.Router) {
	getRouter := r.PathPrefix("/").Subrouter()
	getRouter.Use(
		middleware.ProvideLocalizer(c.app),
		middleware.WithPageContext(),
	)
	getRouter.HandleFunc("/login", c.Get).Methods(http.MethodGet)
	getRouter.HandleFunc("/logout", c.Logout).Methods(http.MethodGet)

	setRouter := r.PathPrefix("/login").Subrouter()
	setRouter.Use(
		middleware.ProvideLocalizer(c.app),
		middleware.IPRateLimitPeriod(c.opts.LoginAttempts, time.Minute),
	)
	setRouter.HandleFunc("", c.Post).Methods(http.MethodPost)
}

// safeNext keeps redirects after login on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (c *LoginController) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := composables.UseSession(r.Context()); err == nil {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusFound)
		return
	}
	errorsMap, err := composables.UseFlashMap[string, string](w, r, "errorsMap")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	errorMessage, err := composables.UseFlash(w, r, flashError)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	q := r.URL.Query()
	props := &login.LoginProps{
		ErrorsMap:    errorsMap,
		Username:     q.Get("username"),
		ErrorMessage: string(errorMessage),
		Notice:       NoticeText(r.Context(), q.Get("notice")),
		Next:         q.Get("next"),
	}
	templ.Handler(login.Index(props)).ServeHTTP(w, r)
}

func (c *LoginController) retry(w http.ResponseWriter, r *http.Request, username string) {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	if next := r.URL.Query().Get("next"); next != "" {
		q.Set("next", next)
	}
	target := "/login"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (c *LoginController) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := composables.UseLogger(ctx)

	dto, err := composables.UseForm(&dtos.LoginDTO{}, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errorsMap, ok := dto.Ok(ctx); !ok {
		shared.SetFlashMap(w, "errorsMap", errorsMap)
		c.retry(w, r, dto.Username)
		return
	}

	creds, err := c.app.API().Login(ctx, dto.Username, dto.Password)
	if err != nil {
		apiErr, isAPI := apiclient.AsError(err)
		if isAPI && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			logger.WithField("username", dto.Username).Info("login rejected")
			shared.SetFlash(w, flashError, []byte(base.T(ctx, "Login.Errors.Invalid", "Invalid username or password")))
		} else {
			logger.WithError(err).Error("login failed")
			shared.SetFlash(w, flashError, []byte(base.T(ctx, "Errors.Internal", "Something went wrong, please try again.")))
		}
		c.retry(w, r, dto.Username)
		return
	}

	sess := session.New(dto.Username, *creds, c.opts.SessionDuration)
	if err := c.app.Sessions().Save(ctx, sess); err != nil {
		logger.WithError(err).Error("failed to save session")
		shared.SetFlash(w, flashError, []byte(base.T(ctx, "Errors.Internal", "Something went wrong, please try again.")))
		c.retry(w, r, dto.Username)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.opts.SidCookieKey,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	logger.WithField("username", dto.Username).Info("logged in")
	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusFound)
}

// Logout ends the API session best effort, the console session always.
func (c *LoginController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := composables.UseLogger(ctx)
	if sess, err := composables.UseSession(ctx); err == nil {
		if err := c.app.API().Logout(ctx); err != nil {
			logger.WithError(err).Warn("api logout failed")
		}
		if err := c.app.Sessions().Delete(ctx, sess.ID); err != nil {
			logger.WithError(err).Error("failed to delete session")
		}
		c.app.EventPublisher().Publish(&eventbus.SessionEndedEvent{SessionID: sess.ID, At: time.Now()})
	}
	http.SetCookie(w, &http.Cookie{Name: c.opts.SidCookieKey, Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusFound)
}
