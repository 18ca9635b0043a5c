package controllers

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/automationhub/console/modules/core/presentation/templates/pages/home"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/middleware"
)

// Counter is implemented by services.ResourceService.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type DashboardCard struct {
	Name    Label
	Href    string
	Counter Counter
}

type HomeController struct {
	app    application.Application
	errors *APIErrors
	cards  []DashboardCard
}

func NewHomeController(app application.Application, errs *APIErrors, cards ...DashboardCard) application.Controller {
	if errs == nil {
		errs = &APIErrors{App: app, SidCookieKey: "sid"}
	}
	return &HomeController{
		app:    app,
		errors: errs,
		cards:  cards,
	}
}

func (c *HomeController) Key() string {
	return "/"
}

func (c *HomeController) Register(r *mux.Router) {
	router := r.Methods(http.MethodGet).Subrouter()
	router.Use(
		middleware.RedirectNotAuthenticated(),
		middleware.ProvideLocalizer(c.app),
		middleware.NavItems(),
		middleware.WithPageContext(),
	)
	router.HandleFunc("/", c.Home)
}

// counts reads every card total at once. A failed read leaves -1 and does not
// fail the page, an expired API session does.
func (c *HomeController) counts(ctx context.Context) ([]int, error) {
	counts := make([]int, len(c.cards))
	g, gctx := errgroup.WithContext(ctx)
	for i, card := range c.cards {
		g.Go(func() error {
			n, err := card.Counter.Count(gctx)
			if err == nil {
				counts[i] = n
				return nil
			}
			counts[i] = -1
			if apiclient.IsUnauthorized(err) {
				return err
			}
			composables.UseLogger(ctx).WithError(err).WithField("card", card.Href).Warn("failed to count")
			return nil
		})
	}
	return counts, g.Wait()
}

func (c *HomeController) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := c.counts(ctx)
	if err != nil {
		if !c.errors.Handle(w, r, err) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	cards := make([]home.Card, 0, len(c.cards))
	for i, card := range c.cards {
		cards = append(cards, home.Card{
			Name:  card.Name.T(ctx),
			Href:  card.Href,
			Count: counts[i],
		})
	}
	props := &home.IndexPageProps{
		Notice: NoticeText(ctx, r.URL.Query().Get("notice")),
		Cards:  cards,
	}
	templ.Handler(home.Index(props)).ServeHTTP(w, r)
}
