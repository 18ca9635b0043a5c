package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/automationhub/console/pkg/application"
)

const DefaultPrometheusPath = "/debug/prometheus"

type PrometheusOptions struct {
	// Path defaults to DefaultPrometheusPath. It must also be listed with the
	// ops guard, which is what keeps it off the public internet.
	Path string
	// Gatherer and Registerer default to the process wide registry the
	// console's HTTP metrics live in.
	Gatherer   prometheus.Gatherer
	Registerer prometheus.Registerer
	// Logger receives collection errors; a failed collector does not fail
	// the whole scrape.
	Logger *logrus.Logger
}

type PrometheusController struct {
	opts    PrometheusOptions
	handler http.Handler
}

func NewPrometheusController(opts PrometheusOptions) application.Controller {
	if opts.Path == "" {
		opts.Path = DefaultPrometheusPath
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	handler := promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{
		ErrorLog:      opts.Logger,
		ErrorHandling: promhttp.ContinueOnError,
	})
	return &PrometheusController{
		opts:    opts,
		handler: promhttp.InstrumentMetricHandler(opts.Registerer, handler),
	}
}

func (c *PrometheusController) Key() string {
	return c.opts.Path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.opts.Path, c.handler).Methods(http.MethodGet)
}
