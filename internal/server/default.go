package server

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/automationhub/console/modules/core/presentation/controllers"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/configuration"
	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/metrics"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader

	// WithLogger opens the root span of every request
	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),
		middleware.Provide(constants.AppKey, app),
		middleware.Cors(conf.Origin),
		middleware.RequestParams(),
	}

	if conf.RateLimit.Enabled {
		var store limiter.Store
		var err error

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		middlewares = append(middlewares,
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             store,
			}),
		)
	}

	opsPaths := []string{"/health"}
	if conf.Prometheus.Enabled {
		opsPaths = append(opsPaths, conf.Prometheus.Path)
	}
	middlewares = append(middlewares,
		middleware.OpsGuard(conf, opsPaths...),
		middleware.WithSession(app.Sessions(), conf.SidCookieKey, app.EventPublisher()),
	)
	if conf.Prometheus.Enabled {
		middlewares = append(middlewares, metrics.Middleware())
	}

	app.RegisterMiddleware(middlewares...)

	serverInstance := server.NewHTTPServer(
		app,
		controllers.NotFound(app),
		controllers.MethodNotAllowed(app),
	)
	return serverInstance, nil
}
