package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/automationhub/console/internal/server"
	"github.com/automationhub/console/modules"
	"github.com/automationhub/console/modules/access"
	"github.com/automationhub/console/modules/core"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/configuration"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/logging"
	"github.com/automationhub/console/pkg/metrics"
	"github.com/automationhub/console/pkg/session"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	api, err := apiclient.New(apiclient.Options{
		BaseURL:         conf.API.BaseURL,
		LoginPath:       conf.API.LoginPath,
		LogoutPath:      conf.API.LogoutPath,
		SessionCookie:   conf.API.SessionCookie,
		CSRFCookie:      conf.API.CSRFCookie,
		CSRFHeader:      conf.API.CSRFHeader,
		RequestIDHeader: conf.RequestIDHeader,
		Timeout:         conf.API.Timeout,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to create api client: %v", err)
	}

	sessions := session.NewMemoryStore()
	if conf.Session.Storage == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		sessions, err = session.NewRedisStore(ctx, conf.Session.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect session store: %v", err)
		}
	}

	app := application.New(&application.ApplicationOptions{
		API:      api,
		Sessions: sessions,
		Bundle:   application.LoadBundle(),
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	builtIn := []application.Module{
		core.NewModule(&core.ModuleOptions{
			SidCookieKey:    conf.SidCookieKey,
			SessionDuration: conf.Session.Duration,
			LoginAttempts:   conf.RateLimit.LoginRPM,
			Logger:          logger,
		}),
		access.NewModule(&access.ModuleOptions{
			SidCookieKey: conf.SidCookieKey,
		}),
	}
	if err := modules.Load(app, builtIn...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	app.RegisterNavItems(modules.NavLinks...)
	app.RegisterControllers(metrics.NewHealthController(api))
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(metrics.PrometheusOptions{
			Path:   conf.Prometheus.Path,
			Logger: logger,
		}))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
