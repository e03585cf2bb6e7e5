package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
	"github.com/AntonStoeckl/library-lending-go/lending/promadapters"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	"github.com/AntonStoeckl/library-lending-go/shell/config"
	"github.com/AntonStoeckl/library-lending-go/transport/httpapi"
)

const instrumentationName = "github.com/AntonStoeckl/library-lending-go"

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lending HTTP API",
		Example: `  # Serve on the configured address with a local SQLite file
  lending serve

  # Serve from PostgreSQL on port 8080
  LENDING_DB_DRIVER=pgx LENDING_DB_DSN=postgres://localhost/lending lending serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}

			engineOptions, serverOptions, shutdown, err := a.observability(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			engine, closeDB, err := a.openEngine(ctx, engineOptions...)
			if err != nil {
				return err
			}
			defer closeDB()

			if migrate {
				if err := engine.EnsureSchema(ctx); err != nil {
					return err
				}
			}

			serverOptions = append(serverOptions,
				httpapi.WithLogger(a.logger),
				httpapi.WithCORSOrigin(a.cfg.HTTP.CORSOrigin),
				httpapi.WithRequestTimeout(a.cfg.HTTP.RequestTimeout),
			)

			server, err := httpapi.NewServer(engine, serverOptions...)
			if err != nil {
				return err
			}

			if err := server.Run(ctx, a.cfg.HTTP.Addr, a.cfg.HTTP.ShutdownTimeout); err != nil {
				return err
			}

			a.logger.Info("http server stopped")

			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides the configured one")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create missing tables before serving")

	return cmd
}

// observability builds the metrics, tracing and log bridge options from the configuration.
// Prometheus takes the engine metrics when both Prometheus and OpenTelemetry are enabled;
// traces still go to OpenTelemetry.
func (a *app) observability(ctx context.Context) ([]sqlengine.Option, []httpapi.Option, func(), error) {
	var (
		engineOptions []sqlengine.Option
		serverOptions []httpapi.Option
	)

	shutdown := func() {}

	if a.cfg.OTel.Enabled {
		providers, err := config.NewObservabilityProviders(ctx, a.cfg.OTel, version)
		if err != nil {
			return nil, nil, shutdown, err
		}

		shutdown = func() {
			if err := providers.Shutdown(); err != nil {
				a.logger.Error("shutting down telemetry failed", slog.String("error", err.Error()))
			}
		}

		engineOptions = append(engineOptions, otelEngineOptions(
			providers.TracerProvider,
			providers.MeterProvider,
			global.GetLoggerProvider(),
			!a.cfg.Metrics.Prometheus,
		)...)
	}

	if a.cfg.Metrics.Prometheus {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		engineOptions = append(engineOptions, sqlengine.WithMetrics(promadapters.NewMetricsCollector(registry)))
		serverOptions = append(serverOptions, httpapi.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return engineOptions, serverOptions, shutdown, nil
}

// otelEngineOptions wires tracing and the slog bridge, and the OpenTelemetry metrics unless
// another collector takes them. Engine logs reach the bridge with the context of their span.
func otelEngineOptions(
	tracerProvider trace.TracerProvider,
	meterProvider metric.MeterProvider,
	loggerProvider log.LoggerProvider,
	withMetrics bool,
) []sqlengine.Option {
	options := []sqlengine.Option{
		sqlengine.WithTracing(oteladapters.NewTracingCollector(tracerProvider.Tracer(instrumentationName))),
		sqlengine.WithContextualLogger(oteladapters.NewSlogBridgeLoggerWithOptions(
			instrumentationName,
			otelslog.WithLoggerProvider(loggerProvider),
		)),
	}

	if withMetrics {
		options = append(options,
			sqlengine.WithMetrics(oteladapters.NewMetricsCollector(meterProvider.Meter(instrumentationName))),
		)
	}

	return options
}
