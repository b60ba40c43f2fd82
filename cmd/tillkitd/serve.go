package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tillkit/pkg/entitlementapi"
	"github.com/dmitrymomot/tillkit/pkg/httpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the entitlement query API and metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}

		catalog, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}

		be, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		api := entitlementapi.New(catalog, be.store, entitlementapi.WithLogger(log))

		r := chi.NewRouter()
		r.Use(middleware.RequestID, middleware.Recoverer)
		r.Get("/healthz", httpserver.Liveness())
		r.Get("/readyz", httpserver.Readiness(log, 2*time.Second, map[string]httpserver.Check{
			cfg.Store: be.ready,
		}))
		r.Mount("/v1", api.Router())

		metrics := http.NewServeMux()
		metrics.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
		})
		g.Go(func() error {
			return httpserver.New(httpserver.Config{Addr: cfg.MetricsAddr}, httpserver.WithLogger(log)).Run(ctx, metrics)
		})
		return g.Wait()
	},
}
