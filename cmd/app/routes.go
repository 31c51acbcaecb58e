package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rateharvester/internal/api"
	"rateharvester/internal/api/middleware"
	"rateharvester/internal/service"
)

func (app *App) initHTTP(rateService service.RateServiceInterface, redisOpt asynq.RedisConnOpt) error {
	fetchLimiter, err := middleware.NewIPLimiter(app.cfg.Server.FetchRateLimit)
	if err != nil {
		return fmt.Errorf("parse server.fetch_rate_limit %q: %w", app.cfg.Server.FetchRateLimit, err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(middleware.MetricsMiddleware(app.metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)

	r.Route("/exchange-rates", func(r chi.Router) {
		r.Get("/", api.HandleListRates(rateService))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitMiddleware(fetchLimiter, app.logger))
			r.Post("/fetch", api.HandleFetchToday(rateService))
			r.Post("/fetch/dates/{date}", api.HandleFetchByDate(rateService))
		})

		r.Get("/{code}", api.HandleHistory(rateService))
		r.Get("/{code}/dates/{date}", api.HandleGetRate(rateService))
	})

	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(
		api.DBCheck(app.db),
		api.RedisCheck("cache_redis", app.rdbCache),
		api.RedisCheck("asynq_redis", app.rdbAsynq),
	))
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry}))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     "/monitoring",
			RedisConnOpt: redisOpt,
		})
		r.Handle(mon.RootPath()+"/*", mon)
		app.closers = append(app.closers, mon.Close)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}
