package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/httpserver"
	"typeindex/internal/platform/logger"
	"typeindex/internal/platform/metrics"
	"typeindex/internal/platform/middleware"
	"typeindex/internal/platform/postgres"
	"typeindex/internal/platform/redis"
	"typeindex/internal/platform/token"
	"typeindex/internal/typeindex"
	"typeindex/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	auditPublisher, closeAudit, err := buildAudit(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	deps := typeindex.Deps{
		Config:     cfg,
		Logger:     log,
		Registerer: reg,
		Audit:      auditPublisher,
		AuditLog:   auditPublisher,
	}
	if redisClient != nil {
		deps.Redis = redisClient.UniversalClient
	}
	module, err := typeindex.New(deps)
	if err != nil {
		return err
	}

	validator, err := token.NewValidator(cfg.Token)
	if err != nil {
		return fmt.Errorf("api authentication: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(metrics.New(reg).Middleware)
	router.Get("/healthz", healthHandler(redisClient, db))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireWebID(validator, log))
		module.Handler.Register(r)
	})

	srv := httpserver.New(cfg.Server, router)
	log.InfoContext(ctx, "starting typeindex server",
		"addr", cfg.Server.Addr,
		"cache_backend", cfg.Cache.Backend,
		"patch_format", cfg.Pod.PatchFormat,
	)
	if err := httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server stopped")
	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Redis    string `json:"redis,omitempty"`
	Postgres string `json:"postgres,omitempty"`
}

func healthHandler(rc *redis.Client, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if rc != nil {
			resp.Redis = "ok"
			if err := rc.Health(r.Context()); err != nil {
				resp.Redis, resp.Status, status = err.Error(), "degraded", http.StatusServiceUnavailable
			}
		}
		if db != nil {
			resp.Postgres = "ok"
			if err := db.PingContext(r.Context()); err != nil {
				resp.Postgres, resp.Status, status = err.Error(), "degraded", http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
