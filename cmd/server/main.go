package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/scmmishra/linklog/internal/cache"
	"github.com/scmmishra/linklog/internal/capture"
	"github.com/scmmishra/linklog/internal/config"
	"github.com/scmmishra/linklog/internal/db"
	"github.com/scmmishra/linklog/internal/geo"
	"github.com/scmmishra/linklog/internal/handlers"
	"github.com/scmmishra/linklog/internal/ipcheck"
	"github.com/scmmishra/linklog/internal/keepalive"
	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/metrics"
	"github.com/scmmishra/linklog/internal/shorten"
	"github.com/scmmishra/linklog/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	geoReader, err := geo.Open(cfg.GeoIPPath)
	if err != nil {
		logger.Warn("geoip database unavailable, offline fallback disabled", "path", cfg.GeoIPPath, "error", err)
		geoReader, _ = geo.Open("")
	}
	defer geoReader.Close()

	linkCache, err := cache.New(cfg.CacheSize)
	if err != nil {
		logger.Error("cache", "error", err)
		os.Exit(1)
	}

	var proxies *ipcheck.Checker
	if cfg.IPCheck {
		proxies = ipcheck.New(logger, ipcheck.DefaultSources, ipcheck.DefaultRefresh)
		proxies.Start()
	}

	geoChain := geo.NewChain(logger,
		geo.NewIPAPICo(cfg.HTTPTimeout),
		geo.NewIPAPICom(cfg.HTTPTimeout),
		geoReader,
	)
	capturer := capture.New(geoChain, proxies, cfg.HTTPTimeout, logger)

	svc := links.NewService(database, linkCache, shorten.NewRegistry(cfg.HTTPTimeout), links.Options{
		CodeLength:  cfg.CodeLength,
		BaseURL:     cfg.BaseURL,
		HTTPTimeout: cfg.HTTPTimeout,
	}, logger)

	limiter, err := handlers.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.CacheSize)
	if err != nil {
		logger.Error("rate limiter", "error", err)
		os.Exit(1)
	}

	pages, err := web.NewHandler(database, svc, logger)
	if err != nil {
		logger.Error("templates", "error", err)
		os.Exit(1)
	}

	redirectHandler := &handlers.RedirectHandler{
		DB:       database,
		Links:    svc,
		Capturer: capturer,
		Pages:    pages,
		Logger:   logger,
	}
	collectHandler := &handlers.CollectHandler{DB: database, Links: svc, Logger: logger}
	apiHandler := &handlers.APIHandler{DB: database, Links: svc, Logger: logger}
	linkHandler := &handlers.LinkHandler{Links: svc}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	pages.RegisterRoutes(r, limiter.Middleware)

	r.Get("/ping", handlers.Ping)
	r.Handle("/metrics", metrics.Handler())
	r.Post("/collect", collectHandler.ServeHTTP)
	r.Route("/api", func(r chi.Router) {
		r.With(limiter.Middleware).Post("/links", linkHandler.Create)
		r.Get("/visits/{code}", apiHandler.Visits)
		r.Get("/visit-metadata/{code}", apiHandler.VisitMetadata)
	})
	r.Get("/{code}", redirectHandler.ServeHTTP)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pinger *keepalive.Pinger
	if cfg.KeepaliveURL != "" {
		pinger = keepalive.New(cfg.KeepaliveURL, cfg.KeepaliveInterval, cfg.HTTPTimeout, logger)
		pinger.Start(ctx)
	}

	go func() {
		logger.Info("linklog listening", "port", cfg.Port, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if pinger != nil {
		pinger.Shutdown()
	}
	if proxies != nil {
		proxies.Shutdown()
	}
	logger.Info("goodbye")
}

func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(level))
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
