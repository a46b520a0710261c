package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mbtamap/internal/config"
	"mbtamap/internal/directory"
	"mbtamap/internal/geocode"
	"mbtamap/internal/handler"
	"mbtamap/internal/lines"
	"mbtamap/internal/mbta"
	"mbtamap/internal/realtime"
	"mbtamap/internal/server"
	"mbtamap/internal/session"
	"mbtamap/internal/storage"
	"mbtamap/web"
)

func main() {
	cfg := config.Load()

	// CLI flags
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "MBTA v3 API base URL")
	flag.StringVar(&cfg.LinesFile, "lines", cfg.LinesFile, "YAML file listing lines and colors")
	flag.BoolVar(&cfg.Alerts, "alerts", cfg.Alerts, "Poll the service alerts feed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table := lines.Default()
	if cfg.LinesFile != "" {
		t, err := lines.LoadFile(cfg.LinesFile)
		if err != nil {
			logger.Error("failed to load lines file", "path", cfg.LinesFile, "error", err)
			os.Exit(1)
		}
		table = t
		logger.Info("line table loaded", "path", cfg.LinesFile, "lines", table.Len())
	}

	static, err := fs.Sub(web.StaticFiles, "static")
	if err != nil {
		logger.Error("static assets", "error", err)
		os.Exit(1)
	}

	// Serve the loading page while stations are fetched
	srv := server.New(cfg, static, logger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	client := mbta.NewClient(cfg.APIURL, cfg.APIKey, logger)
	dir := directory.Build(ctx, client, table, cfg.FetchConcurrency, logger)
	if dir.Empty() {
		logger.Warn("no stations loaded, serving an empty map")
	}

	db, err := storage.Open(":memory:", logger)
	if err != nil {
		logger.Error("failed to open station index", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.LoadDirectory(ctx, dir); err != nil {
		logger.Error("failed to index stations", "error", err)
	}

	rtStore := realtime.NewStore()
	if cfg.Alerts {
		fetcher := realtime.NewFetcher(cfg.AlertsURL, realtime.DefaultInterval, rtStore, logger)
		go fetcher.Start(ctx)
	}

	sessions := session.NewRegistry(dir, session.Config{
		TransitionTimeout: cfg.TransitionTimeout,
		SettleDelay:       cfg.SettleDelay,
	}, cfg.MaxSessions, cfg.SessionTTL, logger)

	var geo *geocode.Client
	if cfg.Geocode {
		geo = geocode.New(cfg.GeocodeURL, "mbtamap/1.0 (transit map viewer)")
	}

	h, err := handler.New(dir, sessions, db, rtStore, geo, cfg, static, logger)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		os.Exit(1)
	}
	srv.Mount(h)
	logger.Info("ready", "stations", dir.Len(), "segments", len(dir.Segments))

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}
}
