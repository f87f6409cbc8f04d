package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/sonicpact/sonicpact/internal/app"
	"github.com/sonicpact/sonicpact/internal/app/httpapi"
	"github.com/sonicpact/sonicpact/internal/app/storage/postgres"
	"github.com/sonicpact/sonicpact/internal/config"
	"github.com/sonicpact/sonicpact/internal/platform/migrations"
	"github.com/sonicpact/sonicpact/pkg/logger"

	domain "github.com/sonicpact/sonicpact/internal/app/domain/platform"
)

func main() {
	configPath := flag.String("config", os.Getenv("SONICPACT_CONFIG"), "path to config file")
	flag.Parse()

	cfg := config.LoadOrDefault(*configPath)
	log := logger.New(logger.Config{Module: "server", Level: cfg.LogLevel, JSON: cfg.LogJSON})

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
		pg := postgres.New(db)
		stores.Platform = pg
		stores.Deals = pg
		log.Info("using postgres storage")
	} else {
		log.Warn("SONICPACT_DATABASE_URL not set; using in-memory storage")
	}

	application, err := app.New(stores, nil, log)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.Authority != "" {
		_, err := application.Platform.Initialize(ctx, cfg.Bootstrap.Authority, cfg.Bootstrap.FeeRateBasisPoints)
		switch {
		case errors.Is(err, domain.ErrAlreadyInitialized):
			log.Info("platform already initialized")
		case err != nil:
			return err
		}
	}

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(shutdownCtx)
	}()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.NewHandler(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
