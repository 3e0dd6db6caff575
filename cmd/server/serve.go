package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/MelvinDY/SGM/internal/api"
	"github.com/MelvinDY/SGM/internal/catalog"
	"github.com/MelvinDY/SGM/internal/db"
	"github.com/MelvinDY/SGM/internal/external"
	"github.com/MelvinDY/SGM/internal/notifications"
	"github.com/MelvinDY/SGM/internal/repository"
	"github.com/MelvinDY/SGM/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, price poller and websocket stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(banner)
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.Print()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := connectDB(ctx)
		if err != nil {
			return err
		}
		if pool != nil {
			defer func() {
				pool.Close()
				log.Info("connection pool closed")
			}()
		}

		goldSvc := newGoldService()
		hub := api.NewHub(log)
		notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName, log)
		instagram := newInstagramClient()

		deps := api.Deps{Gold: goldSvc, Hub: hub, Logger: log}
		var recorder scheduler.Recorder
		if pool != nil {
			priceRepo := repository.NewPriceRepo(pool)
			productRepo := repository.NewProductRepo(pool)
			syncRepo := repository.NewSyncLogRepo(pool)

			recorder = priceRepo
			deps.DB = pool
			deps.Prices = priceRepo
			deps.Products = productRepo
			deps.SyncLogs = syncRepo
			if instagram.Configured() {
				deps.Importer = catalog.NewImporter(instagram, productRepo, syncRepo, log)
			}
		}

		// 1. API server
		srv := api.NewServer(deps, api.Options{
			Port:       cfg.APIPort,
			APIKey:     cfg.APIKey,
			CORSOrigin: cfg.CORSAllowOrigin,
			USDRate:    cfg.USDIDRRate,
		})
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// 2. Price poller feeding storage, alerts and the stream
		poller := scheduler.NewPricePoller(goldSvc, recorder, notify, scheduler.PollerConfig{
			Interval:           cfg.PollInterval,
			AlertChangePercent: cfg.AlertChangePercent,
			OnPrice:            hub.PublishPrice,
			Logger:             log,
		})
		poller.Start()

		log.Info("all services started")

		select {
		case <-ctx.Done():
		case err := <-errCh:
			log.Error("API server failed", "err", err)
			poller.Stop()
			return err
		}
		log.Info("shutting down gracefully")

		poller.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("API shutdown error", "err", err)
		}
		log.Info("shutdown complete")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.DBEnabled = true
		pool, err := connectDB(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("schema up to date")
		return nil
	},
}

// connectDB returns a migrated pool, or nil when the database is disabled.
func connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	if !cfg.DBEnabled {
		log.Warn("database disabled: prices are not stored and catalog routes answer 503")
		return nil, nil
	}

	log.Info("connecting to database", "host", cfg.DBHost, "port", cfg.DBPort, "name", cfg.DBName)
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	now, err := db.Now(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("database connected", "server_time", now.Format(time.RFC3339))

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func newInstagramClient() *external.InstagramClient {
	return external.NewInstagramClient(external.InstagramOptions{
		BaseURL:     cfg.InstagramAPIURL,
		AccessToken: cfg.InstagramAccessToken,
		BusinessID:  cfg.InstagramBusinessID,
		Mock:        cfg.InstagramMockMode,
		Logger:      log,
	})
}
