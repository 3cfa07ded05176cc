/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Build logger from flags
  2. Open SQLite store
  3. Construct the portal fetcher (when portal.url is set) behind
     the TTL cache
  4. Construct the mailer (no-op when smtp.host is unset)
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close browser and database
  4. Exit
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/syncops/recon-engine/api"
	"github.com/syncops/recon-engine/notify"
	"github.com/syncops/recon-engine/scrape"
	"github.com/syncops/recon-engine/store/sqlite"
)

func newServeCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runServe(logger)
		},
	}
}

func runServe(logger *zap.Logger) error {
	store, err := sqlite.New(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	var fetcher scrape.Fetcher
	var portal *scrape.PortalFetcher
	if portalURL := viper.GetString("portal.url"); portalURL != "" {
		cfg := scrape.DefaultConfig(portalURL)
		cfg.RequestsPerMinute = viper.GetInt("portal.rpm")
		portal, err = scrape.NewPortalFetcher(cfg, logger)
		if err != nil {
			return err
		}
		defer portal.Close()
		fetcher = scrape.NewCachedFetcher(portal, viper.GetDuration("portal.cache_ttl"))
	}

	mailer := notify.NewMailer(
		viper.GetString("smtp.host"),
		viper.GetInt("smtp.port"),
		viper.GetString("smtp.username"),
		viper.GetString("smtp.password"),
		viper.GetString("smtp.from"),
	)

	handler, err := api.NewHandler(store, logger, fetcher, mailer)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler, viper.GetStringSlice("cors_origins"))

	server := &http.Server{
		Addr:         viper.GetString("listen"),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.Bool("scraping", fetcher != nil),
			zap.Bool("email", mailer.Enabled()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
