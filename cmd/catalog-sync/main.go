package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sevcommerce/catalog-sync/app/api"
	"github.com/sevcommerce/catalog-sync/app/cfg"
	"github.com/sevcommerce/catalog-sync/app/database"
	"github.com/sevcommerce/catalog-sync/app/feeds"
	"github.com/sevcommerce/catalog-sync/app/reconcile"
	"github.com/sevcommerce/catalog-sync/app/supplier"
	"github.com/sevcommerce/catalog-sync/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting catalog sync", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort,
		appCfg.DBUser, appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	productRepo := database.NewProductRepository(db)

	lookupClient := supplier.NewClient(supplier.ClientOptions{
		BaseURL:      appCfg.SupplierAPIURL,
		UserAgent:    appCfg.UserAgent,
		RPS:          appCfg.LookupRPS,
		StockLevel:   appCfg.StockLevel,
		HandlingDays: appCfg.LeadTime + appCfg.LeadTime2,
	})
	fetcher := supplier.NewFetcher(lookupClient, appCfg.MaxFetchAttempts,
		appCfg.LeadTime+appCfg.LeadTime2)
	reconciler := reconcile.NewReconciler(productRepo, appCfg.LeadTime,
		appCfg.LeadTime2, appCfg.UpdateFlag)
	runner := reconcile.NewRunner(fetcher, reconciler, appCfg.BatchSize, appCfg.ConcurrencyLimit)

	marketplaceClient := feeds.NewClient(feeds.ClientOptions{
		AuthURL:       "https://api.amazon.com/auth/o2/token",
		APIBaseURL:    "https://sellingpartnerapi-na.amazon.com",
		ClientID:      appCfg.ClientID,
		ClientSecret:  appCfg.ClientSecret,
		RefreshToken:  appCfg.RefreshToken,
		MarketplaceID: appCfg.MarketplaceID,
		UserAgent:     appCfg.UserAgent,
	})
	submission := feeds.NewSubmission(marketplaceClient,
		time.Duration(appCfg.PollInterval)*time.Second,
		appCfg.MaxPollAttempts, appCfg.SubmitRetries)
	driver := feeds.NewDriver(productRepo, marketplaceClient, submission,
		appCfg.SellerID, appCfg.UpdateFlag, appCfg.SKUPrefix,
		appCfg.FeedSliceSize, appCfg.FeedsDir)

	stats := tasks.NewStats()
	scheduler := tasks.NewScheduler(appCfg.CatalogFile, runner, driver, stats,
		time.Duration(appCfg.SyncInterval)*time.Second)

	if !appCfg.Daemon {
		if err := scheduler.RunOnce(context.Background()); err != nil {
			slog.Error("Sync cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	scheduler.Start()
	defer scheduler.Stop()

	var httpServer *http.Server
	serverErrChan := make(chan error, 1)

	if appCfg.Port != "" {
		handler := api.NewHandler(stats, appCfg.Version)
		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      api.NewServer(handler),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP status server", "port", appCfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Catalog sync daemon started",
		"sync_interval", appCfg.SyncInterval, "catalog", appCfg.CatalogFile)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	slog.Info("Catalog sync daemon stopped")
}
