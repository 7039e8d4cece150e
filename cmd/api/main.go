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

	"github.com/baharkarakas/premiumshop-backend/internal/api"
	"github.com/baharkarakas/premiumshop-backend/internal/app"
	"github.com/baharkarakas/premiumshop-backend/internal/config"
	"github.com/baharkarakas/premiumshop-backend/internal/logger"
	"github.com/baharkarakas/premiumshop-backend/internal/metrics"
	"github.com/baharkarakas/premiumshop-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	pub := app.NewPublisher(cfg, log)
	defer func() { _ = pub.Close() }()

	wp := worker.NewPool(4, 256, log)
	defer wp.Stop()

	svc, err := app.NewServices(cfg, repos, wp, pub, log)
	if err != nil {
		log.Error("services", "err", err)
		os.Exit(1)
	}

	metrics.Init()
	if n, err := svc.Topups.SyncPendingGauge(ctx); err != nil {
		log.Warn("pending gauge sync failed", "err", err)
	} else {
		log.Info("pending topups", "count", n)
	}
	r := api.NewRouter(api.RouterDeps{
		Cfg:      cfg,
		Log:      log,
		Auth:     svc.Auth,
		Wallet:   svc.Wallet,
		Topups:   svc.Topups,
		Checkout: svc.Checkout,
		Catalog:  svc.Catalog,
	})

	go svc.Topups.RunSweeper(ctx, cfg.PendingSweepInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("config",
		"env", cfg.Env,
		"store", cfg.StoreDriver,
		"topup_mode", cfg.TopupMode,
		"hoodpay_configured", cfg.HoodPayBaseURL != "" && cfg.HoodPayAPIKey != "",
		"kafka", len(cfg.KafkaBrokers) > 0,
	)

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
