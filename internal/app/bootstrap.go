// Package app builds the dependency graph shared by the API server and shopctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baharkarakas/premiumshop-backend/internal/auth"
	"github.com/baharkarakas/premiumshop-backend/internal/catalog"
	"github.com/baharkarakas/premiumshop-backend/internal/config"
	"github.com/baharkarakas/premiumshop-backend/internal/db"
	"github.com/baharkarakas/premiumshop-backend/internal/events"
	"github.com/baharkarakas/premiumshop-backend/internal/payment"
	"github.com/baharkarakas/premiumshop-backend/internal/repository"
	"github.com/baharkarakas/premiumshop-backend/internal/repository/memory"
	"github.com/baharkarakas/premiumshop-backend/internal/repository/postgres"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
	"github.com/baharkarakas/premiumshop-backend/internal/worker"
)

// OpenStore returns the configured repositories and a func releasing them.
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Repositories, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		repos, _ := memory.NewRepositories()
		return repos, func() {}, nil
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.Migrate {
			applied, err := db.RunMigrations(ctx, pool)
			if err != nil {
				pool.Close()
				return repository.Repositories{}, nil, fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied", "versions", applied)
		}
		return postgres.NewRepositories(pool), pool.Close, nil
	default:
		return repository.Repositories{}, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// NewPublisher uses Kafka when brokers are configured, the logger otherwise.
func NewPublisher(cfg config.Config, log *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) > 0 {
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return events.LogPublisher{Log: log}
}

func NewProvider(cfg config.Config) payment.Provider {
	if cfg.TopupMode == config.TopupModeInstant {
		return payment.StubProvider{}
	}
	return payment.NewHoodPayClient(cfg.HoodPayBaseURL, cfg.HoodPayAPIKey, cfg.HoodPayTimeout)
}

func TopupConfig(cfg config.Config) services.TopupConfig {
	tc := services.DefaultTopupConfig()
	tc.PendingTTL = cfg.PendingTopupTTL
	tc.ProviderTimeout = cfg.HoodPayTimeout
	tc.BaseURL = cfg.PublicBaseURL
	tc.Instant = cfg.TopupMode == config.TopupModeInstant
	return tc
}

type Services struct {
	Auth     *services.AuthService
	Wallet   *services.WalletService
	Topups   *services.TopupService
	Checkout *services.CheckoutService
	Catalog  catalog.Source
}

func NewServices(cfg config.Config, repos repository.Repositories, wp *worker.Pool, pub events.Publisher, log *slog.Logger) (Services, error) {
	sessions := auth.NewSessionManager(cfg.SessionSecret, "premiumshop", cfg.SessionTTL)
	authSvc, err := services.NewAuthService(repos.Users, sessions, cfg.DemoEmail, cfg.DemoPassword, log)
	if err != nil {
		return Services{}, err
	}
	src := catalog.NewFileLoader(cfg.CatalogPath)
	wallet := services.NewWalletService(repos, wp, log)
	return Services{
		Auth:     authSvc,
		Wallet:   wallet,
		Topups:   services.NewTopupService(repos, wallet, NewProvider(cfg), pub, wp, log, TopupConfig(cfg)),
		Checkout: services.NewCheckoutService(wallet, src, pub, wp, log),
		Catalog:  src,
	}, nil
}
