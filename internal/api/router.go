package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/premiumshop-backend/internal/api/handlers"
	"github.com/baharkarakas/premiumshop-backend/internal/catalog"
	"github.com/baharkarakas/premiumshop-backend/internal/config"
	"github.com/baharkarakas/premiumshop-backend/internal/metrics"
	"github.com/baharkarakas/premiumshop-backend/internal/middleware"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

type RouterDeps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Auth     *services.AuthService
	Wallet   *services.WalletService
	Topups   *services.TopupService
	Checkout *services.CheckoutService
	Catalog  catalog.Source
}

func NewRouter(d RouterDeps) http.Handler {
	authH := handlers.NewAuthHandler(d.Auth, d.Log, d.Cfg.IsProd())
	walletH := &handlers.WalletHandler{Svc: d.Wallet, Log: d.Log}
	topupH := &handlers.TopupHandler{
		Svc:           d.Topups,
		Log:           d.Log,
		PublicBaseURL: d.Cfg.PublicBaseURL,
		WebhookSecret: d.Cfg.HoodPayWebhookSecret,
	}
	checkoutH := &handlers.CheckoutHandler{Svc: d.Checkout, Log: d.Log}
	productH := &handlers.ProductHandler{Source: d.Catalog, Log: d.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(d.Log), middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(corsOptions(d.Cfg.CORSOrigins)))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// ---------- public ----------
		r.Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)
		r.Get("/products", productH.List)
		r.Post("/hoodpay/webhook", topupH.Webhook)

		// ---------- session ----------
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(d.Auth))
			r.Get("/balance", walletH.Balance)
			r.Post("/topup/create", topupH.Create)
			r.Get("/topup/status", topupH.Status)
			r.Post("/checkout", checkoutH.Checkout)
		})
	})

	return r
}

// corsOptions allows credentials only for an explicit origin list.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}
	for _, o := range origins {
		if o == "*" {
			return opts
		}
	}
	opts.AllowCredentials = true
	return opts
}
