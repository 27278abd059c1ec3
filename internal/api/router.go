package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vrno/tokenmarket/internal/metrics"
)

// NewRouter builds the full route table. The table is fixed at build time;
// credential checks run in middleware before any handler.
func NewRouter(h *Handler, ws http.Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerAPIKey, headerAPIKeyAlt, headerToken},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.RequestLogger)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	// The websocket upgrade hijacks the connection, so it stays outside the
	// metrics middleware.
	r.Handle("/ws", ws)

	r.Route("/api", func(r chi.Router) {
		r.Use(metrics.Middleware)

		r.Get("/maintenance", h.MaintenanceStatus)

		// Public reads.
		r.Group(func(r chi.Router) {
			r.Use(h.Maintenance)

			r.Get("/collectibles", h.ListCollectibles)
			r.Get("/collectibles/{id}", h.GetCollectible)
			r.Get("/collectibles/{id}/history", h.GetPriceHistory)
			r.Get("/collectibles/{id}/summary", h.GetMarketSummary)
			r.Get("/prices", h.ListPrices)
			r.Get("/images", h.ListImages)
			r.Get("/packages", h.ListTokenPackages)

			// {user} is a username on the account routes and a user id on
			// the portfolio routes, matching what each client sends.
			r.Get("/users/{user}", h.GetUser)
			r.Get("/users/{user}/balance", h.GetBalance)
			r.Get("/users/{user}/assets", h.GetUserAssets)
			r.Get("/users/{user}/referrals", h.GetUserReferrals)
			r.Get("/users/{user}/movements", h.GetUserMovements)
			r.Get("/users/{user}/gains", h.GetPortfolioGains)
		})

		// Gateway-key protected.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAPIKey)

			r.Post("/auth/tokens", h.IssueToken)

			r.Group(func(r chi.Router) {
				r.Use(h.Maintenance)

				r.With(h.RequireToken("trade")).Post("/transactions", h.CreateTransaction)
				r.Post("/payments/orders", h.CreatePaymentOrder)
				r.With(h.RequireToken("payment")).Post("/payments/orders/{id}/capture", h.CapturePaymentOrder)

				r.With(h.RequireToken("read")).Get("/secure/balance", h.SecureBalance)
				r.With(h.RequireToken("read")).Get("/secure/assets", h.SecureAssets)
			})

			// Admin stays reachable during maintenance so the flag can be
			// turned back off.
			r.Route("/admin", func(r chi.Router) {
				r.Get("/configs", h.ListAdminConfigs)
				r.Post("/configs", h.SetAdminConfig)
				r.Get("/configs/{key}", h.GetAdminConfig)

				r.Get("/packages", h.ListTokenPackages)
				r.Post("/packages", h.CreateTokenPackage)
				r.Get("/packages/{id}", h.GetTokenPackage)
				r.Put("/packages/{id}", h.UpdateTokenPackage)
				r.Delete("/packages/{id}", h.DeleteTokenPackage)

				r.Get("/referral-codes", h.ListReferralCodes)
				r.Post("/referral-codes", h.CreateReferralCode)
			})
		})
	})

	return r
}
