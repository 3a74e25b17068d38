package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rdekker/holdings-tracker/internal/api/handlers"
	custommiddleware "github.com/rdekker/holdings-tracker/internal/api/middleware"
	"github.com/rdekker/holdings-tracker/internal/auth"
	"github.com/rdekker/holdings-tracker/internal/config"
	"github.com/rdekker/holdings-tracker/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(systemService *service.SystemService, coordinators *service.CoordinatorSet, issuer *auth.TokenIssuer, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		sessionHandler := handlers.NewSessionHandler(issuer, coordinators)
		r.Post("/session", sessionHandler.Create)

		// Owner-scoped routes require a session token
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireSession(issuer))

			r.Delete("/session", sessionHandler.Delete)

			r.Route("/positions", func(r chi.Router) {
				positionHandler := handlers.NewPositionHandler(coordinators)
				r.Get("/", positionHandler.List)
				r.Post("/", positionHandler.Create)
				r.Put("/{id}", positionHandler.Update)
				r.Delete("/{id}", positionHandler.Delete)
				r.Get("/{id}/transactions", positionHandler.Transactions)
			})

			r.Route("/transactions", func(r chi.Router) {
				transactionHandler := handlers.NewTransactionHandler(coordinators)
				r.Get("/", transactionHandler.List)
				r.Post("/", transactionHandler.Create)
				r.Put("/{id}", transactionHandler.Update)
				r.Delete("/{id}", transactionHandler.Delete)
				r.Get("/{id}/realized-gain", transactionHandler.RealizedGain)
			})

			r.Route("/portfolio", func(r chi.Router) {
				portfolioHandler := handlers.NewPortfolioHandler(coordinators)
				r.Get("/summary", portfolioHandler.Summary)
				r.Get("/snapshot", portfolioHandler.Snapshot)
				r.Get("/performers/top", portfolioHandler.TopPerformers)
				r.Get("/performers/worst", portfolioHandler.WorstPerformers)
				r.Delete("/", portfolioHandler.Clear)
			})

			r.Route("/simulator", func(r chi.Router) {
				simulatorHandler := handlers.NewSimulatorHandler(coordinators)
				r.Post("/start", simulatorHandler.Start)
				r.Post("/stop", simulatorHandler.Stop)
				r.Post("/trigger", simulatorHandler.Trigger)
				r.Post("/crash", simulatorHandler.Crash)
				r.Post("/rally", simulatorHandler.Rally)
			})
		})
	})

	return r
}
