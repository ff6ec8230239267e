package main

import (
	"net/http"

	"arca/internal/shared/config"
	"arca/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check (no identity required)
	mux.HandleFunc("/health", deps.HealthHandler.HandleHealth)

	// Protected routes
	identity := middleware.Identity

	mux.Handle("/api/link/token", identity(http.HandlerFunc(deps.ItemHandler.HandleCreateLinkToken)))
	mux.Handle("/api/items", identity(http.HandlerFunc(deps.ItemHandler.HandleItems)))
	mux.Handle("/api/items/{id}", identity(http.HandlerFunc(deps.ItemHandler.HandleItemByID)))
	mux.Handle("/api/items/{id}/sync", identity(http.HandlerFunc(deps.ItemHandler.HandleSyncItem)))
	mux.Handle("/api/accounts", identity(http.HandlerFunc(deps.AccountHandler.HandleListAccounts)))
	mux.Handle("/api/accounts/{id}", identity(http.HandlerFunc(deps.AccountHandler.HandleAccountByID)))
	mux.Handle("/api/transactions", identity(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("/api/transactions/{id}", identity(http.HandlerFunc(deps.TransactionHandler.HandleGetTransaction)))
	mux.Handle("/api/transactions/{id}/annotations", identity(http.HandlerFunc(deps.TransactionHandler.HandleAnnotateTransaction)))
	mux.Handle("/api/devices", identity(http.HandlerFunc(deps.NotificationHandler.HandleRegisterDevice)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedOrigins)(middleware.Tracing(mux)))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	return handler
}
