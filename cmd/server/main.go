package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rdekker/holdings-tracker/internal/api"
	"github.com/rdekker/holdings-tracker/internal/auth"
	"github.com/rdekker/holdings-tracker/internal/config"
	"github.com/rdekker/holdings-tracker/internal/database"
	"github.com/rdekker/holdings-tracker/internal/repository"
	"github.com/rdekker/holdings-tracker/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	positionRepo := repository.NewPositionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	coordinators := service.NewCoordinatorSet(positionRepo, transactionRepo, cfg.Simulator.TickInterval)

	issuer, err := auth.NewTokenIssuer(cfg.Auth.SessionKey, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}
	if cfg.Auth.SessionKey == "" {
		log.Println("SESSION_KEY not set; using an ephemeral key, tokens will not survive a restart")
	}

	// Create router
	router := api.NewRouter(systemService, coordinators, issuer, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop all price simulations so no tick outlives the listener
	coordinators.StopAll()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
