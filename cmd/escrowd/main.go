package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"freelance-escrow-go/internal/api"
	"freelance-escrow-go/internal/config"
	"freelance-escrow-go/internal/escrow"
	"freelance-escrow-go/internal/models"
	"freelance-escrow-go/internal/storage"
	"freelance-escrow-go/pkg/chainclient"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Setup logging
	logger, logFile, err := setupLogging(cfg.Monitoring.LogFile)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	logger.Printf("Starting escrow engine (arbiter: %s)", cfg.Escrow.ArbiterAddress)

	// Pick the value-transfer backend: the configured chain node, or the
	// in-memory simulator for development.
	var transferor escrow.Transferor
	if cfg.Escrow.ChainURL != "" {
		transferor = chainclient.NewClient(cfg.Escrow.ChainURL, cfg.Escrow.TransferTimeout)
		logger.Printf("Using chain node at %s", cfg.Escrow.ChainURL)
	} else {
		transferor = chainclient.NewMemory()
		logger.Println("Warning: no chain URL configured, using in-memory transfer simulator")
	}

	// Initialize the optional Supabase mirror
	var store storage.Store
	if cfg.Database.Enabled {
		supabaseStore, err := storage.NewSupabaseStore(cfg.Database.SupabaseURL, cfg.Database.SupabaseKey)
		if err != nil {
			logger.Fatalf("Failed to initialize storage mirror: %v", err)
		}
		store = supabaseStore
		logger.Println("Supabase mirror enabled")
	}

	// Initialize the engine
	vault := escrow.NewVault(transferor, logger)
	ledger := escrow.NewLedger(vault, store, logger)
	resolver := escrow.NewDisputeResolver(models.Address(cfg.Escrow.ArbiterAddress), ledger, logger)

	// Setup routes
	auth := api.NewAuthenticator(cfg.Auth.TokenSecret)
	handler := api.NewHandler(ledger, resolver, auth, cfg.Server.RateLimit, logger)
	r := mux.NewRouter()
	handler.Routes(r)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown listener
	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	go func() {
		logger.Printf("Listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownCtx.Done()
	logger.Println("Shutdown signal received...")

	// Shutdown HTTP server gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("HTTP server forced to shutdown: %v", err)
	}

	logger.Println("Escrow engine exited cleanly")
}

// setupLogging configures logging based on the configuration
func setupLogging(logFile string) (*log.Logger, *os.File, error) {
	var logOutput *os.File
	var err error

	if logFile != "" {
		// Ensure log directory exists
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logOutput, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		logOutput = os.Stdout
	}

	logger := log.New(logOutput, "[ESCROW] ", log.LstdFlags|log.Lshortfile)
	return logger, logOutput, nil
}
