package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"blockmart/backend/internal/api"
	"blockmart/backend/internal/auth"
	"blockmart/backend/internal/billing"
	"blockmart/backend/internal/config"
	"blockmart/backend/internal/identity"
	"blockmart/backend/internal/logging"
	"blockmart/backend/internal/observability"
	"blockmart/backend/internal/repository"
	"blockmart/backend/internal/services"
	servertls "blockmart/backend/internal/tls"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "blockmart-server",
		Short: "Workflow marketplace backend",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to .env file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile)
		},
	}
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(envFile string) error {
	ctx := context.Background()

	// Initialize logging
	logger := logging.NewLogger()

	// Load configuration
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return err
	}
	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"demo_mode", cfg.DemoMode,
		"identity_url", cfg.Identity.URL,
		"billing_url", cfg.Billing.URL,
	)

	logger.Info("Starting Blockmart Backend")

	// Initialize storage. Demo mode runs entirely in memory.
	var workflowStore repository.WorkflowStore
	var userStore repository.UserStore
	if cfg.DemoMode {
		store := repository.NewInMemoryStore()
		workflowStore, userStore = store, store
		logger.Info("Demo mode: using in-memory store")
	} else {
		dbPool, err := initDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize database", "error", err)
			return err
		}
		defer dbPool.Close()
		store := repository.NewPostgresStore(dbPool)
		workflowStore, userStore = store, store
		logger.Info("Database connected")
	}

	// Service layer
	workflowService := services.NewWorkflowService(workflowStore)

	// External collaborators
	identityClient := identity.NewClient(cfg.Identity.URL, cfg.Identity.APIKey)
	var billingClient billing.Client
	if cfg.DemoMode {
		billingClient = billing.NewDemoClient()
		logger.Info("Demo mode: using permissive billing stub")
	} else {
		billingClient = billing.NewHTTPClient(cfg.Billing.URL, cfg.Billing.SecretKey)
	}

	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ProblemDetailsHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.Server.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(otelecho.Middleware("blockmart-backend"))

	// Authentication middleware talks to the identity provider; in demo mode
	// unauthenticated requests proceed as the demo user.
	authz := auth.New(identityClient, logger, cfg.DemoMode)

	// Mount REST API handlers
	apiServer := api.NewServer(workflowService, userStore, identityClient, billingClient, logger)
	apiServer.Register(e, authz.RequireAuth)
	observability.RegisterMetricsEndpoint(e)

	logger.Info("REST API handlers mounted")

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if cfg.TLS.Enable {
		addr = ":8443"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
				logger.Error("TLS enabled but cert/key file not provided")
				serverErrors <- server.ListenAndServe()
				return
			}
			// generate if missing and hostnames provided
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
				if len(cfg.TLS.Hostnames) > 0 {
					if err := servertls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
						logger.Error("failed to generate self-signed cert", "error", err)
					}
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			return err
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
