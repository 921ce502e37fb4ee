package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imspharma/pharma-backend/internal/api"
	"github.com/imspharma/pharma-backend/internal/config"
	"github.com/imspharma/pharma-backend/internal/log"
	"github.com/imspharma/pharma-backend/internal/metrics"
	"github.com/imspharma/pharma-backend/internal/query"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting IMS pharmaceutical data API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"mcp_path", cfg.MCPPath,
		"database", cfg.Mongo.Database,
		"collection", cfg.Mongo.Collection,
		"version", api.Version,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("pharma-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Setup the query executor. Every query opens and releases its own
	// connection, so there is nothing to dial at startup.
	connector := query.NewMongoConnector(cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	executor := query.NewExecutor(
		connector,
		query.Defaults{Database: cfg.Mongo.Database, Collection: cfg.Mongo.Collection},
		cfg.Logging.QueryFilters,
		logger,
		metricsObj,
	)

	// Setup API handler and middleware
	handler := api.NewHandler(executor, connector, cfg, logger, metricsObj)
	middleware := api.NewMiddleware(logger, metricsObj)

	// Create router with middleware and routes
	router := handler.Routes(middleware, cfg.MCPPath, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM)

	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Add metrics endpoint
	router.Handle("/metrics", metricsHandler)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}
