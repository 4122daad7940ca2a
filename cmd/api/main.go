package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "studystake/docs" // This is for Swagger
	"studystake/internal/auth"
	"studystake/internal/config"
	"studystake/internal/database"
	"studystake/internal/handlers"
	"studystake/internal/logger"
	"studystake/internal/metrics"
	"studystake/internal/middleware"
	"studystake/internal/repository"
	"studystake/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title StudyStake API
// @version 1.0
// @description Peer review wager and dispute resolution engine for the StudyStake learning platform

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		err := db.Close()
		if err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	stopStats := make(chan struct{})
	defer close(stopStats)
	go m.CollectDBStats(db.DB, 15*time.Second, stopStats)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	attemptRepo := repository.NewQuizAttemptRepository(db.DB)
	reviewRepo := repository.NewPeerReviewRepository(db.DB)
	ledgerRepo := repository.NewLedgerRepository(db.DB)
	proficiencyRepo := repository.NewProficiencyRepository(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	ledgerService := service.NewLedgerService(db.DB, ledgerRepo, userRepo)
	moderationService := service.NewModerationService(&cfg.Moderation)
	arbiterService := service.NewArbiterService(&cfg.Arbiter)
	reviewService := service.NewReviewService(
		db.DB,
		reviewRepo,
		userRepo,
		taskRepo,
		attemptRepo,
		proficiencyRepo,
		ledgerService,
		moderationService,
		arbiterService,
		m,
		cfg.Review,
	)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// Initialize handlers
	reviewHandler := handlers.NewReviewHandler(reviewService, reviewRepo)
	ledgerHandler := handlers.NewLedgerHandler(ledgerRepo, userRepo, proficiencyRepo)

	// Setup routes
	mux := http.NewServeMux()

	// Review lifecycle
	mux.Handle("POST /api/v1/reviews/unlock", authMw.Authenticate(http.HandlerFunc(reviewHandler.Unlock)))
	mux.Handle("POST /api/v1/reviews/{id}/vote", authMw.Authenticate(http.HandlerFunc(reviewHandler.Vote)))
	mux.Handle("POST /api/v1/reviews/{id}/respond", authMw.Authenticate(http.HandlerFunc(reviewHandler.Respond)))

	// Review read views
	mux.Handle("GET /api/v1/reviews/given", authMw.Authenticate(http.HandlerFunc(reviewHandler.ListGiven)))
	mux.Handle("GET /api/v1/reviews/received", authMw.Authenticate(http.HandlerFunc(reviewHandler.ListReceived)))
	mux.Handle("GET /api/v1/reviews/{id}", authMw.Authenticate(http.HandlerFunc(reviewHandler.Get)))

	// Ledger and proficiency read views
	mux.Handle("GET /api/v1/ledger", authMw.Authenticate(http.HandlerFunc(ledgerHandler.GetLedger)))
	mux.Handle("GET /api/v1/proficiency", authMw.Authenticate(http.HandlerFunc(ledgerHandler.GetProficiency)))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			if err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
		if err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Prometheus exposition
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.RequestIDMiddleware(
		middleware.LoggingMiddleware(
			m.Handler(
				corsMw.Handler(
					rateLimiter.Limit(mux),
				),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
