package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/auth"
	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/database"
	"github.com/tradelens/hts-tracker/internal/logging"
	"github.com/tradelens/hts-tracker/internal/middleware"
	"github.com/tradelens/hts-tracker/internal/reports"
	"github.com/tradelens/hts-tracker/internal/tracker"
	"github.com/tradelens/hts-tracker/internal/webhook"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	flushLogs, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer flushLogs()

	slog.Info("configuration loaded successfully",
		"db_driver", cfg.Database.Driver,
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
	)

	slog.Info("CORS configuration",
		"allowed_origins", cfg.CORS.AllowedOrigins,
		"allowed_methods", cfg.CORS.AllowedMethods,
		"allowed_headers", cfg.CORS.AllowedHeaders,
		"allow_credentials", cfg.CORS.AllowCredentials,
		"max_age", cfg.CORS.MaxAge,
	)

	slog.Info("webhook configuration",
		"url", cfg.Webhook.URL,
		"timeout", cfg.Webhook.Timeout,
		"max_attempts", cfg.Webhook.MaxAttempts,
		"base_delay", cfg.Webhook.BaseDelay,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	storage, err := reports.NewStorageFromConfig(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize report storage: %v", err)
	}
	reportService := reports.NewReportService(storage)

	notifier := webhook.NewNotifier(cfg.Webhook, webhook.WithRecorder(webhook.NewGormRecorder(db)))
	tm := tracker.NewManager(db, notifier, reportService)

	authService := auth.NewAuthService(db)
	tokenExtractor := auth.NewTokenExtractor(cfg.Auth)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(&cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	api.Use(auth.RequireAuth(authService, tokenExtractor))
	tm.RegisterRoutes(api)
	api.GET("/reports/*key", reports.NewHTTPHandler(reportService).Download)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	// In-flight tracking attempts finish within the shutdown window
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}
}
