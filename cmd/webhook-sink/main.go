// Command webhook-sink is a local stand-in for the automation endpoint. It stores every
// delivery it receives and can be scripted to answer with error statuses.
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/logging"
	"github.com/tradelens/hts-tracker/internal/sink"
)

func main() {
	_ = godotenv.Load()

	flush, err := logging.Setup(config.LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	})
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer flush()

	port, err := strconv.Atoi(getEnvOrDefault("SINK_PORT", "8090"))
	if err != nil {
		log.Fatalf("invalid SINK_PORT: %v", err)
	}
	status, err := strconv.Atoi(getEnvOrDefault("SINK_RESPONSE_STATUS", "200"))
	if err != nil {
		log.Fatalf("invalid SINK_RESPONSE_STATUS: %v", err)
	}

	store, err := sink.NewDeliveryStore(getEnvOrDefault("SINK_DB_PATH", "webhook_sink.db"))
	if err != nil {
		log.Fatalf("failed to open sink store: %v", err)
	}

	svc := sink.NewSinkService(store, status)
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Error("failed to close sink store", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           sink.NewHandler(svc).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting webhook sink", "port", port, "default_status", status)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start sink", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("shutting down webhook sink...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("sink forced to shutdown", "error", err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
