package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/xLucasGitHubx/messagerie-api/internal/auth"
	"github.com/xLucasGitHubx/messagerie-api/internal/config"
	"github.com/xLucasGitHubx/messagerie-api/internal/db"
	"github.com/xLucasGitHubx/messagerie-api/internal/handlers"
	"github.com/xLucasGitHubx/messagerie-api/internal/messaging"
	metricsPkg "github.com/xLucasGitHubx/messagerie-api/internal/metrics"
	"github.com/xLucasGitHubx/messagerie-api/internal/server"
	"github.com/xLucasGitHubx/messagerie-api/internal/status"
	"github.com/xLucasGitHubx/messagerie-api/internal/storage"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Messagerie API")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := storage.NewStore(cfg.Storage.UploadDir, cfg.Storage.MaxFileSize, cfg.Storage.AllowedTypes)
	if err != nil {
		return fmt.Errorf("failed to initialize attachment store: %w", err)
	}

	catalog := status.NewCatalog(dbConn)
	if err := catalog.EnsureSeeded(); err != nil {
		return fmt.Errorf("failed to seed status catalog: %w", err)
	}

	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	m := metricsPkg.NewMetrics(prometheus.DefaultRegisterer)
	svc := messaging.NewService(dbConn, catalog)

	h := handlers.NewHandlers(dbConn, authService, catalog, store, svc, m)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := db.Close(dbConn); err != nil {
		logrus.Errorf("Failed to close database: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
