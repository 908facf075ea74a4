// Command admin serves the PWM administrative web console.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/pwm-project/pwm-admin/internal/admin/dashboard"
	"github.com/pwm-project/pwm-admin/internal/admin/directory"
	"github.com/pwm-project/pwm-admin/internal/admin/httpserver"
	"github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCtx := context.Background()
	cfg := httpserver.Config{
		Address:       getEnv("PWM_ADMIN_ADDR", ":8080"),
		BasePath:      getEnv("PWM_ADMIN_BASE_PATH", "/admin"),
		Environment:   getEnv("PWM_ADMIN_ENV", "Development"),
		Authenticator: buildAuthenticator(rootCtx, logger),
		Logger:        logger,
	}

	if apiURL := os.Getenv("PWM_API_URL"); apiURL != "" {
		wireBackendServices(&cfg, apiURL, logger)
	} else {
		logger.Info("PWM_API_URL not set; serving built-in fixture data")
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		logger.Fatal("build http server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("admin server listening",
		zap.String("address", cfg.Address),
		zap.String("base_path", cfg.BasePath))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

func wireBackendServices(cfg *httpserver.Config, apiURL string, logger *zap.Logger) {
	client := &http.Client{Timeout: 30 * time.Second}

	settingsSvc, err := settings.NewHTTPService(apiURL, client)
	if err != nil {
		logger.Fatal("configure settings service", zap.Error(err))
	}
	cfg.SettingsService = settingsSvc

	validationSvc, err := validation.NewHTTPService(apiURL, "/password/check", client)
	if err != nil {
		logger.Fatal("configure validation service", zap.Error(err))
	}
	cfg.ValidationService = validationSvc

	directorySvc, err := directory.NewHTTPService(apiURL, client)
	if err != nil {
		logger.Fatal("configure directory service", zap.Error(err))
	}
	cfg.DirectoryService = directorySvc

	dashboardSvc, err := dashboard.NewHTTPService(apiURL, client)
	if err != nil {
		logger.Fatal("configure dashboard service", zap.Error(err))
	}
	cfg.DashboardService = dashboardSvc

	logger.Info("backend services configured", zap.String("api_url", apiURL))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildAuthenticator(ctx context.Context, logger *zap.Logger) middleware.Authenticator {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		logger.Warn("FIREBASE_PROJECT_ID not set; using passthrough authenticator")
		return nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: projectID,
	})
	if err != nil {
		logger.Error("initialise Firebase app failed", zap.Error(err))
		return nil
	}

	client, err := app.Auth(ctx)
	if err != nil {
		logger.Error("initialise Firebase auth client failed", zap.Error(err))
		return nil
	}

	logger.Info("Firebase authenticator enabled", zap.String("project", projectID))
	return middleware.NewFirebaseAuthenticator(client)
}
