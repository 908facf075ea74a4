// Package testutil spins up the console HTTP stack for integration tests.
package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/pwm-project/pwm-admin/internal/admin/catalog"
	"github.com/pwm-project/pwm-admin/internal/admin/dashboard"
	"github.com/pwm-project/pwm-admin/internal/admin/directory"
	"github.com/pwm-project/pwm-admin/internal/admin/httpserver"
	"github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithAuthenticator overrides the authenticator used by the admin server.
func WithAuthenticator(auth middleware.Authenticator) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Authenticator = auth
	}
}

// WithBasePath sets a custom base path for the admin routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithCatalog overrides the setting catalog.
func WithCatalog(cat *catalog.Catalog) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Catalog = cat
	}
}

// WithSettingsService wires a custom settings service implementation.
func WithSettingsService(service settings.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.SettingsService = service
	}
}

// WithValidationService wires a custom password validation service.
func WithValidationService(service validation.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.ValidationService = service
	}
}

// WithDirectoryService wires a custom directory service implementation.
func WithDirectoryService(service directory.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.DirectoryService = service
	}
}

// WithDashboardService wires a custom dashboard service implementation.
func WithDashboardService(service dashboard.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.DashboardService = service
	}
}

// NewServer constructs an httptest server running the admin HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:        ":0",
		BasePath:       "/admin",
		LoginPath:      "",
		CSRFCookieName: "csrf_token",
		CSRFHeaderName: "X-CSRF-Token",
		Authenticator:  middleware.DefaultAuthenticator(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("build admin server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
