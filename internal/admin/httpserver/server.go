// Package httpserver assembles the console's HTTP stack: middleware,
// authentication, and the page and fragment routes.
package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pwm-project/pwm-admin/internal/admin/catalog"
	"github.com/pwm-project/pwm-admin/internal/admin/dashboard"
	"github.com/pwm-project/pwm-admin/internal/admin/directory"
	custommw "github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/httpserver/ui"
	appsession "github.com/pwm-project/pwm-admin/internal/admin/session"
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	"github.com/pwm-project/pwm-admin/internal/admin/validation"
	"github.com/pwm-project/pwm-admin/public"
)

// Config holds runtime options for the admin HTTP server.
type Config struct {
	Address          string
	BasePath         string
	LoginPath        string
	Environment      string
	Authenticator    custommw.Authenticator
	SessionManager   *appsession.Manager
	CSRFCookieName   string
	CSRFCookiePath   string
	CSRFCookieSecure bool
	CSRFHeaderName   string
	Logger           *zap.Logger

	Catalog           *catalog.Catalog
	SettingsService   settings.Service
	ValidationService validation.Service
	DirectoryService  directory.Service
	DashboardService  dashboard.Service
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(custommw.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, err
	}
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))

	basePath := normalizeBasePath(cfg.BasePath)
	loginPath := resolveLoginPath(basePath, cfg.LoginPath)

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = custommw.DefaultAuthenticator()
	}

	sessionManager := cfg.SessionManager
	if sessionManager == nil {
		sessionManager, err = appsession.NewManager(appsession.Config{
			HashKey:  []byte("pwm-admin-dev-session-hash-key!!"),
			Lifetime: 12 * time.Hour,
		})
		if err != nil {
			return nil, err
		}
	}

	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	settingsSvc := cfg.SettingsService
	if settingsSvc == nil {
		settingsSvc = settings.NewStaticService()
	}
	validationSvc := cfg.ValidationService
	if validationSvc == nil {
		validationSvc = validation.NewStaticService()
	}
	directorySvc := cfg.DirectoryService
	if directorySvc == nil {
		directorySvc = directory.NewStaticService()
	}
	dashboardSvc := cfg.DashboardService
	if dashboardSvc == nil {
		dashboardSvc = dashboard.NewStaticService(cat, settingsSvc)
	}

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		CookiePath: firstNonEmpty(cfg.CSRFCookiePath, basePath),
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CSRFCookieSecure,
	}

	handlers := ui.New(ui.Config{
		BasePath:          basePath,
		LoginPath:         loginPath,
		Logger:            logger,
		Catalog:           cat,
		SettingsService:   settingsSvc,
		ValidationService: validationSvc,
		DirectoryService:  directorySvc,
		DashboardService:  dashboardSvc,
	})

	auth := newAuthHandlers(authenticator, basePath, loginPath, logger)

	mountAdminRoutes(router, basePath, routeOptions{
		Authenticator:  authenticator,
		LoginPath:      loginPath,
		Environment:    cfg.Environment,
		SessionManager: sessionManager,
		CSRF:           csrfCfg,
		Logger:         logger,
		Handlers:       handlers,
		Auth:           auth,
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

type routeOptions struct {
	Authenticator  custommw.Authenticator
	LoginPath      string
	Environment    string
	SessionManager *appsession.Manager
	CSRF           custommw.CSRFConfig
	Logger         *zap.Logger
	Handlers       *ui.Handlers
	Auth           *authHandlers
}

func mountAdminRoutes(router chi.Router, base string, opts routeOptions) {
	router.Route(base, func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.Environment(opts.Environment))
		r.Use(custommw.Session(opts.SessionManager, opts.Logger))
		r.Use(custommw.CSRF(opts.CSRF))
		r.Use(custommw.RequestInfoMiddleware(base))

		r.Get("/login", opts.Auth.LoginForm)
		r.Post("/login", opts.Auth.LoginSubmit)
		r.Post("/logout", opts.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(opts.Authenticator, opts.LoginPath, opts.Logger))

			opts.Handlers.Register(r)
		})
	})
}

func normalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return "/admin"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func resolveLoginPath(base string, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if base == "/" {
		return "/login"
	}
	return base + "/login"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
