// Package ui implements the console's page and fragment handlers.
package ui

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pwm-project/pwm-admin/internal/admin/catalog"
	"github.com/pwm-project/pwm-admin/internal/admin/dashboard"
	"github.com/pwm-project/pwm-admin/internal/admin/directory"
	custommw "github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/rbac"
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	dashboardtpl "github.com/pwm-project/pwm-admin/internal/admin/templates/dashboard"
	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

// Config collects external services required by the UI handlers.
type Config struct {
	BasePath  string
	LoginPath string
	Logger    *zap.Logger

	Catalog           *catalog.Catalog
	SettingsService   settings.Service
	ValidationService validation.Service
	DirectoryService  directory.Service
	DashboardService  dashboard.Service
}

// Handlers exposes HTTP handlers for console pages and fragments.
type Handlers struct {
	basePath  string
	loginPath string
	logger    *zap.Logger

	catalog    *catalog.Catalog
	settings   settings.Service
	validation validation.Service
	directory  directory.Service
	dashboard  dashboard.Service

	sessions *sessionRegistry
}

// New wires the UI handler set.
func New(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
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

	return &Handlers{
		basePath:   cfg.BasePath,
		loginPath:  cfg.LoginPath,
		logger:     logger,
		catalog:    cat,
		settings:   settingsSvc,
		validation: validationSvc,
		directory:  directorySvc,
		dashboard:  dashboardSvc,
		sessions:   newSessionRegistry(settingsSvc, validationSvc, logger),
	}
}

// Register mounts the authenticated console routes.
func (h *Handlers) Register(r chi.Router) {
	r.With(custommw.RequireCapability(rbac.CapDashboardView)).Get("/", h.Dashboard)

	r.Route("/settings", func(r chi.Router) {
		r.Use(custommw.RequireCapability(rbac.CapSettingsView))
		r.Get("/", h.SettingsList)

		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", h.SettingEditor)

			r.Group(func(r chi.Router) {
				r.Use(custommw.RequireCapability(rbac.CapSettingsEdit))
				r.Post("/", h.SettingWrite)
				r.Post("/rows", h.SettingAddRow)
				r.Post("/rows/{index}/up", h.SettingMoveRowUp)
				r.Post("/rows/{index}/down", h.SettingMoveRowDown)
				r.Post("/rows/{index}/delete", h.SettingDeleteRow)
				r.Post("/locales", h.SettingAddLocale)
				r.Post("/locales/{locale}", h.SettingSaveLocale)
				r.Post("/locales/{locale}/delete", h.SettingRemoveLocale)
			})

			r.With(custommw.RequireCapability(rbac.CapSettingsReset)).Post("/reset", h.SettingReset)
		})
	})

	r.Route("/directory", func(r chi.Router) {
		r.Use(custommw.RequireCapability(rbac.CapDirectoryBrowse))
		r.Get("/", h.DirectoryPage)
		r.With(custommw.RequireHTMX()).Get("/browse", h.DirectoryBrowse)
	})

	r.Route("/password", func(r chi.Router) {
		r.Use(custommw.RequireCapability(rbac.CapPasswordChange))
		r.Get("/", h.PasswordPage)
		r.Post("/", h.PasswordSubmit)
		r.Post("/validate", h.PasswordValidate)
	})
}

// Dashboard renders the configuration health summary.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	overview, err := h.dashboard.Overview(r.Context(), user.Token)
	if err != nil {
		h.logger.Warn("dashboard overview failed", zap.Error(err))
		data := dashboardtpl.PageData{Title: "Dashboard", Error: "The configuration summary is unavailable. Please try again later."}
		templ.Handler(dashboardtpl.Index(data)).ServeHTTP(w, r)
		return
	}

	data := dashboardtpl.BuildPageData(h.basePath, overview)
	templ.Handler(dashboardtpl.Index(data)).ServeHTTP(w, r)
}

// state returns the per-session caches for the current request.
func (h *Handlers) state(r *http.Request) *sessionState {
	id := ""
	if sess, ok := custommw.SessionFromContext(r.Context()); ok && sess != nil {
		id = sess.ID()
	}
	if id == "" {
		if user, ok := custommw.UserFromContext(r.Context()); ok && user != nil {
			id = "uid:" + user.UID
		}
	}
	return h.sessions.acquire(id)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, page, fragment templ.Component) {
	if custommw.IsHTMXRequest(r.Context()) && fragment != nil {
		templ.Handler(fragment).ServeHTTP(w, r)
		return
	}
	templ.Handler(page).ServeHTTP(w, r)
}
