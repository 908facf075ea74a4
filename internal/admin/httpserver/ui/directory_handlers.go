package ui

import (
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	directorytpl "github.com/pwm-project/pwm-admin/internal/admin/templates/directory"
)

// DirectoryPage renders the directory browser at the configured root.
func (h *Handlers) DirectoryPage(w http.ResponseWriter, r *http.Request) {
	data := h.browseData(r, "")
	data.Title = "Directory"
	templ.Handler(directorytpl.Page(data)).ServeHTTP(w, r)
}

// DirectoryBrowse renders the listing fragment for one container.
func (h *Handlers) DirectoryBrowse(w http.ResponseWriter, r *http.Request) {
	data := h.browseData(r, r.URL.Query().Get("dn"))
	templ.Handler(directorytpl.BrowseFragment(data)).ServeHTTP(w, r)
}

func (h *Handlers) browseData(r *http.Request, dn string) directorytpl.PageData {
	data := directorytpl.PageData{BasePath: h.basePath}

	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		data.Error = "Sign in to browse the directory."
		return data
	}

	result, err := h.directory.Browse(r.Context(), user.Token, dn)
	if err != nil {
		h.logger.Warn("directory browse failed", zap.String("dn", dn), zap.Error(err))
		data.Error = "The directory could not be browsed. Please try again later."
		return data
	}
	data.Result = result
	return data
}
