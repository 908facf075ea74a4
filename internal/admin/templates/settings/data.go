// Package settings renders the configuration list and the per-syntax editors.
package settings

import (
	"strings"

	"github.com/pwm-project/pwm-admin/internal/admin/settings"
)

// ListPageData drives the settings list page.
type ListPageData struct {
	Title      string
	Query      string
	Category   string
	Categories []string
	Columns    []ColumnView
	Rows       []RowView
	ListPath   string
	Error      string
}

// ColumnView is one sortable table header.
type ColumnView struct {
	Label   string
	Href    string
	Active  bool
	Reverse bool
}

// RowView is one setting row in the list table.
type RowView struct {
	Key      string
	Label    string
	Category string
	Syntax   string
	Modified bool
	State    string
	Href     string
}

// EditorData drives the setting editor page and fragment.
type EditorData struct {
	Key           string
	Label         string
	Category      string
	Syntax        settings.Syntax
	HelpHTML      string
	Record        *settings.Record
	State         settings.SyncState
	Conflict      bool
	Error         string
	Message       string
	ProfileScoped bool
	ActiveProfile string
	ActiveLocale  string
	CSRFToken     string
	BasePath      string
}

// StatusData drives the save-status fragment rendered after writes.
type StatusData struct {
	Key      string
	State    settings.SyncState
	Conflict bool
	Error    string
	Message  string
}

// SettingPath returns the editor URL for the key.
func (d EditorData) SettingPath() string {
	return joinBase(d.BasePath, "/settings/"+d.Key)
}

// LocaleSlug converts a locale map key into a URL path segment. The default
// locale is the empty string and needs a placeholder to survive routing.
func LocaleSlug(locale string) string {
	if locale == settings.DefaultLocale {
		return "default"
	}
	return locale
}

// LocaleFromSlug reverses LocaleSlug.
func LocaleFromSlug(slug string) string {
	if slug == "default" {
		return settings.DefaultLocale
	}
	return slug
}

// StateLabel renders the sync state for display.
func StateLabel(state settings.SyncState, conflict bool) string {
	if conflict {
		return "conflict"
	}
	return state.String()
}

// SyntaxLabel renders the wire syntax in a friendlier form.
func SyntaxLabel(s settings.Syntax) string {
	return strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
}

func joinBase(base, suffix string) string {
	if base == "" || base == "/" {
		return suffix
	}
	return strings.TrimRight(base, "/") + suffix
}
