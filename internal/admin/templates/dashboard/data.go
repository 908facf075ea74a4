// Package dashboard renders the console landing page.
package dashboard

import (
	"fmt"
	"time"

	admindashboard "github.com/pwm-project/pwm-admin/internal/admin/dashboard"
)

// PageData is the dashboard SSR payload.
type PageData struct {
	Title         string
	ServerVersion string
	Uptime        string
	TotalSettings int
	ModifiedKeys  []string
	Categories    []CategoryView
	SettingsHref  string
	Error         string
}

// CategoryView is a single category summary card.
type CategoryView struct {
	Category string
	Total    int
	Modified int
	Href     string
}

// BuildPageData prepares the template payload from the service model.
func BuildPageData(basePath string, overview *admindashboard.Overview) PageData {
	data := PageData{
		Title:        "Dashboard",
		SettingsHref: joinBase(basePath, "/settings"),
	}
	if overview == nil {
		return data
	}

	data.ServerVersion = overview.ServerVersion
	data.Uptime = formatUptime(overview.Uptime(time.Now()))
	data.TotalSettings = overview.TotalSettings
	data.ModifiedKeys = append([]string(nil), overview.ModifiedKeys...)
	for _, c := range overview.Categories {
		data.Categories = append(data.Categories, CategoryView{
			Category: c.Category,
			Total:    c.Total,
			Modified: c.Modified,
			Href:     joinBase(basePath, "/settings?category="+c.Category),
		})
	}
	return data
}

func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func joinBase(base, suffix string) string {
	if base == "" || base == "/" {
		return suffix
	}
	return base + suffix
}
