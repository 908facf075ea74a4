// Package directory renders the directory browser page and fragments.
package directory

import (
	"net/url"
	"strings"

	admindirectory "github.com/pwm-project/pwm-admin/internal/admin/directory"
)

// PageData drives the directory browser page.
type PageData struct {
	Title    string
	BasePath string
	Result   *admindirectory.BrowseResult
	Error    string
}

// BrowsePath returns the fragment endpoint for the given DN.
func (d PageData) BrowsePath(dn string) string {
	path := joinBase(d.BasePath, "/directory/browse")
	if dn == "" {
		return path
	}
	return path + "?dn=" + url.QueryEscape(dn)
}

func joinBase(base, suffix string) string {
	if base == "" || base == "/" {
		return suffix
	}
	return strings.TrimRight(base, "/") + suffix
}
