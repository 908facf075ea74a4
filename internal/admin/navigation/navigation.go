// Package navigation declares the console menu and its capability gates.
package navigation

import "strings"

// MenuItem is a single navigation entry.
type MenuItem struct {
	Key         string
	Label       string
	Capability  string
	Href        string
	Pattern     string
	MatchPrefix bool
}

// MenuGroup clusters related menu items under a heading.
type MenuGroup struct {
	Key        string
	Label      string
	Capability string
	Items      []MenuItem
}

// BuildMenu returns the console menu rooted at the given base path.
func BuildMenu(basePath string) []MenuGroup {
	base := normalizeBase(basePath)

	return []MenuGroup{
		{
			Key:   "overview",
			Label: "Overview",
			Items: []MenuItem{
				{
					Key:        "dashboard",
					Label:      "Dashboard",
					Capability: "dashboard.view",
					Href:       join(base, "/"),
					Pattern:    join(base, "/"),
				},
			},
		},
		{
			Key:   "configuration",
			Label: "Configuration",
			Items: []MenuItem{
				{
					Key:         "settings",
					Label:       "Settings",
					Capability:  "settings.view",
					Href:        join(base, "/settings"),
					Pattern:     join(base, "/settings"),
					MatchPrefix: true,
				},
				{
					Key:         "directory",
					Label:       "Directory",
					Capability:  "directory.browse",
					Href:        join(base, "/directory"),
					Pattern:     join(base, "/directory"),
					MatchPrefix: true,
				},
			},
		},
		{
			Key:   "account",
			Label: "Account",
			Items: []MenuItem{
				{
					Key:        "password",
					Label:      "Change Password",
					Capability: "password.change",
					Href:       join(base, "/password"),
					Pattern:    join(base, "/password"),
				},
			},
		},
	}
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if len(base) > 1 {
		base = strings.TrimRight(base, "/")
	}
	if base == "" {
		return "/"
	}
	return base
}

func join(base, suffix string) string {
	if suffix == "" || suffix == "/" {
		return base
	}
	if base == "/" {
		return suffix
	}
	return base + suffix
}
