// Package password renders the change-password page and its live validation
// fragment.
package password

import "strings"

// PageData drives the change-password page.
type PageData struct {
	Title      string
	BasePath   string
	CSRFToken  string
	Validation ValidationData
	Message    string
	Error      string
}

// ValidationData drives the live validation fragment. Checking marks an
// in-flight server round trip; the fragment then shows a progress hint
// instead of a verdict.
type ValidationData struct {
	Checking bool
	Passed   bool
	Message  string
	Match    string
	Strength int
	Error    string
}

// ValidatePath returns the endpoint the form posts keystrokes to.
func (d PageData) ValidatePath() string {
	return joinBase(d.BasePath, "/password/validate")
}

// SubmitPath returns the endpoint the final change request posts to.
func (d PageData) SubmitPath() string {
	return joinBase(d.BasePath, "/password")
}

func joinBase(base, suffix string) string {
	if base == "" || base == "/" {
		return suffix
	}
	return strings.TrimRight(base, "/") + suffix
}
