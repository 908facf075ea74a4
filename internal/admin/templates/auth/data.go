// Package auth renders the sign-in page.
package auth

// LoginPageData carries everything the login form needs to render.
type LoginPageData struct {
	Email     string
	Message   string
	Error     string
	Remember  bool
	Next      string
	LoginPath string
	BasePath  string
	CSRFToken string
}
