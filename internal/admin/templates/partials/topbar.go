package partials

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/templates/helpers"
)

// TopbarActions renders the environment badge and the signed-in user menu.
func TopbarActions() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		env := middleware.EnvironmentFromContext(ctx)
		if _, err := fmt.Fprintf(w,
			`<div class="flex items-center gap-4"><div data-environment-badge><span aria-hidden="true" class="rounded bg-slate-700 px-2 py-0.5 text-xs font-semibold text-white">%s</span><span class="sr-only">%s</span></div>`,
			templ.EscapeString(environmentBadge(env)), templ.EscapeString(env)); err != nil {
			return err
		}

		user, ok := middleware.UserFromContext(ctx)
		if ok && user != nil {
			display := user.Email
			if strings.TrimSpace(display) == "" {
				display = user.UID
			}
			logout := joinBase(helpers.BasePath(ctx), "/logout")
			csrf := middleware.CSRFTokenFromContext(ctx)
			if _, err := fmt.Fprintf(w,
				`<div data-user-menu class="flex items-center gap-2"><span class="truncate text-sm text-slate-200">%s</span>`+
					`<form data-user-menu-logout method="post" action=%q hx-post=%q hx-headers='{"X-CSRF-Token":%q}'>`+
					`<input type="hidden" name="_csrf" value=%q>`+
					`<button type="submit" class="rounded px-2 py-1 text-sm text-slate-300 hover:bg-slate-800">Sign out</button></form></div>`,
				templ.EscapeString(display), templ.EscapeString(logout), templ.EscapeString(logout),
				templ.EscapeString(csrf), templ.EscapeString(csrf)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func environmentBadge(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return "PRD"
	case "staging", "stage", "stg":
		return "STG"
	default:
		return "DEV"
	}
}

func joinBase(base, suffix string) string {
	if base == "" || base == "/" {
		return suffix
	}
	return strings.TrimRight(base, "/") + suffix
}
