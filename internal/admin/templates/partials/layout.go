// Package partials holds the shared page chrome: layout shell, navigation
// sidebar, and topbar fragments.
package partials

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/navigation"
	"github.com/pwm-project/pwm-admin/internal/admin/templates/helpers"
)

// Shell wraps page content in the full console chrome.
func Shell(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := helpers.BasePath(ctx)

		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
				`<meta name="viewport" content="width=device-width, initial-scale=1">`+
				`<title>%s | PWM Admin</title>`+
				`<link rel="stylesheet" href="/public/static/app.css">`+
				`<script src="https://unpkg.com/htmx.org@1.9.12" defer></script>`+
				`</head><body class="min-h-screen bg-slate-950 text-slate-100">`,
			templ.EscapeString(title)); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<div class="flex min-h-screen"><aside class="w-60 shrink-0 border-r border-slate-800 bg-slate-950">`); err != nil {
			return err
		}
		if err := Sidebar(navigation.BuildMenu(base)).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</aside><div class="flex min-w-0 flex-1 flex-col"><header class="flex items-center justify-between border-b border-slate-800 px-6 py-3">`); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<h1 class="text-lg font-semibold">%s</h1>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := TopbarActions().Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</header><main id="content" class="flex-1 px-6 py-6">`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></div></div></body></html>`)
		return err
	})
}

// Flash renders a dismissible status banner when message is non-empty.
func Flash(kind, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		class := "rounded border border-slate-700 bg-slate-900 px-3 py-2 text-sm text-slate-200"
		switch kind {
		case "error":
			class = "rounded border border-red-700 bg-red-950 px-3 py-2 text-sm text-red-200"
		case "success":
			class = "rounded border border-emerald-700 bg-emerald-950 px-3 py-2 text-sm text-emerald-200"
		}
		_, err := fmt.Fprintf(w, `<div role="status" data-flash=%q class=%q>%s</div>`,
			templ.EscapeString(kind), class, templ.EscapeString(message))
		return err
	})
}
