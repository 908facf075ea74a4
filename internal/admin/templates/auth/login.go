package auth

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// LoginPage renders the standalone sign-in page. It deliberately avoids the
// console shell since unauthenticated users have no navigation to show.
func LoginPage(data LoginPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
				`<meta name="viewport" content="width=device-width, initial-scale=1">`+
				`<title>Sign in | PWM Admin</title>`+
				`<link rel="stylesheet" href="/public/static/app.css">`+
				`<script src="https://unpkg.com/htmx.org@1.9.12" defer></script>`+
				`</head><body class="flex min-h-screen items-center justify-center bg-slate-950 text-slate-100">`); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<div class="w-full max-w-sm rounded-lg border border-slate-800 bg-slate-900 p-6" data-login-card><h1 class="text-lg font-semibold">PWM Admin Console</h1>`); err != nil {
			return err
		}

		if data.Message != "" {
			if _, err := fmt.Fprintf(w, `<p role="status" data-login-message class="mt-3 text-sm text-slate-300">%s</p>`, templ.EscapeString(data.Message)); err != nil {
				return err
			}
		}
		if data.Error != "" {
			if _, err := fmt.Fprintf(w, `<p role="alert" data-login-error class="mt-3 text-sm text-red-300">%s</p>`, templ.EscapeString(data.Error)); err != nil {
				return err
			}
		}

		checked := ""
		if data.Remember {
			checked = " checked"
		}
		if _, err := fmt.Fprintf(w,
			`<form method="post" action=%q hx-post=%q hx-headers='{"X-CSRF-Token":%q}' class="mt-4 space-y-3" data-login-form>`+
				`<input type="hidden" name="_csrf" value=%q>`+
				`<input type="hidden" name="next" value=%q>`+
				`<label class="block text-sm">Email`+
				`<input type="email" name="email" value=%q autocomplete="username" class="mt-1 w-full rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="block text-sm">Sign-in token`+
				`<input type="password" name="id_token" autocomplete="current-password" required class="mt-1 w-full rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<input type="hidden" name="refresh_token" value="">`+
				`<label class="flex items-center gap-2 text-sm"><input type="checkbox" name="remember" value="on"%s>Keep me signed in</label>`+
				`<button type="submit" class="w-full rounded bg-indigo-600 px-3 py-2 text-sm font-semibold text-white hover:bg-indigo-500">Sign in</button>`+
				`</form></div></body></html>`,
			templ.EscapeString(data.LoginPath), templ.EscapeString(data.LoginPath), templ.EscapeString(data.CSRFToken),
			templ.EscapeString(data.CSRFToken), templ.EscapeString(data.Next), templ.EscapeString(data.Email), checked); err != nil {
			return err
		}
		return nil
	})
}
