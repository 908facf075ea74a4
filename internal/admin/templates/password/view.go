package password

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/templates/partials"
)

// Page renders the change-password page inside the console shell.
func Page(data PageData) templ.Component {
	return partials.Shell(data.Title, content(data))
}

func content(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := partials.Flash("success", data.Message).Render(ctx, w); err != nil {
			return err
		}
		if err := partials.Flash("error", data.Error).Render(ctx, w); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w,
			`<form class="max-w-md space-y-3" method="post" action=%q hx-post=%q hx-headers='{"X-CSRF-Token":%q}' data-password-form>`+
				`<input type="hidden" name="_csrf" value=%q>`+
				`<label class="block text-sm">New password`+
				`<input type="password" name="password1" autocomplete="new-password" required `+
				`hx-post=%q hx-trigger="keyup changed delay:300ms" hx-target="#password-validation" hx-swap="outerHTML" hx-include="closest form" hx-headers='{"X-CSRF-Token":%q}' `+
				`class="mt-1 block w-full rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="block text-sm">Confirm password`+
				`<input type="password" name="password2" autocomplete="new-password" required `+
				`hx-post=%q hx-trigger="keyup changed delay:300ms" hx-target="#password-validation" hx-swap="outerHTML" hx-include="closest form" hx-headers='{"X-CSRF-Token":%q}' `+
				`class="mt-1 block w-full rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`,
			templ.EscapeString(data.SubmitPath()), templ.EscapeString(data.SubmitPath()), templ.EscapeString(data.CSRFToken),
			templ.EscapeString(data.CSRFToken),
			templ.EscapeString(data.ValidatePath()), templ.EscapeString(data.CSRFToken),
			templ.EscapeString(data.ValidatePath()), templ.EscapeString(data.CSRFToken)); err != nil {
			return err
		}

		if err := ValidationFragment(data.Validation).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</form>`)
		return err
	})
}

// ValidationFragment renders the live verdict, strength meter, and submit
// button. The button stays disabled until the server confirms the candidate
// password.
func ValidationFragment(data ValidationData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div id="password-validation" class="space-y-2" data-password-validation>`); err != nil {
			return err
		}

		switch {
		case data.Error != "":
			if _, err := fmt.Fprintf(w, `<p role="alert" class="text-sm text-red-300" data-validation-error>%s</p>`, templ.EscapeString(data.Error)); err != nil {
				return err
			}
		case data.Checking:
			if _, err := io.WriteString(w, `<p role="status" class="text-sm text-slate-400" data-validation-checking>Checking password&hellip;</p>`); err != nil {
				return err
			}
		case data.Message != "":
			class := "text-sm text-red-300"
			if data.Passed {
				class = "text-sm text-emerald-300"
			}
			if _, err := fmt.Fprintf(w, `<p role="status" class=%q data-validation-message>%s</p>`, class, templ.EscapeString(data.Message)); err != nil {
				return err
			}
		}

		strength := data.Strength
		if strength < 0 {
			strength = 0
		}
		if strength > 100 {
			strength = 100
		}
		barClass := "h-full rounded bg-red-500"
		switch {
		case strength >= 70:
			barClass = "h-full rounded bg-emerald-500"
		case strength >= 40:
			barClass = "h-full rounded bg-amber-500"
		}
		if _, err := fmt.Fprintf(w,
			`<div class="h-2 w-full rounded bg-slate-800" role="progressbar" aria-valuenow="%d" aria-valuemin="0" aria-valuemax="100" data-strength-meter>`+
				`<div class=%q style="width: %d%%" data-strength-bar></div></div>`,
			strength, barClass, strength); err != nil {
			return err
		}

		disabled := ""
		if !data.Passed {
			disabled = " disabled"
		}
		if _, err := fmt.Fprintf(w,
			`<button type="submit"%s class="rounded bg-indigo-600 px-3 py-1.5 text-sm font-semibold text-white enabled:hover:bg-indigo-500 disabled:opacity-50" data-password-submit>Change password</button>`,
			disabled); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
