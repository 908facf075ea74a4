package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/templates/partials"
)

// Index renders the full dashboard page inside the console shell.
func Index(data PageData) templ.Component {
	return partials.Shell(data.Title, content(data))
}

func content(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.Error != "" {
			return partials.Flash("error", data.Error).Render(ctx, w)
		}

		if _, err := fmt.Fprintf(w,
			`<section data-dashboard-summary class="grid gap-4 sm:grid-cols-3">`+
				`<div class="rounded border border-slate-800 bg-slate-900 p-4"><div class="text-xs uppercase text-slate-400">Server version</div><div class="mt-1 text-xl font-semibold" data-server-version>%s</div></div>`+
				`<div class="rounded border border-slate-800 bg-slate-900 p-4"><div class="text-xs uppercase text-slate-400">Uptime</div><div class="mt-1 text-xl font-semibold" data-uptime>%s</div></div>`+
				`<div class="rounded border border-slate-800 bg-slate-900 p-4"><div class="text-xs uppercase text-slate-400">Settings</div><div class="mt-1 text-xl font-semibold" data-total-settings>%d</div></div>`+
				`</section>`,
			templ.EscapeString(data.ServerVersion), templ.EscapeString(data.Uptime), data.TotalSettings); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<section class="mt-6"><h2 class="text-sm font-semibold uppercase text-slate-400">Categories</h2><div class="mt-2 grid gap-3 sm:grid-cols-2 lg:grid-cols-3" data-category-cards>`); err != nil {
			return err
		}
		for _, c := range data.Categories {
			if _, err := fmt.Fprintf(w,
				`<a href=%q class="rounded border border-slate-800 bg-slate-900 p-3 hover:border-slate-600" data-category=%q>`+
					`<div class="font-medium">%s</div><div class="mt-1 text-sm text-slate-400">%d settings, %d modified</div></a>`,
				templ.EscapeString(c.Href), templ.EscapeString(c.Category), templ.EscapeString(c.Category), c.Total, c.Modified); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div></section>`); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<section class="mt-6"><h2 class="text-sm font-semibold uppercase text-slate-400">Modified settings</h2>`); err != nil {
			return err
		}
		if len(data.ModifiedKeys) == 0 {
			if _, err := io.WriteString(w, `<p class="mt-2 text-sm text-slate-400" data-modified-empty>All settings are at their defaults.</p>`); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, `<ul class="mt-2 space-y-1" data-modified-keys>`); err != nil {
				return err
			}
			for _, key := range data.ModifiedKeys {
				if _, err := fmt.Fprintf(w, `<li><a class="text-sm text-indigo-400 hover:underline" href="%s/%s">%s</a></li>`,
					templ.EscapeString(data.SettingsHref), templ.EscapeString(key), templ.EscapeString(key)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}
