package directory

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/templates/partials"
)

// Page renders the directory browser inside the console shell.
func Page(data PageData) templ.Component {
	return partials.Shell(data.Title, content(data))
}

// BrowseFragment renders the container listing for htmx swaps.
func BrowseFragment(data PageData) templ.Component {
	return fragment(data)
}

func content(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.Error != "" {
			if err := partials.Flash("error", data.Error).Render(ctx, w); err != nil {
				return err
			}
		}
		return fragment(data).Render(ctx, w)
	})
}

func fragment(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div id="directory-browser" class="rounded border border-slate-800 bg-slate-900 p-3" data-directory-browser>`); err != nil {
			return err
		}

		result := data.Result
		if result == nil {
			if _, err := io.WriteString(w, `<p class="text-sm text-slate-400">Directory is unavailable.</p></div>`); err != nil {
				return err
			}
			return nil
		}

		dn := result.DN
		if dn == "" {
			dn = "(root)"
		}
		if _, err := fmt.Fprintf(w, `<div class="font-mono text-sm text-slate-300" data-current-dn>%s</div>`, templ.EscapeString(dn)); err != nil {
			return err
		}

		if result.Parent != "" || result.DN != "" {
			if _, err := fmt.Fprintf(w,
				`<a href="#" hx-get=%q hx-target="#directory-browser" hx-swap="outerHTML" class="mt-1 inline-block text-sm text-indigo-400 hover:underline" data-parent-link>&#8617; Up</a>`,
				templ.EscapeString(data.BrowsePath(result.Parent))); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, `<ul class="mt-2 space-y-1" data-containers>`); err != nil {
			return err
		}
		for _, node := range result.Containers {
			if _, err := fmt.Fprintf(w,
				`<li><a href="#" hx-get=%q hx-target="#directory-browser" hx-swap="outerHTML" class="text-sm text-indigo-400 hover:underline" data-container-dn=%q>&#128193; %s</a></li>`,
				templ.EscapeString(data.BrowsePath(node.DN)), templ.EscapeString(node.DN), templ.EscapeString(node.Label)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul><ul class="mt-2 space-y-1" data-entries>`); err != nil {
			return err
		}
		for _, node := range result.Entries {
			if _, err := fmt.Fprintf(w,
				`<li class="flex items-center gap-2 text-sm text-slate-300" data-entry-dn=%q><span>%s</span><span class="font-mono text-xs text-slate-500">%s</span></li>`,
				templ.EscapeString(node.DN), templ.EscapeString(node.Label), templ.EscapeString(node.DN)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></div>`)
		return err
	})
}
