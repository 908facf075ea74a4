package settings

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/templates/partials"
)

// List renders the full settings list page inside the console shell.
func List(data ListPageData) templ.Component {
	return partials.Shell(data.Title, listContent(data))
}

// ListFragment renders just the settings table, for htmx swaps.
func ListFragment(data ListPageData) templ.Component {
	return tableFragment(data)
}

func listContent(data ListPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.Error != "" {
			if err := partials.Flash("error", data.Error).Render(ctx, w); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w,
			`<form data-settings-filter class="flex flex-wrap items-end gap-3" hx-get=%q hx-target="#settings-table" hx-swap="outerHTML" hx-trigger="change from:select, keyup changed delay:300ms from:input[name='q'], submit">`+
				`<label class="text-sm">Search<input type="search" name="q" value=%q placeholder="Filter by key or label" class="mt-1 block w-64 rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="text-sm">Category<select name="category" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5">`,
			templ.EscapeString(data.ListPath), templ.EscapeString(data.Query)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<option value="">All categories</option>`); err != nil {
			return err
		}
		for _, category := range data.Categories {
			selected := ""
			if category == data.Category {
				selected = " selected"
			}
			if _, err := fmt.Fprintf(w, `<option value=%q%s>%s</option>`,
				templ.EscapeString(category), selected, templ.EscapeString(category)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</select></label><button type="submit" class="rounded bg-slate-800 px-3 py-1.5 text-sm">Apply</button></form>`); err != nil {
			return err
		}

		return tableFragment(data).Render(ctx, w)
	})
}

func tableFragment(data ListPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div id="settings-table" class="mt-4 overflow-x-auto rounded border border-slate-800"><table class="w-full text-left text-sm"><thead class="bg-slate-900 text-xs uppercase text-slate-400"><tr>`); err != nil {
			return err
		}
		for _, col := range data.Columns {
			indicator := ""
			sortAttr := "none"
			if col.Active {
				if col.Reverse {
					indicator = " &#9660;"
					sortAttr = "descending"
				} else {
					indicator = " &#9650;"
					sortAttr = "ascending"
				}
			}
			if _, err := fmt.Fprintf(w,
				`<th scope="col" aria-sort=%q class="px-3 py-2"><a href=%q hx-get=%q hx-target="#settings-table" hx-swap="outerHTML" class="hover:text-slate-200" data-sort-column=%q>%s%s</a></th>`,
				sortAttr, templ.EscapeString(col.Href), templ.EscapeString(col.Href),
				templ.EscapeString(col.Label), templ.EscapeString(col.Label), indicator); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tr></thead><tbody>`); err != nil {
			return err
		}

		if len(data.Rows) == 0 {
			if _, err := fmt.Fprintf(w, `<tr><td colspan="%d" class="px-3 py-4 text-slate-400" data-empty-row>No settings match the current filter.</td></tr>`, len(data.Columns)); err != nil {
				return err
			}
		}
		for _, row := range data.Rows {
			modified := ""
			if row.Modified {
				modified = `<span class="ml-2 rounded bg-amber-900 px-1.5 py-0.5 text-xs text-amber-200" data-modified-badge>modified</span>`
			}
			if _, err := fmt.Fprintf(w,
				`<tr class="border-t border-slate-800 hover:bg-slate-900" data-setting-key=%q>`+
					`<td class="px-3 py-2"><a href=%q class="text-indigo-400 hover:underline">%s</a>%s</td>`+
					`<td class="px-3 py-2">%s</td>`+
					`<td class="px-3 py-2">%s</td>`+
					`<td class="px-3 py-2 text-slate-400">%s</td>`+
					`</tr>`,
				templ.EscapeString(row.Key),
				templ.EscapeString(row.Href), templ.EscapeString(row.Key), modified,
				templ.EscapeString(row.Label), templ.EscapeString(row.Category),
				templ.EscapeString(row.Syntax)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table></div>`)
		return err
	})
}
