package partials

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/navigation"
	"github.com/pwm-project/pwm-admin/internal/admin/templates/helpers"
)

// Sidebar renders the navigation menu, filtered by the viewer's capabilities.
func Sidebar(menu []navigation.MenuGroup) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="flex flex-col gap-6 p-4" data-sidebar>`); err != nil {
			return err
		}
		for _, group := range menu {
			if !hasVisibleItems(group, ctx) {
				continue
			}
			if _, err := fmt.Fprintf(w,
				`<div data-nav-group=%q><div class="px-2 text-xs font-semibold uppercase tracking-wide text-slate-400">%s</div><ul class="mt-2 space-y-1">`,
				templ.EscapeString(group.Key), templ.EscapeString(group.Label)); err != nil {
				return err
			}
			for _, item := range visibleItems(group, ctx) {
				active := helpers.NavActive(ctx, item.Pattern, item.MatchPrefix)
				class := "block rounded px-2 py-1.5 text-sm text-slate-300 hover:bg-slate-800"
				current := ""
				if active {
					class = "block rounded px-2 py-1.5 text-sm bg-slate-900 text-white"
					current = ` aria-current="page"`
				}
				if _, err := fmt.Fprintf(w,
					`<li><a href=%q class=%q%s>%s</a></li>`,
					templ.EscapeString(item.Href), class, current, templ.EscapeString(item.Label)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul></div>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav>`)
		return err
	})
}

func hasVisibleItems(group navigation.MenuGroup, ctx context.Context) bool {
	if !helpers.HasCapability(ctx, group.Capability) {
		return false
	}
	return len(visibleItems(group, ctx)) > 0
}

func visibleItems(group navigation.MenuGroup, ctx context.Context) []navigation.MenuItem {
	if !helpers.HasCapability(ctx, group.Capability) {
		return nil
	}
	var items []navigation.MenuItem
	for _, item := range group.Items {
		if helpers.HasCapability(ctx, item.Capability) {
			items = append(items, item)
		}
	}
	return items
}
