package settings

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	"github.com/pwm-project/pwm-admin/internal/admin/templates/partials"
)

// Editor renders the full editor page inside the console shell.
func Editor(data EditorData) templ.Component {
	title := data.Label
	if title == "" {
		title = data.Key
	}
	return partials.Shell(title, EditorFragment(data))
}

// EditorFragment renders the editor body, for htmx swaps after writes.
func EditorFragment(data EditorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div id="setting-editor" data-setting-key=%q>`, templ.EscapeString(data.Key)); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w,
			`<div class="flex items-center justify-between"><div><div class="font-mono text-sm text-slate-400">%s</div>`+
				`<div class="text-xs text-slate-500">%s &middot; %s</div></div>`,
			templ.EscapeString(data.Key), templ.EscapeString(data.Category), templ.EscapeString(SyntaxLabel(data.Syntax))); err != nil {
			return err
		}
		if err := SaveStatus(StatusData{Key: data.Key, State: data.State, Conflict: data.Conflict, Error: data.Error, Message: data.Message}).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}

		if data.ProfileScoped {
			profile := data.ActiveProfile
			if profile == "" {
				profile = "default"
			}
			if _, err := fmt.Fprintf(w,
				`<div class="mt-2 text-xs text-slate-400">Editing profile <span class="font-mono text-slate-300" data-active-profile=%q>%s</span></div>`,
				templ.EscapeString(data.ActiveProfile), templ.EscapeString(profile)); err != nil {
				return err
			}
		}

		if data.HelpHTML != "" {
			// HelpHTML is sanitised markdown output; write it unescaped.
			if _, err := fmt.Fprintf(w, `<div class="prose prose-invert mt-3 max-w-none text-sm text-slate-300" data-setting-help>%s</div>`, data.HelpHTML); err != nil {
				return err
			}
		}

		if err := valueEditor(data).Render(ctx, w); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w,
			`<form class="mt-6" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-confirm="Reset this setting to its default value?" hx-headers='{"X-CSRF-Token":%q}' data-reset-form>`+
				`<button type="submit" class="rounded border border-red-800 px-3 py-1.5 text-sm text-red-300 hover:bg-red-950">Reset to default</button></form>`,
			templ.EscapeString(data.SettingPath()+"/reset"), templ.EscapeString(data.CSRFToken)); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// SaveStatus renders the sync-state badge shown next to the setting header.
func SaveStatus(data StatusData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		label := StateLabel(data.State, data.Conflict)
		class := "rounded bg-slate-800 px-2 py-0.5 text-xs text-slate-300"
		switch {
		case data.Conflict:
			class = "rounded bg-amber-900 px-2 py-0.5 text-xs text-amber-200"
		case data.Error != "" || data.State == settings.StateFailed:
			class = "rounded bg-red-900 px-2 py-0.5 text-xs text-red-200"
		case data.State == settings.StatePending:
			class = "rounded bg-sky-900 px-2 py-0.5 text-xs text-sky-200"
		}
		if _, err := fmt.Fprintf(w, `<div id="save-status" class="flex items-center gap-2"><span data-sync-state=%q class=%q>%s</span>`,
			templ.EscapeString(label), class, templ.EscapeString(label)); err != nil {
			return err
		}
		if data.Conflict {
			if _, err := io.WriteString(w, `<span class="text-xs text-amber-200" data-conflict-note>Another session changed this value; showing the server copy.</span>`); err != nil {
				return err
			}
		}
		if data.Error != "" {
			if _, err := fmt.Fprintf(w, `<span role="alert" class="text-xs text-red-300" data-save-error>%s</span>`, templ.EscapeString(data.Error)); err != nil {
				return err
			}
		}
		if data.Message != "" {
			if _, err := fmt.Fprintf(w, `<span role="status" class="text-xs text-emerald-300" data-save-message>%s</span>`, templ.EscapeString(data.Message)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func valueEditor(data EditorData) templ.Component {
	switch data.Syntax {
	case settings.SyntaxString, settings.SyntaxNumeric, settings.SyntaxBoolean:
		return scalarEditor(data)
	case settings.SyntaxStringArray, settings.SyntaxProfile, settings.SyntaxDomainList:
		return listEditor(data)
	case settings.SyntaxUserPermissionList:
		return permissionEditor(data)
	case settings.SyntaxEmailLocaleMap:
		return emailEditor(data)
	case settings.SyntaxChallengeLocaleMap:
		return challengeEditor(data)
	default:
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, `<p class="mt-4 text-sm text-slate-400">No editor available for syntax %s.</p>`, templ.EscapeString(string(data.Syntax)))
			return err
		})
	}
}

func scalarEditor(data EditorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<form class="mt-4 space-y-3" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-headers='{"X-CSRF-Token":%q}' data-value-form>`,
			templ.EscapeString(data.SettingPath()), templ.EscapeString(data.CSRFToken)); err != nil {
			return err
		}

		switch data.Syntax {
		case settings.SyntaxBoolean:
			enabled := false
			if data.Record != nil {
				if b, ok := data.Record.Value.(settings.BooleanValue); ok {
					enabled = bool(b)
				}
			}
			checkedTrue, checkedFalse := "", " checked"
			if enabled {
				checkedTrue, checkedFalse = " checked", ""
			}
			if _, err := fmt.Fprintf(w,
				`<fieldset class="flex gap-4 text-sm"><label class="flex items-center gap-2"><input type="radio" name="value" value="true"%s>Enabled</label>`+
					`<label class="flex items-center gap-2"><input type="radio" name="value" value="false"%s>Disabled</label></fieldset>`,
				checkedTrue, checkedFalse); err != nil {
				return err
			}
		case settings.SyntaxNumeric:
			var current int64
			if data.Record != nil {
				if n, ok := data.Record.Value.(settings.NumericValue); ok {
					current = int64(n)
				}
			}
			if _, err := fmt.Fprintf(w,
				`<label class="block text-sm">Value<input type="number" name="value" value="%d" class="mt-1 block w-40 rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`,
				current); err != nil {
				return err
			}
		default:
			current := ""
			if data.Record != nil {
				if s, ok := data.Record.Value.(settings.StringValue); ok {
					current = string(s)
				}
			}
			if _, err := fmt.Fprintf(w,
				`<label class="block text-sm">Value<input type="text" name="value" value=%q class="mt-1 block w-full max-w-lg rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`,
				templ.EscapeString(current)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `<button type="submit" class="rounded bg-indigo-600 px-3 py-1.5 text-sm font-semibold text-white hover:bg-indigo-500">Save</button></form>`)
		return err
	})
}

func listEditor(data EditorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var rows []string
		if data.Record != nil {
			switch v := data.Record.Value.(type) {
			case settings.StringListValue:
				rows = v
			case settings.ProfileListValue:
				rows = v
			case settings.DomainListValue:
				rows = v
			}
		}

		if _, err := io.WriteString(w, `<ul class="mt-4 space-y-1" data-value-rows>`); err != nil {
			return err
		}
		for i, row := range rows {
			if _, err := fmt.Fprintf(w, `<li class="flex items-center gap-2 rounded border border-slate-800 bg-slate-900 px-2 py-1.5" data-row-index="%d"><span class="flex-1 font-mono text-sm">%s</span>`, i, templ.EscapeString(row)); err != nil {
				return err
			}
			if err := rowControls(w, data, i, len(rows)); err != nil {
				return err
			}
			if _, err := io.WriteString(w, `</li>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w,
			`<form class="mt-3 flex items-end gap-2" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-headers='{"X-CSRF-Token":%q}' data-add-row-form>`+
				`<label class="text-sm">New entry<input type="text" name="row" required class="mt-1 block w-full max-w-md rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<button type="submit" class="rounded bg-indigo-600 px-3 py-1.5 text-sm font-semibold text-white hover:bg-indigo-500">Add</button></form>`,
			templ.EscapeString(data.SettingPath()+"/rows"), templ.EscapeString(data.CSRFToken))
		return err
	})
}

func rowControls(w io.Writer, data EditorData, index, total int) error {
	base := data.SettingPath() + "/rows/" + strconv.Itoa(index)
	headers := fmt.Sprintf(`hx-headers='{"X-CSRF-Token":%q}' hx-target="#setting-editor" hx-swap="outerHTML"`, templ.EscapeString(data.CSRFToken))
	if index > 0 {
		if _, err := fmt.Fprintf(w, `<button type="button" hx-post=%q %s class="rounded px-1.5 text-slate-400 hover:text-white" aria-label="Move up" data-row-up>&#9650;</button>`, templ.EscapeString(base+"/up"), headers); err != nil {
			return err
		}
	}
	if index < total-1 {
		if _, err := fmt.Fprintf(w, `<button type="button" hx-post=%q %s class="rounded px-1.5 text-slate-400 hover:text-white" aria-label="Move down" data-row-down>&#9660;</button>`, templ.EscapeString(base+"/down"), headers); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, `<button type="button" hx-post=%q %s class="rounded px-1.5 text-red-400 hover:text-red-200" aria-label="Delete" data-row-delete>&times;</button>`, templ.EscapeString(base+"/delete"), headers)
	return err
}

func permissionEditor(data EditorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var perms settings.PermissionListValue
		if data.Record != nil {
			if v, ok := data.Record.Value.(settings.PermissionListValue); ok {
				perms = v
			}
		}

		if _, err := io.WriteString(w, `<ul class="mt-4 space-y-2" data-value-rows>`); err != nil {
			return err
		}
		for i, perm := range perms {
			detail := perm.LDAPQuery
			if perm.Type == settings.PermissionLDAPGroup {
				detail = perm.GroupDN
			}
			if _, err := fmt.Fprintf(w,
				`<li class="flex items-center gap-2 rounded border border-slate-800 bg-slate-900 px-2 py-1.5" data-row-index="%d">`+
					`<span class="rounded bg-slate-800 px-1.5 py-0.5 text-xs">%s</span>`+
					`<span class="flex-1 font-mono text-sm">%s</span><span class="text-xs text-slate-500">%s</span>`,
				i, templ.EscapeString(string(perm.Type)), templ.EscapeString(detail), templ.EscapeString(perm.LDAPProfile)); err != nil {
				return err
			}
			if err := rowControls(w, data, i, len(perms)); err != nil {
				return err
			}
			if _, err := io.WriteString(w, `</li>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w,
			`<form class="mt-3 grid max-w-xl gap-2" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-headers='{"X-CSRF-Token":%q}' data-add-row-form>`+
				`<label class="text-sm">Type<select name="type" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5">`+
				`<option value="ldapQuery">LDAP query</option><option value="ldapGroup">LDAP group</option></select></label>`+
				`<label class="text-sm">Profile<input type="text" name="ldapProfile" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="text-sm">Query<input type="text" name="ldapQuery" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="text-sm">Base DN<input type="text" name="ldapBase" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="text-sm">Group DN<input type="text" name="groupDN" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<button type="submit" class="w-fit rounded bg-indigo-600 px-3 py-1.5 text-sm font-semibold text-white hover:bg-indigo-500">Add permission</button></form>`,
			templ.EscapeString(data.SettingPath()+"/rows"), templ.EscapeString(data.CSRFToken))
		return err
	})
}

func localeTabs(w io.Writer, data EditorData, locales []string) error {
	if _, err := io.WriteString(w, `<div class="mt-4 flex flex-wrap items-center gap-1" role="tablist" data-locale-tabs>`); err != nil {
		return err
	}
	for _, locale := range locales {
		label := locale
		if locale == settings.DefaultLocale {
			label = "default"
		}
		class := "rounded px-2 py-1 text-sm text-slate-400 hover:text-white"
		selected := "false"
		if locale == data.ActiveLocale {
			class = "rounded bg-slate-800 px-2 py-1 text-sm text-white"
			selected = "true"
		}
		href := data.SettingPath() + "?locale=" + locale
		if _, err := fmt.Fprintf(w, `<a role="tab" aria-selected=%q href=%q class=%q data-locale-tab=%q>%s</a>`,
			selected, templ.EscapeString(href), class, templ.EscapeString(locale), templ.EscapeString(label)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w,
		`<form class="ml-2 flex items-center gap-1" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-headers='{"X-CSRF-Token":%q}' data-add-locale-form>`+
			`<input type="text" name="locale" placeholder="e.g. de" required class="w-24 rounded border border-slate-700 bg-slate-950 px-2 py-1 text-sm">`+
			`<button type="submit" class="rounded bg-slate-800 px-2 py-1 text-sm">Add locale</button></form></div>`,
		templ.EscapeString(data.SettingPath()+"/locales"), templ.EscapeString(data.CSRFToken))
	return err
}

func removeLocaleButton(w io.Writer, data EditorData) error {
	if data.ActiveLocale == settings.DefaultLocale {
		return nil
	}
	_, err := fmt.Fprintf(w,
		`<form class="mt-2" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-confirm="Remove this locale?" hx-headers='{"X-CSRF-Token":%q}' data-remove-locale-form>`+
			`<button type="submit" class="rounded border border-red-800 px-2 py-1 text-xs text-red-300 hover:bg-red-950">Remove locale</button></form>`,
		templ.EscapeString(data.SettingPath()+"/locales/"+LocaleSlug(data.ActiveLocale)+"/delete"), templ.EscapeString(data.CSRFToken))
	return err
}

func emailEditor(data EditorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var value settings.EmailLocaleMap
		if data.Record != nil {
			if v, ok := data.Record.Value.(settings.EmailLocaleMap); ok {
				value = v
			}
		}
		if value == nil {
			value = settings.EmailLocaleMap{}
		}

		if err := localeTabs(w, data, value.Locales()); err != nil {
			return err
		}

		tmpl := value[data.ActiveLocale]
		if _, err := fmt.Fprintf(w,
			`<form class="mt-3 grid max-w-2xl gap-2" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-headers='{"X-CSRF-Token":%q}' data-locale-form>`+
				`<label class="text-sm">From<input type="text" name="from" value=%q class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="text-sm">Subject<input type="text" name="subject" value=%q class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1.5"></label>`+
				`<label class="text-sm">Plain body<textarea name="bodyText" rows="5" class="mt-1 block w-full rounded border border-slate-700 bg-slate-950 px-2 py-1.5">%s</textarea></label>`+
				`<label class="text-sm">HTML body<textarea name="bodyHtml" rows="5" class="mt-1 block w-full rounded border border-slate-700 bg-slate-950 px-2 py-1.5">%s</textarea></label>`+
				`<button type="submit" class="w-fit rounded bg-indigo-600 px-3 py-1.5 text-sm font-semibold text-white hover:bg-indigo-500">Save template</button></form>`,
			templ.EscapeString(data.SettingPath()+"/locales/"+LocaleSlug(data.ActiveLocale)), templ.EscapeString(data.CSRFToken),
			templ.EscapeString(tmpl.From), templ.EscapeString(tmpl.Subject),
			templ.EscapeString(tmpl.BodyText), templ.EscapeString(tmpl.BodyHTML)); err != nil {
			return err
		}

		return removeLocaleButton(w, data)
	})
}

func challengeEditor(data EditorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var value settings.ChallengeLocaleMap
		if data.Record != nil {
			if v, ok := data.Record.Value.(settings.ChallengeLocaleMap); ok {
				value = v
			}
		}
		if value == nil {
			value = settings.ChallengeLocaleMap{}
		}

		if err := localeTabs(w, data, value.Locales()); err != nil {
			return err
		}

		challenges := value[data.ActiveLocale]
		if _, err := fmt.Fprintf(w,
			`<form class="mt-3 space-y-2" hx-post=%q hx-target="#setting-editor" hx-swap="outerHTML" hx-headers='{"X-CSRF-Token":%q}' data-locale-form>`,
			templ.EscapeString(data.SettingPath()+"/locales/"+LocaleSlug(data.ActiveLocale)), templ.EscapeString(data.CSRFToken)); err != nil {
			return err
		}
		for i, challenge := range challenges {
			adminSel, userSel := "", ""
			if challenge.AdminDefined {
				adminSel = " selected"
			} else {
				userSel = " selected"
			}
			if _, err := fmt.Fprintf(w,
				`<fieldset class="grid grid-cols-[1fr_auto_auto_auto] items-end gap-2 rounded border border-slate-800 bg-slate-900 p-2" data-challenge-index="%d">`+
					`<label class="text-sm">Question<input type="text" name="text" value=%q class="mt-1 block w-full rounded border border-slate-700 bg-slate-950 px-2 py-1"></label>`+
					`<label class="text-sm">Min<input type="number" name="minLength" value="%d" class="mt-1 block w-16 rounded border border-slate-700 bg-slate-950 px-2 py-1"></label>`+
					`<label class="text-sm">Max<input type="number" name="maxLength" value="%d" class="mt-1 block w-16 rounded border border-slate-700 bg-slate-950 px-2 py-1"></label>`+
					`<label class="text-sm">Source<select name="adminDefined" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1">`+
					`<option value="true"%s>Admin</option><option value="false"%s>User</option></select></label>`+
					`</fieldset>`,
				i, templ.EscapeString(challenge.Text), challenge.MinLength, challenge.MaxLength, adminSel, userSel); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w,
			`<fieldset class="grid grid-cols-[1fr_auto_auto_auto] items-end gap-2 rounded border border-dashed border-slate-700 p-2" data-challenge-new>`+
				`<label class="text-sm">New question<input type="text" name="text" class="mt-1 block w-full rounded border border-slate-700 bg-slate-950 px-2 py-1"></label>`+
				`<label class="text-sm">Min<input type="number" name="minLength" value="4" class="mt-1 block w-16 rounded border border-slate-700 bg-slate-950 px-2 py-1"></label>`+
				`<label class="text-sm">Max<input type="number" name="maxLength" value="200" class="mt-1 block w-16 rounded border border-slate-700 bg-slate-950 px-2 py-1"></label>`+
				`<label class="text-sm">Source<select name="adminDefined" class="mt-1 block rounded border border-slate-700 bg-slate-950 px-2 py-1">`+
				`<option value="true" selected>Admin</option><option value="false">User</option></select></label>`+
				`</fieldset>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<button type="submit" class="rounded bg-indigo-600 px-3 py-1.5 text-sm font-semibold text-white hover:bg-indigo-500">Save challenges</button></form>`); err != nil {
			return err
		}

		return removeLocaleButton(w, data)
	})
}
