package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pwm-project/pwm-admin/internal/admin/catalog"
	custommw "github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	"github.com/pwm-project/pwm-admin/internal/admin/table"
	settingstpl "github.com/pwm-project/pwm-admin/internal/admin/templates/settings"
)

const writeWait = 2 * time.Second

var (
	errInvalidNumber   = errors.New("enter a whole number")
	errNotScalar       = errors.New("this setting is not edited as a single value")
	errChallengeBounds = errors.New("challenge length bounds are inconsistent")
)

// settingRow is the table row model for the settings list.
type settingRow struct {
	Key      string
	Label    string
	Category string
	Syntax   string
	Modified bool
}

// SettingsList renders the filterable, sortable settings table.
func (h *Handlers) SettingsList(w http.ResponseWriter, r *http.Request) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	category := strings.TrimSpace(query.Get("category"))
	sortLabel := strings.TrimSpace(query.Get("sort"))
	dir := strings.TrimSpace(query.Get("dir"))

	modified := make(map[string]bool)
	if keys, err := h.settings.ListModified(r.Context(), user.Token); err != nil {
		h.logger.Warn("list modified settings failed", zap.Error(err))
	} else {
		for _, key := range keys {
			// Profile overrides mark the base key's row.
			_, base := settings.SplitProfileKey(key)
			modified[base] = true
		}
	}

	model := table.New("setting")
	model.AddColumn("Key", "setting.key")
	model.AddColumn("Label", "setting.label")
	model.AddColumn("Category", "setting.category")
	model.AddColumn("Syntax", "setting.syntax")

	rows := make([]any, 0)
	for _, desc := range h.catalog.Search(q, category) {
		rows = append(rows, &settingRow{
			Key:      desc.Key,
			Label:    desc.Label,
			Category: desc.Category,
			Syntax:   settingstpl.SyntaxLabel(desc.Syntax),
			Modified: modified[desc.Key],
		})
	}
	model.SetRows(rows)

	if sortLabel != "" && model.SortOnColumn(sortLabel) && dir == "desc" {
		model.SortOnColumn(sortLabel)
	}

	data := h.buildListData(model, q, category)
	h.render(w, r, settingstpl.List(data), settingstpl.ListFragment(data))
}

func (h *Handlers) buildListData(model *table.Model, q, category string) settingstpl.ListPageData {
	listPath := joinBasePath(h.basePath, "/settings")
	activeLabel, reverse := model.SortState()

	data := settingstpl.ListPageData{
		Title:      "Settings",
		Query:      q,
		Category:   category,
		Categories: h.catalog.Categories(),
		ListPath:   listPath,
	}

	for _, col := range model.VisibleColumns() {
		active := col.Label == activeLabel
		nextDir := "asc"
		if active && !reverse {
			nextDir = "desc"
		}
		params := url.Values{}
		if q != "" {
			params.Set("q", q)
		}
		if category != "" {
			params.Set("category", category)
		}
		params.Set("sort", col.Label)
		params.Set("dir", nextDir)
		data.Columns = append(data.Columns, settingstpl.ColumnView{
			Label:   col.Label,
			Href:    listPath + "?" + params.Encode(),
			Active:  active,
			Reverse: reverse,
		})
	}

	for _, item := range model.Items() {
		row, ok := item.(*settingRow)
		if !ok {
			continue
		}
		data.Rows = append(data.Rows, settingstpl.RowView{
			Key:      row.Key,
			Label:    row.Label,
			Category: row.Category,
			Syntax:   row.Syntax,
			Modified: row.Modified,
			Href:     listPath + "/" + row.Key,
		})
	}
	return data
}

// SettingEditor renders the editor for one key.
func (h *Handlers) SettingEditor(w http.ResponseWriter, r *http.Request) {
	h.editorResponse(w, r, "", "")
}

// SettingWrite stages a scalar value write and renders the updated editor.
func (h *Handlers) SettingWrite(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.editorResponse(w, r, "", "The form could not be submitted. Please try again.")
		return
	}

	value, err := parseScalarValue(desc.Syntax, r.PostFormValue("value"))
	if err != nil {
		h.editorResponse(w, r, "", err.Error())
		return
	}

	state := h.state(r)
	done := make(chan settings.WriteResult, 1)
	state.store.Write(r.Context(), user.Token, h.settingKey(r, desc), value, func(res settings.WriteResult) {
		done <- res
	})
	h.finishWrite(w, r, done)
}

// SettingReset restores the server default and renders the refreshed editor.
func (h *Handlers) SettingReset(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}

	state := h.state(r)
	key := h.settingKey(r, desc)
	done := make(chan error, 1)
	state.store.Reset(r.Context(), user.Token, key, func(err error) {
		done <- err
	})

	select {
	case err := <-done:
		if err != nil {
			h.logger.Warn("reset setting failed", zap.String("key", key), zap.Error(err))
			h.editorResponse(w, r, "", "The reset was rejected by the server.")
			return
		}
	case <-time.After(writeWait):
	}
	h.editorResponse(w, r, "The setting was reset to its default.", "")
}

// SettingAddRow appends one entry to a list-valued setting.
func (h *Handlers) SettingAddRow(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.editorResponse(w, r, "", "The form could not be submitted. Please try again.")
		return
	}

	state := h.state(r)

	if desc.Syntax == settings.SyntaxUserPermissionList {
		perm := settings.Permission{
			Type:        settings.PermissionType(strings.TrimSpace(r.PostFormValue("type"))),
			LDAPProfile: strings.TrimSpace(r.PostFormValue("ldapProfile")),
			LDAPQuery:   strings.TrimSpace(r.PostFormValue("ldapQuery")),
			LDAPBase:    strings.TrimSpace(r.PostFormValue("ldapBase")),
			GroupDN:     strings.TrimSpace(r.PostFormValue("groupDN")),
		}
		if perm.Type != settings.PermissionLDAPQuery && perm.Type != settings.PermissionLDAPGroup {
			h.editorResponse(w, r, "", "Choose a permission type.")
			return
		}
		done := make(chan settings.WriteResult, 1)
		err := state.store.Update(r.Context(), user.Token, h.settingKey(r, desc), func(rec *settings.Record) (settings.Value, error) {
			list, _ := rec.Value.(settings.PermissionListValue)
			return append(list.Clone().(settings.PermissionListValue), perm), nil
		}, func(res settings.WriteResult) { done <- res })
		if err != nil {
			h.editorResponse(w, r, "", "The entry could not be added.")
			return
		}
		h.finishWrite(w, r, done)
		return
	}

	row := strings.TrimSpace(r.PostFormValue("row"))
	if row == "" {
		h.editorResponse(w, r, "", "Enter a value to add.")
		return
	}

	done := make(chan settings.WriteResult, 1)
	if err := state.store.AddRow(r.Context(), user.Token, h.settingKey(r, desc), row, func(res settings.WriteResult) { done <- res }); err != nil {
		h.editorResponse(w, r, "", "The entry could not be added.")
		return
	}
	h.finishWrite(w, r, done)
}

// SettingMoveRowUp moves a list entry one position towards the front.
func (h *Handlers) SettingMoveRowUp(w http.ResponseWriter, r *http.Request) {
	h.moveRow(w, r, -1)
}

// SettingMoveRowDown moves a list entry one position towards the back.
func (h *Handlers) SettingMoveRowDown(w http.ResponseWriter, r *http.Request) {
	h.moveRow(w, r, 1)
}

func (h *Handlers) moveRow(w http.ResponseWriter, r *http.Request, dir int) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	state := h.state(r)
	done := make(chan settings.WriteResult, 1)
	if err := state.store.MoveRow(r.Context(), user.Token, h.settingKey(r, desc), index, dir, func(res settings.WriteResult) { done <- res }); err != nil {
		h.editorResponse(w, r, "", "The entry could not be moved.")
		return
	}
	h.finishWrite(w, r, done)
}

// SettingDeleteRow removes a list entry.
func (h *Handlers) SettingDeleteRow(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	state := h.state(r)
	done := make(chan settings.WriteResult, 1)
	if err := state.store.DeleteRow(r.Context(), user.Token, h.settingKey(r, desc), index, func(res settings.WriteResult) { done <- res }); err != nil {
		h.editorResponse(w, r, "", "The entry could not be removed.")
		return
	}
	h.finishWrite(w, r, done)
}

// SettingAddLocale adds a locale tab to a locale-keyed setting. The new
// locale starts from a copy of the default entry.
func (h *Handlers) SettingAddLocale(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.editorResponse(w, r, "", "The form could not be submitted. Please try again.")
		return
	}
	locale := strings.TrimSpace(r.PostFormValue("locale"))
	if locale == "" {
		h.editorResponse(w, r, "", "Enter a locale tag, e.g. de or fr-CA.")
		return
	}

	state := h.state(r)
	key := h.settingKey(r, desc)
	done := make(chan settings.WriteResult, 1)
	var err error
	switch desc.Syntax {
	case settings.SyntaxEmailLocaleMap:
		tmpl := settings.EmailTemplate{}
		if rec, ok := state.store.Cached(key); ok && rec.Value != nil {
			if m, ok := rec.Value.(settings.EmailLocaleMap); ok {
				tmpl, _ = m.Resolve(settings.DefaultLocale)
			}
		}
		err = state.store.PutEmailLocale(r.Context(), user.Token, key, locale, tmpl, func(res settings.WriteResult) { done <- res })
	case settings.SyntaxChallengeLocaleMap:
		var challenges []settings.Challenge
		if rec, ok := state.store.Cached(key); ok && rec.Value != nil {
			if m, ok := rec.Value.(settings.ChallengeLocaleMap); ok {
				challenges, _ = m.Resolve(settings.DefaultLocale)
			}
		}
		err = state.store.PutChallengeLocale(r.Context(), user.Token, key, locale, challenges, func(res settings.WriteResult) { done <- res })
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.localeEditorResponse(w, r, locale, "", localeErrorMessage(err), false)
		return
	}
	h.rememberLocale(r, locale)
	h.finishLocaleWrite(w, r, locale, done)
}

// SettingSaveLocale replaces the content of one locale tab.
func (h *Handlers) SettingSaveLocale(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}
	locale := settingstpl.LocaleFromSlug(chi.URLParam(r, "locale"))
	if err := r.ParseForm(); err != nil {
		h.localeEditorResponse(w, r, locale, "", "The form could not be submitted. Please try again.", false)
		return
	}

	state := h.state(r)
	key := h.settingKey(r, desc)
	done := make(chan settings.WriteResult, 1)
	var err error
	switch desc.Syntax {
	case settings.SyntaxEmailLocaleMap:
		tmpl := settings.EmailTemplate{
			From:     strings.TrimSpace(r.PostFormValue("from")),
			Subject:  strings.TrimSpace(r.PostFormValue("subject")),
			BodyText: r.PostFormValue("bodyText"),
			BodyHTML: r.PostFormValue("bodyHtml"),
		}
		err = state.store.SetEmailLocale(r.Context(), user.Token, key, locale, tmpl, func(res settings.WriteResult) { done <- res })
	case settings.SyntaxChallengeLocaleMap:
		challenges, perr := parseChallengeRows(r.PostForm)
		if perr != nil {
			h.localeEditorResponse(w, r, locale, "", perr.Error(), false)
			return
		}
		err = state.store.SetChallengeLocale(r.Context(), user.Token, key, locale, challenges, func(res settings.WriteResult) { done <- res })
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.localeEditorResponse(w, r, locale, "", localeErrorMessage(err), false)
		return
	}
	h.rememberLocale(r, locale)
	h.finishLocaleWrite(w, r, locale, done)
}

// SettingRemoveLocale drops a locale tab.
func (h *Handlers) SettingRemoveLocale(w http.ResponseWriter, r *http.Request) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}
	locale := settingstpl.LocaleFromSlug(chi.URLParam(r, "locale"))

	state := h.state(r)
	done := make(chan settings.WriteResult, 1)
	if err := state.store.RemoveLocale(r.Context(), user.Token, h.settingKey(r, desc), locale, func(res settings.WriteResult) { done <- res }); err != nil {
		h.localeEditorResponse(w, r, locale, "", localeErrorMessage(err), false)
		return
	}
	// The removed tab can no longer be the session's preferred one.
	h.rememberLocale(r, settings.DefaultLocale)
	h.finishLocaleWrite(w, r, settings.DefaultLocale, done)
}

// editorRequest resolves the authenticated user and the addressed descriptor.
// An explicit ?profile= selection on a profile-scoped key becomes the
// session's active profile.
func (h *Handlers) editorRequest(w http.ResponseWriter, r *http.Request) (*custommw.User, catalog.Descriptor, bool) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, catalog.Descriptor{}, false
	}
	key := chi.URLParam(r, "key")
	desc, ok := h.catalog.Lookup(key)
	if !ok {
		http.NotFound(w, r)
		return nil, catalog.Descriptor{}, false
	}
	if desc.ProfileScoped {
		if vals := r.URL.Query(); vals.Has("profile") {
			if sess, sok := custommw.SessionFromContext(r.Context()); sok {
				sess.SetActiveProfile(strings.TrimSpace(vals.Get("profile")))
			}
		}
	}
	return user, desc, true
}

// settingKey scopes profile-aware settings to the session's active profile,
// so overrides are cached and queued separately from default-profile values.
func (h *Handlers) settingKey(r *http.Request, desc catalog.Descriptor) string {
	if !desc.ProfileScoped {
		return desc.Key
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		return settings.ProfileKey(sess.ActiveProfile(), desc.Key)
	}
	return desc.Key
}

// requestLocale resolves the locale tab to render: an explicit ?locale=
// selection wins and is remembered, otherwise the session preference.
func (h *Handlers) requestLocale(r *http.Request) string {
	if vals := r.URL.Query(); vals.Has("locale") {
		locale := vals.Get("locale")
		h.rememberLocale(r, locale)
		return locale
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		return sess.Locale()
	}
	return settings.DefaultLocale
}

func (h *Handlers) rememberLocale(r *http.Request, locale string) {
	if settings.ValidateLocale(locale) != nil {
		return
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.SetLocale(locale)
	}
}

func (h *Handlers) finishWrite(w http.ResponseWriter, r *http.Request, done chan settings.WriteResult) {
	h.finishLocaleWrite(w, r, h.requestLocale(r), done)
}

func (h *Handlers) finishLocaleWrite(w http.ResponseWriter, r *http.Request, locale string, done chan settings.WriteResult) {
	message, errText := "", ""
	conflict := false
	select {
	case res := <-done:
		switch {
		case res.Err != nil:
			errText = writeErrorMessage(res.Err)
		case res.Conflict:
			conflict = true
		default:
			message = "Saved."
		}
	case <-time.After(writeWait):
		// Still pending; the editor renders the staged value and its state.
	}
	h.localeEditorResponse(w, r, locale, message, errText, conflict)
}

func (h *Handlers) editorResponse(w http.ResponseWriter, r *http.Request, message, errText string) {
	h.localeEditorResponse(w, r, h.requestLocale(r), message, errText, false)
}

// localeEditorResponse renders the editor reflecting the store's current
// cache, sync state, and any outcome text.
func (h *Handlers) localeEditorResponse(w http.ResponseWriter, r *http.Request, locale, message, errText string, conflict bool) {
	user, desc, ok := h.editorRequest(w, r)
	if !ok {
		return
	}

	state := h.state(r)
	key := h.settingKey(r, desc)
	record, err := state.store.Read(r.Context(), user.Token, key)
	if err != nil {
		h.logger.Warn("read setting failed", zap.String("key", key), zap.Error(err))
		if errText == "" {
			errText = "The setting could not be loaded from the server."
		}
	}

	syncState, serr := state.store.State(key)
	if serr != nil {
		syncState = settings.StateSynced
	}

	help, herr := h.catalog.RenderHelp(desc)
	if herr != nil {
		h.logger.Warn("render setting help failed", zap.String("key", desc.Key), zap.Error(herr))
	}

	activeProfile := ""
	if desc.ProfileScoped {
		if sess, sok := custommw.SessionFromContext(r.Context()); sok {
			activeProfile = sess.ActiveProfile()
		}
	}

	data := settingstpl.EditorData{
		Key:           desc.Key,
		Label:         desc.Label,
		Category:      desc.Category,
		Syntax:        desc.Syntax,
		HelpHTML:      help,
		Record:        record,
		State:         syncState,
		Conflict:      conflict,
		Error:         errText,
		Message:       message,
		ProfileScoped: desc.ProfileScoped,
		ActiveProfile: activeProfile,
		ActiveLocale:  locale,
		CSRFToken:     custommw.CSRFTokenFromContext(r.Context()),
		BasePath:      h.basePath,
	}
	h.render(w, r, settingstpl.Editor(data), settingstpl.EditorFragment(data))
}

func parseScalarValue(syntax settings.Syntax, raw string) (settings.Value, error) {
	switch syntax {
	case settings.SyntaxString:
		return settings.StringValue(raw), nil
	case settings.SyntaxNumeric:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, errInvalidNumber
		}
		return settings.NumericValue(n), nil
	case settings.SyntaxBoolean:
		return settings.BooleanValue(strings.TrimSpace(raw) == "true"), nil
	default:
		return nil, errNotScalar
	}
}

func parseChallengeRows(form url.Values) ([]settings.Challenge, error) {
	texts := form["text"]
	mins := form["minLength"]
	maxes := form["maxLength"]
	sources := form["adminDefined"]

	var challenges []settings.Challenge
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		challenge := settings.Challenge{Text: text, MinLength: 4, MaxLength: 200, AdminDefined: true}
		if i < len(mins) {
			if n, err := strconv.Atoi(strings.TrimSpace(mins[i])); err == nil {
				challenge.MinLength = n
			}
		}
		if i < len(maxes) {
			if n, err := strconv.Atoi(strings.TrimSpace(maxes[i])); err == nil {
				challenge.MaxLength = n
			}
		}
		if i < len(sources) {
			challenge.AdminDefined = sources[i] == "true"
		}
		if challenge.MinLength < 0 || (challenge.MaxLength > 0 && challenge.MaxLength < challenge.MinLength) {
			return nil, errChallengeBounds
		}
		challenges = append(challenges, challenge)
	}
	return challenges, nil
}

func writeErrorMessage(err error) string {
	if settings.IsValidationError(err) {
		var serr *settings.ServerError
		if errors.As(err, &serr) && serr.Message != "" {
			return serr.Message
		}
		return "The server rejected the value."
	}
	return "The value could not be saved. Your change is kept and can be retried."
}

func localeErrorMessage(err error) string {
	switch {
	case errors.Is(err, settings.ErrLocaleExists):
		return "That locale already exists."
	case errors.Is(err, settings.ErrLocaleUnknown):
		return "Enter a valid locale tag, e.g. de or fr-CA."
	case errors.Is(err, settings.ErrLastLocale):
		return "The default locale cannot be removed while translations remain."
	default:
		return "The change could not be applied."
	}
}
