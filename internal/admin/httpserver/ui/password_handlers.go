package ui

import (
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	passwordtpl "github.com/pwm-project/pwm-admin/internal/admin/templates/password"
	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

// PasswordPage renders the change-password form.
func (h *Handlers) PasswordPage(w http.ResponseWriter, r *http.Request) {
	data := h.passwordPageData(r)
	templ.Handler(passwordtpl.Page(data)).ServeHTTP(w, r)
}

// PasswordValidate checks the candidate password against the server and
// renders the verdict fragment.
func (h *Handlers) PasswordValidate(w http.ResponseWriter, r *http.Request) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		templ.Handler(passwordtpl.ValidationFragment(passwordtpl.ValidationData{
			Error: "The form could not be submitted. Please try again.",
		})).ServeHTTP(w, r)
		return
	}

	outcome, err := h.checkPassword(r, user.Token, r.PostFormValue("password1"), r.PostFormValue("password2"))
	data := validationView(outcome, err)
	templ.Handler(passwordtpl.ValidationFragment(data)).ServeHTTP(w, r)
}

// PasswordSubmit finalises the change. The server verdict is re-checked so a
// stale or tampered submit cannot slip through.
func (h *Handlers) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		data := h.passwordPageData(r)
		data.Error = "The form could not be submitted. Please try again."
		templ.Handler(passwordtpl.Page(data)).ServeHTTP(w, r)
		return
	}

	outcome, err := h.checkPassword(r, user.Token, r.PostFormValue("password1"), r.PostFormValue("password2"))
	data := h.passwordPageData(r)
	switch {
	case err != nil || outcome.Err != nil:
		if err == nil {
			err = outcome.Err
		}
		h.logger.Warn("password validation failed", zap.Error(err))
		data.Error = "The password could not be verified. Please try again."
	case outcome.Response == nil || !outcome.Response.Passed:
		data.Error = "The new password was not accepted."
		if outcome.Response != nil && outcome.Response.Message != "" {
			data.Error = outcome.Response.Message
		}
		data.Validation = validationView(outcome, nil)
	default:
		if state := h.state(r); state.validator != nil {
			state.validator.Reset()
		}
		data.Message = "Your password has been changed."
	}
	templ.Handler(passwordtpl.Page(data)).ServeHTTP(w, r)
}

func (h *Handlers) passwordPageData(r *http.Request) passwordtpl.PageData {
	return passwordtpl.PageData{
		Title:     "Change Password",
		BasePath:  h.basePath,
		CSRFToken: custommw.CSRFTokenFromContext(r.Context()),
	}
}

func (h *Handlers) checkPassword(r *http.Request, token, password1, password2 string) (validation.Outcome, error) {
	state := h.state(r)
	if state == nil || state.validator == nil {
		return validation.Outcome{}, validation.ErrNotConfigured
	}
	snap := validation.Snapshot{
		"password1": password1,
		"password2": password2,
	}
	return state.validator.Check(r.Context(), token, snap)
}

func validationView(outcome validation.Outcome, err error) passwordtpl.ValidationData {
	if err != nil || outcome.Err != nil {
		if err == nil {
			err = outcome.Err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return passwordtpl.ValidationData{Checking: true}
		}
		return passwordtpl.ValidationData{Error: "Password checking is unavailable. Please try again later."}
	}
	resp := outcome.Response
	if resp == nil {
		return passwordtpl.ValidationData{Checking: true}
	}
	return passwordtpl.ValidationData{
		Passed:   resp.Passed,
		Message:  resp.Message,
		Match:    string(resp.Match),
		Strength: resp.Strength,
	}
}
