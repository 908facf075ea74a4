// Package validation provides a debounced client for the PWM server's
// remote form validation endpoints (password rules, challenge responses).
package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotConfigured indicates no backend service was wired for this concern.
var ErrNotConfigured = errors.New("validation: service not configured")

// MatchStatus reports whether the confirmation field agrees with the value
// being validated.
type MatchStatus string

const (
	MatchOK    MatchStatus = "MATCH"
	MatchNo    MatchStatus = "NO_MATCH"
	MatchEmpty MatchStatus = "EMPTY"
)

// Response is the server's verdict on one form snapshot.
type Response struct {
	Passed   bool        `json:"passed"`
	Message  string      `json:"message,omitempty"`
	Match    MatchStatus `json:"match,omitempty"`
	Strength int         `json:"strength"`
}

// Snapshot is a flat capture of form field names and values at one instant.
type Snapshot map[string]string

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Fingerprint derives a canonical identity for the snapshot: sorted
// name=value pairs. Two snapshots with equal fingerprints are
// interchangeable for validation purposes.
func (s Snapshot) Fingerprint() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\x1e')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s[k])
	}
	return b.String()
}

// ServerError is a structured rejection from the validation endpoint.
type ServerError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("validation: server rejected request (status %d): %s", e.StatusCode, e.Message)
}

// Service submits a form snapshot for server-side validation.
type Service interface {
	CheckForm(ctx context.Context, token string, form Snapshot) (*Response, error)
}
