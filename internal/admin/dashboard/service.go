// Package dashboard summarises configuration health for the console landing
// page.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured indicates no backend service was wired for this concern.
var ErrNotConfigured = errors.New("dashboard: service not configured")

// CategoryCount is the number of settings in one category, with how many
// differ from their defaults.
type CategoryCount struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Modified int    `json:"modified"`
}

// Overview is the configuration health summary.
type Overview struct {
	ServerVersion string          `json:"serverVersion"`
	StartedAt     time.Time       `json:"startedAt"`
	TotalSettings int             `json:"totalSettings"`
	ModifiedKeys  []string        `json:"modifiedKeys,omitempty"`
	Categories    []CategoryCount `json:"categories,omitempty"`
}

// Uptime reports how long the server has been running relative to now.
func (o *Overview) Uptime(now time.Time) time.Duration {
	if o.StartedAt.IsZero() {
		return 0
	}
	d := now.Sub(o.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// ServerError is a structured rejection from the summary endpoint.
type ServerError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("dashboard: server rejected request (status %d): %s", e.StatusCode, e.Message)
}

// Service fetches the configuration summary.
type Service interface {
	Overview(ctx context.Context, token string) (*Overview, error)
}
