package settings

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured indicates no backend service was wired for this concern.
var ErrNotConfigured = errors.New("settings: service not configured")

// ErrNotCached indicates the requested key has no cache entry yet.
var ErrNotCached = errors.New("settings: key not cached")

// ServerError is a structured rejection from the configuration API, e.g. a
// value failing server-side validation.
type ServerError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("settings: server rejected request (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("settings: server rejected request (status %d): %s", e.StatusCode, e.Message)
}

// IsValidationError reports whether err is a server-side rejection of the
// submitted value, as opposed to a transport or auth failure.
func IsValidationError(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == 422
}

// Service exposes the configuration endpoints of the PWM server.
type Service interface {
	// ReadSetting fetches the current record for the key.
	ReadSetting(ctx context.Context, token, key string) (*Record, error)
	// WriteSetting persists the full value and returns the acknowledged
	// record as the server now holds it.
	WriteSetting(ctx context.Context, token, key string, value Value) (*Record, error)
	// ResetSetting restores the key to its server-side default.
	ResetSetting(ctx context.Context, token, key string) error
	// ListModified returns the keys whose values differ from defaults.
	ListModified(ctx context.Context, token string) ([]string, error)
}
