// Package directory provides a read-only client for the PWM server's
// directory browse endpoint, backing the DN picker in the permission editor.
package directory

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured indicates no backend service was wired for this concern.
var ErrNotConfigured = errors.New("directory: service not configured")

// Node is one directory entry in a browse result.
type Node struct {
	DN    string `json:"dn"`
	Label string `json:"label"`
}

// BrowseResult is the content of one directory container.
type BrowseResult struct {
	DN         string `json:"dn"`
	Parent     string `json:"parent,omitempty"`
	Containers []Node `json:"containers,omitempty"`
	Entries    []Node `json:"entries,omitempty"`
}

// ServerError is a structured rejection from the browse endpoint.
type ServerError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("directory: server rejected request (status %d): %s", e.StatusCode, e.Message)
}

// Service browses the deployment's directory tree. An empty dn addresses the
// configured root.
type Service interface {
	Browse(ctx context.Context, token, dn string) (*BrowseResult, error)
}
