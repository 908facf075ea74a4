package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service against the PWM server's summary endpoint.
type HTTPService struct {
	base   *url.URL
	client HTTPClient
}

// NewHTTPService constructs a Service over the API base URL.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("dashboard: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{base: parsed, client: client}, nil
}

// Overview fetches the configuration summary.
func (s *HTTPService) Overview(ctx context.Context, token string) (*Overview, error) {
	target := *s.base
	target.Path = path.Join(s.base.Path, "/config/summary")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dashboard: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dashboard: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		serverErr := &ServerError{StatusCode: resp.StatusCode}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if readErr == nil && len(body) > 0 {
			_ = json.Unmarshal(body, serverErr)
		}
		if serverErr.Message == "" {
			serverErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, serverErr
	}

	var payload Overview
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("dashboard: decode summary: %w", err)
	}
	return &payload, nil
}
