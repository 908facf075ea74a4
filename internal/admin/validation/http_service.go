package validation

import (
	"bytes"
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

// HTTPService implements Service against one validation endpoint of the PWM
// server, e.g. /password:check or /challenges:check.
type HTTPService struct {
	base     *url.URL
	endpoint string
	client   HTTPClient
}

// NewHTTPService constructs a Service posting snapshots to the given
// endpoint path under the API base URL.
func NewHTTPService(baseURL, endpoint string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("validation: base URL is required")
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("validation: endpoint path is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("validation: parse base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		base:     parsed,
		endpoint: endpoint,
		client:   client,
	}, nil
}

// CheckForm posts the snapshot and returns the server's verdict.
func (s *HTTPService) CheckForm(ctx context.Context, token string, form Snapshot) (*Response, error) {
	body := struct {
		Fields Snapshot `json:"fields"`
	}{Fields: form}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, fmt.Errorf("validation: encode request body: %w", err)
	}

	target := *s.base
	target.Path = path.Join(s.base.Path, s.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("validation: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validation: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("validation: decode response: %w", err)
	}
	return &payload, nil
}

func (s *HTTPService) errorFromResponse(resp *http.Response) error {
	serverErr := &ServerError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(body) > 0 {
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			serverErr.Code = payload.Code
			serverErr.Message = payload.Message
			if serverErr.Message == "" {
				serverErr.Message = payload.Error
			}
		}
	}
	if serverErr.Message == "" {
		serverErr.Message = http.StatusText(resp.StatusCode)
	}
	return serverErr
}
