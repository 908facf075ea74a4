package settings

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

// HTTPService implements Service backed by the PWM server's configuration
// REST endpoints.
type HTTPService struct {
	base   *url.URL
	client HTTPClient
}

// NewHTTPService constructs a Service that talks to the configuration API.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("settings: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("settings: parse base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		base:   parsed,
		client: client,
	}, nil
}

// ReadSetting fetches the current record for the key.
func (s *HTTPService) ReadSetting(ctx context.Context, token, key string) (*Record, error) {
	req, err := s.newRequest(ctx, http.MethodGet, "/config/settings/"+url.PathEscape(key), nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload Record
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("settings: decode setting %s: %w", key, err)
	}
	return &payload, nil
}

// WriteSetting persists the full value for the key and returns the
// acknowledged record.
func (s *HTTPService) WriteSetting(ctx context.Context, token, key string, value Value) (*Record, error) {
	body := Record{Key: key, Value: value}
	if value != nil {
		body.Syntax = value.Syntax()
	}
	req, err := s.newJSONRequest(ctx, http.MethodPut, "/config/settings/"+url.PathEscape(key), body, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload Record
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("settings: decode write ack for %s: %w", key, err)
	}
	return &payload, nil
}

// ResetSetting restores the key to its server-side default.
func (s *HTTPService) ResetSetting(ctx context.Context, token, key string) error {
	req, err := s.newRequest(ctx, http.MethodPost, "/config/settings/"+url.PathEscape(key)+":reset", nil, token)
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return s.errorFromResponse(resp)
	}
	return nil
}

// ListModified returns the keys whose values differ from defaults.
func (s *HTTPService) ListModified(ctx context.Context, token string) ([]string, error) {
	req, err := s.newRequest(ctx, http.MethodGet, "/config/settings:modified", nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("settings: decode modified list: %w", err)
	}
	return payload.Keys, nil
}

func (s *HTTPService) newRequest(ctx context.Context, method, endpoint string, body io.Reader, token string) (*http.Request, error) {
	target := s.resolve(endpoint)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("settings: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (s *HTTPService) newJSONRequest(ctx context.Context, method, endpoint string, payload any, token string) (*http.Request, error) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("settings: encode request body: %w", err)
	}
	req, err := s.newRequest(ctx, method, endpoint, buf, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (s *HTTPService) do(req *http.Request) (*http.Response, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings: request failed: %w", err)
	}
	return resp, nil
}

func (s *HTTPService) resolve(endpoint string) string {
	ref := *s.base
	ref.Path = path.Join(s.base.Path, endpoint)
	return ref.String()
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
