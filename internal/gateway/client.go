// Package gateway holds the HTTP clients for the remote chat and space APIs.
// Both make a single attempt per call; neither retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
)

// DefaultTimeout bounds a single remote call when no timeout is configured
const DefaultTimeout = 5 * time.Second

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 1 << 20

// Config holds the settings shared by the gateway clients
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout. Used by tests.
	HTTPClient *http.Client
}

// StatusError is returned when the remote API answers with a non-2xx status.
// It matches domain.ErrUpstreamUnavailable.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected %d response from %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// Is makes StatusError match domain.ErrUpstreamUnavailable
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrUpstreamUnavailable
}

// client is the JSON-over-HTTP transport shared by the gateways
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newClient(cfg Config) (*client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// do sends the request and decodes a JSON response into out when out is non-nil.
// Every failure wraps domain.ErrUpstreamUnavailable, except caller cancellation
// which is returned as the context error.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstreamUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(payload)}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
