// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aydocorp/opscomposer/pkg/core"
)

// ErrNotFound is matched by errors.Is when the service answers 404.
var ErrNotFound = core.ErrMissionNotFound

// ErrorBody is the JSON error document the persistence service returns.
type ErrorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// StatusError reports a non-success response.
type StatusError struct {
	Op     string
	Status int
	Body   ErrorBody
}

func (e *StatusError) Error() string {
	if e.Body.Error != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Status, e.Body.Error)
	}
	return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client handles communication with the mission persistence service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthcheck checks if the persistence service is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Create stores a new mission and returns it as saved.
func (c *Client) Create(ctx context.Context, in core.MissionInput) (core.Mission, error) {
	var m core.Mission
	err := c.do(ctx, "create", http.MethodPost, "/api/missions", in, http.StatusCreated, &m)
	return m, err
}

// Update replaces the mission with the given id.
func (c *Client) Update(ctx context.Context, id string, in core.MissionInput) (core.Mission, error) {
	var m core.Mission
	err := c.do(ctx, "update", http.MethodPut, missionPath(id), in, http.StatusOK, &m)
	return m, err
}

// Delete removes the mission with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, missionPath(id), nil, http.StatusNoContent, nil)
}

// Get fetches one mission.
func (c *Client) Get(ctx context.Context, id string) (core.Mission, error) {
	var m core.Mission
	err := c.do(ctx, "get", http.MethodGet, missionPath(id), nil, http.StatusOK, &m)
	return m, err
}

// List fetches every stored mission, most recently updated first.
func (c *Client) List(ctx context.Context) ([]core.Mission, error) {
	var ms []core.Mission
	err := c.do(ctx, "list", http.MethodGet, "/api/missions", nil, http.StatusOK, &ms)
	return ms, err
}

func missionPath(id string) string {
	return "/api/missions/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		se := &StatusError{Op: op, Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&se.Body)
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
