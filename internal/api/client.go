// Package api implements the REST client for the reminder backend: the
// resurfacing item list and the favorite mutation endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snapvault/widgetsync/internal/common"
	"github.com/snapvault/widgetsync/internal/netx"
)

// RemindItemData is one record of the reminder list response.
type RemindItemData struct {
	ID       int64    `json:"id"`
	Src      string   `json:"src"`
	Type     string   `json:"type"`
	Context  string   `json:"context"`
	Favorite bool     `json:"favorite"`
	Tags     []string `json:"tags"`
}

type remindResponse struct {
	Data    []RemindItemData `json:"data"`
	Message string           `json:"message"`
	Status  string           `json:"status"`
	Code    string           `json:"code,omitempty"`
}

type favoriteResponse struct {
	Data struct {
		Favorite bool `json:"favorite"`
	} `json:"data"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// FetchError describes a failed reminder fetch. Network is true for
// transient transport failures (timeouts, name resolution), false for
// server-side rejections.
type FetchError struct {
	Network bool
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch reminders: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fetch reminders: %s", e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a FetchError classified as a
// transient network failure.
func IsNetworkError(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Network
	}
	return netx.IsTransient(err)
}

// Client is the backend collaborator surface the engine depends on.
type Client interface {
	// FetchReminders returns the current list of items to resurface.
	FetchReminders(ctx context.Context) ([]RemindItemData, error)

	// ToggleFavorite sets or clears the favorite flag for a file and
	// returns the server-confirmed state.
	ToggleFavorite(ctx context.Context, fileID int64, favorite bool) (bool, error)
}

// HTTPClient talks JSON over REST to the backend.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient returns a client for the given base URL. A nil httpClient
// gets a default with a 15 second timeout; timing out is classified as a
// transient network failure by callers.
func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) FetchReminders(ctx context.Context) ([]RemindItemData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/remind", nil)
	if err != nil {
		return nil, &FetchError{Message: "build request", Err: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Network: netx.IsTransient(err), Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			Message: fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var out remindResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &FetchError{Network: netx.IsTransient(err), Message: "decode response", Err: err}
	}
	return out.Data, nil
}

func (c *HTTPClient) ToggleFavorite(ctx context.Context, fileID int64, favorite bool) (bool, error) {
	endpoint := fmt.Sprintf("%s/files/%d/favorite", c.baseURL, fileID)
	method := http.MethodDelete
	if favorite {
		method = http.MethodPut
		q := url.Values{}
		q.Set("sortValue", "1")
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrRemoteMutation, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrRemoteMutation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: http %d", common.ErrRemoteMutation, resp.StatusCode)
	}

	var out favoriteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decode response: %w", common.ErrRemoteMutation, err)
	}
	return out.Data.Favorite, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
