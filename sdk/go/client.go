// Package boqflow provides a Go client for the BoqFlow API, including
// a polling helper for propagating invoice updates to disconnected
// field clients.
package boqflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the BoqFlow API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sets a bearer token obtained elsewhere, skipping Login
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new BoqFlow client
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Login authenticates with email and password and stores the bearer
// token for subsequent calls
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResponse
	if err := c.do(ctx, "POST", "/api/v1/auth/login", body, &result); err != nil {
		return nil, err
	}

	c.token = result.Token.AccessToken
	return &result, nil
}

// GetInvoice fetches a single invoice with its comments
func (c *Client) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var result Invoice
	if err := c.do(ctx, "GET", "/api/v1/invoices/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUpdates polls one invoice for changes after the given watermark,
// a unix-millisecond timestamp. Pass 0 on the first poll.
func (c *Client) GetUpdates(ctx context.Context, invoiceID string, since int64) (*InvoiceUpdates, error) {
	path := "/api/v1/invoices/" + url.PathEscape(invoiceID) + "/updates?since=" + strconv.FormatInt(since, 10)

	var result InvoiceUpdates
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Watcher polls one invoice on behalf of a client that cannot hold a
// connection open. It remembers the server-reported watermark between
// polls, so callers just invoke Poll on their own schedule.
type Watcher struct {
	client    *Client
	invoiceID string
	since     int64
}

// NewWatcher creates a watcher starting from the zero watermark
func (c *Client) NewWatcher(invoiceID string) *Watcher {
	return &Watcher{client: c, invoiceID: invoiceID}
}

// Poll fetches updates since the previous poll. The watermark advances
// to the server's lastUpdatedAt even when nothing changed, keeping
// later polls cheap.
func (w *Watcher) Poll(ctx context.Context) (*InvoiceUpdates, error) {
	updates, err := w.client.GetUpdates(ctx, w.invoiceID, w.since)
	if err != nil {
		return nil, err
	}

	if updates.LastUpdatedAt > w.since {
		w.since = updates.LastUpdatedAt
	}

	return updates, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s (status %d)", string(respBody), resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
