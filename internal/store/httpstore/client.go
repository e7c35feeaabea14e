// Package httpstore talks to the remote bill store over its JSON API:
//
//	GET    base                 list
//	GET    base/search?query=q  search
//	POST   base                 create
//	DELETE base/<id>            delete
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"milkbill/internal/core"
	"milkbill/internal/store"
)

var _ store.Store = (*Client)(nil)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the store rooted at baseURL. A zero timeout
// leaves requests bounded only by their context.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store URL %q: scheme must be http or https", baseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// NewWithHTTPClient is New with a caller supplied http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// BaseURL returns the store root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) List(ctx context.Context) ([]core.Bill, error) {
	var bills []core.Bill
	if err := c.do(ctx, "list", http.MethodGet, c.baseURL, nil, &bills); err != nil {
		return nil, err
	}
	return nonNil(bills), nil
}

func (c *Client) Search(ctx context.Context, query string) ([]core.Bill, error) {
	endpoint := c.baseURL + "/search?" + url.Values{"query": {query}}.Encode()
	var bills []core.Bill
	if err := c.do(ctx, "search", http.MethodGet, endpoint, nil, &bills); err != nil {
		return nil, err
	}
	return nonNil(bills), nil
}

func (c *Client) Create(ctx context.Context, b core.Bill) (core.Bill, error) {
	b.ID = ""
	payload, err := json.Marshal(b)
	if err != nil {
		return core.Bill{}, fmt.Errorf("encode bill: %w", err)
	}
	var created core.Bill
	if err := c.do(ctx, "create", http.MethodPost, c.baseURL, payload, &created); err != nil {
		return core.Bill{}, err
	}
	return created, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.baseURL+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store %s: %w", op, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Store request completed",
		"operation", op,
		"method", method,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &store.StoreError{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// A 2xx with no body is still a success; out keeps its zero value.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a failed response, if present.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}

func nonNil(bills []core.Bill) []core.Bill {
	if bills == nil {
		return []core.Bill{}
	}
	return bills
}
