package reporthttp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/reportkit-dev/reportkit/pkg/query"
	"github.com/reportkit-dev/reportkit/pkg/report"
)

// Client is a report.Provider that fetches from a remote report
// endpoint speaking the wire document shape.
type Client struct {
	endpoint   string
	dataKey    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. Defaults to
// http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a provider fetching from endpoint (the full report
// URL without a query string). dataKey names the response field holding
// the row array.
func NewClient(endpoint, dataKey string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		dataKey:    dataKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetReport encodes the params as a canonical query string, performs the
// request and decodes the wire document. Non-2xx responses are errors; a
// 2xx response that does not parse fails with report.ErrMalformed so the
// view degrades to an empty display with a warning.
func (c *Client) GetReport(ctx context.Context, p report.Params) (*report.Result, error) {
	url := c.endpoint + "?" + query.Encode(query.State{
		Page:    p.Page,
		Limit:   p.Limit,
		Filters: p.Filters,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("reporthttp: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reporthttp: fetch report: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reporthttp: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reporthttp: unexpected status %d", resp.StatusCode)
	}

	return report.UnmarshalDocument(body, c.dataKey)
}
