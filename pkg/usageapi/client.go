// Package usageapi fetches current-month usage from the upstream
// reporting endpoint. The fetch is an opaque collaborator: any non-200
// response or transport failure means "no data available" and is never
// fatal to the caller.
package usageapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable reports that the upstream usage endpoint could not
// provide data. Callers recover by treating the fetch as unavailable.
var ErrUnavailable = errors.New("usage endpoint unavailable")

// RemoteUsage is the payload returned by the upstream usage endpoint
// for the first-of-month..today window.
type RemoteUsage struct {
	Object     string            `json:"object"`
	TotalUsage float64           `json:"total_usage"`
	DailyCosts []RemoteDailyCost `json:"daily_costs"`
}

// RemoteDailyCost is one day of upstream-reported spend.
type RemoteDailyCost struct {
	Timestamp float64 `json:"timestamp"`
	LineItems []struct {
		Name string  `json:"name"`
		Cost float64 `json:"cost"`
	} `json:"line_items"`
}

// Client calls the upstream usage endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

// New creates a Client for the given base URL and credential.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CurrentUsage fetches usage from the first of the current month
// through today. Failures of any kind surface as ErrUnavailable.
func (c *Client) CurrentUsage(ctx context.Context) (*RemoteUsage, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	url := fmt.Sprintf("%s/usage?start_date=%s&end_date=%s",
		c.baseURL, start.Format("2006-01-02"), now.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var usage RemoteUsage
	if err := json.NewDecoder(resp.Body).Decode(&usage); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return &usage, nil
}
