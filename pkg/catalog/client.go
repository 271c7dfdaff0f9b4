package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is the global application catalog feed
const DefaultURL = "https://api.runonflux.io/apps/globalappsspecifications"

// maxCatalogBody bounds the catalog response; the global feed is large
const maxCatalogBody = 256 << 20

// ErrInvalidResponse is returned when the feed does not carry a data list
var ErrInvalidResponse = errors.New("invalid catalog response")

// App is one entry of the catalog feed
type App struct {
	Name string `json:"name"`
}

type catalogResponse struct {
	Status string `json:"status"`
	Data   []App  `json:"data"`
}

// Client fetches the upstream application catalog
type Client struct {
	URL  string
	HTTP *http.Client
}

// NewClient creates a catalog client
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		URL:  url,
		HTTP: &http.Client{Timeout: timeout},
	}
}

// Fetch returns every application in the catalog
func (c *Client) Fetch(ctx context.Context) ([]App, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog returned HTTP %d", resp.StatusCode)
	}

	var body catalogResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if body.Data == nil {
		return nil, ErrInvalidResponse
	}
	if body.Status != "" && body.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidResponse, body.Status)
	}

	return body.Data, nil
}
