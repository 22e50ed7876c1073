package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Source is one scraped-dataset endpoint to pull products from.
type Source struct {
	Name     string
	URL      string
	Retailer string
	Limit    int
}

// Client fetches scraped product payloads from Apify dataset endpoints.
type Client struct {
	httpClient *http.Client
	token      string
	sources    []Source
}

// NewClient constructs an Apify client. Scrape datasets are large, so the
// HTTP timeout is generous.
func NewClient(token string, sources []Source) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		token:      token,
		sources:    sources,
	}
}

// Sources returns the configured dataset endpoints.
func (c *Client) Sources() []Source {
	return c.sources
}

// FetchSource pulls the raw product items from one dataset endpoint. A failed
// source logs and returns an empty slice so the remaining sources still
// ingest — one broken scraper must not sink the whole monthly run.
func (c *Client) FetchSource(ctx context.Context, source Source) []json.RawMessage {
	items, err := c.fetch(ctx, source)
	if err != nil {
		log.Error().Err(err).Str("source", source.Name).Msg("failed to fetch dataset")
		return nil
	}
	log.Info().Int("count", len(items)).Str("source", source.Name).Msg("fetched dataset")
	return items
}

func (c *Client) fetch(ctx context.Context, source Source) ([]json.RawMessage, error) {
	if c.token == "" {
		return nil, fmt.Errorf("apify token not configured")
	}

	params := url.Values{}
	params.Set("token", c.token)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(source.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apify returned status %d", resp.StatusCode)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return items, nil
}
