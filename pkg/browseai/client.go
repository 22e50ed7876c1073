package browseai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Browse.ai v2 API root.
const DefaultBaseURL = "https://api.browse.ai/v2"

// Store identifies one robot task capturing a brand storefront.
type Store struct {
	Name     string
	Retailer string
	RobotID  string
	TaskID   string
}

// Client fetches captured brand-store data from Browse.ai robot tasks.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	stores     []Store
}

// NewClient constructs a Browse.ai client over the configured stores. An
// empty baseURL selects the public API.
func NewClient(apiKey, baseURL string, stores []Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		stores:     stores,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Stores returns the configured robot tasks.
func (c *Client) Stores() []Store {
	return c.stores
}

// Item is one row of a captured list. Robots name their columns freely, so
// values are looked up by candidate keys.
type Item map[string]any

// Field returns the first non-empty value among the candidate keys, as a
// trimmed string.
func (it Item) Field(keys ...string) string {
	for _, k := range keys {
		v, ok := it[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s != "" {
			return s
		}
	}
	return ""
}

// TaskResult is the captured output of a finished robot task. Newer robots
// emit structured lists; older ones a single text dump that still needs
// parsing downstream.
type TaskResult struct {
	Items []Item
	Text  string
}

type taskResponse struct {
	Result struct {
		CapturedLists map[string][]Item `json:"capturedLists"`
		CapturedTexts map[string]string `json:"capturedTexts"`
	} `json:"result"`
}

// FetchTask pulls the captured data of one robot task. List items are
// flattened across all captured lists; when a robot captured only text
// fields, the longest field is returned as Text.
func (c *Client) FetchTask(ctx context.Context, store Store) (*TaskResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("browseai api key not configured")
	}

	url := fmt.Sprintf("%s/robots/%s/tasks/%s", c.baseURL, store.RobotID, store.TaskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browseai returned status %d", resp.StatusCode)
	}

	var payload taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	result := &TaskResult{}
	for _, list := range payload.Result.CapturedLists {
		result.Items = append(result.Items, list...)
	}
	for _, text := range payload.Result.CapturedTexts {
		if len(text) > len(result.Text) {
			result.Text = text
		}
	}
	return result, nil
}
