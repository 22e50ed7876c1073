package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// BaseURL is the Gemini generateContent API base URL.
	BaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("gemini api key not configured")

// Client is a minimal HTTP client for Gemini spelling correction.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	debug      bool
}

// NewClient constructs a new Gemini client with sane defaults.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		model:      model,
		debug:      os.Getenv("ENV") == "development",
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Correction is the structured spelling-correction verdict.
type Correction struct {
	Corrected   string   `json:"corrected"`
	Confidence  string   `json:"confidence"`
	HasMistakes bool     `json:"hasMistakes"`
	Suggestions []string `json:"suggestions"`
}

// Confidence levels returned by the model.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// CorrectSpelling asks the model to fix a product-search query. The returned
// verdict should only be adopted when Confidence is high and HasMistakes is
// true; callers treat every error as a soft failure.
func (c *Client) CorrectSpelling(ctx context.Context, searchQuery string) (*Correction, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	prompt := fmt.Sprintf(`You are a spelling correction assistant for an e-commerce product search.

User's search query: %q

Task: Analyze this search query and correct any spelling mistakes. The query is likely searching for electronic products like earbuds, headphones, smartphones, etc.

Common brands: Samsung, Sony, Apple, JBL, Boat, OnePlus, Realme, Noise, pTron, MI/Xiaomi
Common product types: earbuds, headphones, neckbands, wired earphones, bluetooth, wireless

Respond in this EXACT JSON format (no extra text):
{
  "corrected": "corrected search query here",
  "confidence": "high|medium|low",
  "hasMistakes": true|false,
  "suggestions": ["alternative1", "alternative2"]
}

Rules:
- If no spelling mistakes, return the original query in "corrected"
- confidence: "high" if certain, "medium" if somewhat sure, "low" if unsure
- hasMistakes: true only if spelling errors were found
- suggestions: up to 2 alternative interpretations (empty array if none)
- Keep it concise and focused on spelling correction only`, searchQuery)

	reqBody := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", BaseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("model", c.model).
			Int("status_code", resp.StatusCode).
			Msg("[GEMINI] Incoming response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty gemini response")
	}

	return ParseCorrection(genResp.Candidates[0].Content.Parts[0].Text)
}

// ParseCorrection extracts the correction JSON from the model's text output.
// The model is instructed to answer with bare JSON but occasionally wraps it
// in prose or a markdown fence.
func ParseCorrection(text string) (*Correction, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in gemini response")
	}

	var correction Correction
	if err := json.Unmarshal([]byte(text[start:end+1]), &correction); err != nil {
		return nil, fmt.Errorf("failed to parse correction: %w", err)
	}
	if correction.Confidence == "" {
		correction.Confidence = ConfidenceLow
	}
	return &correction, nil
}
