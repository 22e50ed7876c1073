package sovrn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// RecommendationInput describes the product to recommend against.
type RecommendationInput struct {
	ID          string
	Name        string
	Category    string
	PriceINR    *float64
	Description string
}

// RecommendedProduct is one item from the recommendation API, with prices
// converted to INR.
type RecommendedProduct struct {
	Name         string   `json:"name"`
	PriceINR     *float64 `json:"price_inr"`
	ImageURL     *string  `json:"image_url"`
	ProductURL   *string  `json:"product_url"`
	AffiliateURL *string  `json:"affiliate_url"`
	Merchant     string   `json:"merchant"`
	MerchantID   *string  `json:"merchant_id"`
	InStock      bool     `json:"in_stock"`
}

type recommendationRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type recommendationItem struct {
	Name         string          `json:"name"`
	SalePrice    json.RawMessage `json:"salePrice"`
	ImageURL     string          `json:"imageURL"`
	ThumbnailURL string          `json:"thumbnailURL"`
	DeepLink     string          `json:"deepLink"`
	InStock      bool            `json:"inStock"`
	Merchant     struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	} `json:"merchant"`
}

// GetRecommendations fetches up to five recommended products in the same
// price class. Failures return an empty slice together with the error;
// callers treat the call as best-effort.
func (c *Client) GetRecommendations(ctx context.Context, input RecommendationInput) ([]RecommendedProduct, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("sovrn api key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(recommendationRequest{
		Title:   orDefault(input.Name, "Product"),
		Content: recommendationContent(input),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Stable pageUrl so Sovrn can cache per product.
	pageURL := fmt.Sprintf("https://dropiq01.vercel.app/product/%s", input.ID)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("pageUrl", pageURL)
	params.Set("numProducts", "5")
	params.Set("market", c.market)
	params.Set("cuid", input.ID)
	if input.PriceINR != nil {
		min, max := priceBand(*input.PriceINR)
		params.Set("priceMin", strconv.Itoa(min))
		params.Set("priceMax", strconv.Itoa(max))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, RecommendationsURL+"?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sovrn returned status %d", resp.StatusCode)
	}

	var items []recommendationItem
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	recommendations := make([]RecommendedProduct, 0, len(items))
	for _, item := range items {
		recommendations = append(recommendations, transformRecommendation(item))
	}

	log.Debug().Int("count", len(recommendations)).Str("product", input.Name).Msg("fetched recommendations")
	return recommendations, nil
}

func transformRecommendation(item recommendationItem) RecommendedProduct {
	rec := RecommendedProduct{
		Name:     orDefault(item.Name, "Product"),
		Merchant: orDefault(item.Merchant.Name, "Unknown"),
		InStock:  item.InStock,
	}
	if usd, ok := rawNumber(item.SalePrice); ok {
		inr := math.Round(usd * USDToINR)
		rec.PriceINR = &inr
	}
	if img := orDefault(item.ImageURL, item.ThumbnailURL); img != "" {
		rec.ImageURL = &img
	}
	if item.DeepLink != "" {
		// deepLink is already an affiliate link.
		link := item.DeepLink
		rec.ProductURL = &link
		rec.AffiliateURL = &link
	}
	if id, ok := rawString(item.Merchant.ID); ok {
		rec.MerchantID = &id
	}
	return rec
}

// recommendationContent flattens product details into the free-text content
// field the recommendation API expects.
func recommendationContent(input RecommendationInput) string {
	parts := []string{}
	if input.Name != "" {
		parts = append(parts, input.Name)
	}
	if input.Category != "" {
		parts = append(parts, "Category: "+input.Category)
	}
	if input.PriceINR != nil {
		parts = append(parts, fmt.Sprintf("Price: ₹%.0f", *input.PriceINR))
	}
	if input.Description != "" {
		desc := input.Description
		if len(desc) > 100 {
			desc = desc[:100]
		}
		parts = append(parts, desc)
	}
	return strings.Join(parts, ". ")
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

// rawNumber parses a JSON value that merchants send as either a number or a
// numeric string.
func rawNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
