package sovrn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ComparisonInput describes the product to compare prices for.
type ComparisonInput struct {
	Name     string
	PriceINR *float64
}

// MerchantOffer is one merchant's price for a product, in both currencies.
type MerchantOffer struct {
	Merchant     string  `json:"merchant"`
	Name         string  `json:"name"`
	PriceUSD     float64 `json:"price_usd"`
	PriceINR     float64 `json:"price_inr"`
	ImageURL     string  `json:"image_url"`
	ProductURL   string  `json:"product_url"`
	AffiliateURL string  `json:"affiliate_url"`
	Availability string  `json:"availability"`
	Condition    string  `json:"condition"`
	DiscountRate float64 `json:"discount_rate"`
	RetailPrice  float64 `json:"retail_price"`
	EPC          float64 `json:"epc"`
}

type comparisonItem struct {
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	ProductName  string  `json:"productName"`
	SalePrice    float64 `json:"salePrice"`
	RetailPrice  float64 `json:"retailPrice"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	ImageURL     string  `json:"imageUrl"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Thumbnail    string  `json:"thumbnail"`
	Deeplink     string  `json:"deeplink"`
	URL          string  `json:"url"`
	Link         string  `json:"link"`
	ProductURL   string  `json:"productUrl"`
	Availability string  `json:"availability"`
	Affiliatable bool    `json:"affiliatable"`
	Condition    string  `json:"condition"`
	DiscountRate float64 `json:"discountRate"`
	EPC          float64 `json:"epc"`
	MerchantName string  `json:"merchantName"`
	Seller       string  `json:"seller"`
	Merchant     struct {
		Name string `json:"name"`
	} `json:"merchant"`
}

type comparisonEnvelope struct {
	Products []comparisonItem `json:"products"`
}

var bracketedText = regexp.MustCompile(`\(.*?\)|\[.*?\]`)

// GetPriceComparisons fetches cross-merchant offers for a product by keyword
// search and returns them cheapest first. The product name is required; URLs
// of Indian retailers cannot be matched directly by the comparison API.
func (c *Client) GetPriceComparisons(ctx context.Context, input ComparisonInput) ([]MerchantOffer, error) {
	if !c.ComparisonsConfigured() {
		return nil, fmt.Errorf("sovrn secret key not configured")
	}
	if input.Name == "" {
		return nil, fmt.Errorf("product name required for price comparison")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sites/%s/compare/prices/%s/by/accuracy", ComparisonsBaseURL, c.apiKey, c.market)

	params := url.Values{}
	params.Set("limit", "10")
	params.Set("epc-sort", "true")
	params.Set("search-keywords", cleanProductName(input.Name))
	if input.PriceINR != nil {
		min, max := priceBand(*input.PriceINR)
		params.Set("price-range", fmt.Sprintf("%d-%d", min, max))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "secret "+c.secretKey)
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

	// The API answers with either a bare array or a {products: [...]} wrapper.
	var items []comparisonItem
	if err := json.Unmarshal(respBody, &items); err != nil {
		var envelope comparisonEnvelope
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		items = envelope.Products
	}

	offers := make([]MerchantOffer, 0, len(items))
	for _, item := range items {
		offers = append(offers, transformOffer(item, input.Name))
	}
	sort.SliceStable(offers, func(i, j int) bool { return offers[i].PriceINR < offers[j].PriceINR })
	return offers, nil
}

func transformOffer(item comparisonItem, fallbackName string) MerchantOffer {
	priceUSD := firstNonZero(item.SalePrice, item.RetailPrice, item.Price)
	productURL := firstNonEmpty(item.Deeplink, item.URL, item.Link, item.ProductURL)

	availability := item.Availability
	if availability == "" {
		if item.Affiliatable {
			availability = "in_stock"
		} else {
			availability = "unknown"
		}
	}

	retail := item.RetailPrice
	if retail == 0 {
		retail = priceUSD
	}

	return MerchantOffer{
		Merchant:     firstNonEmpty(item.Merchant.Name, item.MerchantName, item.Seller, "Unknown"),
		Name:         firstNonEmpty(item.Name, item.Title, item.ProductName, fallbackName),
		PriceUSD:     priceUSD,
		PriceINR:     math.Round(priceUSD * USDToINR),
		ImageURL:     firstNonEmpty(item.Image, item.ImageURL, item.ThumbnailURL, item.Thumbnail),
		ProductURL:   productURL,
		AffiliateURL: productURL, // deeplink already carries tracking
		Availability: availability,
		Condition:    firstNonEmpty(item.Condition, "new"),
		DiscountRate: item.DiscountRate,
		RetailPrice:  retail,
		EPC:          item.EPC,
	}
}

// cleanProductName strips bracketed marketing text and keeps the first eight
// words for better cross-merchant keyword matching.
func cleanProductName(name string) string {
	cleaned := bracketedText.ReplaceAllString(name, "")
	words := strings.Fields(cleaned)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
