package sovrn

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffiliateLink(t *testing.T) {
	c := NewClient(Config{APIKey: "site-key"})

	link := c.AffiliateLink("https://www.amazon.in/dp/B0TEST", LinkOptions{
		CUID:        "amazon_B0TEST",
		UTMSource:   "dropiq_search",
		UTMMedium:   "product_listing",
		UTMCampaign: "amazon",
	})

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "sovrn.co", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, "site-key", q.Get("key"))
	assert.Equal(t, "https://www.amazon.in/dp/B0TEST", q.Get("u"))
	assert.Equal(t, "https://www.amazon.in/dp/B0TEST", q.Get("fbu"))
	assert.Equal(t, "0.1", q.Get("bf"))
	assert.Equal(t, "amazon_B0TEST", q.Get("cuid"))
	assert.Equal(t, "dropiq_search", q.Get("utm_source"))
	assert.Equal(t, "product_listing", q.Get("utm_medium"))
	assert.Equal(t, "amazon", q.Get("utm_campaign"))
}

func TestAffiliateLinkWithoutOptionalParams(t *testing.T) {
	c := NewClient(Config{APIKey: "site-key"})

	link := c.AffiliateLink("https://www.flipkart.com/p/item", LinkOptions{})

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Empty(t, q.Get("cuid"))
	assert.Empty(t, q.Get("utm_source"))
	assert.Equal(t, "https://www.flipkart.com/p/item", q.Get("u"))
}

func TestAffiliateLinkUnconfiguredReturnsOriginal(t *testing.T) {
	c := NewClient(Config{})

	original := "https://www.amazon.in/dp/B0TEST"
	assert.Equal(t, original, c.AffiliateLink(original, LinkOptions{CUID: "x"}))
}

func TestAffiliateLinkEmptyDestination(t *testing.T) {
	c := NewClient(Config{APIKey: "site-key"})

	assert.Equal(t, "", c.AffiliateLink("", LinkOptions{}))
	assert.Equal(t, "   ", c.AffiliateLink("   ", LinkOptions{}))
}

func TestCleanProductName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"strips bracketed text",
			"boAt Airdopes 161 (Spirit Lime) [2023 Edition]",
			"boAt Airdopes 161",
		},
		{
			"keeps first eight words",
			"Sony WH-1000XM5 Wireless Industry Leading Noise Canceling Headphones with Auto Optimizer",
			"Sony WH-1000XM5 Wireless Industry Leading Noise Canceling Headphones",
		},
		{"short name unchanged", "Galaxy Buds FE", "Galaxy Buds FE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanProductName(tt.input))
		})
	}
}

func TestPriceBand(t *testing.T) {
	// 8300 INR is 100 USD at the fixed conversion rate.
	min, max := priceBand(8300)
	assert.Equal(t, 70, min)
	assert.Equal(t, 130, max)

	min, max = priceBand(999)
	assert.Equal(t, 8, min)
	assert.Equal(t, 16, max)
}

func TestTransformOfferFallbackChains(t *testing.T) {
	item := comparisonItem{
		Title:     "Fallback Title",
		SalePrice: 49.99,
		Deeplink:  "https://redirect.viglink.com/offer",
		Image:     "https://img.example/x.jpg",
	}
	item.Merchant.Name = "BestBuy"

	offer := transformOffer(item, "Original Name")

	assert.Equal(t, "BestBuy", offer.Merchant)
	assert.Equal(t, "Fallback Title", offer.Name)
	assert.Equal(t, 49.99, offer.PriceUSD)
	assert.Equal(t, float64(4149), offer.PriceINR)
	assert.Equal(t, "https://redirect.viglink.com/offer", offer.ProductURL)
	assert.Equal(t, offer.ProductURL, offer.AffiliateURL)
	assert.Equal(t, "unknown", offer.Availability)
	assert.Equal(t, "new", offer.Condition)
	assert.Equal(t, 49.99, offer.RetailPrice)
}
