package sovrn

import (
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// RecommendationsURL is the AI product-recommendation endpoint.
	RecommendationsURL = "https://shopping-gallery.prd-commerce.sovrnservices.com/ai-orchestration/products"
	// ComparisonsBaseURL is the price-comparison API base URL.
	ComparisonsBaseURL = "https://comparisons.sovrn.com/api/affiliate/v3.5"

	// USDToINR is the approximate conversion rate applied to Sovrn prices.
	USDToINR = 83.0
)

// Config holds Sovrn Commerce credentials and knobs.
type Config struct {
	APIKey    string
	SecretKey string
	BidFloor  float64
	Market    string
}

// Client talks to the Sovrn Commerce APIs: affiliate link wrapping,
// product recommendations and cross-merchant price comparisons.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	secretKey  string
	bidFloor   float64
	market     string
}

// NewClient constructs a Sovrn client. Batch enrichment paths share a rate
// limiter of 5 requests per second to stay under Sovrn's limits.
func NewClient(cfg Config) *Client {
	market := cfg.Market
	if market == "" {
		market = "usd_en"
	}
	bidFloor := cfg.BidFloor
	if bidFloor <= 0 {
		bidFloor = 0.10
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		bidFloor:   bidFloor,
		market:     market,
	}
}

// Configured reports whether the client can call the recommendation API.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ComparisonsConfigured reports whether the price-comparison API is usable;
// it needs the secret key on top of the site key.
func (c *Client) ComparisonsConfigured() bool {
	return c.apiKey != "" && c.secretKey != ""
}

// priceBand computes the ±30% USD price band around an INR price, used to
// keep recommendations and comparisons in the same price class.
func priceBand(priceINR float64) (min, max int) {
	priceUSD := priceINR / USDToINR
	min = int(math.Floor(priceUSD * 0.7))
	max = int(math.Ceil(priceUSD * 1.3))
	return min, max
}
