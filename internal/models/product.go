package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Retailer identifies one of the four product source tables.
type Retailer string

const (
	RetailerAmazon   Retailer = "Amazon"
	RetailerFlipkart Retailer = "Flipkart"
	RetailerSamsung  Retailer = "Samsung"
	RetailerSony     Retailer = "Sony"
)

// Retailers lists every retailer in fan-out order.
var Retailers = []Retailer{RetailerAmazon, RetailerFlipkart, RetailerSamsung, RetailerSony}

// ParseRetailer resolves a case-insensitive retailer name. Returns false for
// anything outside the four known retailers.
func ParseRetailer(s string) (Retailer, bool) {
	for _, r := range Retailers {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// TableName returns the backing table for the retailer.
func (r Retailer) TableName() string {
	return strings.ToLower(string(r)) + "_products"
}

// AvailabilityStatus enumerates product stock states.
type AvailabilityStatus string

const (
	AvailabilityInStock    AvailabilityStatus = "in_stock"
	AvailabilityOutOfStock AvailabilityStatus = "out_of_stock"
	AvailabilityArchived   AvailabilityStatus = "archived"
)

// Known product categories across all retailer tables.
const (
	CategoryHeadphones     = "headphones"
	CategoryEarbuds        = "earbuds"
	CategoryNeckbands      = "neckbands"
	CategoryWiredEarphones = "wired_earphones"
	CategoryRobotVacuums   = "robot_vacuums"
)

// Product is one row of a retailer table. The four tables share this shape;
// retailer-specific identifiers (ASIN vs product_id) both map to ExternalID.
type Product struct {
	ID               string             `db:"id" json:"id"`
	Name             string             `db:"product_name" json:"product_name"`
	Brand            *string            `db:"brand" json:"brand"`
	ExternalID       *string            `db:"external_id" json:"external_id,omitempty"`
	Category         string             `db:"category" json:"category"`
	PriceINR         *float64           `db:"price_inr" json:"price_inr"`
	Rating           *float64           `db:"rating" json:"rating"`
	ReviewsCount     *int               `db:"reviews_count" json:"reviews_count"`
	Description      *string            `db:"description" json:"description"`
	Features         json.RawMessage    `db:"features" json:"features,omitempty"`
	Reviews          json.RawMessage    `db:"reviews" json:"reviews,omitempty"`
	Specifications   json.RawMessage    `db:"specifications" json:"specifications,omitempty"`
	ImageURL         *string            `db:"image_url" json:"image_url"`
	ProductURL       *string            `db:"product_url" json:"product_url"`
	AffiliateURL     *string            `db:"affiliate_url" json:"affiliate_url"`
	Availability     AvailabilityStatus `db:"availability_status" json:"availability_status"`
	Recommendations  json.RawMessage    `db:"recommendations" json:"recommendations,omitempty"`
	PriceComparisons json.RawMessage    `db:"price_comparisons" json:"price_comparisons,omitempty"`
	IsDeleted        bool               `db:"is_deleted" json:"-"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	LastUpdated      time.Time          `db:"last_updated" json:"last_updated"`
}

// SearchResult is a product annotated with its source retailer. It only lives
// for the duration of one search request.
type SearchResult struct {
	Product
	RetailerName Retailer `db:"retailer_name" json:"retailer_name"`
}

// UpsertResult reports the outcome of a product upsert.
type UpsertResult struct {
	ID       string `db:"id"`
	Inserted bool   `db:"inserted"`
}

// Recommendation is one externally-sourced related product, cached on the
// product row after the first successful fetch.
type Recommendation struct {
	Name         string   `json:"name"`
	PriceINR     *float64 `json:"price_inr"`
	ImageURL     *string  `json:"image_url"`
	ProductURL   *string  `json:"product_url"`
	AffiliateURL *string  `json:"affiliate_url"`
	Merchant     string   `json:"merchant"`
	MerchantID   *string  `json:"merchant_id"`
	InStock      bool     `json:"in_stock"`
}

// PriceComparison is one merchant offer for a product, cheapest first.
type PriceComparison struct {
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
