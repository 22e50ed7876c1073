package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/pkg/apify"
	"github.com/dropiq/dropiq-api/pkg/browseai"
	"github.com/dropiq/dropiq-api/pkg/sovrn"
)

// IngestionService pulls scraped product payloads from the configured Apify
// datasets, normalizes them per retailer and upserts them into the retailer
// tables. Existing products are refreshed, new ones inserted.
type IngestionService struct {
	productRepo *repository.ProductRepository
	apify       *apify.Client
	browseai    *browseai.Client
	sovrn       *sovrn.Client
}

// NewIngestionService constructs an IngestionService.
func NewIngestionService(productRepo *repository.ProductRepository, apifyClient *apify.Client, browseaiClient *browseai.Client, sovrnClient *sovrn.Client) *IngestionService {
	return &IngestionService{productRepo: productRepo, apify: apifyClient, browseai: browseaiClient, sovrn: sovrnClient}
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Fetched  int
	Inserted int
	Updated  int
	Skipped  int
}

// Run ingests every configured source. A failing source contributes nothing
// but does not stop the others.
func (s *IngestionService) Run(ctx context.Context) (*IngestStats, error) {
	stats := &IngestStats{}
	for _, source := range s.apify.Sources() {
		items := s.apify.FetchSource(ctx, source)
		stats.Fetched += len(items)

		retailer, ok := models.ParseRetailer(source.Retailer)
		if !ok {
			log.Error().Str("retailer", source.Retailer).Msg("unknown ingestion retailer")
			continue
		}

		for _, item := range items {
			product := s.normalize(retailer, item)
			if product == nil {
				stats.Skipped++
				continue
			}
			result, err := s.productRepo.Upsert(ctx, retailer, product)
			if err != nil {
				log.Error().Err(err).Str("product", product.Name).Msg("upsert failed")
				stats.Skipped++
				continue
			}
			if result.Inserted {
				stats.Inserted++
			} else {
				stats.Updated++
			}
		}
	}

	log.Info().
		Int("fetched", stats.Fetched).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Msg("ingestion run completed")
	return stats, nil
}

func (s *IngestionService) normalize(retailer models.Retailer, raw json.RawMessage) *models.Product {
	switch retailer {
	case models.RetailerAmazon:
		return s.normalizeAmazon(raw)
	case models.RetailerFlipkart:
		return s.normalizeFlipkart(raw)
	}
	return nil
}

// amazonItem covers the field variants the Amazon scraper has been seen to
// emit across actor versions.
type amazonItem struct {
	Title                string          `json:"title"`
	Name                 string          `json:"name"`
	Brand                *string         `json:"brand"`
	ASIN                 *string         `json:"asin"`
	Category             string          `json:"category"`
	Price                json.RawMessage `json:"price"`
	DiscountedPrice      *float64        `json:"discountedPrice"`
	Stars                *float64        `json:"stars"`
	Rating               *float64        `json:"rating"`
	ReviewsCount         *int            `json:"reviewsCount"`
	Description          string          `json:"description"`
	Features             json.RawMessage `json:"features"`
	Reviews              json.RawMessage `json:"reviews"`
	Specifications       json.RawMessage `json:"specifications"`
	ThumbnailImage       string          `json:"thumbnailImage"`
	HighResolutionImages []string        `json:"highResolutionImages"`
	Thumbnail            string          `json:"thumbnail"`
	Image                string          `json:"image"`
	ImageURL             string          `json:"imageUrl"`
	URL                  string          `json:"url"`
	ProductURL           string          `json:"productUrl"`
	Availability         string          `json:"availability"`
}

func (s *IngestionService) normalizeAmazon(raw json.RawMessage) *models.Product {
	var item amazonItem
	if err := json.Unmarshal(raw, &item); err != nil {
		log.Warn().Err(err).Msg("unparseable amazon item")
		return nil
	}

	name := strings.TrimSpace(firstNonEmpty(item.Title, item.Name))
	if name == "" {
		return nil
	}

	p := &models.Product{
		Name:           name,
		Brand:          item.Brand,
		ExternalID:     item.ASIN,
		Category:       firstNonEmpty(item.Category, models.CategoryEarbuds),
		Rating:         coalesceFloat(item.Stars, item.Rating),
		ReviewsCount:   item.ReviewsCount,
		Features:       item.Features,
		Reviews:        item.Reviews,
		Specifications: item.Specifications,
		Availability:   models.AvailabilityStatus(firstNonEmpty(item.Availability, string(models.AvailabilityInStock))),
	}
	if item.Description != "" {
		p.Description = &item.Description
	}
	if price := amazonPrice(item); price > 0 {
		p.PriceINR = &price
	}
	if img := firstNonEmpty(item.ThumbnailImage, firstOf(item.HighResolutionImages), item.Thumbnail, item.Image, item.ImageURL); img != "" {
		p.ImageURL = &img
	}
	if u := firstNonEmpty(item.URL, item.ProductURL); u != "" {
		p.ProductURL = &u
	}

	s.attachAffiliateLink(p, models.RetailerAmazon)
	return p
}

// amazonPrice handles the price field arriving as either a bare number or an
// object with a value key.
func amazonPrice(item amazonItem) float64 {
	if len(item.Price) > 0 {
		var direct float64
		if err := json.Unmarshal(item.Price, &direct); err == nil {
			return direct
		}
		var wrapped struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(item.Price, &wrapped); err == nil {
			return wrapped.Value
		}
	}
	if item.DiscountedPrice != nil {
		return *item.DiscountedPrice
	}
	return 0
}

type flipkartItem struct {
	BaseURL     string `json:"baseUrl"`
	ProductData *struct {
		BaseURL string `json:"baseUrl"`
		Titles  *struct {
			Title      string `json:"title"`
			NewTitle   string `json:"newTitle"`
			SuperTitle string `json:"superTitle"`
		} `json:"titles"`
		Title        string          `json:"title"`
		ProductBrand string          `json:"productBrand"`
		ProductID    *string         `json:"productId"`
		Category     string          `json:"category"`
		Pricing      json.RawMessage `json:"pricing"`
		Rating       *struct {
			Average float64 `json:"average"`
			Count   int     `json:"count"`
		} `json:"rating"`
		Description    string          `json:"description"`
		KeySpecs       json.RawMessage `json:"keySpecs"`
		Specifications json.RawMessage `json:"specifications"`
		ImageURL       string          `json:"imageUrl"`
		Availability   string          `json:"availability"`
	} `json:"productData"`
}

func (s *IngestionService) normalizeFlipkart(raw json.RawMessage) *models.Product {
	var item flipkartItem
	if err := json.Unmarshal(raw, &item); err != nil || item.ProductData == nil {
		log.Warn().Msg("unparseable flipkart item")
		return nil
	}
	data := item.ProductData

	name := data.Title
	if data.Titles != nil {
		name = firstNonEmpty(data.Titles.Title, data.Titles.NewTitle, name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	p := &models.Product{
		Name:           name,
		ExternalID:     data.ProductID,
		Category:       firstNonEmpty(data.Category, models.CategoryEarbuds),
		Features:       data.KeySpecs,
		Specifications: data.Specifications,
		Availability:   models.AvailabilityStatus(firstNonEmpty(data.Availability, string(models.AvailabilityInStock))),
	}
	if brand := firstNonEmpty(superTitle(data.Titles), data.ProductBrand); brand != "" {
		p.Brand = &brand
	}
	if data.Rating != nil && data.Rating.Average > 0 {
		avg := data.Rating.Average
		count := data.Rating.Count
		p.Rating = &avg
		p.ReviewsCount = &count
	}
	if data.Description != "" {
		p.Description = &data.Description
	}
	if price := flipkartPrice(data.Pricing); price > 0 {
		p.PriceINR = &price
	}
	if data.ImageURL != "" {
		img := data.ImageURL
		p.ImageURL = &img
	}
	if u := flipkartURL(firstNonEmpty(item.BaseURL, data.BaseURL)); u != "" {
		p.ProductURL = &u
	}

	s.attachAffiliateLink(p, models.RetailerFlipkart)
	return p
}

func superTitle(t *struct {
	Title      string `json:"title"`
	NewTitle   string `json:"newTitle"`
	SuperTitle string `json:"superTitle"`
}) string {
	if t == nil {
		return ""
	}
	return t.SuperTitle
}

func flipkartPrice(pricing json.RawMessage) float64 {
	if len(pricing) == 0 {
		return 0
	}
	var parsed struct {
		FinalPrice struct {
			Value float64 `json:"value"`
		} `json:"finalPrice"`
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(pricing, &parsed); err != nil {
		return 0
	}
	if parsed.FinalPrice.Value > 0 {
		return parsed.FinalPrice.Value
	}
	return parsed.Price
}

func flipkartURL(base string) string {
	if base == "" {
		return ""
	}
	if strings.HasPrefix(base, "http") {
		return base
	}
	return "https://www.flipkart.com" + base
}

// attachAffiliateLink wraps the product URL with Sovrn tracking before the
// row is written.
func (s *IngestionService) attachAffiliateLink(p *models.Product, retailer models.Retailer) {
	if p.ProductURL == nil {
		return
	}
	cuid := strings.ToLower(string(retailer)) + "_" + p.Name
	if p.ExternalID != nil {
		cuid = strings.ToLower(string(retailer)) + "_" + *p.ExternalID
	}
	link := s.sovrn.AffiliateLink(*p.ProductURL, sovrn.LinkOptions{
		CUID:        cuid,
		UTMSource:   "dropiq_search",
		UTMMedium:   "product_listing",
		UTMCampaign: strings.ToLower(string(retailer)),
	})
	p.AffiliateURL = &link
}

// BrandProduct is one product scraped from a brand store (Samsung or Sony).
type BrandProduct struct {
	Name         string
	Category     string
	PriceINR     *float64
	Rating       *float64
	ReviewsCount *int
	Description  *string
	ImageURL     *string
	ProductURL   *string
	Availability models.AvailabilityStatus
}

// brandIDCounter assigns sequential product identifiers within a single
// ingestion run. Scoping the counter to the run keeps concurrent ingestions
// from interleaving identifier sequences.
type brandIDCounter struct {
	counts map[string]int
}

func newBrandIDCounter() *brandIDCounter {
	return &brandIDCounter{counts: make(map[string]int)}
}

var categoryCodes = map[string]string{
	models.CategoryEarbuds:        "1",
	models.CategoryHeadphones:     "2",
	models.CategoryNeckbands:      "3",
	models.CategoryWiredEarphones: "4",
	models.CategoryRobotVacuums:   "5",
}

func (c *brandIDCounter) next(brand, category string) string {
	code, ok := categoryCodes[category]
	if !ok {
		code = "1"
	}
	key := strings.ToLower(brand) + ":" + code
	c.counts[key]++
	return fmt.Sprintf("%s_%s_%02d", strings.ToLower(brand)[:3], code, c.counts[key])
}

// IngestBrandStore upserts brand-store products, with duplicate detection: a
// product already listed on Amazon or Flipkart updates that marketplace row
// instead of inserting into the brand table.
func (s *IngestionService) IngestBrandStore(ctx context.Context, retailer models.Retailer, products []BrandProduct) (*IngestStats, error) {
	if retailer != models.RetailerSamsung && retailer != models.RetailerSony {
		return nil, fmt.Errorf("not a brand store retailer: %s", retailer)
	}

	stats := &IngestStats{Fetched: len(products)}
	counter := newBrandIDCounter()

	for _, bp := range products {
		if bp.Name == "" {
			stats.Skipped++
			continue
		}

		match, err := s.productRepo.FindInRetailers(ctx, bp.Name)
		if err == nil {
			_, err := s.productRepo.UpdateWithBrandData(ctx, match.Retailer, bp.Name, &repository.BrandUpdate{
				PriceINR:     bp.PriceINR,
				Rating:       bp.Rating,
				ReviewsCount: bp.ReviewsCount,
				Description:  bp.Description,
				ImageURL:     bp.ImageURL,
			})
			if err != nil {
				log.Error().Err(err).Str("product", bp.Name).Msg("brand update failed")
				stats.Skipped++
				continue
			}
			stats.Updated++
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		brand := string(retailer)
		externalID := counter.next(brand, bp.Category)
		p := &models.Product{
			Name:         bp.Name,
			Brand:        &brand,
			ExternalID:   &externalID,
			Category:     bp.Category,
			PriceINR:     bp.PriceINR,
			Rating:       bp.Rating,
			ReviewsCount: bp.ReviewsCount,
			Description:  bp.Description,
			ImageURL:     bp.ImageURL,
			ProductURL:   bp.ProductURL,
			Availability: bp.Availability,
		}
		s.attachAffiliateLink(p, retailer)

		result, err := s.productRepo.Upsert(ctx, retailer, p)
		if err != nil {
			log.Error().Err(err).Str("product", bp.Name).Msg("brand upsert failed")
			stats.Skipped++
			continue
		}
		if result.Inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func coalesceFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
