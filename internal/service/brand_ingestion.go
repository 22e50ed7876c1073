package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/pkg/browseai"
)

var (
	priceRe  = regexp.MustCompile(`[\d,]+\.?\d*`)
	ratingRe = regexp.MustCompile(`[\d.]+`)
	countRe  = regexp.MustCompile(`[\d,]+`)

	blockPriceRe  = regexp.MustCompile(`(?:Total Price|MRP):\s*₹([\d,]+\.?\d*)`)
	blockRatingRe = regexp.MustCompile(`Product Ratings\s*:\s*([\d.]+)`)
	blockCountRe  = regexp.MustCompile(`Number of Ratings\s*:\s*([\d,]+)`)
	blockColourRe = regexp.MustCompile(`Colour\s*:\s*([^\n]+)`)

	slugRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// IngestBrandStores pulls every configured brand storefront from Browse.ai
// and ingests it. A failing store logs and is skipped so the others still
// run.
func (s *IngestionService) IngestBrandStores(ctx context.Context) (*IngestStats, error) {
	if s.browseai == nil || !s.browseai.Configured() {
		return nil, fmt.Errorf("browseai not configured")
	}

	total := &IngestStats{}
	for _, store := range s.browseai.Stores() {
		retailer, ok := models.ParseRetailer(store.Retailer)
		if !ok {
			log.Error().Str("retailer", store.Retailer).Msg("unknown brand store retailer")
			continue
		}

		task, err := s.browseai.FetchTask(ctx, store)
		if err != nil {
			log.Error().Err(err).Str("store", store.Name).Msg("failed to fetch brand store")
			continue
		}

		products := make([]BrandProduct, 0, len(task.Items))
		for _, item := range task.Items {
			if bp := normalizeBrandItem(retailer, item); bp != nil {
				products = append(products, *bp)
			}
		}
		if len(products) == 0 && task.Text != "" {
			products = parseBrandText(retailer, task.Text)
		}

		stats, err := s.IngestBrandStore(ctx, retailer, products)
		if err != nil {
			log.Error().Err(err).Str("store", store.Name).Msg("brand store ingestion failed")
			continue
		}
		total.Fetched += stats.Fetched
		total.Inserted += stats.Inserted
		total.Updated += stats.Updated
		total.Skipped += stats.Skipped
	}

	log.Info().
		Int("fetched", total.Fetched).
		Int("inserted", total.Inserted).
		Int("updated", total.Updated).
		Int("skipped", total.Skipped).
		Msg("brand store ingestion completed")
	return total, nil
}

// normalizeBrandItem maps one captured list row to a BrandProduct. Column
// names vary per robot, so fields are matched against the variants seen so
// far.
func normalizeBrandItem(retailer models.Retailer, item browseai.Item) *BrandProduct {
	name := item.Field("Product Name-4", "Product Name", "product name", "name", "title")
	if name == "" {
		return nil
	}

	bp := &BrandProduct{Name: name, Availability: models.AvailabilityInStock}

	price := parsePrice(item.Field("Original Price", "MRP", "Price-4", "Price", "Total Price", "price"))
	if price == nil {
		// "Current Price" sometimes carries discount banners like "Save ₹2,000".
		if v := item.Field("Current Price"); v != "" && !strings.Contains(v, "Save") {
			price = parsePrice(v)
		}
	}
	bp.PriceINR = price

	if v := item.Field("Product Ratings", "Rating", "rating"); v != "" {
		if m := ratingRe.FindString(v); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				bp.Rating = &f
			}
		}
	}
	if v := item.Field("Number of Ratings", "Reviews", "reviews"); v != "" {
		if m := countRe.FindString(v); m != "" {
			if n, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil {
				bp.ReviewsCount = &n
			}
		}
	}
	if v := item.Field("Color", "Colour", "color"); v != "" {
		desc := "Available in: " + v
		bp.Description = &desc
	}
	for i := 1; i <= 6; i++ {
		if v := item.Field(fmt.Sprintf("Product Image %d", i), fmt.Sprintf("Image %d", i)); v != "" {
			bp.ImageURL = &v
			break
		}
	}

	url := item.Field("Product Link", "product link", "URL")
	if url == "" {
		url = brandProductURL(retailer, name)
	}
	bp.ProductURL = &url

	bp.Category = categoryFromName(name, "")
	return bp
}

// parseBrandText recovers products from a legacy text capture: the page dump
// is a run of "Quick Look" blocks, one per product card.
func parseBrandText(retailer models.Retailer, text string) []BrandProduct {
	var products []BrandProduct
	blocks := strings.Split(text, "Quick Look\n")
	for _, block := range blocks[1:] {
		if len(strings.TrimSpace(block)) < 20 {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(block, "\n", 2)[0])
		if i := strings.Index(name, "Colour"); i > 0 {
			name = strings.TrimSpace(name[:i])
		}
		if name == "" {
			continue
		}

		bp := BrandProduct{
			Name:         name,
			Category:     categoryFromName(name, ""),
			Availability: models.AvailabilityInStock,
		}
		if m := blockPriceRe.FindStringSubmatch(block); m != nil {
			bp.PriceINR = parsePrice(m[1])
		}
		if m := blockRatingRe.FindStringSubmatch(block); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				bp.Rating = &f
			}
		}
		if m := blockCountRe.FindStringSubmatch(block); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				bp.ReviewsCount = &n
			}
		}
		if m := blockColourRe.FindStringSubmatch(block); m != nil {
			desc := "Available in: " + strings.TrimSpace(m[1])
			bp.Description = &desc
		}
		if strings.Contains(block, "Notify me") {
			bp.Availability = models.AvailabilityOutOfStock
		}
		url := brandProductURL(retailer, name)
		bp.ProductURL = &url
		products = append(products, bp)
	}
	return products
}

func parsePrice(v string) *float64 {
	m := priceRe.FindString(v)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

// categoryFromName infers the category from the product name. The storefronts
// mostly list audio wearables, so earbuds is the fallback.
func categoryFromName(name, description string) string {
	text := strings.ToLower(name + " " + description)
	switch {
	case strings.Contains(text, "robot") && strings.Contains(text, "vacuum"):
		return models.CategoryRobotVacuums
	case strings.Contains(text, "neckband"):
		return models.CategoryNeckbands
	case strings.Contains(text, "earbud") || strings.Contains(text, "ear bud") || strings.Contains(text, "buds"):
		return models.CategoryEarbuds
	case strings.Contains(text, "wired") && (strings.Contains(text, "earphone") || strings.Contains(text, "headphone")):
		return models.CategoryWiredEarphones
	case strings.Contains(text, "headphone") || strings.Contains(text, "headset"):
		return models.CategoryHeadphones
	}
	return models.CategoryEarbuds
}

// brandProductURL reconstructs a storefront URL for rows scraped without one.
func brandProductURL(retailer models.Retailer, name string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	switch retailer {
	case models.RetailerSamsung:
		section := "others"
		if strings.Contains(strings.ToLower(name), "galaxy buds") {
			section = "galaxy-buds"
		}
		return fmt.Sprintf("https://www.samsung.com/in/audio-sound/%s/%s/", section, slug)
	case models.RetailerSony:
		return "https://www.sony.co.in/electronics/" + slug
	}
	return ""
}
