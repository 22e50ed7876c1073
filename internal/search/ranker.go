package search

import (
	"math"
	"sort"
	"strings"

	"github.com/dropiq/dropiq-api/internal/models"
)

// Sort orders supported by the search endpoint.
const (
	SortByRating    = "rating"
	SortByPriceAsc  = "price_asc"
	SortByPriceDesc = "price_desc"
)

// Rank sorts the merged cross-table results in place.
//
// When the query produced detected brands, products are ordered by the index
// of the first detected brand their brand column matches; products matching
// no detected brand sort after all matching ones, by rating. Otherwise the
// explicit sortBy order applies.
func Rank(results []models.SearchResult, detectedBrands []string, sortBy string) {
	if len(detectedBrands) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			a, b := brandIndex(results[i], detectedBrands), brandIndex(results[j], detectedBrands)
			if a != b {
				if a < 0 {
					return false
				}
				if b < 0 {
					return true
				}
				return a < b
			}
			return ratingOrZero(results[i]) > ratingOrZero(results[j])
		})
		return
	}

	switch sortBy {
	case SortByPriceAsc:
		// Unpriced rows sort last.
		sort.SliceStable(results, func(i, j int) bool {
			return priceOr(results[i], math.Inf(1)) < priceOr(results[j], math.Inf(1))
		})
	case SortByPriceDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return priceOr(results[i], 0) > priceOr(results[j], 0)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return ratingOrZero(results[i]) > ratingOrZero(results[j])
		})
	}
}

// Paginate slices the sorted results. Pagination happens after the global
// re-rank, never inside the per-table queries.
func Paginate(results []models.SearchResult, offset, limit int) []models.SearchResult {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []models.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// brandIndex returns the position of the first detected brand contained in
// the product's brand column, or -1 when none matches.
func brandIndex(r models.SearchResult, detectedBrands []string) int {
	if r.Brand == nil {
		return -1
	}
	brand := strings.ToLower(*r.Brand)
	for i, detected := range detectedBrands {
		if strings.Contains(brand, strings.ToLower(detected)) {
			return i
		}
	}
	return -1
}

func ratingOrZero(r models.SearchResult) float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

func priceOr(r models.SearchResult, def float64) float64 {
	if r.PriceINR == nil {
		return def
	}
	return *r.PriceINR
}
