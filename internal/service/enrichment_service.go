package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/pkg/sovrn"
)

// EnrichmentService resolves recommendations and price comparisons for a
// product: cached values come straight off the row, otherwise the Sovrn API
// is called and the result written back so repeat requests stay local.
type EnrichmentService struct {
	productRepo *repository.ProductRepository
	sovrn       *sovrn.Client
}

// NewEnrichmentService constructs an EnrichmentService.
func NewEnrichmentService(productRepo *repository.ProductRepository, sovrnClient *sovrn.Client) *EnrichmentService {
	return &EnrichmentService{productRepo: productRepo, sovrn: sovrnClient}
}

// EnrichmentResult carries a resolved enrichment payload plus whether it came
// from the product row cache.
type EnrichmentResult struct {
	ProductID   string
	ProductName string
	Items       json.RawMessage
	Cached      bool
}

// Recommendations returns the cached recommendations for a product or fetches
// and caches them on first request.
func (s *EnrichmentService) Recommendations(ctx context.Context, retailer models.Retailer, id string) (*EnrichmentResult, error) {
	product, err := s.productRepo.GetByID(ctx, retailer, id)
	if err != nil {
		return nil, err
	}

	if cached, ok := cachedList(product.Recommendations); ok {
		return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: cached, Cached: true}, nil
	}

	input := sovrn.RecommendationInput{
		ID:       id,
		Name:     product.Name,
		Category: product.Category,
		PriceINR: product.PriceINR,
	}
	if product.Description != nil {
		input.Description = *product.Description
	}

	recommendations, err := s.sovrn.GetRecommendations(ctx, input)
	if err != nil {
		log.Warn().Err(err).Str("product", product.Name).Msg("recommendation fetch failed")
		return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: emptyList}, nil
	}
	if len(recommendations) == 0 {
		return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: emptyList}, nil
	}

	payload, err := json.Marshal(recommendations)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.SetRecommendations(ctx, retailer, id, payload); err != nil {
		// The fetch succeeded; losing the write-back only costs a refetch.
		log.Error().Err(err).Str("id", id).Msg("failed to cache recommendations")
	}

	return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: payload}, nil
}

// PriceComparisons returns the cached merchant offers for a product or
// fetches and caches them on first request.
func (s *EnrichmentService) PriceComparisons(ctx context.Context, retailer models.Retailer, id string) (*EnrichmentResult, error) {
	product, err := s.productRepo.GetByID(ctx, retailer, id)
	if err != nil {
		return nil, err
	}

	if cached, ok := cachedList(product.PriceComparisons); ok {
		return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: cached, Cached: true}, nil
	}

	comparisons, err := s.sovrn.GetPriceComparisons(ctx, sovrn.ComparisonInput{
		Name:     product.Name,
		PriceINR: product.PriceINR,
	})
	if err != nil {
		return nil, err
	}
	if len(comparisons) == 0 {
		return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: emptyList}, nil
	}

	payload, err := json.Marshal(comparisons)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.SetPriceComparisons(ctx, retailer, id, payload); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to cache price comparisons")
	}

	return &EnrichmentResult{ProductID: id, ProductName: product.Name, Items: payload}, nil
}

var emptyList = json.RawMessage("[]")

// cachedList reports whether a jsonb column already holds a non-empty array.
func cachedList(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return raw, true
}
