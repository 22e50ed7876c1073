package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dropiq/dropiq-api/internal/service"
	"github.com/dropiq/dropiq-api/internal/utils"
)

// EnrichmentHandler serves lazily-cached recommendations and price
// comparisons for one product.
type EnrichmentHandler struct {
	enrichmentService *service.EnrichmentService
}

// NewEnrichmentHandler constructs an EnrichmentHandler.
func NewEnrichmentHandler(enrichmentService *service.EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{enrichmentService: enrichmentService}
}

// GetRecommendations handles GET /api/products/:id/recommendations. The
// owning retailer table is named via the retailer query parameter.
func (h *EnrichmentHandler) GetRecommendations(c *gin.Context) {
	retailer, ok := parseRetailerParam(c)
	if !ok {
		return
	}

	result, err := h.enrichmentService.Recommendations(c.Request.Context(), retailer, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.Error(c, http.StatusNotFound, "Product not found", "")
			return
		}
		utils.Error(c, http.StatusInternalServerError, "Failed to fetch recommendations", err.Error())
		return
	}

	utils.OK(c, http.StatusOK, gin.H{
		"product_id":      result.ProductID,
		"product_name":    result.ProductName,
		"recommendations": result.Items,
		"cached":          result.Cached,
	})
}

// GetPriceComparisons handles GET /api/products/:id/price-comparisons.
func (h *EnrichmentHandler) GetPriceComparisons(c *gin.Context) {
	retailer, ok := parseRetailerParam(c)
	if !ok {
		return
	}

	result, err := h.enrichmentService.PriceComparisons(c.Request.Context(), retailer, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.Error(c, http.StatusNotFound, "Product not found", "")
			return
		}
		utils.Error(c, http.StatusInternalServerError, "Failed to fetch price comparisons", err.Error())
		return
	}

	utils.OK(c, http.StatusOK, gin.H{
		"product_id":   result.ProductID,
		"product_name": result.ProductName,
		"comparisons":  result.Items,
		"cached":       result.Cached,
	})
}
