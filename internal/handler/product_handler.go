package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/internal/utils"
)

// ProductHandler handles single-product lookups.
type ProductHandler struct {
	productRepo *repository.ProductRepository
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productRepo *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

// GetProduct handles GET /api/products/:id — Amazon first, then Flipkart.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.Error(c, http.StatusNotFound, "Product not found", "")
			return
		}
		utils.Error(c, http.StatusInternalServerError, "Failed to fetch product", err.Error())
		return
	}
	utils.OK(c, http.StatusOK, gin.H{
		"product": product,
	})
}

// parseRetailerParam validates the retailer query parameter before any
// repository call runs. Invalid retailers are rejected synchronously.
func parseRetailerParam(c *gin.Context) (models.Retailer, bool) {
	retailer, ok := models.ParseRetailer(c.Query("retailer"))
	if !ok {
		utils.Error(c, http.StatusBadRequest, "Invalid retailer. Must be: amazon, flipkart, samsung, or sony", "")
		return "", false
	}
	return retailer, true
}
