package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dropiq/dropiq-api/internal/search"
	"github.com/dropiq/dropiq-api/internal/service"
	"github.com/dropiq/dropiq-api/internal/utils"
)

// SearchHandler handles product search and search-history endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles GET /api/products/search.
func (h *SearchHandler) Search(c *gin.Context) {
	filters := search.Filters{
		SearchTerm: c.Query("q"),
		Category:   c.Query("category"),
		Retailer:   c.Query("retailer"),
		SortBy:     c.DefaultQuery("sortBy", search.SortByRating),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}
	if v := c.Query("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MinPrice = &f
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MaxPrice = &f
		}
	}

	products, query, err := h.searchService.Search(c.Request.Context(), filters)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "Failed to search products", err.Error())
		return
	}

	utils.OK(c, http.StatusOK, gin.H{
		"count":    len(products),
		"filters":  query.Filters,
		"products": products,
	})
}

// SearchHistory handles GET /api/products/search-history.
func (h *SearchHandler) SearchHistory(c *gin.Context) {
	history, err := h.searchService.RecentSearches(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "Failed to fetch search history", err.Error())
		return
	}
	utils.OK(c, http.StatusOK, gin.H{
		"count":   len(history),
		"history": history,
	})
}

// PopularSearches handles GET /api/products/popular-searches.
func (h *SearchHandler) PopularSearches(c *gin.Context) {
	popular, err := h.searchService.PopularSearches(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "Failed to fetch popular searches", err.Error())
		return
	}
	utils.OK(c, http.StatusOK, gin.H{
		"count":    len(popular),
		"searches": popular,
	})
}

// ClearSearchHistory handles DELETE /api/products/search-history.
func (h *SearchHandler) ClearSearchHistory(c *gin.Context) {
	if err := h.searchService.ClearHistory(c.Request.Context()); err != nil {
		utils.Error(c, http.StatusInternalServerError, "Failed to clear search history", err.Error())
		return
	}
	utils.OK(c, http.StatusOK, gin.H{
		"message": "Search history cleared",
	})
}

// FrequentSearches handles GET /api/products/frequent-searches.
func (h *SearchHandler) FrequentSearches(c *gin.Context) {
	utils.OK(c, http.StatusOK, gin.H{
		"searches": h.searchService.FrequentSearches(),
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
