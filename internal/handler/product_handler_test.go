package handler

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/internal/service"
	"github.com/dropiq/dropiq-api/pkg/sovrn"
)

func newProductRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")

	productRepo := repository.NewProductRepository(sqlxDB)
	enrichmentSvc := service.NewEnrichmentService(productRepo, sovrn.NewClient(sovrn.Config{}))

	productHandler := NewProductHandler(productRepo)
	enrichmentHandler := NewEnrichmentHandler(enrichmentSvc)

	router := gin.New()
	products := router.Group("/api/products")
	products.GET("/:id", productHandler.GetProduct)
	products.GET("/:id/recommendations", enrichmentHandler.GetRecommendations)
	products.GET("/:id/price-comparisons", enrichmentHandler.GetPriceComparisons)

	return router, mock, func() { db.Close() }
}

func TestProductHandler_GetProduct(t *testing.T) {
	router, mock, closeDB := newProductRouter(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"id", "product_name", "category", "retailer_name"}).
		AddRow("az-1", "Echo Buds", "earbuds", "Amazon")
	mock.ExpectQuery(`FROM amazon_products p WHERE p\.id = \$1`).
		WithArgs("az-1").
		WillReturnRows(rows)

	w := doRequest(router, http.MethodGet, "/api/products/az-1")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	product, ok := body["product"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Echo Buds", product["product_name"])
	assert.Equal(t, "Amazon", product["retailer_name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	router, mock, closeDB := newProductRouter(t)
	defer closeDB()

	mock.ExpectQuery(`FROM amazon_products p`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM flipkart_products p`).WillReturnError(sql.ErrNoRows)

	w := doRequest(router, http.MethodGet, "/api/products/missing")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Product not found", body["error"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrichmentHandler_InvalidRetailer(t *testing.T) {
	router, mock, closeDB := newProductRouter(t)
	defer closeDB()

	for _, path := range []string{
		"/api/products/az-1/recommendations?retailer=walmart",
		"/api/products/az-1/recommendations",
		"/api/products/az-1/price-comparisons?retailer=walmart",
	} {
		w := doRequest(router, http.MethodGet, path)

		require.Equal(t, http.StatusBadRequest, w.Code, path)
		body := decodeBody(t, w)
		assert.Equal(t, "Invalid retailer. Must be: amazon, flipkart, samsung, or sony", body["error"])
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrichmentHandler_ProductNotFound(t *testing.T) {
	router, mock, closeDB := newProductRouter(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT \* FROM sony_products WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	w := doRequest(router, http.MethodGet, "/api/products/missing/recommendations?retailer=sony")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Product not found", body["error"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrichmentHandler_ServesCachedRecommendations(t *testing.T) {
	router, mock, closeDB := newProductRouter(t)
	defer closeDB()

	cached := `[{"name":"WH-1000XM5","merchant":"Sony"}]`
	rows := sqlmock.NewRows([]string{"id", "product_name", "category", "recommendations"}).
		AddRow("sn-1", "WF-1000XM5", "earbuds", []byte(cached))
	mock.ExpectQuery(`SELECT \* FROM sony_products WHERE id = \$1`).
		WithArgs("sn-1").
		WillReturnRows(rows)

	w := doRequest(router, http.MethodGet, "/api/products/sn-1/recommendations?retailer=sony")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "WF-1000XM5", body["product_name"])

	recommendations, ok := body["recommendations"].([]any)
	require.True(t, ok)
	require.Len(t, recommendations, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}
