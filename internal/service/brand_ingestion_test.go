package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/pkg/browseai"
	"github.com/dropiq/dropiq-api/pkg/sovrn"
)

func TestNormalizeBrandItemSamsung(t *testing.T) {
	item := browseai.Item{
		"Product Name":      "Galaxy Buds3 Pro",
		"Original Price":    "₹24,999.00",
		"Product Ratings":   "4.6 out of 5",
		"Number of Ratings": "1,234",
		"Colour":            "Silver",
		"Product Image 2":   "https://img.samsung.com/buds3.jpg",
	}

	bp := normalizeBrandItem(models.RetailerSamsung, item)

	require.NotNil(t, bp)
	assert.Equal(t, "Galaxy Buds3 Pro", bp.Name)
	assert.Equal(t, models.CategoryEarbuds, bp.Category)
	require.NotNil(t, bp.PriceINR)
	assert.Equal(t, 24999.0, *bp.PriceINR)
	require.NotNil(t, bp.Rating)
	assert.Equal(t, 4.6, *bp.Rating)
	require.NotNil(t, bp.ReviewsCount)
	assert.Equal(t, 1234, *bp.ReviewsCount)
	require.NotNil(t, bp.Description)
	assert.Equal(t, "Available in: Silver", *bp.Description)
	require.NotNil(t, bp.ImageURL)
	assert.Equal(t, "https://img.samsung.com/buds3.jpg", *bp.ImageURL)
	require.NotNil(t, bp.ProductURL)
	assert.Equal(t, "https://www.samsung.com/in/audio-sound/galaxy-buds/galaxy-buds3-pro/", *bp.ProductURL)
	assert.Equal(t, models.AvailabilityInStock, bp.Availability)
}

func TestNormalizeBrandItemSonyColumns(t *testing.T) {
	item := browseai.Item{
		"Product Name-4": "WH-1000XM5 Wireless Headphones",
		"Price-4":        "29,990",
		"Product Link":   "https://www.sony.co.in/electronics/headband-headphones/wh-1000xm5",
	}

	bp := normalizeBrandItem(models.RetailerSony, item)

	require.NotNil(t, bp)
	assert.Equal(t, "WH-1000XM5 Wireless Headphones", bp.Name)
	assert.Equal(t, models.CategoryHeadphones, bp.Category)
	require.NotNil(t, bp.PriceINR)
	assert.Equal(t, 29990.0, *bp.PriceINR)
	assert.Equal(t, "https://www.sony.co.in/electronics/headband-headphones/wh-1000xm5", *bp.ProductURL)
}

func TestNormalizeBrandItemCurrentPrice(t *testing.T) {
	bp := normalizeBrandItem(models.RetailerSamsung, browseai.Item{
		"Product Name":  "Galaxy Buds FE",
		"Current Price": "₹4,999",
	})
	require.NotNil(t, bp)
	require.NotNil(t, bp.PriceINR)
	assert.Equal(t, 4999.0, *bp.PriceINR)

	// discount banners in the price column are not prices
	bp = normalizeBrandItem(models.RetailerSamsung, browseai.Item{
		"Product Name":  "Galaxy Buds FE",
		"Current Price": "Save ₹2,000",
	})
	require.NotNil(t, bp)
	assert.Nil(t, bp.PriceINR)
}

func TestNormalizeBrandItemWithoutName(t *testing.T) {
	assert.Nil(t, normalizeBrandItem(models.RetailerSony, browseai.Item{"Price": "999"}))
}

func TestParseBrandText(t *testing.T) {
	text := "Quick Look\nWF-1000XM5\nProduct Ratings : 4.7\nNumber of Ratings : 2,345\nTotal Price: ₹24,990.00\nColour : Black\n" +
		"Quick Look\nLinkBuds S\nMRP: ₹16,990.00\nNotify me\n"

	products := parseBrandText(models.RetailerSony, text)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "WF-1000XM5", first.Name)
	require.NotNil(t, first.PriceINR)
	assert.Equal(t, 24990.0, *first.PriceINR)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.7, *first.Rating)
	require.NotNil(t, first.ReviewsCount)
	assert.Equal(t, 2345, *first.ReviewsCount)
	require.NotNil(t, first.Description)
	assert.Equal(t, "Available in: Black", *first.Description)
	assert.Equal(t, models.AvailabilityInStock, first.Availability)
	require.NotNil(t, first.ProductURL)
	assert.Equal(t, "https://www.sony.co.in/electronics/wf-1000xm5", *first.ProductURL)

	second := products[1]
	assert.Equal(t, "LinkBuds S", second.Name)
	require.NotNil(t, second.PriceINR)
	assert.Equal(t, 16990.0, *second.PriceINR)
	assert.Equal(t, models.AvailabilityOutOfStock, second.Availability)
}

func TestCategoryFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Bespoke Jet Bot AI Robot Vacuum", models.CategoryRobotVacuums},
		{"WI-C100 Bluetooth Neckband", models.CategoryNeckbands},
		{"Galaxy Buds FE", models.CategoryEarbuds},
		{"Wired Earphones with Mic", models.CategoryWiredEarphones},
		{"WH-CH520 Headphones", models.CategoryHeadphones},
		{"INZONE Gaming Headset", models.CategoryHeadphones},
		{"WF-C510", models.CategoryEarbuds},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categoryFromName(tt.name, ""), tt.name)
	}
}

func TestBrandProductURL(t *testing.T) {
	assert.Equal(t,
		"https://www.samsung.com/in/audio-sound/galaxy-buds/galaxy-buds3-pro/",
		brandProductURL(models.RetailerSamsung, "Galaxy Buds3 Pro"))
	assert.Equal(t,
		"https://www.samsung.com/in/audio-sound/others/sound-tower-mx-st40b/",
		brandProductURL(models.RetailerSamsung, "Sound Tower MX-ST40B"))
	assert.Equal(t,
		"https://www.sony.co.in/electronics/wf-1000xm5",
		brandProductURL(models.RetailerSony, "WF-1000XM5"))
}

func TestIngestBrandStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"capturedLists":{"earbuds":[
			{"Product Name":"Galaxy Buds3 Pro","Original Price":"₹24,999.00"}
		]}}}`)
	}))
	defer srv.Close()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewProductRepository(sqlx.NewDb(db, "postgres"))

	client := browseai.NewClient("api-key", srv.URL, []browseai.Store{
		{Name: "samsung-store", Retailer: "samsung", RobotID: "robot-1", TaskID: "task-1"},
	})
	svc := NewIngestionService(repo, nil, client, sovrn.NewClient(sovrn.Config{APIKey: "site-key"}))

	// absent from both marketplace tables, so it lands in samsung_products
	mock.ExpectQuery(`FROM amazon_products WHERE product_name ILIKE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM flipkart_products WHERE product_name ILIKE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO samsung_products`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow("row-1", true))

	stats, err := svc.IngestBrandStores(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 0, stats.Updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestBrandStoresUnconfigured(t *testing.T) {
	svc := NewIngestionService(nil, nil, browseai.NewClient("", "", nil), sovrn.NewClient(sovrn.Config{}))
	_, err := svc.IngestBrandStores(context.Background())
	assert.Error(t, err)
}
