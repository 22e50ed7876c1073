package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/search"
)

func newMockRepo(t *testing.T) (sqlmock.Sqlmock, *ProductRepository, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "failed to create sqlmock")

	sqlxDB := sqlx.NewDb(db, "postgres")
	return mock, NewProductRepository(sqlxDB), func() { db.Close() }
}

func searchColumns() []string {
	return []string{"id", "product_name", "brand", "category", "price_inr", "rating", "availability_status", "retailer_name"}
}

func searchRow(id, name, brand, category string, price, rating float64, retailer models.Retailer) []driver.Value {
	return []driver.Value{id, name, brand, category, price, rating, "in_stock", string(retailer)}
}

func addRow(rows *sqlmock.Rows, values []driver.Value) *sqlmock.Rows {
	return rows.AddRow(values...)
}

func TestProductRepository_Search_FansOutToAllTables(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	expectations := []struct {
		pattern  string
		retailer models.Retailer
	}{
		{`SELECT p\.\*, 'Amazon' AS retailer_name\s+FROM amazon_products p\s+WHERE`, models.RetailerAmazon},
		{`SELECT p\.\*, 'Flipkart' AS retailer_name\s+FROM flipkart_products p\s+WHERE`, models.RetailerFlipkart},
		{`SELECT p\.\*, 'Samsung' AS retailer_name\s+FROM samsung_products p\s+WHERE`, models.RetailerSamsung},
		{`SELECT p\.\*, 'Sony' AS retailer_name\s+FROM sony_products p\s+WHERE`, models.RetailerSony},
	}
	for i, e := range expectations {
		rows := sqlmock.NewRows(searchColumns())
		addRow(rows, searchRow("id-"+string(rune('a'+i)), "Product", "Brand", "earbuds", 999, 4.2, e.retailer))
		mock.ExpectQuery(e.pattern).WillReturnRows(rows)
	}

	results, err := repo.Search(context.Background(), &search.Query{})

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, models.RetailerAmazon, results[0].RetailerName)
	assert.Equal(t, models.RetailerFlipkart, results[1].RetailerName)
	assert.Equal(t, models.RetailerSamsung, results[2].RetailerName)
	assert.Equal(t, models.RetailerSony, results[3].RetailerName)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Search_RetailerFilterSkipsOtherTables(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	rows := sqlmock.NewRows(searchColumns())
	addRow(rows, searchRow("id-1", "Galaxy Buds", "Samsung", "earbuds", 8999, 4.4, models.RetailerSamsung))
	mock.ExpectQuery(`FROM samsung_products p`).WillReturnRows(rows)

	results, err := repo.Search(context.Background(), &search.Query{
		Filters: search.Filters{Retailer: "samsung"},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.RetailerSamsung, results[0].RetailerName)
	assert.Equal(t, "Galaxy Buds", results[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Search_PassesPredicateArgs(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	q := &search.Query{
		Filters:       search.Filters{SearchTerm: "earbuds", Retailer: "amazon"},
		CorrectedTerm: "earbuds",
	}

	mock.ExpectQuery(`FROM amazon_products p`).
		WithArgs("%earbuds%", "%earbuds%").
		WillReturnRows(sqlmock.NewRows(searchColumns()))

	results, err := repo.Search(context.Background(), q)

	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Search_TableErrorAbortsWholeSearch(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	rows := sqlmock.NewRows(searchColumns())
	addRow(rows, searchRow("id-1", "Product", "Brand", "earbuds", 999, 4.2, models.RetailerAmazon))
	mock.ExpectQuery(`FROM amazon_products p`).WillReturnRows(rows)
	mock.ExpectQuery(`FROM flipkart_products p`).WillReturnError(errors.New("relation does not exist"))

	results, err := repo.Search(context.Background(), &search.Query{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "flipkart_products")
	assert.Nil(t, results, "partial results must not be returned")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Upsert_Insert(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"id", "inserted"}).AddRow("new-id", true)
	mock.ExpectQuery(`INSERT INTO sony_products`).WillReturnRows(rows)

	p := &models.Product{Name: "WF-1000XM5", Category: models.CategoryEarbuds}
	result, err := repo.Upsert(context.Background(), models.RetailerSony, p)

	require.NoError(t, err)
	assert.Equal(t, "new-id", result.ID)
	assert.True(t, result.Inserted)
	assert.Equal(t, models.AvailabilityInStock, p.Availability, "missing availability defaults to in_stock")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Upsert_UpdateExisting(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"id", "inserted"}).AddRow("existing-id", false)
	mock.ExpectQuery(`INSERT INTO amazon_products`).WillReturnRows(rows)

	result, err := repo.Upsert(context.Background(), models.RetailerAmazon, &models.Product{
		Name:         "boAt Airdopes 161",
		Category:     models.CategoryEarbuds,
		Availability: models.AvailabilityInStock,
	})

	require.NoError(t, err)
	assert.Equal(t, "existing-id", result.ID)
	assert.False(t, result.Inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT \* FROM amazon_products WHERE id = \$1 AND is_deleted = FALSE`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	product, err := repo.GetByID(context.Background(), models.RetailerAmazon, "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.Nil(t, product)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByID_FallsBackToFlipkart(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectQuery(`FROM amazon_products p WHERE p\.id = \$1`).
		WithArgs("fk-1").
		WillReturnError(sql.ErrNoRows)

	rows := sqlmock.NewRows(searchColumns())
	addRow(rows, searchRow("fk-1", "Nord Buds 2", "OnePlus", "earbuds", 2999, 4.3, models.RetailerFlipkart))
	mock.ExpectQuery(`FROM flipkart_products p WHERE p\.id = \$1`).
		WithArgs("fk-1").
		WillReturnRows(rows)

	result, err := repo.FindByID(context.Background(), "fk-1")

	require.NoError(t, err)
	assert.Equal(t, "Nord Buds 2", result.Name)
	assert.Equal(t, models.RetailerFlipkart, result.RetailerName)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByID_NotFoundAnywhere(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectQuery(`FROM amazon_products p`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM flipkart_products p`).WillReturnError(sql.ErrNoRows)

	result, err := repo.FindByID(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.Nil(t, result)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindInRetailers_AmazonHit(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"id", "product_name", "retailer_name"}).
		AddRow("az-1", "Galaxy Buds FE", "Amazon")
	mock.ExpectQuery(`FROM amazon_products WHERE product_name ILIKE \$1`).
		WithArgs("Galaxy Buds FE").
		WillReturnRows(rows)

	match, err := repo.FindInRetailers(context.Background(), "Galaxy Buds FE")

	require.NoError(t, err)
	assert.Equal(t, "az-1", match.ID)
	assert.Equal(t, models.RetailerAmazon, match.Retailer)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateWithBrandData(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	price := 10990.0
	rows := sqlmock.NewRows([]string{"id"}).AddRow("az-1")
	mock.ExpectQuery(`UPDATE amazon_products`).
		WithArgs("Galaxy Buds FE", price, nil, nil, nil, nil).
		WillReturnRows(rows)

	id, err := repo.UpdateWithBrandData(context.Background(), models.RetailerAmazon, "Galaxy Buds FE", &BrandUpdate{
		PriceINR: &price,
	})

	require.NoError(t, err)
	assert.Equal(t, "az-1", id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_SetRecommendations(t *testing.T) {
	mock, repo, closeDB := newMockRepo(t)
	defer closeDB()

	payload := []byte(`[{"name":"related"}]`)
	mock.ExpectExec(`UPDATE sony_products SET recommendations = \$1 WHERE id = \$2`).
		WithArgs(payload, "sn-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetRecommendations(context.Background(), models.RetailerSony, "sn-1", payload)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
