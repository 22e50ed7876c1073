package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/search"
)

// ProductRepository handles data access for the four retailer product tables.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// upsertColumns is the shared column list of every retailer table.
const upsertColumns = `product_name, brand, external_id, category, price_inr, rating, reviews_count,
            description, features, reviews, specifications, image_url,
            product_url, affiliate_url, availability_status, last_updated`

// Upsert inserts or updates a product in the retailer's table, keyed by
// product_name. The returned Inserted flag distinguishes a fresh insert from
// an update of an existing row.
func (r *ProductRepository) Upsert(ctx context.Context, retailer models.Retailer, p *models.Product) (*models.UpsertResult, error) {
	if p.Availability == "" {
		p.Availability = models.AvailabilityInStock
	}

	q := fmt.Sprintf(`
        INSERT INTO %s (%s)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
        ON CONFLICT (product_name)
        DO UPDATE SET
            brand = EXCLUDED.brand,
            external_id = EXCLUDED.external_id,
            price_inr = EXCLUDED.price_inr,
            rating = EXCLUDED.rating,
            reviews_count = EXCLUDED.reviews_count,
            description = EXCLUDED.description,
            features = EXCLUDED.features,
            reviews = EXCLUDED.reviews,
            specifications = EXCLUDED.specifications,
            image_url = EXCLUDED.image_url,
            product_url = EXCLUDED.product_url,
            affiliate_url = EXCLUDED.affiliate_url,
            availability_status = EXCLUDED.availability_status,
            last_updated = NOW()
        RETURNING id, (xmax = 0) AS inserted`, retailer.TableName(), upsertColumns)

	var result models.UpsertResult
	err := r.db.QueryRowxContext(ctx, q,
		p.Name,
		p.Brand,
		p.ExternalID,
		p.Category,
		p.PriceINR,
		p.Rating,
		p.ReviewsCount,
		p.Description,
		p.Features,
		p.Reviews,
		p.Specifications,
		p.ImageURL,
		p.ProductURL,
		p.AffiliateURL,
		p.Availability,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("upsert into %s failed: %w", retailer.TableName(), err)
	}
	return &result, nil
}

// Search runs the shared predicate against every retailer table not excluded
// by the retailer filter, tagging each row with its source. Results come back
// unordered; ranking and pagination happen after the cross-table merge.
//
// A failing table aborts the whole search. Partial results are never
// returned.
func (r *ProductRepository) Search(ctx context.Context, q *search.Query) ([]models.SearchResult, error) {
	where, args := search.Lower(search.BuildPredicate(q))

	var results []models.SearchResult
	for _, retailer := range models.Retailers {
		if q.Retailer != "" && !retailerMatches(q.Retailer, retailer) {
			continue
		}

		query := fmt.Sprintf(`
            SELECT p.*, '%s' AS retailer_name
            FROM %s p
            WHERE %s`, retailer, retailer.TableName(), where)

		var rows []models.SearchResult
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("search on %s failed: %w", retailer.TableName(), err)
		}
		results = append(results, rows...)
	}
	return results, nil
}

func retailerMatches(filter string, retailer models.Retailer) bool {
	parsed, ok := models.ParseRetailer(filter)
	return ok && parsed == retailer
}

// GetByID returns one product from a specific retailer table.
func (r *ProductRepository) GetByID(ctx context.Context, retailer models.Retailer, id string) (*models.Product, error) {
	q := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1 AND is_deleted = FALSE LIMIT 1`, retailer.TableName())

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// FindByID looks a product up across the marketplace tables, Amazon first
// then Flipkart, and tags the hit with its retailer.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.SearchResult, error) {
	for _, retailer := range []models.Retailer{models.RetailerAmazon, models.RetailerFlipkart} {
		q := fmt.Sprintf(`SELECT p.*, '%s' AS retailer_name FROM %s p WHERE p.id = $1 LIMIT 1`,
			retailer, retailer.TableName())

		var result models.SearchResult
		err := r.db.GetContext(ctx, &result, q, id)
		if err == nil {
			return &result, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, sql.ErrNoRows
}

// RetailerMatch is a duplicate-detection hit in a marketplace table.
type RetailerMatch struct {
	ID       string          `db:"id"`
	Name     string          `db:"product_name"`
	Retailer models.Retailer `db:"retailer_name"`
}

// FindInRetailers checks whether a product already exists in the Amazon or
// Flipkart tables by name. Brand-store ingestion uses this to prefer updating
// a marketplace row over inserting a duplicate brand-table row.
func (r *ProductRepository) FindInRetailers(ctx context.Context, productName string) (*RetailerMatch, error) {
	for _, retailer := range []models.Retailer{models.RetailerAmazon, models.RetailerFlipkart} {
		q := fmt.Sprintf(`SELECT id, product_name, '%s' AS retailer_name FROM %s WHERE product_name ILIKE $1 LIMIT 1`,
			retailer, retailer.TableName())

		var match RetailerMatch
		err := r.db.GetContext(ctx, &match, q, productName)
		if err == nil {
			return &match, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, sql.ErrNoRows
}

// BrandUpdate carries the refreshed fields a brand store provides for a
// product already present in a marketplace table. Nil fields keep the
// existing column value.
type BrandUpdate struct {
	PriceINR     *float64
	Rating       *float64
	ReviewsCount *int
	Description  *string
	ImageURL     *string
}

// UpdateWithBrandData refreshes a marketplace row with brand-store data,
// keeping existing values where the brand store has none.
func (r *ProductRepository) UpdateWithBrandData(ctx context.Context, retailer models.Retailer, productName string, update *BrandUpdate) (string, error) {
	q := fmt.Sprintf(`
        UPDATE %s
        SET
            price_inr = COALESCE($2, price_inr),
            rating = COALESCE($3, rating),
            reviews_count = COALESCE($4, reviews_count),
            description = COALESCE($5, description),
            image_url = COALESCE($6, image_url),
            last_updated = NOW()
        WHERE product_name ILIKE $1
        RETURNING id`, retailer.TableName())

	var id string
	err := r.db.QueryRowxContext(ctx, q,
		productName,
		update.PriceINR,
		update.Rating,
		update.ReviewsCount,
		update.Description,
		update.ImageURL,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("brand update on %s failed: %w", retailer.TableName(), err)
	}
	return id, nil
}

// SetRecommendations writes fetched recommendations back onto the product row.
func (r *ProductRepository) SetRecommendations(ctx context.Context, retailer models.Retailer, id string, recommendations []byte) error {
	q := fmt.Sprintf(`UPDATE %s SET recommendations = $1 WHERE id = $2`, retailer.TableName())
	_, err := r.db.ExecContext(ctx, q, recommendations, id)
	return err
}

// SetPriceComparisons writes fetched merchant offers back onto the product row.
func (r *ProductRepository) SetPriceComparisons(ctx context.Context, retailer models.Retailer, id string, comparisons []byte) error {
	q := fmt.Sprintf(`UPDATE %s SET price_comparisons = $1 WHERE id = $2`, retailer.TableName())
	_, err := r.db.ExecContext(ctx, q, comparisons, id)
	return err
}
