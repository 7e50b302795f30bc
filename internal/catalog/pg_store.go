package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productColumns = `
	id, title, description, short_description,
	price::text, coalesce(original_price, 0)::text,
	category, stock, images, rating, review_count,
	sku, weight_label, origin, badges, tags,
	is_active, is_featured, created_at`

// PgProductStore implements ProductStore using PostgreSQL.
type PgProductStore struct {
	db *pgxpool.Pool
}

// NewPgProductStore creates a ProductStore backed by a PostgreSQL pool.
func NewPgProductStore(db *pgxpool.Pool) *PgProductStore {
	return &PgProductStore{db: db}
}

func (s *PgProductStore) ListActive(ctx context.Context) ([]Product, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE is_active ORDER BY created_at DESC`, productColumns)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

func (s *PgProductStore) FindByID(ctx context.Context, id string) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find product by ID: %w", err)
		}
		return nil, ErrProductNotFound
	}
	return scanProduct(rows)
}

// scanProduct validates the loosely-typed row at the read boundary, so
// downstream filter and display code never needs defensive existence checks.
func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p                       Product
		priceText, originalText string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.ShortDescription,
		&priceText, &originalText,
		&p.Category, &p.Stock, &p.Images, &p.Rating, &p.ReviewCount,
		&p.SKU, &p.WeightLabel, &p.Origin, &p.Badges, &p.Tags,
		&p.IsActive, &p.IsFeatured, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if p.Price, err = decimal.NewFromString(priceText); err != nil {
		return nil, fmt.Errorf("invalid price for product %s: %w", p.ID, err)
	}
	if p.OriginalPrice, err = decimal.NewFromString(originalText); err != nil {
		return nil, fmt.Errorf("invalid original price for product %s: %w", p.ID, err)
	}
	return &p, nil
}
