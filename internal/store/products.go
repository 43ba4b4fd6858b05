package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, slug, description, price, stock_quantity, images, category_id, is_active, created_at, updated_at`

// ProductSort names an ordering of a product listing.
type ProductSort string

const (
	SortByName      ProductSort = "name"
	SortByPriceAsc  ProductSort = "price_asc"
	SortByPriceDesc ProductSort = "price_desc"
	SortByNewest    ProductSort = "newest"
)

var ErrInvalidSort = errors.New("invalid sort")

var productOrder = map[ProductSort]string{
	SortByName:      "name ASC, id ASC",
	SortByPriceAsc:  "price ASC, id ASC",
	SortByPriceDesc: "price DESC, id DESC",
	SortByNewest:    "created_at DESC, id DESC",
}

// ParseProductSort accepts the empty string as SortByName.
func ParseProductSort(s string) (ProductSort, error) {
	if s == "" {
		return SortByName, nil
	}
	if _, ok := productOrder[ProductSort(s)]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
	return ProductSort(s), nil
}

type CreateProductRequest struct {
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	Images        []string
	CategoryID    *int64
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var images []string
	var categoryID sql.NullInt64

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.StockQuantity,
		pq.Array(&images),
		&categoryID,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Images = images
	if categoryID.Valid {
		product.CategoryID = &categoryID.Int64
	}
	return product, nil
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	images := req.Images
	if images == nil {
		images = []string{}
	}

	query := `
		INSERT INTO products (name, slug, description, price, stock_quantity, images, category_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		req.Name, req.Slug, req.Description, req.Price, req.StockQuantity, pq.Array(images), req.CategoryID))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// UpsertProduct creates the product or overwrites the one with the same
// slug, reactivating it.
func UpsertProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	images := req.Images
	if images == nil {
		images = []string{}
	}

	query := `
		INSERT INTO products (name, slug, description, price, stock_quantity, images, category_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    stock_quantity = EXCLUDED.stock_quantity,
		    images = EXCLUDED.images,
		    category_id = EXCLUDED.category_id,
		    is_active = TRUE,
		    updated_at = NOW()
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		req.Name, req.Slug, req.Description, req.Price, req.StockQuantity, pq.Array(images), req.CategoryID))
	if err != nil {
		return nil, fmt.Errorf("upsert product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func GetProductBySlug(ctx context.Context, db *sql.DB, slug string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1 AND is_active`

	product, err := scanProduct(db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}

	return product, nil
}

func SetProductActive(ctx context.Context, db *sql.DB, id int64, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		active, id)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// ListProducts pages through active products, newest first.
func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE is_active`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// ListProductsByCategory pages through the active products of one category
// in the given order.
func ListProductsByCategory(ctx context.Context, db *sql.DB, categoryID int64, sort ProductSort, page, pageSize int) (*OffsetPage, error) {
	order, ok := productOrder[sort]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, sort)
	}

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = $1 AND is_active`, categoryID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count category products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_id = $1 AND is_active
		ORDER BY ` + order + `
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, categoryID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list category products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// Products serves catalog lookups from PostgreSQL.
type Products struct {
	DB *sql.DB
}

func (p *Products) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return GetProduct(ctx, p.DB, id)
}

func (p *Products) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return GetProductBySlug(ctx, p.DB, slug)
}

func (p *Products) ListProducts(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	return ListProducts(ctx, p.DB, page, pageSize)
}

func (p *Products) ListProductsByCategory(ctx context.Context, categoryID int64, sort ProductSort, page, pageSize int) (*OffsetPage, error) {
	return ListProductsByCategory(ctx, p.DB, categoryID, sort, page, pageSize)
}

func (p *Products) ListCategories(ctx context.Context) ([]models.Category, error) {
	return ListCategories(ctx, p.DB)
}

func (p *Products) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return GetCategoryBySlug(ctx, p.DB, slug)
}
