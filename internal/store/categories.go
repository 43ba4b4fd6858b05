package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
)

const categoryColumns = `id, name, slug, description, image_url, icon, parent_id, is_active, sort_order, created_at, updated_at`

type CreateCategoryRequest struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
	Icon        string
	ParentID    *int64
	SortOrder   int
}

func scanCategory(row rowScanner) (*models.Category, error) {
	category := &models.Category{}
	var parentID sql.NullInt64

	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.ImageURL,
		&category.Icon,
		&parentID,
		&category.IsActive,
		&category.SortOrder,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		category.ParentID = &parentID.Int64
	}
	return category, nil
}

// UpsertCategory creates the category or refreshes the one with the same
// slug and marks it active.
func UpsertCategory(ctx context.Context, db *sql.DB, req CreateCategoryRequest) (*models.Category, error) {
	query := `
		INSERT INTO categories (name, slug, description, image_url, icon, parent_id, is_active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    image_url = EXCLUDED.image_url,
		    icon = EXCLUDED.icon,
		    parent_id = EXCLUDED.parent_id,
		    is_active = TRUE,
		    sort_order = EXCLUDED.sort_order,
		    updated_at = NOW()
		RETURNING ` + categoryColumns

	category, err := scanCategory(db.QueryRowContext(ctx, query,
		req.Name, req.Slug, req.Description, req.ImageURL, req.Icon, req.ParentID, req.SortOrder))
	if err != nil {
		return nil, fmt.Errorf("upsert category: %w", err)
	}

	return category, nil
}

// GetCategoryBySlug returns an active category.
func GetCategoryBySlug(ctx context.Context, db *sql.DB, slug string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1 AND is_active`

	category, err := scanCategory(db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}

	return category, nil
}

func SetCategoryActive(ctx context.Context, db *sql.DB, id int64, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE categories SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		active, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}

// ListCategories returns the active categories in display order.
func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE is_active
		ORDER BY sort_order ASC, name ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}
