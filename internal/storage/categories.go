package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
)

// GetCategories retrieves all active categories.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryCategories(ctx, `
		SELECT id, name, description, is_active, is_default_prior, created_at
		FROM categories
		WHERE is_active = 1
		ORDER BY name
	`)
}

// GetDefaultPriorCategories retrieves the categories used as low-score
// fallback candidates.
func (s *SQLiteStorage) GetDefaultPriorCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryCategories(ctx, `
		SELECT id, name, description, is_active, is_default_prior, created_at
		FROM categories
		WHERE is_active = 1 AND is_default_prior = 1
		ORDER BY name
	`)
}

// CreateCategory creates a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, description string, isDefaultPrior bool) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, description, is_active, is_default_prior)
		VALUES (?, ?, 1, ?)
	`, name, description, isDefaultPrior)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	return &model.Category{
		ID:             int(id),
		Name:           name,
		Description:    description,
		IsActive:       true,
		IsDefaultPrior: isDefaultPrior,
	}, nil
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, query string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func scanCategory(rows *sql.Rows) (*model.Category, error) {
	var category model.Category
	err := rows.Scan(
		&category.ID, &category.Name, &category.Description,
		&category.IsActive, &category.IsDefaultPrior, &category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &category, nil
}
