package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
)

// GetHint retrieves a single hint by (merchant, category).
func (s *SQLiteStorage) GetHint(ctx context.Context, merchant, category string) (*model.Hint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT merchant, category, source, confidence, use_count, last_updated
		FROM merchant_category_hints
		WHERE merchant = ? AND category = ?
	`, merchant, category)

	hint, err := scanHint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hint %s/%s: %w", merchant, category, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hint: %w", err)
	}
	return hint, nil
}

// GetHintsForMerchant retrieves all hints for a canonical merchant,
// highest confidence first.
func (s *SQLiteStorage) GetHintsForMerchant(ctx context.Context, merchant string) ([]model.Hint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant, category, source, confidence, use_count, last_updated
		FROM merchant_category_hints
		WHERE merchant = ?
		ORDER BY COALESCE(confidence, ?) DESC, category ASC
	`, merchant, model.DefaultHintConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to query hints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectHints(rows)
}

// GetAllHints retrieves every hint, ordered by merchant.
func (s *SQLiteStorage) GetAllHints(ctx context.Context) ([]model.Hint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant, category, source, confidence, use_count, last_updated
		FROM merchant_category_hints
		ORDER BY merchant, category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectHints(rows)
}

// SaveHint inserts or updates a hint. The (merchant, category) pair is the
// primary key, so saving an existing pair replaces its confidence and source.
func (s *SQLiteStorage) SaveHint(ctx context.Context, hint *model.Hint) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateHint(hint); err != nil {
		return err
	}

	if hint.LastUpdated.IsZero() {
		hint.LastUpdated = time.Now()
	}

	// Hints may only reference active categories.
	var categoryExists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categories WHERE name = ? AND is_active = 1)
	`, hint.Category).Scan(&categoryExists)
	if err != nil {
		return fmt.Errorf("failed to check category existence: %w", err)
	}
	if !categoryExists {
		return fmt.Errorf("%w: %s", common.ErrUnknownCategory, hint.Category)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merchant_category_hints (merchant, category, source, confidence, use_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(merchant, category) DO UPDATE SET
			source = excluded.source,
			confidence = excluded.confidence,
			last_updated = excluded.last_updated
	`, hint.Merchant, hint.Category, hint.Source, hint.Confidence, hint.UseCount, hint.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save hint: %w", err)
	}

	return nil
}

// DeleteHint removes a hint.
func (s *SQLiteStorage) DeleteHint(ctx context.Context, merchant, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM merchant_category_hints WHERE merchant = ? AND category = ?
	`, merchant, category)
	if err != nil {
		return fmt.Errorf("failed to delete hint: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// IncrementHintUseCount bumps a hint's use counter. The increment happens
// in the database to stay correct under concurrent requests.
func (s *SQLiteStorage) IncrementHintUseCount(ctx context.Context, merchant, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE merchant_category_hints
		SET use_count = use_count + 1, last_updated = CURRENT_TIMESTAMP
		WHERE merchant = ? AND category = ?
	`, merchant, category)
	if err != nil {
		return fmt.Errorf("failed to increment hint use count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// scannable abstracts over *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanHint(row scannable) (*model.Hint, error) {
	var hint model.Hint
	var confidence sql.NullFloat64

	err := row.Scan(
		&hint.Merchant,
		&hint.Category,
		&hint.Source,
		&confidence,
		&hint.UseCount,
		&hint.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if confidence.Valid {
		hint.Confidence = &confidence.Float64
	}

	return &hint, nil
}

func collectHints(rows *sql.Rows) ([]model.Hint, error) {
	var hints []model.Hint
	for rows.Next() {
		hint, err := scanHint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hint: %w", err)
		}
		hints = append(hints, *hint)
	}
	return hints, rows.Err()
}
