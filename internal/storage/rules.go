package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
)

// CreateRule creates a new category rule. The pattern is stored even when
// it does not compile as a regex; such rules are skipped during matching.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	// Rules may only reference active categories.
	var categoryCount int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE name = ? AND is_active = 1",
		rule.Category).Scan(&categoryCount)
	if err != nil {
		return fmt.Errorf("failed to verify category: %w", err)
	}
	if categoryCount == 0 {
		return fmt.Errorf("%w: %s", common.ErrUnknownCategory, rule.Category)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (name, pattern, target, category, priority, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rule.Name, rule.Pattern, rule.Target, rule.Category, rule.Priority, rule.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = int(id)
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// GetActiveRules retrieves all active rules ordered by priority.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryRules(ctx, `
		SELECT id, name, pattern, target, category, priority, is_active, created_at, updated_at
		FROM category_rules
		WHERE is_active = 1
		ORDER BY priority DESC, id ASC
	`)
}

// GetAllRules retrieves every rule, active or not.
func (s *SQLiteStorage) GetAllRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryRules(ctx, `
		SELECT id, name, pattern, target, category, priority, is_active, created_at, updated_at
		FROM category_rules
		ORDER BY priority DESC, id ASC
	`)
}

// DeactivateRule marks a rule inactive without deleting it.
func (s *SQLiteStorage) DeactivateRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE category_rules
		SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate rule: %w", err)
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

func (s *SQLiteStorage) queryRules(ctx context.Context, query string) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func scanRule(rows *sql.Rows) (*model.Rule, error) {
	var rule model.Rule
	err := rows.Scan(
		&rule.ID, &rule.Name, &rule.Pattern, &rule.Target, &rule.Category,
		&rule.Priority, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
