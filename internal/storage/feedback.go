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

// RecordFeedback appends a feedback event and increments the matching
// merchant-category statistic. Both writes happen in one database
// transaction, and the counter update is a database-level increment so
// concurrent feedback for the same (merchant, category) never loses
// updates. The call is deliberately not idempotent: a repeated accept is
// a stronger signal, not a duplicate to be suppressed.
func (s *SQLiteStorage) RecordFeedback(ctx context.Context, event *model.FeedbackEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedbackEvent(event); err != nil {
		return err
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO feedback_events (id, transaction_id, merchant, category, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.TransactionID, event.Merchant, event.Category, event.Action, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to append feedback event: %w", err)
	}

	acceptDelta := 0
	rejectDelta := 0
	if event.Action == model.ActionAccept {
		acceptDelta = 1
	} else {
		rejectDelta = 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO merchant_category_stats (merchant, category, accept_count, reject_count, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(merchant, category) DO UPDATE SET
			accept_count = accept_count + excluded.accept_count,
			reject_count = reject_count + excluded.reject_count,
			last_seen = excluded.last_seen
	`, event.Merchant, event.Category, acceptDelta, rejectDelta, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to update merchant stat: %w", err)
	}

	return tx.Commit()
}

// GetFeedbackEvents retrieves all feedback recorded for a transaction,
// oldest first.
func (s *SQLiteStorage) GetFeedbackEvents(ctx context.Context, transactionID string) ([]model.FeedbackEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, merchant, category, action, created_at
		FROM feedback_events
		WHERE transaction_id = ?
		ORDER BY created_at ASC, id ASC
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.FeedbackEvent
	for rows.Next() {
		var event model.FeedbackEvent
		if err := rows.Scan(
			&event.ID, &event.TransactionID, &event.Merchant,
			&event.Category, &event.Action, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// GetStat retrieves the aggregate for a (merchant, category) pair.
// Returns common.ErrNotFound when no feedback has been recorded yet.
func (s *SQLiteStorage) GetStat(ctx context.Context, merchant, category string) (*model.MerchantCategoryStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	var stat model.MerchantCategoryStat
	err := s.db.QueryRowContext(ctx, `
		SELECT merchant, category, accept_count, reject_count, last_seen
		FROM merchant_category_stats
		WHERE merchant = ? AND category = ?
	`, merchant, category).Scan(
		&stat.Merchant, &stat.Category, &stat.AcceptCount, &stat.RejectCount, &stat.LastSeen,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stat %s/%s: %w", merchant, category, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stat: %w", err)
	}

	return &stat, nil
}

// GetPromotableStats retrieves stats meeting the promotion thresholds:
// at least minTotal feedback events and an accept ratio of at least
// minAcceptRatio.
func (s *SQLiteStorage) GetPromotableStats(ctx context.Context, minTotal int, minAcceptRatio float64) ([]model.MerchantCategoryStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant, category, accept_count, reject_count, last_seen
		FROM merchant_category_stats
		WHERE accept_count + reject_count >= ?
		  AND CAST(accept_count AS REAL) / (accept_count + reject_count) >= ?
		ORDER BY merchant, category
	`, minTotal, minAcceptRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to query promotable stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.MerchantCategoryStat
	for rows.Next() {
		var stat model.MerchantCategoryStat
		if err := rows.Scan(
			&stat.Merchant, &stat.Category, &stat.AcceptCount, &stat.RejectCount, &stat.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
