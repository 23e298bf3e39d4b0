package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/normalize"
	"github.com/ledgermint/saffron/internal/service"
)

// Ensure Recorder implements FeedbackRecorder.
var _ FeedbackRecorder = (*Recorder)(nil)

// Recorder appends feedback events and keeps the merchant-category
// statistics current. Recording is designed to be fire-and-forget from
// the caller's primary action: the HTTP layer logs failures instead of
// surfacing them.
type Recorder struct {
	store service.Storage
}

// NewRecorder creates a feedback recorder backed by the given store.
func NewRecorder(store service.Storage) *Recorder {
	return &Recorder{store: store}
}

// Record appends a feedback event for the suggested (transaction,
// category) pair and atomically increments the matching statistic.
// Duplicate submissions produce duplicate counts on purpose: repeated
// confirmation is a stronger signal. An accepted hint-backed suggestion
// additionally bumps the hint's use counter, best effort.
func (r *Recorder) Record(ctx context.Context, transactionID, merchant, category string, action model.FeedbackAction) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidFeedback, action)
	}

	canonical := normalize.Merchant(merchant)

	event := &model.FeedbackEvent{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Merchant:      canonical,
		Category:      category,
		Action:        action,
	}

	if err := r.store.RecordFeedback(ctx, event); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if action == model.ActionAccept {
		err := r.store.IncrementHintUseCount(ctx, canonical, category)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			slog.Warn("failed to bump hint use count",
				"merchant", canonical,
				"category", category,
				"error", err)
		}
	}

	return nil
}
