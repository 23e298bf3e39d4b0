package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/storage"
)

func recordFeedback(t *testing.T, store *storage.SQLiteStorage, merchant, category string, accepts, rejects int) {
	t.Helper()
	recorder := NewRecorder(store)
	for i := 0; i < accepts; i++ {
		require.NoError(t, recorder.Record(context.Background(), "txn-x", merchant, category, model.ActionAccept))
	}
	for i := 0; i < rejects; i++ {
		require.NoError(t, recorder.Record(context.Background(), "txn-x", merchant, category, model.ActionReject))
	}
}

func TestPromoter_PromotesQualifyingStat(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)
	recordFeedback(t, store, "STARBUCKS #4521", "dining_out", 3, 0)

	promoter := NewPromoter(store, DefaultThresholds())
	summary, err := promoter.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Promoted)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.False(t, summary.DryRun)

	hint, err := store.GetHint(ctx, "starbucks", "dining_out")
	require.NoError(t, err)
	assert.Equal(t, model.SourcePromoted, hint.Source)
	// 0.5 + 0.45 * 1.0 * 3/6
	assert.InDelta(t, 0.725, hint.EffectiveConfidence(), 1e-9)
}

func TestPromoter_BelowThresholdsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "transport", "", false)
	require.NoError(t, err)

	// Only one event: under the minimum total.
	recordFeedback(t, store, "ONE OFF CAFE", "dining_out", 1, 0)
	// Even split: under the minimum accept ratio.
	recordFeedback(t, store, "AMBIGUOUS CO", "transport", 1, 1)

	promoter := NewPromoter(store, DefaultThresholds())
	summary, err := promoter.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Promoted)
	assert.Equal(t, 0, summary.Skipped)

	_, err = store.GetHint(ctx, "one off cafe", "dining_out")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPromoter_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)
	recordFeedback(t, store, "STARBUCKS #4521", "dining_out", 3, 0)

	promoter := NewPromoter(store, DefaultThresholds())

	first, err := promoter.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Promoted)

	hintAfterFirst, err := store.GetHint(ctx, "starbucks", "dining_out")
	require.NoError(t, err)

	// No new feedback arrives: the second run must change nothing.
	second, err := promoter.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Promoted)
	assert.Equal(t, 1, second.Skipped)

	hintAfterSecond, err := store.GetHint(ctx, "starbucks", "dining_out")
	require.NoError(t, err)
	assert.Equal(t, hintAfterFirst.EffectiveConfidence(), hintAfterSecond.EffectiveConfidence())
	assert.Equal(t, hintAfterFirst.Source, hintAfterSecond.Source)
}

func TestPromoter_NeverLowersExistingHint(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)

	strong := 0.9
	require.NoError(t, store.SaveHint(ctx, &model.Hint{
		Merchant:   "starbucks",
		Category:   "dining_out",
		Source:     model.SourceUser,
		Confidence: &strong,
	}))

	// Qualifying stats, but the computed confidence (0.725) is below
	// the user's 0.9.
	recordFeedback(t, store, "STARBUCKS #4521", "dining_out", 3, 0)

	promoter := NewPromoter(store, DefaultThresholds())
	summary, err := promoter.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Promoted)
	assert.Equal(t, 1, summary.Skipped)

	hint, err := store.GetHint(ctx, "starbucks", "dining_out")
	require.NoError(t, err)
	assert.Equal(t, model.SourceUser, hint.Source)
	assert.InDelta(t, 0.9, hint.EffectiveConfidence(), 1e-9)
}

func TestPromoter_UpgradesWhenEvidenceGrows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)
	recordFeedback(t, store, "STARBUCKS #4521", "dining_out", 3, 0)

	promoter := NewPromoter(store, DefaultThresholds())
	_, err = promoter.Run(ctx, false)
	require.NoError(t, err)

	before, err := store.GetHint(ctx, "starbucks", "dining_out")
	require.NoError(t, err)

	recordFeedback(t, store, "STARBUCKS #4521", "dining_out", 7, 0)

	summary, err := promoter.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Promoted)

	after, err := store.GetHint(ctx, "starbucks", "dining_out")
	require.NoError(t, err)
	assert.Greater(t, after.EffectiveConfidence(), before.EffectiveConfidence())
	// 0.5 + 0.45 * 1.0 * 10/13
	assert.InDelta(t, 0.5+0.45*10.0/13.0, after.EffectiveConfidence(), 1e-9)
}

func TestPromoter_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)
	recordFeedback(t, store, "STARBUCKS #4521", "dining_out", 3, 0)

	promoter := NewPromoter(store, DefaultThresholds())
	summary, err := promoter.Run(ctx, true)
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Promoted)

	_, err = store.GetHint(ctx, "starbucks", "dining_out")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPromoter_RowFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)

	// "ghost_category" was never registered, so its hint upsert fails.
	recordFeedback(t, store, "GOOD CAFE", "dining_out", 3, 0)
	recordFeedback(t, store, "WEIRD SHOP", "ghost_category", 3, 0)

	promoter := NewPromoter(store, DefaultThresholds())
	summary, err := promoter.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Promoted)
	assert.Equal(t, 1, summary.Failed)

	// The failing row did not roll back the successful one.
	hint, err := store.GetHint(ctx, "good cafe", "dining_out")
	require.NoError(t, err)
	assert.Equal(t, model.SourcePromoted, hint.Source)
}

func TestPromotionConfidence(t *testing.T) {
	tests := []struct {
		name     string
		accepts  int
		rejects  int
		expected float64
	}{
		{name: "no evidence", accepts: 0, rejects: 0, expected: 0},
		{name: "three accepts", accepts: 3, rejects: 0, expected: 0.725},
		{name: "mixed", accepts: 5, rejects: 1, expected: 0.5 + 0.45*(5.0/6.0)*(6.0/9.0)},
		{name: "heavy evidence stays below cap", accepts: 1000, rejects: 0, expected: 0.5 + 0.45*(1000.0/1003.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stat := &model.MerchantCategoryStat{
				Merchant:    "m",
				Category:    "c",
				AcceptCount: tt.accepts,
				RejectCount: tt.rejects,
			}
			assert.InDelta(t, tt.expected, PromotionConfidence(stat), 1e-9)
			// Deterministic: same counters, same confidence.
			assert.Equal(t, PromotionConfidence(stat), PromotionConfidence(stat))
		})
	}
}
