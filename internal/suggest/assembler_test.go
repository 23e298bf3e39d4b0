package suggest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/storage"
)

// newTestStore creates a migrated temp-file SQLite store. The migrations
// seed the fallback prior categories (restaurants, groceries, shopping).
func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func saveTestTransaction(t *testing.T, store *storage.SQLiteStorage, id, merchant string) {
	t.Helper()
	err := store.SaveTransactions(context.Background(), []model.Transaction{
		{
			ID:       id,
			Date:     time.Now(),
			Merchant: merchant,
			Amount:   -12.50,
		},
	})
	require.NoError(t, err)
}

func TestAssembler_UnknownTransaction(t *testing.T) {
	store := newTestStore(t)
	assembler := NewAssembler(store, DefaultParams())

	_, err := assembler.Suggest(context.Background(), "no-such-txn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestAssembler_FallbackOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saveTestTransaction(t, store, "txn-1", "MYSTERY MERCHANT LLC")

	assembler := NewAssembler(store, DefaultParams())
	suggestions, err := assembler.Suggest(ctx, "txn-1")
	require.NoError(t, err)

	require.NotEmpty(t, suggestions)
	require.LessOrEqual(t, len(suggestions), 3)
	for _, s := range suggestions {
		assert.Equal(t, []Reason{ReasonFallback}, s.Reasons)
		assert.LessOrEqual(t, s.Score, 0.3)
	}
}

func TestAssembler_HintRanksAboveFallback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saveTestTransaction(t, store, "txn-1", "NETFLIX.COM")

	_, err := store.CreateCategory(ctx, "subscriptions", "", false)
	require.NoError(t, err)
	require.NoError(t, store.SaveHint(ctx, &model.Hint{
		Merchant: "netflix.com",
		Category: "subscriptions",
		Source:   model.SourceUser,
	}))

	assembler := NewAssembler(store, DefaultParams())
	suggestions, err := assembler.Suggest(ctx, "txn-1")
	require.NoError(t, err)

	require.NotEmpty(t, suggestions)
	assert.Equal(t, "subscriptions", suggestions[0].Category)
	assert.InDelta(t, model.DefaultHintConfidence, suggestions[0].Score, 1e-9)
	assert.Contains(t, suggestions[0].Reasons, ReasonHint)
}

func TestAssembler_RuleBeatsHintForSameCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saveTestTransaction(t, store, "txn-1", "SHELL OIL 5523")

	_, err := store.CreateCategory(ctx, "transport", "", false)
	require.NoError(t, err)
	require.NoError(t, store.SaveHint(ctx, &model.Hint{
		Merchant: "shell oil",
		Category: "transport",
		Source:   model.SourceUser,
	}))
	require.NoError(t, store.CreateRule(ctx, &model.Rule{
		Pattern:  "shell",
		Target:   model.TargetMerchant,
		Category: "transport",
		IsActive: true,
	}))

	assembler := NewAssembler(store, DefaultParams())
	suggestions, err := assembler.Suggest(ctx, "txn-1")
	require.NoError(t, err)

	// One candidate per category: the rule's higher score wins, and the
	// reasons carry both sources.
	require.NotEmpty(t, suggestions)
	top := suggestions[0]
	assert.Equal(t, "transport", top.Category)
	assert.InDelta(t, 0.75, top.Score, 1e-9)
	assert.Contains(t, top.Reasons, ReasonRule)
	assert.Contains(t, top.Reasons, ReasonHint)

	for _, s := range suggestions[1:] {
		assert.NotEqual(t, "transport", s.Category)
	}
}

func TestAssembler_MalformedRuleSkipped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saveTestTransaction(t, store, "txn-1", "CORNER STORE")

	_, err := store.CreateCategory(ctx, "misc", "", false)
	require.NoError(t, err)
	require.NoError(t, store.CreateRule(ctx, &model.Rule{
		Pattern:  "(unbalanced",
		Target:   model.TargetMerchant,
		Category: "misc",
		IsActive: true,
	}))

	assembler := NewAssembler(store, DefaultParams())
	suggestions, err := assembler.Suggest(ctx, "txn-1")
	require.NoError(t, err)

	// The broken rule is skipped; fallback priors still come back.
	require.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		assert.Equal(t, []Reason{ReasonFallback}, s.Reasons)
	}
}

func TestAssembler_FeedbackAdjustsScore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saveTestTransaction(t, store, "txn-new", "STARBUCKS #4521")

	_, err := store.CreateCategory(ctx, "dining_out", "", false)
	require.NoError(t, err)

	// Three accepts for (starbucks, dining_out), then a promotion run,
	// models a user confirming suggestions across earlier transactions.
	recorder := NewRecorder(store)
	for i := 0; i < 3; i++ {
		require.NoError(t, recorder.Record(ctx, "txn-earlier", "STARBUCKS #4521", "dining_out", model.ActionAccept))
	}

	promoter := NewPromoter(store, DefaultThresholds())
	summary, err := promoter.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Promoted)

	assembler := NewAssembler(store, DefaultParams())
	suggestions, err := assembler.Suggest(ctx, "txn-new")
	require.NoError(t, err)

	require.NotEmpty(t, suggestions)
	top := suggestions[0]
	assert.Equal(t, "dining_out", top.Category)
	assert.Greater(t, top.Score, 0.7)
	assert.Contains(t, top.Reasons, ReasonHint)
	assert.Contains(t, top.Reasons, ReasonFeedbackAdjusted)
}

func TestAssembler_TruncatesToMaxResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saveTestTransaction(t, store, "txn-1", "BIG BOX STORE")

	for _, cat := range []string{"a_cat", "b_cat", "c_cat", "d_cat"} {
		_, err := store.CreateCategory(ctx, cat, "", false)
		require.NoError(t, err)
		require.NoError(t, store.SaveHint(ctx, &model.Hint{
			Merchant: "big box store",
			Category: cat,
			Source:   model.SourceUser,
		}))
	}

	assembler := NewAssembler(store, DefaultParams())
	suggestions, err := assembler.Suggest(ctx, "txn-1")
	require.NoError(t, err)

	assert.Len(t, suggestions, 3)
}
