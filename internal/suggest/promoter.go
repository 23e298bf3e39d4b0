package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/service"
)

// Ensure Promoter implements HintPromoter.
var _ HintPromoter = (*Promoter)(nil)

// PromotionThresholds gate which feedback aggregates qualify for
// promotion into hints.
type PromotionThresholds struct {
	// MinTotal is the minimum number of feedback events for the pair.
	MinTotal int
	// MinAcceptRatio is the minimum fraction of accepts.
	MinAcceptRatio float64
}

// DefaultThresholds returns the production promotion thresholds.
func DefaultThresholds() PromotionThresholds {
	return PromotionThresholds{
		MinTotal:       2,
		MinAcceptRatio: 0.7,
	}
}

// Promoter converts strong feedback aggregates into persisted hints.
// The job is idempotent (confidence is a deterministic function of the
// stat row), never lowers an existing hint's confidence, and never
// deletes hints. Each qualifying row is upserted independently, so a
// failure partway through leaves earlier promotions committed.
//
// One invocation at a time is assumed; scheduling discipline (a single
// cron entry) is the operator's concern.
type Promoter struct {
	store      service.Storage
	thresholds PromotionThresholds
}

// NewPromoter creates a promotion job runner.
func NewPromoter(store service.Storage, thresholds PromotionThresholds) *Promoter {
	return &Promoter{
		store:      store,
		thresholds: thresholds,
	}
}

// Run scans the feedback statistics and upserts a hint for every
// qualifying (merchant, category) pair. With dryRun set, candidates are
// counted but nothing is written. Row-scoped failures are logged and
// tallied, never aborting the batch; only a failure to read the stats
// themselves is returned as an error.
func (p *Promoter) Run(ctx context.Context, dryRun bool) (service.PromotionSummary, error) {
	summary := service.PromotionSummary{DryRun: dryRun}

	stats, err := p.store.GetPromotableStats(ctx, p.thresholds.MinTotal, p.thresholds.MinAcceptRatio)
	if err != nil {
		return summary, fmt.Errorf("failed to scan promotable stats: %w", err)
	}

	for i := range stats {
		stat := &stats[i]
		confidence := PromotionConfidence(stat)

		existing, err := p.store.GetHint(ctx, stat.Merchant, stat.Category)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			summary.Failed++
			common.LogError(err, "promotion: failed to read existing hint", common.Fields{
				"merchant": stat.Merchant,
				"category": stat.Category,
			})
			continue
		}

		// Monotonic improvement only: never downgrade a stronger hint.
		if existing != nil && existing.EffectiveConfidence() >= confidence {
			summary.Skipped++
			continue
		}

		if dryRun {
			summary.Promoted++
			continue
		}

		hint := &model.Hint{
			Merchant:   stat.Merchant,
			Category:   stat.Category,
			Source:     model.SourcePromoted,
			Confidence: &confidence,
		}

		// Each upsert is its own transaction; a retryable storage blip
		// gets a couple of attempts before the row is counted as failed.
		err = common.WithRetry(ctx, func() error {
			return p.store.SaveHint(ctx, hint)
		}, service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 50 * time.Millisecond,
		})
		if err != nil {
			summary.Failed++
			common.LogError(err, "promotion: failed to save hint", common.Fields{
				"merchant": stat.Merchant,
				"category": stat.Category,
			})
			continue
		}

		summary.Promoted++
		slog.Debug("promoted feedback stat to hint",
			"merchant", stat.Merchant,
			"category", stat.Category,
			"confidence", confidence)
	}

	slog.Info("promotion run complete",
		"promoted", summary.Promoted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"dry_run", dryRun)

	return summary, nil
}

// PromotionConfidence derives a hint confidence from a feedback
// aggregate. It is a deterministic function of the counters alone:
// the accept ratio sets the direction and the evidence weight
// total/(total+3) shrinks sparse evidence toward the floor, capped at
// 0.95 so promoted hints never claim certainty. Recency is deliberately
// excluded so repeated runs over unchanged stats produce identical
// confidences.
func PromotionConfidence(stat *model.MerchantCategoryStat) float64 {
	total := float64(stat.Total())
	if total == 0 {
		return 0
	}

	evidenceWeight := total / (total + 3)
	confidence := 0.5 + 0.45*stat.AcceptRatio()*evidenceWeight
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}
