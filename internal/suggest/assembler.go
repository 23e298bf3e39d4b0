package suggest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/normalize"
	"github.com/ledgermint/saffron/internal/service"
)

// Ensure Assembler implements CategorySuggester.
var _ CategorySuggester = (*Assembler)(nil)

// Assembler merges three suggestion sources into a ranked candidate list:
// persisted hints for the canonical merchant, regex category rules, and
// static fallback priors. Each candidate's score is then adjusted by the
// accumulated accept/reject statistic for its (merchant, category) pair.
// Suggest is a pure read: no side effects.
type Assembler struct {
	store  service.Storage
	params Params
}

// NewAssembler creates a suggestion assembler backed by the given store.
func NewAssembler(store service.Storage, params Params) *Assembler {
	return &Assembler{
		store:  store,
		params: params,
	}
}

// candidate is an intermediate scoring record, one per (source, category).
type candidate struct {
	category string
	reasons  []Reason
	score    float64
}

// Suggest returns up to MaxResults candidates for the transaction,
// ordered by descending score. An unknown transaction yields
// common.ErrNotFound.
func (a *Assembler) Suggest(ctx context.Context, transactionID string) ([]Suggestion, error) {
	txn, err := a.store.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	canonical := normalize.Merchant(txn.Merchant)

	candidates, err := a.gatherCandidates(ctx, txn, canonical)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		stat, err := a.statFor(ctx, canonical, candidates[i].category)
		if err != nil {
			return nil, err
		}
		adjusted, moved := a.params.adjustScore(candidates[i].score, stat)
		candidates[i].score = adjusted
		if moved {
			candidates[i].reasons = append(candidates[i].reasons, ReasonFeedbackAdjusted)
		}
	}

	return a.rank(candidates), nil
}

// gatherCandidates collects hint, rule, and fallback candidates in that
// order. Fallback priors are appended only when the distinct category
// count is still below MinCandidates.
func (a *Assembler) gatherCandidates(ctx context.Context, txn *model.Transaction, canonical string) ([]candidate, error) {
	var candidates []candidate

	hints, err := a.store.GetHintsForMerchant(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to load hints: %w", err)
	}
	for _, hint := range hints {
		candidates = append(candidates, candidate{
			category: hint.Category,
			score:    hint.EffectiveConfidence(),
			reasons:  []Reason{ReasonHint},
		})
	}

	rules, err := a.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	matched, err := NewMatcher(rules).Match(ctx, *txn)
	if err != nil {
		return nil, fmt.Errorf("failed to match rules: %w", err)
	}
	for _, rule := range matched {
		candidates = append(candidates, candidate{
			category: rule.Category,
			score:    a.params.RuleScore,
			reasons:  []Reason{ReasonRule},
		})
	}

	if distinctCategories(candidates) < a.params.MinCandidates {
		priors, err := a.store.GetDefaultPriorCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback priors: %w", err)
		}
		for _, prior := range priors {
			candidates = append(candidates, candidate{
				category: prior.Name,
				score:    a.params.FallbackScore,
				reasons:  []Reason{ReasonFallback},
			})
		}
	}

	return candidates, nil
}

// statFor fetches the feedback aggregate for a candidate; absence of
// feedback is not an error.
func (a *Assembler) statFor(ctx context.Context, canonical, category string) (*model.MerchantCategoryStat, error) {
	stat, err := a.store.GetStat(ctx, canonical, category)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load stat: %w", err)
	}
	return stat, nil
}

// rank deduplicates candidates by category (keeping the highest score and
// the union of reasons), sorts descending by score, and truncates to
// MaxResults. Ties break alphabetically for deterministic output.
func (a *Assembler) rank(candidates []candidate) []Suggestion {
	best := make(map[string]candidate)
	for _, c := range candidates {
		existing, ok := best[c.category]
		if !ok {
			best[c.category] = c
			continue
		}
		if c.score > existing.score {
			c.reasons = mergeReasons(c.reasons, existing.reasons)
			best[c.category] = c
		} else {
			existing.reasons = mergeReasons(existing.reasons, c.reasons)
			best[c.category] = existing
		}
	}

	ranked := make([]Suggestion, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, Suggestion{
			Category: c.category,
			Score:    c.score,
			Reasons:  c.reasons,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Category < ranked[j].Category
	})

	if len(ranked) > a.params.MaxResults {
		ranked = ranked[:a.params.MaxResults]
	}
	return ranked
}

func distinctCategories(candidates []candidate) int {
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.category] = true
	}
	return len(seen)
}

func mergeReasons(primary, secondary []Reason) []Reason {
	seen := make(map[Reason]bool, len(primary))
	merged := make([]Reason, 0, len(primary)+len(secondary))
	for _, r := range primary {
		if !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	for _, r := range secondary {
		if !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	return merged
}
