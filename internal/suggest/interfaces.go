// Package suggest implements the merchant-category suggestion engine:
// candidate assembly from hints, rules, and fallback priors, feedback
// recording, and batch promotion of strong feedback into hints.
package suggest

import (
	"context"

	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/service"
)

// Reason tags why a category was suggested. The set is closed; the UI
// renders these directly.
type Reason string

const (
	// ReasonHint marks a candidate sourced from a persisted merchant hint.
	ReasonHint Reason = "hint"
	// ReasonRule marks a candidate sourced from a matching category rule.
	ReasonRule Reason = "rule"
	// ReasonFallback marks a static prior appended when signals are sparse.
	ReasonFallback Reason = "fallback"
	// ReasonFeedbackAdjusted marks a score moved by accumulated feedback.
	ReasonFeedbackAdjusted Reason = "feedback_adjusted"
)

// Suggestion is a single ranked category candidate.
type Suggestion struct {
	Category string   `json:"category"`
	Reasons  []Reason `json:"reasons"`
	Score    float64  `json:"score"`
}

// CategorySuggester produces ranked category candidates for a transaction.
type CategorySuggester interface {
	// Suggest returns up to N candidates ordered by descending score.
	Suggest(ctx context.Context, transactionID string) ([]Suggestion, error)
}

// Matcher evaluates transactions against category rules.
type Matcher interface {
	// Match returns the active rules whose patterns match the transaction,
	// highest priority first.
	Match(ctx context.Context, txn model.Transaction) ([]model.Rule, error)
}

// FeedbackRecorder records accept/reject feedback on suggestions.
type FeedbackRecorder interface {
	Record(ctx context.Context, transactionID, merchant, category string, action model.FeedbackAction) error
}

// HintPromoter converts strong feedback aggregates into persisted hints.
type HintPromoter interface {
	Run(ctx context.Context, dryRun bool) (service.PromotionSummary, error)
}
