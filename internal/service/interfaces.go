// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgermint/saffron/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	SetTransactionCategory(ctx context.Context, id string, category string) error

	// Hint operations
	GetHint(ctx context.Context, merchant, category string) (*model.Hint, error)
	GetHintsForMerchant(ctx context.Context, merchant string) ([]model.Hint, error)
	GetAllHints(ctx context.Context) ([]model.Hint, error)
	SaveHint(ctx context.Context, hint *model.Hint) error
	DeleteHint(ctx context.Context, merchant, category string) error
	IncrementHintUseCount(ctx context.Context, merchant, category string) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	GetAllRules(ctx context.Context) ([]model.Rule, error)
	DeactivateRule(ctx context.Context, id int) error

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetDefaultPriorCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name, description string, isDefaultPrior bool) (*model.Category, error)

	// Feedback operations
	RecordFeedback(ctx context.Context, event *model.FeedbackEvent) error
	GetFeedbackEvents(ctx context.Context, transactionID string) ([]model.FeedbackEvent, error)
	GetStat(ctx context.Context, merchant, category string) (*model.MerchantCategoryStat, error)
	GetPromotableStats(ctx context.Context, minTotal int, minAcceptRatio float64) ([]model.MerchantCategoryStat, error)

	// Database management
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// PromotionSummary reports the outcome of a promotion run.
type PromotionSummary struct {
	Promoted int `json:"promoted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	DryRun   bool `json:"dry_run"`
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
