package model

import "time"

// RuleTarget selects which transaction field a rule pattern is evaluated against.
type RuleTarget string

const (
	// TargetMerchant evaluates the pattern against the merchant text.
	TargetMerchant RuleTarget = "merchant"
	// TargetDescription evaluates the pattern against the free-text description.
	TargetDescription RuleTarget = "description"
)

// Rule represents a user-authored regex-to-category mapping. Rules are
// read-only to the suggestion engine; a rule whose pattern fails to compile
// is skipped at evaluation time, never a request failure.
type Rule struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Target    RuleTarget `json:"target"`
	Category  string    `json:"category"`
	ID        int       `json:"id"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"is_active"`
}
