package model

import "time"

// Category represents a valid spending category. Hints and rules may only
// reference active categories. Categories flagged as default priors are
// appended as low-score fallback candidates when a transaction has few
// other signals.
type Category struct {
	CreatedAt      time.Time
	Name           string
	Description    string
	ID             int
	IsActive       bool
	IsDefaultPrior bool
}
