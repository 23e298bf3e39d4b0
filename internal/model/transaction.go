// Package model defines the core data structures for the saffron suggestion engine.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single financial transaction from any source.
// Transactions are created by ingestion and, within this service, mutated
// only by category assignment.
type Transaction struct {
	Date        time.Time
	ID          string
	Merchant    string // Raw merchant text as reported by the processor
	Description string // Free-text description
	Hash        string
	Category    *string // Assigned category, nil until categorized
	Amount      float64 // Signed: negative for spend, positive for income
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Merchant)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
