package model

import "time"

// FeedbackAction is a user's response to a suggested category.
type FeedbackAction string

const (
	// ActionAccept records that the user accepted the suggestion.
	ActionAccept FeedbackAction = "accept"
	// ActionReject records that the user rejected the suggestion.
	ActionReject FeedbackAction = "reject"
)

// Valid reports whether the action is a known feedback action.
func (a FeedbackAction) Valid() bool {
	return a == ActionAccept || a == ActionReject
}

// FeedbackEvent is an append-only record of a single accept/reject action
// on a suggested (transaction, category) pair. Events are never mutated
// or deleted.
type FeedbackEvent struct {
	CreatedAt     time.Time
	ID            string
	TransactionID string
	Merchant      string // Canonical merchant name
	Category      string
	Action        FeedbackAction
}

// MerchantCategoryStat is the running accept/reject aggregate for a
// (canonical merchant, category) pair. Counters are maintained by atomic
// database-level increments on every feedback event.
type MerchantCategoryStat struct {
	LastSeen    time.Time
	Merchant    string
	Category    string
	AcceptCount int
	RejectCount int
}

// Total returns the total number of feedback events recorded for the pair.
func (s *MerchantCategoryStat) Total() int {
	return s.AcceptCount + s.RejectCount
}

// AcceptRatio returns the fraction of feedback that was an accept.
// Returns 0 when no feedback has been recorded.
func (s *MerchantCategoryStat) AcceptRatio() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.AcceptCount) / float64(total)
}
