package model

import "time"

// HintSource indicates how a merchant-category hint was created.
type HintSource string

const (
	// SourceUser indicates the hint was authored directly by a user.
	SourceUser HintSource = "USER"
	// SourcePromoted indicates the hint was promoted from feedback statistics.
	SourcePromoted HintSource = "PROMOTED"
)

// DefaultHintConfidence is the base score for hints saved without an
// explicit confidence.
const DefaultHintConfidence = 0.6

// Hint represents a persisted (canonical merchant, category) preference.
// At most one hint exists per (merchant, category) pair; a merchant may
// have hints for several categories, ranked by confidence.
type Hint struct {
	LastUpdated time.Time
	Merchant    string // Canonical (normalized) merchant name
	Category    string
	Source      HintSource
	Confidence  *float64 // nil means unset
	UseCount    int
}

// EffectiveConfidence returns the hint's confidence, falling back to the
// default when none was recorded.
func (h *Hint) EffectiveConfidence() float64 {
	if h.Confidence != nil {
		return *h.Confidence
	}
	return DefaultHintConfidence
}
