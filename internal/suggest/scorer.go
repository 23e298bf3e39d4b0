package suggest

import "github.com/ledgermint/saffron/internal/model"

// Params holds the scoring constants for the suggestion assembler.
type Params struct {
	// FeedbackWeight scales the feedback adjustment (k).
	FeedbackWeight float64
	// Shrinkage dampens the adjustment when evidence is sparse (c).
	Shrinkage float64
	// RuleScore is the fixed base score for rule-sourced candidates.
	RuleScore float64
	// FallbackScore is the base score for static prior candidates.
	FallbackScore float64
	// MaxResults caps the number of returned suggestions.
	MaxResults int
	// MinCandidates is the candidate count below which fallback priors
	// are appended.
	MinCandidates int
}

// DefaultParams returns the production scoring constants.
func DefaultParams() Params {
	return Params{
		FeedbackWeight: 0.15,
		Shrinkage:      2,
		RuleScore:      0.75,
		FallbackScore:  0.3,
		MaxResults:     3,
		MinCandidates:  3,
	}
}

// adjustScore applies the feedback adjustment to a base score:
//
//	adjusted = base + k * (accepts - rejects) / (accepts + rejects + c)
//
// clamped to [0,1]. The shrinkage constant c keeps sparse evidence close
// to the base score; as evidence accumulates the score pulls toward 1
// (all accepts) or 0 (all rejects). The second return value reports
// whether the score actually moved.
func (p Params) adjustScore(base float64, stat *model.MerchantCategoryStat) (float64, bool) {
	if stat == nil || stat.Total() == 0 {
		return base, false
	}

	delta := p.FeedbackWeight *
		float64(stat.AcceptCount-stat.RejectCount) /
		(float64(stat.Total()) + p.Shrinkage)

	adjusted := clamp01(base + delta)
	return adjusted, adjusted != base
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
