package suggest

import (
	"context"
	"log/slog"
	"regexp"
	"sort"

	"github.com/ledgermint/saffron/internal/model"
)

// MatcherImpl implements Matcher for evaluating category rules.
type MatcherImpl struct {
	compiledRegex map[int]*regexp.Regexp
	rules         []model.Rule
}

// NewMatcher creates a matcher over the given rules. Patterns that fail to
// compile are logged and skipped; one bad rule never fails a suggestion
// request.
func NewMatcher(rules []model.Rule) *MatcherImpl {
	m := &MatcherImpl{
		rules:         rules,
		compiledRegex: make(map[int]*regexp.Regexp),
	}

	for _, rule := range rules {
		if rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			slog.Warn("skipping rule with invalid pattern",
				"rule_id", rule.ID,
				"pattern", rule.Pattern,
				"error", err)
			continue
		}
		m.compiledRegex[rule.ID] = re
	}

	return m
}

// Match evaluates a transaction against all configured rules and returns
// matching rules, highest priority first.
func (m *MatcherImpl) Match(_ context.Context, txn model.Transaction) ([]model.Rule, error) {
	var matches []model.Rule

	for _, rule := range m.rules {
		if !rule.IsActive {
			continue
		}

		re, ok := m.compiledRegex[rule.ID]
		if !ok {
			// Pattern failed to compile at construction time.
			continue
		}

		if re.MatchString(m.targetText(txn, rule)) {
			matches = append(matches, rule)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority > matches[j].Priority
	})

	return matches, nil
}

// targetText selects the transaction field a rule is evaluated against.
func (m *MatcherImpl) targetText(txn model.Transaction, rule model.Rule) string {
	if rule.Target == model.TargetDescription {
		return txn.Description
	}
	return txn.Merchant
}
