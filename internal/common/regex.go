package common

import (
	"fmt"
	"regexp"
)

// ValidatePattern checks that a rule pattern compiles as a regular
// expression. A failure is advisory: rules with bad patterns are stored
// but skipped during matching.
func ValidatePattern(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}
