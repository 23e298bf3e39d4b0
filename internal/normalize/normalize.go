// Package normalize converts raw merchant strings into canonical names
// usable as join keys for hints and feedback statistics.
package normalize

import (
	"strings"
	"unicode"
)

// Processor prefixes that carry no merchant information.
var noisePrefixes = []string{
	"sq *",
	"sq*",
	"tst* ",
	"tst*",
	"pos ",
	"paypal *",
	"pp*",
	"sp ",
	"dd *",
}

// Merchant returns the canonical form of a raw merchant string: case-folded,
// with processor noise prefixes, store numbers, and digit-only tokens
// removed. The result is deterministic and safe to use as a database key.
// A raw string that normalizes to nothing falls back to its case-folded form.
func Merchant(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(raw))

	s := folded
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if isNoiseToken(field) {
			continue
		}
		kept = append(kept, field)
	}

	s = strings.Trim(strings.Join(kept, " "), " -*.")
	if s == "" {
		return folded
	}
	return s
}

// isNoiseToken reports whether a token is a store number ("#4521"),
// a bare digit run, or a masked card reference ("xxxx1234").
func isNoiseToken(token string) bool {
	trimmed := strings.Trim(token, "#*")
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(token, "#") {
		return true
	}
	if strings.HasPrefix(trimmed, "xxxx") {
		trimmed = strings.TrimPrefix(trimmed, "xxxx")
	}
	for _, r := range trimmed {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
