package enrich

import "strings"

// Mask is the placeholder character in a masked address.
const Mask = '*'

// MatchMasked reports whether candidate is consistent with pattern, where
// every '*' in pattern stands for exactly one character of candidate.
// Lengths are compared in runes and must be equal. The remaining positions
// are compared case-insensitively.
func MatchMasked(candidate, pattern string) bool {
	c := []rune(candidate)
	p := []rune(pattern)
	if len(c) != len(p) {
		return false
	}
	for i, pr := range p {
		if pr == Mask || pr == c[i] {
			continue
		}
		if !strings.EqualFold(string(pr), string(c[i])) {
			return false
		}
	}
	return true
}
