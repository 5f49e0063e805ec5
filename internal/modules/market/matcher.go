package market

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultMatchCutoff is the minimum similarity ratio for a fuzzy item match.
const DefaultMatchCutoff = 0.7

// ApproximateMatch returns the candidate most similar to query, if its
// similarity ratio is at least cutoff. Ties go to the lexically greatest
// candidate so the result does not depend on input order.
func ApproximateMatch(query string, candidates []string, cutoff float64) (string, bool) {
	if query == "" || len(candidates) == 0 {
		return "", false
	}

	matcher := difflib.NewMatcher(nil, nil)
	matcher.SetSeq2(splitChars(query))

	best := ""
	bestScore := -1.0
	for _, candidate := range candidates {
		matcher.SetSeq1(splitChars(candidate))
		if matcher.RealQuickRatio() < cutoff || matcher.QuickRatio() < cutoff {
			continue
		}
		score := matcher.Ratio()
		if score < cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && candidate > best) {
			best = candidate
			bestScore = score
		}
	}

	return best, bestScore >= 0
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
