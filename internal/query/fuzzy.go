// file: internal/query/fuzzy.go
// version: 1.2.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

package query

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Scorer rates how well a free-text query matches a candidate field value.
// ok is false when the candidate does not qualify at all. Higher scores
// rank earlier. Implementations must be deterministic.
type Scorer interface {
	Score(query, candidate string) (score int, ok bool)
}

// Scoring weights for SubsequenceScorer. A candidate only qualifies when
// every query character appears in it in order; within qualifying
// candidates, contiguous runs and word-boundary hits rank higher and long
// candidates rank lower.
const (
	matchBase        = 4  // per matched query character
	runBonus         = 8  // per character extending a contiguous run
	boundaryBonus    = 10 // match lands on a word start
	lengthPenaltyDiv = 4  // penalty = len(candidate)/lengthPenaltyDiv ...
	maxLengthPenalty = 40 // ... capped here
)

// SubsequenceScorer is the default Scorer. The subsequence gate comes from
// lithammer/fuzzysearch; the weighting walks the candidate greedily
// left-to-right, mirroring the gate's match order.
type SubsequenceScorer struct{}

func (SubsequenceScorer) Score(query, candidate string) (int, bool) {
	q := normalize(query)
	c := normalize(candidate)
	if q == "" || c == "" {
		return 0, false
	}
	if !fuzzy.MatchFold(q, c) {
		return 0, false
	}

	qr := []rune(q)
	score := 0
	qi := 0
	prevMatched := false
	prevRune := ' '
	for _, r := range c {
		if qi < len(qr) && r == qr[qi] {
			score += matchBase
			if prevMatched {
				score += runBonus
			}
			if prevRune == ' ' {
				score += boundaryBonus
			}
			prevMatched = true
			qi++
		} else {
			prevMatched = false
		}
		prevRune = r
	}

	penalty := len(c) / lengthPenaltyDiv
	if penalty > maxLengthPenalty {
		penalty = maxLengthPenalty
	}
	score -= penalty
	if score < 1 {
		// Qualifying candidates always stay above the exclusion threshold.
		score = 1
	}
	return score, true
}

// normalize lower-cases and collapses whitespace so scoring is insensitive
// to casing and spacing.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
