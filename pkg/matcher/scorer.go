// pkg/matcher/scorer.go
package matcher

import (
	"fmt"
	"math"

	"github.com/lithammer/fuzzysearch/fuzzy"
	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Scorer rates how well two strings match on a 0-100 scale
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface
type ScorerFunc func(a, b string) float64

// Score calls f(a, b)
func (f ScorerFunc) Score(a, b string) float64 {
	return f(a, b)
}

// Scorer names accepted by ScorerByName
const (
	ScorerPartial     = "partial"
	ScorerLevenshtein = "levenshtein"
)

// ScorerByName returns a built-in scoring strategy
func ScorerByName(name string) (Scorer, error) {
	switch name {
	case "", ScorerPartial:
		return ScorerFunc(PartialRatio), nil
	case ScorerLevenshtein:
		return ScorerFunc(PartialLevenshtein), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// PartialRatio scores the best alignment of the shorter string inside the longer
// one by indel similarity. A shorter string fully contained in the longer one
// scores 100. Either string empty scores 0.
func PartialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return float64(fuzzywuzzy.PartialRatio(a, b))
}

// PartialLevenshtein slides the shorter string over every same-length window of
// the longer one and returns the best Levenshtein similarity
func PartialLevenshtein(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		score := levenshteinRatio(shorter, longer[start:start+len(shorter)])
		if score > best {
			best = score
			if best == 1 {
				break
			}
		}
	}

	return math.Round(best * 100)
}

func levenshteinRatio(s, t []rune) float64 {
	longest := len(s)
	if len(t) > longest {
		longest = len(t)
	}
	if longest == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(string(s), string(t))
	return 1 - float64(dist)/float64(longest)
}
