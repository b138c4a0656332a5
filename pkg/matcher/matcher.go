// pkg/matcher/matcher.go
package matcher

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/catalog"
)

// DefaultMinConfidence is the lowest score that still counts as a recognized instruction
const DefaultMinConfidence = 60.0

// MatchResult is the outcome of resolving one instruction
type MatchResult struct {
	ActionID      string  // Empty when the instruction was not recognized
	Confidence    float64 // Best score in [0,100], reported even when unrecognized
	MatchedPhrase string  // Catalog phrase that produced the best score
}

// Matched reports whether an action was recognized
func (r MatchResult) Matched() bool {
	return r.ActionID != ""
}

// Candidate is the best score of a single action
type Candidate struct {
	ActionID   string
	Phrase     string
	Confidence float64
}

// Option configures a Matcher
type Option func(*Matcher)

// WithScorer replaces the default partial-ratio scoring strategy
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// WithMinConfidence overrides the recognition threshold
func WithMinConfidence(threshold float64) Option {
	return func(m *Matcher) {
		m.minConfidence = threshold
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Matcher maps free-text instructions to catalog actions by lexical similarity.
// It holds no per-call state and is safe for concurrent use.
type Matcher struct {
	catalog       *catalog.Catalog
	scorer        Scorer
	minConfidence float64
	logger        *zap.Logger
}

// New creates a Matcher over the given catalog
func New(c *catalog.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		catalog:       c,
		scorer:        ScorerFunc(PartialRatio),
		minConfidence: DefaultMinConfidence,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns the catalog the matcher resolves against
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.catalog
}

// MinConfidence returns the recognition threshold
func (m *Matcher) MinConfidence() float64 {
	return m.minConfidence
}

// Resolve scores the instruction against every (action, phrase) pair and keeps
// the first highest score. Scores below the threshold resolve to no action.
func (m *Matcher) Resolve(instruction string) MatchResult {
	text := normalize(instruction)

	var best MatchResult
	found := false
	for _, action := range m.catalog.Actions() {
		for _, phrase := range action.TriggerPhrases {
			score := clamp(m.scorer.Score(text, phrase))
			if !found || score > best.Confidence {
				best = MatchResult{ActionID: action.ID, Confidence: score, MatchedPhrase: phrase}
				found = true
			}
		}
	}

	if best.Confidence < m.minConfidence {
		m.logger.Debug("Instruction not recognized",
			zap.String("instruction", text),
			zap.Float64("confidence", best.Confidence),
			zap.String("closestAction", best.ActionID))
		return MatchResult{Confidence: best.Confidence, MatchedPhrase: best.MatchedPhrase}
	}

	m.logger.Debug("Instruction resolved",
		zap.String("instruction", text),
		zap.String("action", best.ActionID),
		zap.String("phrase", best.MatchedPhrase),
		zap.Float64("confidence", best.Confidence))
	return best
}

// Rank returns the best score of every action, highest first.
// Actions with equal scores keep catalog order.
func (m *Matcher) Rank(instruction string) []Candidate {
	text := normalize(instruction)
	actions := m.catalog.Actions()

	candidates := make([]Candidate, 0, len(actions))
	for _, action := range actions {
		c := Candidate{ActionID: action.ID}
		for i, phrase := range action.TriggerPhrases {
			score := clamp(m.scorer.Score(text, phrase))
			if i == 0 || score > c.Confidence {
				c.Confidence = score
				c.Phrase = phrase
			}
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

func normalize(instruction string) string {
	return strings.ToLower(strings.TrimSpace(instruction))
}

func clamp(score float64) float64 {
	switch {
	case score < 0 || math.IsNaN(score):
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
