// Package similarity scores how close two tender names are. The identity
// resolver treats a candidate as the same tender when its distance is at
// or below a configured threshold.
package similarity

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultThreshold mirrors the tuned matching cutoff: distances at or
// below it mean "same tender". Exposed so callers can override it from
// configuration.
const DefaultThreshold = 0.55

// Scorer computes a distance between two strings on a 0..1 scale where
// 0 is a perfect match and 1 is completely unrelated.
type Scorer interface {
	Distance(a, b string) float64
}

// DiceScorer is the default Scorer: case-insensitive bigram
// Sørensen–Dice similarity, inverted into a distance. Whitespace runs
// are collapsed first so formatting noise in scraped names does not
// count against the score.
type DiceScorer struct {
	metric *metrics.SorensenDice
}

func NewDiceScorer() *DiceScorer {
	m := metrics.NewSorensenDice()
	m.CaseSensitive = false
	m.NgramSize = 2
	return &DiceScorer{metric: m}
}

func (s *DiceScorer) Distance(a, b string) float64 {
	a = collapseSpaces(a)
	b = collapseSpaces(b)
	if a == "" && b == "" {
		return 0
	}
	return 1 - strutil.Similarity(a, b, s.metric)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
