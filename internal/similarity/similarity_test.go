package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenderwatch/internal/similarity"
)

func TestDistanceIdentical(t *testing.T) {
	s := similarity.NewDiceScorer()
	require.Equal(t, 0.0, s.Distance("Suministro de papel", "Suministro de papel"))
}

func TestDistanceWhitespaceAndCase(t *testing.T) {
	s := similarity.NewDiceScorer()
	d := s.Distance("  Suministro  de papel ", "suministro de PAPEL")
	require.LessOrEqual(t, d, similarity.DefaultThreshold,
		"case/whitespace variants must resolve to the same tender")
}

func TestDistanceUnrelated(t *testing.T) {
	s := similarity.NewDiceScorer()
	d := s.Distance("Suministro de papel", "Construcción de puente")
	require.Greater(t, d, similarity.DefaultThreshold,
		"unrelated names must resolve to distinct tenders")
}

func TestDistanceEmpty(t *testing.T) {
	s := similarity.NewDiceScorer()
	require.Equal(t, 0.0, s.Distance("", ""))
	require.Equal(t, 1.0, s.Distance("algo", ""))
}
