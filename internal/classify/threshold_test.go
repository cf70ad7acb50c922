package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projectdiscovery/erblock/internal/jaro"
	"github.com/projectdiscovery/erblock/internal/labels"
	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

func TestLearnThresholdFallsBackOnLabelShortage(t *testing.T) {
	rows := []labels.Row{
		{L: 1, R: 2, Label: 1, Dist: []float64{0.9}},
		{L: 3, R: 4, Label: 0, Dist: []float64{0.1}},
	}
	stats := runstats.New()
	got := LearnThreshold(rows, 0.85, stats)
	require.Equal(t, 0.85, got)
	require.True(t, stats.Snapshot().LabelShortage)
}

func TestLearnThresholdMaximizesF1(t *testing.T) {
	rows := []labels.Row{
		{L: 1, R: 2, Label: 1, Dist: []float64{0.95}},
		{L: 3, R: 4, Label: 1, Dist: []float64{0.90}},
		{L: 5, R: 6, Label: 0, Dist: []float64{0.40}},
		{L: 7, R: 8, Label: 0, Dist: []float64{0.30}},
	}
	got := LearnThreshold(rows, 0.85, nil)
	require.GreaterOrEqual(t, got, 0.40)
	require.LessOrEqual(t, got, 0.90)
}

func TestClassifyAppliesThreshold(t *testing.T) {
	matrix := &jaro.Matrix{
		Pairs: []schema.Pair{{L: 1, R: 2}, {L: 1, R: 3}},
		D:     [][]float64{{0.9, 0.9}, {0.2, 0.2}},
	}
	out := Classify(matrix, 0.85)
	require.Len(t, out, 2)
	require.True(t, out[0].IsMatch)
	require.False(t, out[1].IsMatch)
}
