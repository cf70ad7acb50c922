package jaro

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

func sampleTable() *schema.Table {
	return schema.NewTable([]schema.Record{
		{ID: 1, Attributes: map[string]string{"given": "Ann", "surname": "Lee"}},
		{ID: 2, Attributes: map[string]string{"given": "Ann", "surname": "Lea"}},
		{ID: 3, Attributes: map[string]string{"given": "Annie", "surname": "Lee"}},
	})
}

func TestComputeDeterministicAcrossChunkSize(t *testing.T) {
	table := sampleTable()
	pairs := []schema.Pair{{L: 1, R: 2}, {L: 1, R: 3}, {L: 2, R: 3}}
	attrs := []string{"given", "surname"}

	m1, err := Compute(context.Background(), pairs, table, table, attrs, 1, 4, runstats.New())
	require.NoError(t, err)
	m2, err := Compute(context.Background(), pairs, table, table, attrs, 1000, 1, runstats.New())
	require.NoError(t, err)

	require.Equal(t, m1.D, m2.D)
}

func TestComputeMissingAttributeIsZeroAndCounted(t *testing.T) {
	table := schema.NewTable([]schema.Record{
		{ID: 1, Attributes: map[string]string{"given": "Ann"}},
		{ID: 2, Attributes: map[string]string{}},
	})
	stats := runstats.New()
	m, err := Compute(context.Background(), []schema.Pair{{L: 1, R: 2}}, table, table, []string{"given"}, 10, 1, stats)
	require.NoError(t, err)
	require.Equal(t, 0.0, m.D[0][0])
	require.Equal(t, 1, stats.Snapshot().DistanceErrors)
}

func TestMatrixMean(t *testing.T) {
	m := &Matrix{D: [][]float64{{1, 0.5}}}
	require.InDelta(t, 0.75, m.Mean(0), 1e-9)
}
