package labels

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

func sourceTable(n int) *schema.Table {
	records := make([]schema.Record, n)
	for i := 0; i < n; i++ {
		records[i] = schema.Record{ID: int64(i), Attributes: map[string]string{"surname": "Lee"}}
	}
	return schema.NewTable(records)
}

func TestInitBuildsPosAndNeg(t *testing.T) {
	table := sourceTable(20)
	rng := rand.New(rand.NewSource(1))
	store, err := Init(context.Background(), table, []string{"surname"}, rng, 2, runstats.New())
	require.NoError(t, err)

	require.Len(t, store.Pos, 4)
	require.Len(t, store.Neg, NegSampleSize)

	// pos x pos: C(4,2) = 6 positive labels; neg x neg: C(10,2) = 45 negatives.
	require.Len(t, store.Positives(), 6)
	require.Len(t, store.Negatives(), 45)
}

func TestInitPosSyntheticIDs(t *testing.T) {
	table := sourceTable(20)
	rng := rand.New(rand.NewSource(2))
	store, err := Init(context.Background(), table, []string{"surname"}, rng, 1, runstats.New())
	require.NoError(t, err)

	ids := make(map[int64]bool)
	for _, r := range store.Pos {
		ids[r.ID] = true
	}
	require.True(t, ids[PosSynthetic1])
	require.True(t, ids[PosSynthetic2])
	require.True(t, ids[PosSynthetic3])
}

func TestResampleKeepsLabelsRowCount(t *testing.T) {
	table := sourceTable(20)
	rng := rand.New(rand.NewSource(3))
	store, err := Init(context.Background(), table, []string{"surname"}, rng, 1, runstats.New())
	require.NoError(t, err)
	before := len(store.Labels)

	require.NoError(t, store.Resample(context.Background(), []string{"surname"}, 1, runstats.New()))
	require.Equal(t, before, len(store.Labels))
}

func TestInitEmptyTable(t *testing.T) {
	table := schema.NewTable(nil)
	rng := rand.New(rand.NewSource(4))
	store, err := Init(context.Background(), table, []string{"surname"}, rng, 1, runstats.New())
	require.NoError(t, err)
	require.Empty(t, store.Pos)
}
