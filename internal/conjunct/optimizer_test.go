package conjunct

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projectdiscovery/erblock/internal/blocking"
	"github.com/projectdiscovery/erblock/internal/candidates"
	"github.com/projectdiscovery/erblock/internal/labels"
	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

func conjunctSample() *schema.Table {
	records := make([]schema.Record, 0, 20)
	for i := int64(0); i < 10; i++ {
		records = append(records, schema.Record{ID: i, Attributes: map[string]string{"surname": "Lee", "given": "Ann"}})
	}
	for i := int64(10); i < 20; i++ {
		records = append(records, schema.Record{ID: i, Attributes: map[string]string{"surname": "Kim", "given": "Bob"}})
	}
	return schema.NewTable(records)
}

func buildLabelSet(t *testing.T, sample *schema.Table) *labels.Store {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	store, err := labels.Init(context.Background(), sample, []string{"surname", "given"}, rng, 1, runstats.New())
	require.NoError(t, err)
	return store
}

func TestScoreMemoizesOnSortedKey(t *testing.T) {
	sample := conjunctSample()
	surname := blocking.Scheme{Kind: blocking.KindExact, Attribute: "surname"}
	given := blocking.Scheme{Kind: blocking.KindExact, Attribute: "given"}
	sr, err := NewSearcher([]blocking.Scheme{surname, given}, sample, nil, 0, candidates.ModeDedupe, nil)
	require.NoError(t, err)

	a := sr.Score([]string{surname.ID(), given.ID()})
	b := sr.Score([]string{given.ID(), surname.ID()})
	require.Equal(t, a, b)
	require.Len(t, sr.memo, 1)
}

func TestAdmissibleRejectsTwoNgrams(t *testing.T) {
	s := StatsDict{
		Scheme:    []string{"ngrams_surname_3", "ngrams_given_3"},
		NPairs:    5,
		RR:        0.5,
		Positives: 1,
	}
	require.False(t, s.Admissible())
}

func TestAdmissibleRejectsFullReductionOrNoPositives(t *testing.T) {
	require.False(t, StatsDict{RR: 1.0, Positives: 1, NPairs: 5}.Admissible())
	require.False(t, StatsDict{RR: 0.5, Positives: 0, NPairs: 5}.Admissible())
	require.False(t, StatsDict{RR: 0.5, Positives: 1, NPairs: 1}.Admissible())
}

func TestBestSchemesStopsBeforeNCovered(t *testing.T) {
	ranked := []StatsDict{
		{Scheme: []string{"a"}, NPairs: 4, RR: 0.9},
		{Scheme: []string{"b"}, NPairs: 4, RR: 0.8},
		{Scheme: []string{"c"}, NPairs: 4, RR: 0.7},
	}
	out := BestSchemes(ranked, 10)
	require.Len(t, out, 2)
}

func TestAggregateDeterministicAcrossCPUs(t *testing.T) {
	sample := conjunctSample()
	catalog := []blocking.Scheme{
		{Kind: blocking.KindExact, Attribute: "surname"},
		{Kind: blocking.KindExact, Attribute: "given"},
	}
	labelSet := buildLabelSet(t, sample)

	sr1, err := NewSearcher(catalog, sample, labelSet, 0.1, candidates.ModeDedupe, nil)
	require.NoError(t, err)
	r1, err := Aggregate(context.Background(), sr1, 2, 1)
	require.NoError(t, err)

	sr2, err := NewSearcher(catalog, sample, labelSet, 0.1, candidates.ModeDedupe, nil)
	require.NoError(t, err)
	r2, err := Aggregate(context.Background(), sr2, 2, 4)
	require.NoError(t, err)

	require.Equal(t, r1, r2)
}
