// Package labels implements the label store and distance seeding (C4) of
// spec.md §4.4: positive/negative seed records and the labels table of
// known match/non-match pairs with precomputed distances.
package labels

import (
	"context"
	"math/rand"

	"github.com/projectdiscovery/erblock/internal/jaro"
	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

// Synthetic IDs assigned to the three duplicated copies of the positive
// seed record, per spec.md §4.4 ("duplicates it four times with IDs
// {-3,-2,-1,original}").
const (
	PosSynthetic1 int64 = -3
	PosSynthetic2 int64 = -2
	PosSynthetic3 int64 = -1
)

// NegSampleSize is the number of randomly drawn negative-seed records,
// per spec.md §3 ("neg: ten randomly drawn records").
const NegSampleSize = 10

// Row is one row of the persisted `labels` table: (_index_l, _index_r,
// label, dist_a1, ..., dist_am), per spec.md §6.
type Row struct {
	L, R  int64
	Label int // 1 = match, 0 = non-match
	Dist  []float64
}

// Store holds the pos/neg/labels tables, which persist across
// active-learning iterations unless the caller reseeds (spec.md §3
// Lifecycle).
type Store struct {
	Pos    []schema.Record
	Neg    []schema.Record
	Labels []Row
}

// Init implements spec.md §4.4's _init_pos/_init_neg/_init_labels: draw one
// random record and clone it into four distinct IDs (pos), draw ten more
// distinct random records (neg), then label every l<r pair within pos as
// 1 and within neg as 0 (cross-bucket pairs are never labelled — spec.md
// §9 adopts this intentionally) and materialize distances via the C7
// engine.
func Init(ctx context.Context, table *schema.Table, attrs []string, rng *rand.Rand, cpus int, stats *runstats.Collector) (*Store, error) {
	if table.Len() == 0 {
		return &Store{}, nil
	}

	posSource := table.Records[rng.Intn(len(table.Records))]
	pos := []schema.Record{
		withID(posSource, PosSynthetic1),
		withID(posSource, PosSynthetic2),
		withID(posSource, PosSynthetic3),
		posSource,
	}

	neg := sampleDistinct(table.Records, NegSampleSize, rng)

	store := &Store{Pos: pos, Neg: neg}
	if err := store.relabel(ctx, attrs, cpus, stats); err != nil {
		return nil, err
	}
	return store, nil
}

// Resample is the label-store half of initialize(resample=true) (spec.md
// §4.10): it recomputes the labels' distances and leaves pos/neg as they
// are. It does not touch the sample, which the caller redraws. Labels'
// (l,r,label) rows are unchanged, since pos/neg are unchanged.
func (s *Store) Resample(ctx context.Context, attrs []string, cpus int, stats *runstats.Collector) error {
	return s.relabel(ctx, attrs, cpus, stats)
}

func (s *Store) relabel(ctx context.Context, attrs []string, cpus int, stats *runstats.Collector) error {
	all := append(append([]schema.Record{}, s.Pos...), s.Neg...)
	lookup := schema.NewTable(all)

	var pairs []schema.Pair
	var labelOf = make(map[schema.Pair]int)
	addBucket := func(bucket []schema.Record, label int) {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				p := schema.Pair{L: bucket[i].ID, R: bucket[j].ID}.Normalize()
				pairs = append(pairs, p)
				labelOf[p] = label
			}
		}
	}
	addBucket(s.Pos, 1)
	addBucket(s.Neg, 0)

	matrix, err := jaro.Compute(ctx, pairs, lookup, lookup, attrs, 1000, cpus, stats)
	if err != nil {
		return err
	}

	rows := make([]Row, len(pairs))
	for i, p := range pairs {
		rows[i] = Row{L: p.L, R: p.R, Label: labelOf[p], Dist: matrix.D[i]}
	}
	s.Labels = rows
	return nil
}

// Positives returns the labelled positive pairs.
func (s *Store) Positives() []Row { return filterLabel(s.Labels, 1) }

// Negatives returns the labelled negative pairs.
func (s *Store) Negatives() []Row { return filterLabel(s.Labels, 0) }

func filterLabel(rows []Row, label int) []Row {
	var out []Row
	for _, r := range rows {
		if r.Label == label {
			out = append(out, r)
		}
	}
	return out
}

func withID(r schema.Record, id int64) schema.Record {
	attrs := make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	return schema.Record{ID: id, Attributes: attrs, Origin: r.Origin}
}

func sampleDistinct(records []schema.Record, n int, rng *rand.Rand) []schema.Record {
	if len(records) <= n {
		out := make([]schema.Record, len(records))
		copy(out, records)
		return out
	}
	idx := rng.Perm(len(records))[:n]
	out := make([]schema.Record, n)
	for i, ix := range idx {
		out[i] = records[ix]
	}
	return out
}
