package jaro

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

// Matrix is the aligned distance matrix D[|pairs|][|attrs|] of spec.md
// §4.7: D[i] holds the per-attribute Jaro similarity for Pairs[i].
type Matrix struct {
	Attributes []string
	Pairs      []schema.Pair
	D          [][]float64
}

// Mean returns the mean similarity across attributes for row i, the
// score computation of spec.md §4.8.
func (m *Matrix) Mean(i int) float64 {
	row := m.D[i]
	if len(row) == 0 {
		return 0
	}
	var sum float64
	for _, v := range row {
		sum += v
	}
	return sum / float64(len(row))
}

// Compute builds the distance matrix for pairs over attrs, resolving the
// left endpoint from left and the right endpoint from right (right == left
// in dedupe mode). Work is partitioned into fixed-size chunks (default
// 1000 pairs per spec.md §5) and run across a bounded worker pool; output
// is independent of chunk size or worker count (spec.md §8 property 6/F).
func Compute(ctx context.Context, pairs []schema.Pair, left, right *schema.Table, attrs []string, chunkSize, cpus int, stats *runstats.Collector) (*Matrix, error) {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	m := &Matrix{
		Attributes: attrs,
		Pairs:      pairs,
		D:          make([][]float64, len(pairs)),
	}
	if len(pairs) == 0 {
		return m, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if cpus > 0 {
		g.SetLimit(cpus)
	}

	for start := 0; start < len(pairs); start += chunkSize {
		start := start
		end := start + chunkSize
		if end > len(pairs) {
			end = len(pairs)
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			memo := NewMemo()
			for i := start; i < end; i++ {
				m.D[i] = computeRow(memo, pairs[i], left, right, attrs, stats)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func computeRow(memo *Memo, p schema.Pair, left, right *schema.Table, attrs []string, stats *runstats.Collector) []float64 {
	if right == nil {
		right = left
	}
	lrec, lok := left.Get(p.L)
	rrec, rok := right.Get(p.R)
	row := make([]float64, len(attrs))
	for i, attr := range attrs {
		if !lok || !rok {
			row[i] = 0
			if stats != nil {
				stats.IncDistanceError()
			}
			continue
		}
		lv, rv := lrec.Attr(attr), rrec.Attr(attr)
		if lv == "" || rv == "" {
			row[i] = 0
			if stats != nil {
				stats.IncDistanceError()
			}
			continue
		}
		row[i] = memo.Similarity(lv, rv)
	}
	return row
}
