// Package classify implements the threshold classifier (C8) of spec.md
// §4.8: a per-pair similarity score (mean across attributes) and a
// match/non-match label from a learned or default threshold.
package classify

import (
	"sort"

	"github.com/projectdiscovery/erblock/internal/jaro"
	"github.com/projectdiscovery/erblock/internal/labels"
	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

// Result is one classified candidate pair.
type Result struct {
	Pair    schema.Pair
	Score   float64
	IsMatch bool
}

// MinLabelsPerClass is the minimum count of each label class required
// before a learned threshold is trusted, per spec.md §7 LabelShortage
// ("Fewer than 2 positives or 2 negatives").
const MinLabelsPerClass = 2

// LearnThreshold picks the threshold from the labelled distance
// distribution that maximises F1, per spec.md §4.8. If there are fewer
// than MinLabelsPerClass positives or negatives, it falls back to
// defaultThreshold and records a LabelShortage.
func LearnThreshold(rows []labels.Row, defaultThreshold float64, stats *runstats.Collector) float64 {
	pos := countLabel(rows, 1)
	neg := countLabel(rows, 0)
	if pos < MinLabelsPerClass || neg < MinLabelsPerClass {
		if stats != nil {
			stats.MarkLabelShortage()
		}
		return defaultThreshold
	}

	candidates := candidateThresholds(rows)
	bestThreshold := defaultThreshold
	bestF1 := -1.0
	for _, t := range candidates {
		f1 := f1At(rows, t)
		if f1 > bestF1 {
			bestF1 = f1
			bestThreshold = t
		}
	}
	return bestThreshold
}

func countLabel(rows []labels.Row, label int) int {
	n := 0
	for _, r := range rows {
		if r.Label == label {
			n++
		}
	}
	return n
}

func candidateThresholds(rows []labels.Row) []float64 {
	seen := make(map[float64]struct{}, len(rows))
	var out []float64
	for _, r := range rows {
		s := mean(r.Dist)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Float64s(out)
	return out
}

func f1At(rows []labels.Row, threshold float64) float64 {
	var tp, fp, fn float64
	for _, r := range rows {
		predicted := mean(r.Dist) >= threshold
		actual := r.Label == 1
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		}
	}
	if tp == 0 {
		return 0
	}
	precision := tp / (tp + fp)
	recall := tp / (tp + fn)
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func mean(d []float64) float64 {
	if len(d) == 0 {
		return 0
	}
	var sum float64
	for _, v := range d {
		sum += v
	}
	return sum / float64(len(d))
}

// Classify applies threshold to every row of matrix, producing
// spec.md §4.8's y[i] = "Yes"/"No" decision as the boolean IsMatch. No
// "Yes"/"No" or record-linkage "1"/"0" label values are rendered anywhere
// in this repository; callers consume IsMatch directly.
func Classify(matrix *jaro.Matrix, threshold float64) []Result {
	out := make([]Result, len(matrix.Pairs))
	for i, p := range matrix.Pairs {
		score := matrix.Mean(i)
		out[i] = Result{Pair: p, Score: score, IsMatch: score >= threshold}
	}
	return out
}
