// Package conjunct implements the conjunction optimizer (C5) and the
// conjunctions aggregator (C6) of spec.md §4.5-§4.6: a per-starting-scheme
// dynamic-programming search for the best conjunction of blocking schemes,
// and a worker-pool fan-out over every starting scheme with a top-K cover
// selection.
//
// The DP chain itself — grow a partial result by one dimension at a time,
// recursing until the structure is full — mirrors the incremental
// construction alterx's algo.go ClusterBomb/IndexMap uses to build up a
// payload vector one slot at a time; here each "slot" is the next scheme
// chosen by argmax instead of an exhaustive cartesian element.
package conjunct

import (
	"sort"
	"strings"
	"sync"

	"github.com/projectdiscovery/erblock/internal/blocking"
	"github.com/projectdiscovery/erblock/internal/candidates"
	"github.com/projectdiscovery/erblock/internal/labels"
	"github.com/projectdiscovery/erblock/internal/schema"
)

// Searcher evaluates and memoizes StatsDict for conjunctions drawn from a
// fixed catalog over a fixed sample. The memo lives only for the duration
// of one conjunctions() call (spec.md §4.5, §9), so a Searcher must be
// created fresh per fit.
type Searcher struct {
	Catalog   []blocking.Scheme
	Forward   map[string]*blocking.ForwardIndex // scheme ID -> forward index over sample
	SampleN   int
	LabelSet  *labels.Store
	MinRR     float64
	Mode      candidates.Mode
	OriginOf  func(id int64) (string, bool)

	memoMu sync.Mutex
	memo   map[string]StatsDict
}

// NewSearcher builds the forward indices for catalog over the sample
// table and prepares a fresh memoization cache.
func NewSearcher(catalog []blocking.Scheme, sample *schema.Table, labelSet *labels.Store, minRR float64, mode candidates.Mode, originOf func(id int64) (string, bool)) (*Searcher, error) {
	forward := make(map[string]*blocking.ForwardIndex, len(catalog))
	for _, s := range catalog {
		fi := buildSingle(s, sample)
		forward[s.ID()] = fi
	}
	return &Searcher{
		Catalog:  catalog,
		Forward:  forward,
		SampleN:  sample.Len(),
		LabelSet: labelSet,
		MinRR:    minRR,
		Mode:     mode,
		OriginOf: originOf,
		memo:     make(map[string]StatsDict),
	}, nil
}

func buildSingle(s blocking.Scheme, sample *schema.Table) *blocking.ForwardIndex {
	fi := &blocking.ForwardIndex{Scheme: s, BySignature: make(map[string][]int64)}
	for _, rec := range sample.Records {
		for _, sig := range s.Signatures(rec.Attr(s.Attribute)) {
			fi.Postings = append(fi.Postings, blocking.Posting{RecordID: rec.ID, Signature: sig})
			fi.BySignature[sig] = append(fi.BySignature[sig], rec.ID)
		}
	}
	return fi
}

// Score evaluates (and memoizes) a conjunction given as scheme IDs.
// Memoization key is the sorted tuple of scheme identifiers, per spec.md
// §4.5 ("score must be memoized on the sorted tuple of scheme
// identifiers").
func (sr *Searcher) Score(schemeIDs []string) StatsDict {
	sorted := append([]string(nil), schemeIDs...)
	sort.Strings(sorted)
	key := strings.Join(sorted, "\x1f")

	sr.memoMu.Lock()
	if v, ok := sr.memo[key]; ok {
		sr.memoMu.Unlock()
		return v
	}
	sr.memoMu.Unlock()

	v := sr.computeScore(sorted)

	sr.memoMu.Lock()
	sr.memo[key] = v
	sr.memoMu.Unlock()
	return v
}

func (sr *Searcher) computeScore(sortedIDs []string) StatsDict {
	conjunction := make([]*blocking.ForwardIndex, len(sortedIDs))
	for i, id := range sortedIDs {
		conjunction[i] = sr.Forward[id]
	}

	pairs := candidates.Generate(conjunction, sr.Mode, sr.OriginOf)
	nPairs := len(pairs)

	total := float64(sr.SampleN) * float64(sr.SampleN-1) / 2
	var rr float64
	if total > 0 {
		rr = 1 - float64(nPairs)/total
	}

	var positives, negatives float64
	if sr.LabelSet != nil {
		positives = coverage(pairs, sr.LabelSet.Positives())
		negatives = coverage(pairs, sr.LabelSet.Negatives())
	}

	return StatsDict{
		Scheme:    sortedIDs,
		NPairs:    nPairs,
		RR:        rr,
		Positives: positives,
		Negatives: negatives,
		NScheme:   len(sortedIDs),
	}
}

func coverage(pairs map[schema.Pair]struct{}, rows []labels.Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	hit := 0
	for _, row := range rows {
		p := schema.Pair{L: row.L, R: row.R}.Normalize()
		if _, ok := pairs[p]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(rows))
}

// BestChain runs the DP search of spec.md §4.5 starting from scheme s,
// returning the chain of StatsDict entries (length 1..k), or nil if the
// early-return condition fires (dp[0].positives == 0, dp[0].rr < minRR,
// or dp[0].rr == 1).
func (sr *Searcher) BestChain(start blocking.Scheme, k int) []StatsDict {
	dp0 := sr.Score([]string{start.ID()})
	if dp0.Positives == 0 || dp0.RR < sr.MinRR || dp0.RR == 1 {
		return nil
	}

	chain := []StatsDict{dp0}
	current := dp0
	for n := 1; n < k; n++ {
		best, ok := sr.bestExtension(current)
		if !ok {
			return chain
		}
		chain = append(chain, best)
		current = best
	}
	return chain
}

func (sr *Searcher) bestExtension(current StatsDict) (StatsDict, bool) {
	inCurrent := make(map[string]struct{}, len(current.Scheme))
	for _, id := range current.Scheme {
		inCurrent[id] = struct{}{}
	}

	var best StatsDict
	found := false
	for _, x := range sr.Catalog {
		if _, ok := inCurrent[x.ID()]; ok {
			continue
		}
		candidate := sr.Score(append(append([]string(nil), current.Scheme...), x.ID()))
		if !candidate.Admissible() {
			continue
		}
		if !found || lexLess(best, candidate) {
			best = candidate
			found = true
		}
	}
	return best, found
}

// lexLess reports whether a scores lower than b under the lexicographic
// key (rr, positives, -negatives, -n_scheme), all maximized, per spec.md
// §4.5.
func lexLess(a, b StatsDict) bool {
	if a.RR != b.RR {
		return a.RR < b.RR
	}
	if a.Positives != b.Positives {
		return a.Positives < b.Positives
	}
	if a.Negatives != b.Negatives {
		// lower negatives is better, so higher Negatives value is "less"
		return a.Negatives > b.Negatives
	}
	return a.NScheme > b.NScheme
}
