package conjunct

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/projectdiscovery/erblock/internal/blocking"
)

// Aggregate runs BestChain in parallel (worker-pool, cpus workers) over
// every scheme in the catalog, concatenates the returned chains,
// deduplicates rows that collide on the stringified stats tuple, and
// sorts by rr descending, per spec.md §4.6.
func Aggregate(ctx context.Context, sr *Searcher, k, cpus int) ([]StatsDict, error) {
	results := make([][]StatsDict, len(sr.Catalog))
	g, ctx := errgroup.WithContext(ctx)
	if cpus > 0 {
		g.SetLimit(cpus)
	}
	for i, start := range sr.Catalog {
		i, start := i, start
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = sr.BestChain(start, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var all []StatsDict
	for _, chain := range results {
		for _, s := range chain {
			key := statsKey(s)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, s)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].RR > all[j].RR })
	return all, nil
}

func statsKey(s StatsDict) string {
	return fmt.Sprintf("%v|%d|%.10f|%.10f|%.10f", s.Scheme, s.NPairs, s.RR, s.Positives, s.Negatives)
}

// BestSchemes returns the prefix of ranked (by rr descending) StatsDict
// entries whose cumulative n_pairs strictly stays below nCovered, per
// spec.md §4.6 best_schemes(n_covered).
func BestSchemes(ranked []StatsDict, nCovered int) []StatsDict {
	var out []StatsDict
	cumulative := 0
	for _, s := range ranked {
		if cumulative+s.NPairs >= nCovered {
			break
		}
		out = append(out, s)
		cumulative += s.NPairs
	}
	return out
}

// SchemesOf resolves a StatsDict's scheme-ID tuple back to the ForwardIndex
// set a Generate call needs. fullForward must contain at least every
// scheme ID referenced by s, keyed by Scheme.ID().
func SchemesOf(s StatsDict, fullForward map[string]*blocking.ForwardIndex) []*blocking.ForwardIndex {
	out := make([]*blocking.ForwardIndex, len(s.Scheme))
	for i, id := range s.Scheme {
		out[i] = fullForward[id]
	}
	return out
}
