// Package candidates implements the inverted-index / pair-generator (C3)
// of spec.md §4.3: from a conjunction of forward indices, produce the set
// of record-ID pairs that share at least one signature in every scheme of
// the conjunction.
package candidates

import (
	"sort"
	"strings"

	"github.com/projectdiscovery/erblock/internal/blocking"
	"github.com/projectdiscovery/erblock/internal/schema"
)

// Mode selects dedupe (single population) versus record-linkage (bipartite)
// pairing, per spec.md §3 Candidate pair / Glossary.
type Mode int

const (
	ModeDedupe Mode = iota
	ModeLinkage
)

// recordSignatures indexes, for one scheme, which signatures a record has.
// Built once per ForwardIndex so the conjunction join doesn't repeatedly
// scan postings.
func recordSignatures(fi *blocking.ForwardIndex) map[int64][]string {
	out := make(map[int64][]string)
	for _, p := range fi.Postings {
		out[p.RecordID] = append(out[p.RecordID], p.Signature)
	}
	return out
}

// Generate implements spec.md §4.3's three-step algorithm: join the
// conjunction's forward indices on record_id to build the grouped
// relation (one row per record per combination of its own signatures
// across schemes), group on the signature tuple, then enumerate
// C(|group|, 2) pairs per group with |group| >= 2, deduplicating the
// union across groups.
//
// originOf resolves a record ID to its table origin ("" in dedupe mode,
// "left"/"right" in record-linkage mode); it is used only when mode is
// ModeLinkage.
func Generate(conjunction []*blocking.ForwardIndex, mode Mode, originOf func(id int64) (string, bool)) map[schema.Pair]struct{} {
	pairs := make(map[schema.Pair]struct{})
	if len(conjunction) == 0 {
		return pairs
	}

	perScheme := make([]map[int64][]string, len(conjunction))
	for i, fi := range conjunction {
		perScheme[i] = recordSignatures(fi)
	}

	// Candidate record set: intersection of record IDs present in every scheme's
	// index (a record absent from any one scheme's forward index cannot
	// join, since it has no signature there).
	candidateIDs := intersectKeys(perScheme)

	groups := make(map[string][]int64)
	for _, id := range candidateIDs {
		for _, tuple := range cartesian(perScheme, id) {
			key := strings.Join(tuple, "\x1f")
			groups[key] = append(groups[key], id)
		}
	}

	for _, ids := range groups {
		ids = dedupeIDs(ids)
		if len(ids) < 2 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				p, ok := orderPair(ids[i], ids[j], mode, originOf)
				if !ok {
					continue
				}
				pairs[p] = struct{}{}
			}
		}
	}
	return pairs
}

func intersectKeys(perScheme []map[int64][]string) []int64 {
	if len(perScheme) == 0 {
		return nil
	}
	counts := make(map[int64]int)
	for _, m := range perScheme {
		for id := range m {
			counts[id]++
		}
	}
	var out []int64
	for id, c := range counts {
		if c == len(perScheme) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// cartesian returns every combination of record id's own signatures across
// the conjunction's schemes, one tuple per combination - the row set the
// SQL self-join in spec.md §4.3 step 1 would produce for this record.
func cartesian(perScheme []map[int64][]string, id int64) [][]string {
	tuples := [][]string{{}}
	for _, m := range perScheme {
		sigs := m[id]
		if len(sigs) == 0 {
			return nil
		}
		next := make([][]string, 0, len(tuples)*len(sigs))
		for _, t := range tuples {
			for _, s := range sigs {
				row := make([]string, len(t), len(t)+1)
				copy(row, t)
				row = append(row, s)
				next = append(next, row)
			}
		}
		tuples = next
	}
	return tuples
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orderPair(a, b int64, mode Mode, originOf func(id int64) (string, bool)) (schema.Pair, bool) {
	if mode == ModeDedupe {
		p := schema.Pair{L: a, R: b}.Normalize()
		if p.L == p.R {
			return schema.Pair{}, false
		}
		return p, true
	}
	oa, ok := originOf(a)
	if !ok {
		return schema.Pair{}, false
	}
	ob, ok := originOf(b)
	if !ok {
		return schema.Pair{}, false
	}
	switch {
	case oa == "left" && ob == "right":
		return schema.Pair{L: a, R: b}, true
	case oa == "right" && ob == "left":
		return schema.Pair{L: b, R: a}, true
	default:
		return schema.Pair{}, false
	}
}
