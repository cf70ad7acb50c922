// Package cluster implements the cluster builder (C9) of spec.md §4.9:
// accepted pairs form an undirected graph over record IDs; connected
// components become entity/cluster IDs. Supports dedupe (single
// population) and record-linkage (bipartite, origin-suffixed) modes.
//
// The union-find itself is a standard algorithm; its result-dedup idiom
// (collapse equivalent groups via a string key map, then assign stable
// ordered IDs) mirrors alterx's inducer/clustering.go deduplicateClosures.
package cluster

import (
	"sort"
	"strconv"

	"github.com/projectdiscovery/erblock/internal/schema"
)

// Node identifies one record within the union-find graph; Origin
// distinguishes left/right tables in record-linkage mode (empty in
// dedupe mode), per spec.md §4.9 ("the two tables remain distinguishable
// (suffix the ID with table origin)").
type Node struct {
	ID     int64
	Origin string
}

func (n Node) key() string {
	return n.Origin + ":" + strconv.FormatInt(n.ID, 10)
}

// Assignment is one row of the clustering output: DataFrame(record_id,
// cluster_id) per spec.md §4.9.
type Assignment struct {
	Node      Node
	ClusterID int
}

type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string), rank: make(map[string]int)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// Components computes connected components over allNodes given the set of
// accepted pairs, resolving each pair endpoint's origin via originOf.
// Every node in allNodes receives an assignment, including singletons
// with no accepted pair (spec.md §8 Scenario A: an unmatched record still
// forms its own one-member cluster). The grouping of nodes into clusters
// is independent of pair order or direction (spec.md §8 property 7), and
// the output is deterministic for a given input. The numeric ClusterID
// values follow the union-find roots, so the same pairs given in another
// order or direction can number the clusters differently.
func Components(allNodes []Node, pairs []schema.Pair, originOf func(id int64) (string, bool)) []Assignment {
	uf := newUnionFind()
	for _, n := range allNodes {
		uf.find(n.key())
	}
	for _, p := range pairs {
		lOrigin, lok := originOf(p.L)
		rOrigin, rok := originOf(p.R)
		if !lok || !rok {
			continue
		}
		uf.union(Node{ID: p.L, Origin: lOrigin}.key(), Node{ID: p.R, Origin: rOrigin}.key())
	}

	roots := make(map[string]string, len(allNodes))
	for _, n := range allNodes {
		roots[n.key()] = uf.find(n.key())
	}

	uniqueRoots := make([]string, 0)
	seen := make(map[string]struct{})
	for _, root := range roots {
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		uniqueRoots = append(uniqueRoots, root)
	}
	sort.Strings(uniqueRoots)

	clusterID := make(map[string]int, len(uniqueRoots))
	for i, root := range uniqueRoots {
		clusterID[root] = i
	}

	out := make([]Assignment, len(allNodes))
	for i, n := range allNodes {
		out[i] = Assignment{Node: n, ClusterID: clusterID[roots[n.key()]]}
	}
	return out
}
