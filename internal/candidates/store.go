package candidates

import (
	"fmt"
	"runtime/debug"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/hmap/store/hybrid"

	"github.com/projectdiscovery/erblock/internal/schema"
)

// MaxInMemoryPairs is the expected pair count above which NewPairStore
// keeps the dedupe set on disk instead of in a Go map, mirroring alterx's
// dedupe.go MaxInMemoryDedupeSize threshold. The choice is made once, when
// the store is created; a store never switches backend while in use.
var MaxInMemoryPairs = 2_000_000

// Backend is the dedupe storage capability, modeled directly on alterx's
// DedupeBackend interface (dedupe.go): upsert, iterate, cleanup.
type Backend interface {
	Upsert(key string)
	IterCallback(callback func(key string))
	Cleanup()
}

// mapBackend is an in-memory set, adapted from internal/dedupe/map.go.
type mapBackend struct {
	storage map[string]struct{}
}

func newMapBackend() *mapBackend {
	return &mapBackend{storage: map[string]struct{}{}}
}

func (m *mapBackend) Upsert(key string) { m.storage[key] = struct{}{} }

func (m *mapBackend) IterCallback(callback func(key string)) {
	for k := range m.storage {
		callback(k)
	}
}

func (m *mapBackend) Cleanup() {
	m.storage = nil
	debug.FreeOSMemory()
}

// diskBackend spills the dedupe set to a hybrid disk/memory map, adapted
// from internal/dedupe/leveldb.go, for runs whose expected candidate
// pair count exceeds MaxInMemoryPairs.
type diskBackend struct {
	storage *hybrid.HybridMap
}

func newDiskBackend() *diskBackend {
	db, err := hybrid.New(hybrid.DefaultDiskOptions)
	if err != nil {
		gologger.Fatal().Msgf("erblock: failed to create temp dir for candidate-pair dedupe: %v", err)
	}
	return &diskBackend{storage: db}
}

func (d *diskBackend) Upsert(key string) {
	if err := d.storage.Set(key, nil); err != nil {
		gologger.Error().Msgf("erblock: candidate dedupe: %v while writing %v", err, key)
	}
}

func (d *diskBackend) IterCallback(callback func(key string)) {
	_ = d.storage.Scan(func(k, _ []byte) error {
		callback(string(k))
		return nil
	})
}

func (d *diskBackend) Cleanup() { _ = d.storage.Close() }

// PairStore deduplicates candidate pairs across groups, selecting an
// in-memory or disk-backed Backend by expected size, per spec.md §4.3
// ("Deduplicate the union across groups") and §5 (bulk insert uses
// TRUNCATE then INSERT, never partial overwrite).
type PairStore struct {
	backend Backend
}

// NewPairStore picks a backend based on the expected pair count, mirroring
// alterx's NewDedupe(ch, byteLen) size-based backend selection.
func NewPairStore(expectedPairs int) *PairStore {
	if expectedPairs <= MaxInMemoryPairs {
		return &PairStore{backend: newMapBackend()}
	}
	gologger.Info().Msgf("erblock: candidate pair count %d exceeds in-memory threshold, spilling to disk", expectedPairs)
	return &PairStore{backend: newDiskBackend()}
}

// Add upserts every pair from a group's enumeration into the store.
func (s *PairStore) Add(pairs map[schema.Pair]struct{}) {
	for p := range pairs {
		s.backend.Upsert(p.Key())
	}
}

// Pairs drains the store, parsing each key back into a schema.Pair.
func (s *PairStore) Pairs() []schema.Pair {
	var out []schema.Pair
	s.backend.IterCallback(func(key string) {
		if p, ok := parsePairKey(key); ok {
			out = append(out, p)
		}
	})
	s.backend.Cleanup()
	return out
}

func parsePairKey(key string) (schema.Pair, bool) {
	var l, r int64
	n, err := fmt.Sscanf(key, "%d,%d", &l, &r)
	if err != nil || n != 2 {
		return schema.Pair{}, false
	}
	return schema.Pair{L: l, R: r}, true
}
