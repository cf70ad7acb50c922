// Package erblock implements the entity-resolution blocking, conjunction
// search, distance scoring and clustering pipeline: given one or two
// record tables, it prunes the quadratic comparison space with blocking
// schemes, learns the cheapest conjunction of schemes that still covers
// the known matches, scores surviving candidate pairs by string
// distance, and clusters accepted pairs into entities.
package erblock

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"

	"github.com/projectdiscovery/erblock/internal/blocking"
	"github.com/projectdiscovery/erblock/internal/candidates"
	"github.com/projectdiscovery/erblock/internal/classify"
	"github.com/projectdiscovery/erblock/internal/cluster"
	"github.com/projectdiscovery/erblock/internal/conjunct"
	"github.com/projectdiscovery/erblock/internal/jaro"
	"github.com/projectdiscovery/erblock/internal/labels"
	"github.com/projectdiscovery/erblock/internal/runstats"
	"github.com/projectdiscovery/erblock/internal/schema"
)

// originLeft/originRight tag record IDs in record-linkage mode. Dedupe
// mode ingests every record as originLeft; Predict clears the origin to
// empty when it builds cluster nodes, per internal/cluster's Node.Origin
// convention.
const (
	originLeft  = "left"
	originRight = "right"
)

// Assignment is one row of the final cluster table, DataFrame(record_id,
// cluster_id) per spec.md §4.9, re-exported here so callers don't need to
// import internal/cluster.
type Assignment = cluster.Assignment

// RunStats reports the non-fatal conditions and summary counters of the
// most recent fit_blocks/predict invocation, mirroring how alterx surfaces
// estimate/enrich results via a returned struct instead of a panic.
type RunStats struct {
	runstats.Stats
	SchemesSearched  int
	ConjunctionsUsed int
	FinalPairCount   int
}

// Orchestrator wires C1-C9 behind the four operations of spec.md §6:
// initialize, fit_blocks, predict, and samples(limit).
type Orchestrator struct {
	settings Settings
	catalog  []blocking.Scheme

	universe *schema.Table // every ingested record, left+right combined
	originOf map[int64]string

	sample   *schema.Table
	labelSet *labels.Store

	fullForward map[string]*blocking.ForwardIndex
	bestCover   []conjunct.StatsDict
	comparisons []schema.Pair

	rng            *rand.Rand
	nextID         int64
	lastStats      RunStats
	statsCollector *runstats.Collector
}

// New constructs an Orchestrator for settings, validating it first.
func New(settings Settings) (*Orchestrator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		settings:       settings,
		catalog:        blocking.DefaultCatalog(settings.Attributes),
		originOf:       make(map[int64]string),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		statsCollector: runstats.New(),
	}, nil
}

// Initialize loads records (and, in record-linkage mode, a second table
// rows2), per spec.md §4.10. When reset is true it (re)assigns dense IDs,
// rebuilds sample/pos/neg/labels from scratch. When resample is true
// (and reset is false) it redraws the sample table and recomputes the
// labels' distances, leaving pos/neg and the labels' (l, r, label) rows
// unchanged, per spec.md §8 Scenario E.
func (o *Orchestrator) Initialize(ctx context.Context, rows, rows2 []map[string]string, reset, resample bool) error {
	if reset {
		o.nextID = 0
		o.originOf = make(map[int64]string)
		o.statsCollector = runstats.New()
		records := o.ingest(rows, originLeft)
		if !o.settings.Dedupe {
			records = append(records, o.ingest(rows2, originRight)...)
		}
		o.universe = schema.NewTable(records)

		o.sample = drawSample(o.universe, o.settings.N, o.rng)

		labelSet, err := labels.Init(ctx, o.sourceTable(), o.settings.Attributes, o.rng, o.settings.CPUs, o.statsCollector)
		if err != nil {
			return err
		}
		o.labelSet = labelSet
		return nil
	}

	if resample {
		if o.universe == nil {
			return errorutil.New("erblock: initialize(resample=true) called before any reset")
		}
		o.sample = drawSample(o.universe, o.settings.N, o.rng)
		return o.labelSet.Resample(ctx, o.settings.Attributes, o.settings.CPUs, o.statsCollector)
	}
	return nil
}

// sourceTable is the population pos/neg seeds are drawn from: the source
// table in dedupe mode, or left and right combined under one ID space in
// record linkage (see DESIGN.md).
func (o *Orchestrator) sourceTable() *schema.Table {
	return o.universe
}

func (o *Orchestrator) ingest(rows []map[string]string, origin string) []schema.Record {
	records := make([]schema.Record, 0, len(rows))
	for _, attrs := range rows {
		id := o.nextID
		o.nextID++
		o.originOf[id] = origin
		records = append(records, schema.Record{ID: id, Attributes: attrs, Origin: origin})
	}
	return records
}

func (o *Orchestrator) originOfFunc(id int64) (string, bool) {
	origin, ok := o.originOf[id]
	return origin, ok
}

func drawSample(universe *schema.Table, n int, rng *rand.Rand) *schema.Table {
	ids := universe.IDs()
	if n <= 0 || n >= len(ids) {
		records := make([]schema.Record, len(ids))
		for i, id := range ids {
			rec, _ := universe.Get(id)
			records[i] = rec
		}
		return schema.NewTable(records)
	}
	perm := rng.Perm(len(ids))
	chosen := make([]schema.Record, n)
	for i := 0; i < n; i++ {
		rec, _ := universe.Get(ids[perm[i]])
		chosen[i] = rec
	}
	return schema.NewTable(chosen)
}

func (o *Orchestrator) mode() candidates.Mode {
	if o.settings.Dedupe {
		return candidates.ModeDedupe
	}
	return candidates.ModeLinkage
}

// FitBlocks builds forward indices over the sample and the pos/neg seed
// records, searches for the
// conjunction cover, and materializes the full candidate pair set, per
// spec.md §4.10's fit_blocks().
func (o *Orchestrator) FitBlocks(ctx context.Context) error {
	o.lastStats = RunStats{}
	o.statsCollector = runstats.New()

	// The search runs over the sample plus the pos/neg seed records, so the
	// labelled pairs (which include the synthetic pos IDs) can co-block.
	trainRecords := append([]schema.Record(nil), o.sample.Records...)
	inTrain := make(map[int64]struct{}, len(trainRecords))
	for _, r := range trainRecords {
		inTrain[r.ID] = struct{}{}
	}
	for _, r := range append(append([]schema.Record(nil), o.labelSet.Pos...), o.labelSet.Neg...) {
		if _, ok := inTrain[r.ID]; !ok {
			inTrain[r.ID] = struct{}{}
			trainRecords = append(trainRecords, r)
		}
	}

	searcher, err := conjunct.NewSearcher(o.catalog, schema.NewTable(trainRecords), o.labelSet, o.settings.MinRR, o.mode(), o.originOfFunc)
	if err != nil {
		return err
	}

	ranked, err := conjunct.Aggregate(ctx, searcher, o.settings.K, o.settings.CPUs)
	if err != nil {
		return err
	}
	o.lastStats.SchemesSearched = len(o.catalog)

	cover := conjunct.BestSchemes(ranked, o.settings.MaxCompare)
	o.bestCover = cover
	o.lastStats.ConjunctionsUsed = len(cover)

	if len(cover) == 0 {
		o.statsCollector.MarkEmptyCandidateSet()
		o.comparisons = nil
		gologger.Warning().Msgf("erblock: no conjunction reached min_rr=%v with positives > 0", o.settings.MinRR)
		return nil
	}

	usedSchemeIDs := make(map[string]struct{})
	for _, s := range cover {
		for _, id := range s.Scheme {
			usedSchemeIDs[id] = struct{}{}
		}
	}
	usedSchemes := make([]blocking.Scheme, 0, len(usedSchemeIDs))
	for _, sch := range o.catalog {
		if _, ok := usedSchemeIDs[sch.ID()]; ok {
			usedSchemes = append(usedSchemes, sch)
		}
	}

	forward, err := blocking.Build(ctx, usedSchemes, o.universe, o.settings.CPUs)
	if err != nil {
		return err
	}
	o.fullForward = make(map[string]*blocking.ForwardIndex, len(forward))
	for _, fi := range forward {
		o.fullForward[fi.Scheme.ID()] = fi
	}

	pairStore := candidates.NewPairStore(o.settings.MaxCompare)
	for _, s := range cover {
		fwd := conjunct.SchemesOf(s, o.fullForward)
		pairs := candidates.Generate(fwd, o.mode(), o.originOfFunc)
		pairStore.Add(pairs)
	}

	o.comparisons = pairStore.Pairs()
	sort.Slice(o.comparisons, func(i, j int) bool {
		if o.comparisons[i].L != o.comparisons[j].L {
			return o.comparisons[i].L < o.comparisons[j].L
		}
		return o.comparisons[i].R < o.comparisons[j].R
	})
	o.lastStats.FinalPairCount = len(o.comparisons)
	return nil
}

// Predict scores every candidate pair by mean Jaro similarity, classifies
// it against a learned or default threshold, and clusters accepted pairs
// into entities, per spec.md §4.10's predict().
func (o *Orchestrator) Predict(ctx context.Context) ([]Assignment, error) {
	if len(o.comparisons) == 0 {
		o.statsCollector.MarkEmptyCandidateSet()
		return nil, nil
	}

	matrix, err := jaro.Compute(ctx, o.comparisons, o.universe, o.universe, o.settings.Attributes, o.settings.DistanceChunk, o.settings.CPUs, o.statsCollector)
	if err != nil {
		return nil, err
	}

	threshold := classify.LearnThreshold(o.labelSet.Labels, o.settings.Threshold, o.statsCollector)
	results := classify.Classify(matrix, threshold)

	matched := make([]schema.Pair, 0, len(results))
	for _, r := range results {
		if r.IsMatch {
			matched = append(matched, r.Pair)
		}
	}

	allIDs := o.universe.IDs()
	nodes := make([]cluster.Node, len(allIDs))
	for i, id := range allIDs {
		origin := o.originOf[id]
		if o.settings.Dedupe {
			origin = ""
		}
		nodes[i] = cluster.Node{ID: id, Origin: origin}
	}

	originOf := o.originOfFunc
	if o.settings.Dedupe {
		originOf = func(id int64) (string, bool) { _, ok := o.originOf[id]; return "", ok }
	}
	return cluster.Components(nodes, matched, originOf), nil
}

// Samples returns the current sample table truncated to limit rows (0
// means no limit), a read-only accessor for external labeling tools per
// spec.md §6 and §2.1.
func (o *Orchestrator) Samples(limit int) []schema.Record {
	if o.sample == nil {
		return nil
	}
	records := o.sample.Records
	if limit > 0 && limit < len(records) {
		return records[:limit]
	}
	out := make([]schema.Record, len(records))
	copy(out, records)
	return out
}

// LastRunStats returns the counters and warnings gathered by the most
// recent FitBlocks/Predict call.
func (o *Orchestrator) LastRunStats() RunStats {
	o.lastStats.Stats = o.statsCollector.Snapshot()
	return o.lastStats
}
