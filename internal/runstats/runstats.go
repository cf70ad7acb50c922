// Package runstats tracks the non-fatal run-status counters required by
// spec.md §7 (DistanceError, EmptyCandidateSet, LabelShortage), modeled on
// alterx's result-struct idiom (internal/inducer/types.go's InducerStats,
// internal/inducer/autotuner.go's AutoTuneResult): small, queryable structs
// returned alongside a run rather than panics or swallowed errors.
package runstats

import "sync"

// Stats is the plain, copyable snapshot of a run's counters and warnings.
// It carries no lock, so it is safe to embed and return by value.
type Stats struct {
	DistanceErrors    int
	EmptyCandidateSet bool
	LabelShortage     bool
	Warnings          []string
}

// Collector accumulates Stats concurrently across worker-pool tasks
// (distance-engine chunks, label relabeling). The zero value is ready to
// use; it is discarded at the end of a single fit_blocks/predict
// invocation per spec.md §5 ("No global mutable state survives a single
// fit_blocks/predict invocation").
type Collector struct {
	mu   sync.Mutex
	data Stats
}

// New returns a fresh Collector.
func New() *Collector { return &Collector{} }

// IncDistanceError records a DistanceError occurrence (missing attribute),
// treated as similarity 0 and never surfaced to the caller as an error.
func (c *Collector) IncDistanceError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.DistanceErrors++
}

// MarkEmptyCandidateSet records that no conjunction reached min_rr with
// positives > 0.
func (c *Collector) MarkEmptyCandidateSet() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.EmptyCandidateSet = true
	c.data.Warnings = append(c.data.Warnings, "no admissible conjunction reached min_rr with positive coverage")
}

// MarkLabelShortage records that threshold selection fell back to the
// configured default because labels were too few.
func (c *Collector) MarkLabelShortage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.LabelShortage = true
	c.data.Warnings = append(c.data.Warnings, "fewer than 2 positive or 2 negative labels; threshold fell back to configured default")
}

// Snapshot returns a copy of the accumulated counters, safe to hand to a
// caller after the run.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		DistanceErrors:    c.data.DistanceErrors,
		EmptyCandidateSet: c.data.EmptyCandidateSet,
		LabelShortage:     c.data.LabelShortage,
		Warnings:          append([]string(nil), c.data.Warnings...),
	}
}
