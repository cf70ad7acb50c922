// Package schema defines the record and attribute model shared by every
// stage of the blocking-and-matching pipeline.
package schema

import (
	"sort"
	"strconv"
	"strings"
)

// Record is one row of an input table. ID is assigned on ingest and is
// never supplied by the caller. Attributes are coerced to strings; the
// caller declares which attribute names are in play via Settings.Attributes.
type Record struct {
	ID         int64
	Attributes map[string]string
	// Origin distinguishes left/right tables in record-linkage mode; it is
	// not consulted for pairing or clustering in dedupe mode.
	Origin string
}

// Attr returns the value of attr on the record, or "" if missing.
func (r Record) Attr(attr string) string {
	return r.Attributes[attr]
}

// Table is an ordered, ID-indexed set of records.
type Table struct {
	Records []Record
	byID    map[int64]int
}

// NewTable builds a Table and its ID index.
func NewTable(records []Record) *Table {
	t := &Table{Records: records, byID: make(map[int64]int, len(records))}
	for i, r := range records {
		t.byID[r.ID] = i
	}
	return t
}

// Get returns the record with the given ID, or false if absent.
func (t *Table) Get(id int64) (Record, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return Record{}, false
	}
	return t.Records[idx], true
}

// Len reports the number of records in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// IDs returns a sorted copy of every record ID in the table.
func (t *Table) IDs() []int64 {
	ids := make([]int64, len(t.Records))
	for i, r := range t.Records {
		ids[i] = r.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Pair is an ordered candidate pair of record IDs surviving blocking.
// L < R always holds in dedupe mode; in record-linkage mode L is drawn
// from the left table and R from the right.
type Pair struct {
	L, R int64
}

// Normalize returns the pair with L < R, swapping if necessary. Used by
// dedupe-mode candidate generation where table scope does not already
// guarantee ordering.
func (p Pair) Normalize() Pair {
	if p.L > p.R {
		return Pair{L: p.R, R: p.L}
	}
	return p
}

// Key renders the pair as a canonical dedupe-backend string key.
func (p Pair) Key() string {
	var b strings.Builder
	b.Grow(24)
	b.WriteString(strconv.FormatInt(p.L, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(p.R, 10))
	return b.String()
}
