package blocking

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/projectdiscovery/erblock/internal/schema"
)

// Posting is one (record_id, signature) row of a forward index, per
// spec.md §3 ("Forward index. Logical relation (record_id, scheme_id,
// signature)").
type Posting struct {
	RecordID  int64
	Signature string
}

// ForwardIndex maps a scheme to the postings it produced for one table.
// Building is embarrassingly parallel across schemes (spec.md §4.2) and
// must be idempotent: the same inputs always yield the same postings in
// the same iteration order per record.
type ForwardIndex struct {
	Scheme   Scheme
	Postings []Posting
	// BySignature groups record IDs sharing a signature, the relation the
	// inverted-index stage (C3) groups on.
	BySignature map[string][]int64
}

// Build constructs, in parallel, one ForwardIndex per scheme in catalog
// over the given table. Parallelism never affects the result: postings
// within a ForwardIndex are emitted in table order, and BySignature's
// id lists are like-ordered (spec.md §8, property 5/6).
func Build(ctx context.Context, catalog []Scheme, table *schema.Table, cpus int) ([]*ForwardIndex, error) {
	indexes := make([]*ForwardIndex, len(catalog))
	g, ctx := errgroup.WithContext(ctx)
	if cpus > 0 {
		g.SetLimit(cpus)
	}
	for i, scheme := range catalog {
		i, scheme := i, scheme
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			indexes[i] = buildOne(scheme, table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return indexes, nil
}

func buildOne(scheme Scheme, table *schema.Table) *ForwardIndex {
	fi := &ForwardIndex{
		Scheme:      scheme,
		BySignature: make(map[string][]int64),
	}
	for _, rec := range table.Records {
		value := rec.Attr(scheme.Attribute)
		for _, sig := range scheme.Signatures(value) {
			fi.Postings = append(fi.Postings, Posting{RecordID: rec.ID, Signature: sig})
			fi.BySignature[sig] = append(fi.BySignature[sig], rec.ID)
		}
	}
	return fi
}
