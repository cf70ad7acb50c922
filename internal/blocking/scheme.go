// Package blocking implements the blocking-scheme catalog (C1) and the
// forward-index builder (C2) described in spec.md §4.1-§4.2.
package blocking

import (
	"fmt"
	"strings"
)

// Kind enumerates the blocking-scheme families in the catalog.
type Kind string

const (
	KindExact       Kind = "exact"
	KindFirstNChars Kind = "first_nchars"
	KindLastNChars  Kind = "last_nchars"
	KindNGrams      Kind = "ngrams"
	KindAcronym     Kind = "acronym"
)

// Scheme is one deterministic feature extractor over one attribute, per
// spec.md §3 (Blocking scheme) and §4.1.
type Scheme struct {
	Kind      Kind
	Attribute string
	Param     int // n for first_nchars/last_nchars/ngrams; unused otherwise
}

// ID returns the canonical scheme identifier "{kind}_{attr}_{param}",
// per spec.md §3. Kinds without a parameter (exact, acronym) use
// "{kind}_{attr}".
func (s Scheme) ID() string {
	if s.Kind == KindExact || s.Kind == KindAcronym {
		return fmt.Sprintf("%s_%s", s.Kind, s.Attribute)
	}
	return fmt.Sprintf("%s_%s_%d", s.Kind, s.Attribute, s.Param)
}

func (s Scheme) String() string { return s.ID() }

// Signatures applies the scheme to a single attribute value, returning the
// zero-or-more signature tokens it produces. Null/missing values (empty
// string) always yield no signatures; whitespace-only signatures are
// dropped, per spec.md §4.1.
func (s Scheme) Signatures(value string) []string {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return nil
	}
	switch s.Kind {
	case KindExact:
		return []string{v}
	case KindFirstNChars:
		return prefixSuffix(v, s.Param, true)
	case KindLastNChars:
		return prefixSuffix(v, s.Param, false)
	case KindNGrams:
		return ngrams(v, s.Param)
	case KindAcronym:
		return acronym(v)
	default:
		return nil
	}
}

func prefixSuffix(v string, n int, prefix bool) []string {
	r := []rune(v)
	if n <= 0 || len(r) < n {
		return nil
	}
	var tok string
	if prefix {
		tok = string(r[:n])
	} else {
		tok = string(r[len(r)-n:])
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil
	}
	return []string{tok}
}

func ngrams(v string, n int) []string {
	r := []rune(v)
	if n <= 0 || len(r) < n {
		return nil
	}
	out := make([]string, 0, len(r)-n+1)
	for i := 0; i+n <= len(r); i++ {
		g := strings.TrimSpace(string(r[i : i+n]))
		if g == "" {
			continue
		}
		out = append(out, g)
	}
	return out
}

// acronym concatenates the first letters of whitespace-separated tokens.
// Following the original implementation (oagdedupe), a single-token value
// has no useful acronym and produces no signature.
func acronym(v string) []string {
	fields := strings.Fields(v)
	if len(fields) < 2 {
		return nil
	}
	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)
		if len(r) == 0 {
			continue
		}
		b.WriteRune(r[0])
	}
	tok := strings.TrimSpace(b.String())
	if tok == "" {
		return nil
	}
	return []string{tok}
}
