package blocking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemeIDCanonical(t *testing.T) {
	require.Equal(t, "exact_surname", Scheme{Kind: KindExact, Attribute: "surname"}.ID())
	require.Equal(t, "acronym_surname", Scheme{Kind: KindAcronym, Attribute: "surname"}.ID())
	require.Equal(t, "first_nchars_surname_3", Scheme{Kind: KindFirstNChars, Attribute: "surname", Param: 3}.ID())
	require.Equal(t, "ngrams_surname_2", Scheme{Kind: KindNGrams, Attribute: "surname", Param: 2}.ID())
}

func TestSignaturesExact(t *testing.T) {
	s := Scheme{Kind: KindExact, Attribute: "surname"}
	require.Equal(t, []string{"lee"}, s.Signatures("  Lee  "))
	require.Nil(t, s.Signatures(""))
	require.Nil(t, s.Signatures("   "))
}

func TestSignaturesNGrams(t *testing.T) {
	s := Scheme{Kind: KindNGrams, Attribute: "surname", Param: 2}
	require.Equal(t, []string{"le", "ee"}, s.Signatures("Lee"))
	// too short for the n-gram size
	require.Nil(t, s.Signatures("l"))
}

func TestSignaturesAcronymRequiresTwoTokens(t *testing.T) {
	s := Scheme{Kind: KindAcronym, Attribute: "name"}
	require.Nil(t, s.Signatures("Ann"))
	require.Equal(t, []string{"al"}, s.Signatures("Ann Lee"))
}

func TestSignaturesPrefixSuffix(t *testing.T) {
	first := Scheme{Kind: KindFirstNChars, Attribute: "surname", Param: 3}
	last := Scheme{Kind: KindLastNChars, Attribute: "surname", Param: 3}
	require.Equal(t, []string{"lee"}, first.Signatures("Lee"))
	require.Equal(t, []string{"lee"}, last.Signatures("Lee"))
	require.Nil(t, first.Signatures("Li")) // shorter than n
}

func TestDefaultCatalogCoversAllKinds(t *testing.T) {
	catalog := DefaultCatalog([]string{"surname"})
	seen := make(map[Kind]bool)
	for _, s := range catalog {
		seen[s.Kind] = true
	}
	require.True(t, seen[KindExact])
	require.True(t, seen[KindAcronym])
	require.True(t, seen[KindFirstNChars])
	require.True(t, seen[KindLastNChars])
	require.True(t, seen[KindNGrams])
}
