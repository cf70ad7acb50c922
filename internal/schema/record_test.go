package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableGet(t *testing.T) {
	table := NewTable([]Record{
		{ID: 1, Attributes: map[string]string{"name": "Ann"}},
		{ID: 2, Attributes: map[string]string{"name": "Bob"}},
	})
	require.Equal(t, 2, table.Len())

	rec, ok := table.Get(1)
	require.True(t, ok)
	require.Equal(t, "Ann", rec.Attr("name"))

	_, ok = table.Get(99)
	require.False(t, ok)
}

func TestTableIDsSorted(t *testing.T) {
	table := NewTable([]Record{{ID: 3}, {ID: 1}, {ID: 2}})
	require.Equal(t, []int64{1, 2, 3}, table.IDs())
}

func TestPairNormalize(t *testing.T) {
	require.Equal(t, Pair{L: 1, R: 2}, Pair{L: 2, R: 1}.Normalize())
	require.Equal(t, Pair{L: 1, R: 2}, Pair{L: 1, R: 2}.Normalize())
}

func TestPairKey(t *testing.T) {
	require.Equal(t, "1,2", Pair{L: 1, R: 2}.Key())
}

func TestRecordAttrMissing(t *testing.T) {
	r := Record{ID: 1, Attributes: map[string]string{"a": "x"}}
	require.Equal(t, "", r.Attr("b"))
}
