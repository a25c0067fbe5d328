package cteutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCTENameDeterministic(t *testing.T) {
	require.Equal(t, "with_a_b_cte", GenerateCTEName([]string{"b", "a"}, 0))
	require.Equal(t, "with_a_b_cte_2", GenerateCTEName([]string{"a", "b"}, 2))
	require.Equal(t, "with_cte", GenerateCTEName(nil, 0))
}

func TestExtractAliasesFromCTEName(t *testing.T) {
	name := GenerateCTEName([]string{"b", "a", "c"}, 3)
	aliases, counter, ok := ExtractAliasesFromCTEName(name)
	require.True(t, ok)
	require.Equal(t, 3, counter)
	require.Equal(t, []string{"a", "b", "c"}, aliases)
}

func TestExtractAliasesFromCTENameNoCounter(t *testing.T) {
	name := GenerateCTEName([]string{"x"}, 0)
	aliases, counter, ok := ExtractAliasesFromCTEName(name)
	require.True(t, ok)
	require.Equal(t, 0, counter)
	require.Equal(t, []string{"x"}, aliases)
}

func TestExtractAliasesRejectsGarbage(t *testing.T) {
	_, _, ok := ExtractAliasesFromCTEName("not_a_cte_name_at_all")
	require.False(t, ok)
}

func TestCTEColumnNameRoundTrip(t *testing.T) {
	cases := []struct{ alias, property string }{
		{"u", "name"},
		{"person_1", "user_id"},
		{"a", "b"},
	}
	for _, c := range cases {
		name := CTEColumnName(c.alias, c.property)
		alias, property, ok := ParseCTEColumn(name)
		require.True(t, ok, name)
		require.Equal(t, c.alias, alias)
		require.Equal(t, c.property, property)
	}
}

func TestParseCTEColumnKnownExamples(t *testing.T) {
	alias, property, ok := ParseCTEColumn("p1_u_name")
	require.True(t, ok)
	require.Equal(t, "u", alias)
	require.Equal(t, "name", property)

	alias, property, ok = ParseCTEColumn("p8_person_1_user_id")
	require.True(t, ok)
	require.Equal(t, "person_1", alias)
	require.Equal(t, "user_id", property)
}

func TestParseCTEColumnRejectsNonMatching(t *testing.T) {
	for _, s := range []string{"name", "u_name", "p_u_name", "pX_u_name", "px1_u_name"} {
		_, _, ok := ParseCTEColumn(s)
		require.False(t, ok, s)
	}
}
