package planctx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefineAndLookupTable(t *testing.T) {
	root := NewRoot(nil, "tenant-1")
	require.NoError(t, root.DefineTable("u", &TableCtx{Labels: []string{"User"}}))

	tc, ok := root.LookupTable("u")
	require.True(t, ok)
	require.Equal(t, []string{"User"}, tc.Labels)
}

func TestDefineTableDuplicateRejected(t *testing.T) {
	root := NewRoot(nil, "")
	require.NoError(t, root.DefineTable("u", &TableCtx{}))
	err := root.DefineTable("u", &TableCtx{})
	require.Error(t, err)
	require.True(t, ErrDuplicateAlias.Is(err))
}

func TestWithScopeIsABarrier(t *testing.T) {
	root := NewRoot(nil, "")
	require.NoError(t, root.DefineTable("u", &TableCtx{Labels: []string{"User"}}))

	child := root.NewWithScope()
	_, ok := child.LookupTable("u")
	require.False(t, ok, "WITH scope must not see pre-barrier aliases unless re-exported")
}

func TestChildScopeIsTransparent(t *testing.T) {
	root := NewRoot(nil, "")
	require.NoError(t, root.DefineTable("u", &TableCtx{Labels: []string{"User"}}))

	child := root.NewChildScope()
	tc, ok := child.LookupTable("u")
	require.True(t, ok)
	require.Equal(t, []string{"User"}, tc.Labels)
}

func TestNextCTENameIncrementsAcrossScopes(t *testing.T) {
	root := NewRoot(nil, "")
	child := root.NewWithScope()
	require.Equal(t, 1, root.NextCTEName())
	require.Equal(t, 2, child.NextCTEName())
	require.Equal(t, 3, root.NextCTEName())
}

func TestMarkAndLookupOptional(t *testing.T) {
	root := NewRoot(nil, "")
	root.MarkOptional("m")
	child := root.NewChildScope()
	require.True(t, child.IsOptional("m"))
	require.False(t, child.IsOptional("n"))
}

func TestCTEAliasSourceResolvesAcrossScopes(t *testing.T) {
	root := NewRoot(nil, "")
	root.MarkCrossedWithBoundary("u", "with_u_cte", "u_id")
	child := root.NewWithScope()
	src, ok := child.LookupCTEAliasSource("u")
	require.True(t, ok)
	require.Equal(t, "with_u_cte", src.CTEName)
	require.Equal(t, "u_id", src.Column)
}

func TestRequireProperty(t *testing.T) {
	tc := &TableCtx{}
	tc.RequireProperty("name")
	tc.RequireProperty("age")
	require.True(t, tc.PropertyNeeds["name"])
	require.True(t, tc.PropertyNeeds["age"])
	require.False(t, tc.PropertyNeeds["missing"])
}
