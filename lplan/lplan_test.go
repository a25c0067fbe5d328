package lplan

import (
	"testing"

	"github.com/cyphersql/translator/lexpr"
	"github.com/stretchr/testify/require"
)

func TestFilterWithChildrenReplacesInput(t *testing.T) {
	scan := NewScan("users")
	f := NewFilter(lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitBool, Bool: true}), scan)
	require.Len(t, f.Children(), 1)

	replaced, err := f.WithChildren(NewScan("accounts"))
	require.NoError(t, err)
	rf := replaced.(*Filter)
	require.Equal(t, "Scan(accounts)", rf.Input.String())
}

func TestFilterWithChildrenWrongArity(t *testing.T) {
	f := NewFilter(nil, NewScan("users"))
	_, err := f.WithChildren()
	require.Error(t, err)
	require.True(t, ErrWrongArity.Is(err))
}

func TestGraphNodeChildrenOptional(t *testing.T) {
	bare := NewGraphNode("u", "User", nil)
	require.Len(t, bare.Children(), 0)
	_, err := bare.WithChildren(NewScan("x"))
	require.Error(t, err)

	withInput := NewGraphNode("u", "User", NewScan("users"))
	require.Len(t, withInput.Children(), 1)
	replaced, err := withInput.WithChildren(NewScan("other"))
	require.NoError(t, err)
	require.Equal(t, "Scan(other)", replaced.(*GraphNode).Input.String())
}

func TestGraphRelChildrenVariableArity(t *testing.T) {
	left := NewGraphNode("a", "User", nil)
	right := NewGraphNode("b", "User", nil)
	rel := &GraphRel{
		Alias:        "r",
		Types:        []string{"KNOWS"},
		Direction:    DirOut,
		LeftSubplan:  left,
		RightSubplan: right,
		LeftAlias:    "a",
		RightAlias:   "b",
	}
	require.Len(t, rel.Children(), 2)

	newLeft := NewGraphNode("a2", "User", nil)
	newRight := NewGraphNode("b2", "User", nil)
	replaced, err := rel.WithChildren(newLeft, newRight)
	require.NoError(t, err)
	rr := replaced.(*GraphRel)
	require.Equal(t, newLeft, rr.LeftSubplan)
	require.Equal(t, newRight, rr.RightSubplan)
	require.Nil(t, rr.CenterSubplan)
}

func TestCartesianProductRequiresTwoChildren(t *testing.T) {
	cp := NewCartesianProduct(NewScan("a"), NewScan("b"), true, nil)
	_, err := cp.WithChildren(NewScan("c"))
	require.Error(t, err)
	require.True(t, ErrWrongArity.Is(err))
}

func TestUnionPreservesAllFlag(t *testing.T) {
	u := NewUnion([]Node{NewScan("a"), NewScan("b")}, true)
	replaced, err := u.WithChildren(NewScan("c"), NewScan("d"))
	require.NoError(t, err)
	ru := replaced.(*Union)
	require.True(t, ru.All)
	require.Len(t, ru.Inputs, 2)
}

func TestTransformUpRewritesNestedScans(t *testing.T) {
	plan := NewFilter(nil, NewGraphNode("u", "User", NewScan("users")))
	rewritten, err := TransformUp(plan, func(n Node) (Node, error) {
		if s, ok := n.(*Scan); ok {
			return NewScan(s.Table + "_v2"), nil
		}
		return n, nil
	})
	require.NoError(t, err)
	f := rewritten.(*Filter)
	gn := f.Input.(*GraphNode)
	require.Equal(t, "users_v2", gn.Input.(*Scan).Table)
}

func TestFindAllCollectsGraphNodes(t *testing.T) {
	plan := NewCartesianProduct(
		NewGraphNode("a", "User", nil),
		NewGraphNode("b", "Account", nil),
		false, nil,
	)
	nodes := FindAll(plan, func(n Node) bool {
		_, ok := n.(*GraphNode)
		return ok
	})
	require.Len(t, nodes, 2)
}

func TestCountNodes(t *testing.T) {
	plan := NewFilter(nil, NewGraphNode("u", "User", NewScan("users")))
	require.Equal(t, 3, CountNodes(plan))
}
