package lexpr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryWithChildrenReplaces(t *testing.T) {
	left := NewColumnRef("u", "age")
	right := NewLiteral(Literal{Kind: LitInt, Int: 18})
	b := NewBinary(OpGt, left, right)
	require.Len(t, b.Children(), 2)

	newLeft := NewColumnRef("u", "score")
	replaced, err := b.WithChildren(newLeft, right)
	require.NoError(t, err)
	rb := replaced.(*Binary)
	require.Equal(t, newLeft, rb.Left)
	require.Equal(t, OpGt, rb.Op)
}

func TestBinaryWithChildrenWrongArity(t *testing.T) {
	b := NewBinary(OpEq, NewColumnRef("a", "x"), NewColumnRef("b", "y"))
	_, err := b.WithChildren(NewColumnRef("a", "x"))
	require.Error(t, err)
	require.True(t, ErrWrongArity.Is(err))
}

func TestTransformUpRewritesUnresolvedRefs(t *testing.T) {
	expr := NewBinary(OpEq,
		NewUnresolvedRef("u", "name"),
		NewLiteral(Literal{Kind: LitString, Str: "alice"}),
	)
	rewritten, err := TransformUp(expr, func(e Expr) (Expr, error) {
		if u, ok := e.(*UnresolvedRef); ok {
			return NewColumnRef(u.Alias, u.Property), nil
		}
		return e, nil
	})
	require.NoError(t, err)
	b := rewritten.(*Binary)
	col, ok := b.Left.(*ColumnRef)
	require.True(t, ok)
	require.Equal(t, "u", col.TableAlias)
	require.Equal(t, "name", col.Column)
}

func TestFindAllCollectsMatchingNodes(t *testing.T) {
	expr := NewBinary(OpAnd,
		NewBinary(OpGt, NewColumnRef("u", "age"), NewLiteral(Literal{Kind: LitInt, Int: 18})),
		NewBinary(OpEq, NewColumnRef("u", "active"), NewLiteral(Literal{Kind: LitBool, Bool: true})),
	)
	refs := FindAll(expr, func(e Expr) bool {
		_, ok := e.(*ColumnRef)
		return ok
	})
	require.Len(t, refs, 2)
}

func TestCaseWithChildrenPreservesShape(t *testing.T) {
	c := NewCase(
		nil,
		[]CaseBranch{{When: NewColumnRef("u", "age"), Then: NewLiteral(Literal{Kind: LitString, Str: "adult"})}},
		NewLiteral(Literal{Kind: LitString, Str: "minor"}),
	)
	children := c.Children()
	require.Len(t, children, 3) // when, then, else (no operand)

	replaced, err := c.WithChildren(children...)
	require.NoError(t, err)
	rc := replaced.(*Case)
	require.Nil(t, rc.Operand)
	require.NotNil(t, rc.Else)
}
