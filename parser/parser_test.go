package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cyphersql/translator/ast"
)

func mustParse(t *testing.T, text string) *ast.Query {
	t.Helper()
	q, err := ParseQuery(text)
	require.NoError(t, err, text)
	require.NotNil(t, q)
	return q
}

func TestParseSimpleNodeFilter(t *testing.T) {
	q := mustParse(t, `MATCH (u:User) WHERE u.age > 18 RETURN u.name AS name`)
	require.Len(t, q.Reading.Matches, 1)
	m := q.Reading.Matches[0]
	require.Len(t, m.Patterns, 1)
	require.Equal(t, ast.PathKindNode, m.Patterns[0].Kind)
	require.Equal(t, "u", m.Patterns[0].Node.Variable)
	require.Equal(t, []string{"User"}, m.Patterns[0].Node.Labels)
	require.NotNil(t, m.Where)
	require.Equal(t, ast.ExprBinaryOp, m.Where.Kind)
	require.Equal(t, ast.OpGt, m.Where.BinaryOp.Op)

	require.NotNil(t, q.Reading.Return)
	require.Len(t, q.Reading.Return.Items, 1)
	require.Equal(t, "name", q.Reading.Return.Items[0].Alias)
}

func TestParseStandardEdgeJoin(t *testing.T) {
	q := mustParse(t, `MATCH (a:User)-[:FOLLOWS]->(b:User) RETURN a.name, b.name`)
	m := q.Reading.Matches[0]
	require.Equal(t, ast.PathKindConnected, m.Patterns[0].Kind)
	cp := m.Patterns[0].Connected
	require.Len(t, cp.Nodes, 2)
	require.Len(t, cp.Rels, 1)
	require.Equal(t, ast.DirOut, cp.Rels[0].Direction)
	require.Equal(t, []string{"FOLLOWS"}, cp.Rels[0].Types)
}

func TestParseOptionalMatchAndReverseDirection(t *testing.T) {
	q := mustParse(t, `OPTIONAL MATCH (a)<-[:OWNS]-(b) RETURN a`)
	m := q.Reading.Matches[0]
	require.True(t, m.Optional)
	require.Equal(t, ast.DirIn, m.Patterns[0].Connected.Rels[0].Direction)
}

func TestParseWithChainAndAggregation(t *testing.T) {
	q := mustParse(t, `
		MATCH (u:User)-[:POSTED]->(p:Post)
		WITH u, count(p) AS postCount
		WHERE postCount > 5
		RETURN u.name, postCount
		ORDER BY postCount DESC
		SKIP 0
		LIMIT 10
	`)
	require.Len(t, q.Reading.Withs, 1)
	w := q.Reading.Withs[0]
	require.Len(t, w.Items, 2)
	require.Equal(t, "postCount", w.Items[1].Alias)
	require.True(t, w.Items[1].Expr.FunctionCall.IsAggregate)
	require.NotNil(t, w.Where)

	ret := q.Reading.Return
	require.Len(t, ret.OrderBy, 1)
	require.True(t, ret.OrderBy[0].Descending)
	require.NotNil(t, ret.Skip)
	require.NotNil(t, ret.Limit)
}

func TestParseVariableLengthPath(t *testing.T) {
	q := mustParse(t, `MATCH p = (a)-[:KNOWS*1..3]->(b) RETURN p`)
	pattern := q.Reading.Matches[0].Patterns[0]
	require.Equal(t, "p", pattern.PathVariable)
	rel := pattern.Connected.Rels[0]
	require.NotNil(t, rel.VarLength)
	require.Equal(t, 1, *rel.VarLength.Min)
	require.Equal(t, 3, *rel.VarLength.Max)
}

func TestParseVariableLengthUnbounded(t *testing.T) {
	q := mustParse(t, `MATCH (a)-[:KNOWS*]->(b) RETURN a`)
	rel := q.Reading.Matches[0].Patterns[0].Connected.Rels[0]
	require.NotNil(t, rel.VarLength)
	require.Nil(t, rel.VarLength.Min)
	require.Nil(t, rel.VarLength.Max)
}

func TestParseVarLenZeroHopRejected(t *testing.T) {
	_, err := ParseQuery(`MATCH (a)-[:KNOWS*0..0]->(b) RETURN a`)
	require.Error(t, err)
	require.True(t, ErrVLPZeroHop.Is(err))
}

func TestParseVarLenInvertedRejected(t *testing.T) {
	_, err := ParseQuery(`MATCH (a)-[:KNOWS*5..2]->(b) RETURN a`)
	require.Error(t, err)
	require.True(t, ErrVLPInverted.Is(err))
}

func TestParseSuffixOrderRejected(t *testing.T) {
	_, err := ParseQuery(`MATCH (a) RETURN a LIMIT 10 ORDER BY a.name`)
	require.Error(t, err)
}

func TestParsePatternComprehension(t *testing.T) {
	q := mustParse(t, `MATCH (u:User) RETURN [(u)-[:FOLLOWS]->(f) | f.name] AS friends`)
	item := q.Reading.Return.Items[0]
	require.Equal(t, ast.ExprPatternComprehension, item.Expr.Kind)
	require.Equal(t, "friends", item.Alias)
}

func TestParseUnionCombinesBranches(t *testing.T) {
	q := mustParse(t, `MATCH (a:User) RETURN a.name AS name UNION MATCH (b:Org) RETURN b.name AS name`)
	require.NotNil(t, q.Union)
	require.False(t, q.Union.All)
	require.Len(t, q.Union.Branches, 2)
}

func TestParseUnionAll(t *testing.T) {
	q := mustParse(t, `MATCH (a:User) RETURN a.name AS name UNION ALL MATCH (b:Org) RETURN b.name AS name`)
	require.NotNil(t, q.Union)
	require.True(t, q.Union.All)
}

func TestParseParameterAndInAndFunctionCall(t *testing.T) {
	q := mustParse(t, `MATCH (u:User) WHERE u.id IN $ids AND toLower(u.name) = 'alice' RETURN u`)
	where := q.Reading.Matches[0].Where
	require.Equal(t, ast.OpAnd, where.BinaryOp.Op)
	inExpr := where.BinaryOp.Left
	require.Equal(t, ast.OpIn, inExpr.BinaryOp.Op)
	require.Equal(t, ast.ExprParameter, inExpr.BinaryOp.Right.Kind)
	require.Equal(t, "ids", inExpr.BinaryOp.Right.Parameter)
}

func TestParseUnwindAndCall(t *testing.T) {
	q := mustParse(t, `UNWIND [1, 2, 3] AS x CALL db.labels() YIELD label RETURN x, label`)
	require.Len(t, q.Reading.Unwinds, 1)
	require.Equal(t, "x", q.Reading.Unwinds[0].As)
	require.Len(t, q.Reading.Calls, 1)
	require.Equal(t, "db.labels", q.Reading.Calls[0].Procedure)
	require.Equal(t, []string{"label"}, q.Reading.Calls[0].Yield)
}

func TestParseShortestPath(t *testing.T) {
	q := mustParse(t, `MATCH p = shortestPath((a:User)-[:KNOWS*]-(b:User)) RETURN p`)
	pattern := q.Reading.Matches[0].Patterns[0]
	require.Equal(t, ast.PathKindShortestPath, pattern.Kind)
	require.NotNil(t, pattern.ShortestPath)
	require.Equal(t, "p", pattern.PathVariable)
}

func TestParseLabelCheckExpression(t *testing.T) {
	q := mustParse(t, `MATCH (u) WHERE u:Admin RETURN u`)
	where := q.Reading.Matches[0].Where
	require.Equal(t, ast.ExprLabelCheck, where.Kind)
	require.Equal(t, []string{"Admin"}, where.LabelExpr.Labels)
}

func TestParseCaseExpression(t *testing.T) {
	q := mustParse(t, `MATCH (u) RETURN CASE WHEN u.age > 18 THEN 'adult' ELSE 'minor' END AS bucket`)
	item := q.Reading.Return.Items[0]
	require.Equal(t, ast.ExprCase, item.Expr.Kind)
	require.Len(t, item.Expr.Case.Branches, 1)
	require.NotNil(t, item.Expr.Case.Else)
}

func TestStripCommentsPreservesHash(t *testing.T) {
	out := StripComments("MATCH (a) -- drop this\nRETURN a # not a comment")
	require.Contains(t, out, "# not a comment")
	require.NotContains(t, out, "drop this")
}

func TestStripCommentsBlockComment(t *testing.T) {
	out := StripComments("MATCH (a) /* block\ncomment */ RETURN a")
	require.NotContains(t, out, "block")
	require.Contains(t, out, "RETURN a")
}

func TestParseTrailingSemicolon(t *testing.T) {
	_ = mustParse(t, `MATCH (a) RETURN a;`)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := ParseQuery(`MATCH (a) RETURN a EXTRA`)
	require.Error(t, err)
}
