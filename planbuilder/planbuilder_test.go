package planbuilder

import (
	"testing"

	"github.com/cyphersql/translator/ast"
	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/parser"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, text string) (lplan.Node, *ast.Query) {
	t.Helper()
	q, err := parser.ParseQuery(text)
	require.NoError(t, err)
	plan, _, err := Build(q, nil, "")
	require.NoError(t, err)
	return plan, q
}

func TestBuildSimpleNodeFilterProjection(t *testing.T) {
	plan, _ := mustBuild(t, "MATCH (u:User) WHERE u.age > 18 RETURN u.name")
	proj, ok := plan.(*lplan.Projection)
	require.True(t, ok)
	require.Len(t, proj.Items, 1)

	filter, ok := proj.Input.(*lplan.Filter)
	require.True(t, ok)
	bin, ok := filter.Predicate.(*lexpr.Binary)
	require.True(t, ok)
	require.Equal(t, lexpr.OpGt, bin.Op)

	gn, ok := filter.Input.(*lplan.GraphNode)
	require.True(t, ok)
	require.Equal(t, "u", gn.Alias)
	require.Equal(t, "User", gn.Label)
}

func TestBuildRelationshipChainLeftDeep(t *testing.T) {
	plan, _ := mustBuild(t, "MATCH (a:User)-[:FOLLOWS]->(b:User)-[:FOLLOWS]->(c:User) RETURN a, c")
	proj := plan.(*lplan.Projection)
	outerRel, ok := proj.Input.(*lplan.GraphRel)
	require.True(t, ok)
	require.Equal(t, "b", outerRel.LeftAlias)
	require.Equal(t, "c", outerRel.RightAlias)

	innerRel, ok := outerRel.LeftSubplan.(*lplan.GraphRel)
	require.True(t, ok)
	require.Equal(t, "a", innerRel.LeftAlias)
	require.Equal(t, "b", innerRel.RightAlias)
}

func TestBuildWithOpensNewScope(t *testing.T) {
	plan, _ := mustBuild(t, "MATCH (u:User) WITH u, count(*) AS c WHERE c > 1 RETURN u")
	proj := plan.(*lplan.Projection)
	with, ok := proj.Input.(*lplan.WithClause)
	require.True(t, ok)
	require.Contains(t, with.ExportedAliases, "u")
	require.Contains(t, with.ExportedAliases, "c")
}

func TestBuildNodePropertyBecomesInlineFilter(t *testing.T) {
	plan, _ := mustBuild(t, "MATCH (u:User {active: true}) RETURN u")
	proj := plan.(*lplan.Projection)
	filter, ok := proj.Input.(*lplan.Filter)
	require.True(t, ok)
	bin := filter.Predicate.(*lexpr.Binary)
	ref := bin.Left.(*lexpr.UnresolvedRef)
	require.Equal(t, "active", ref.Property)
}

func TestBuildOptionalMatchMarksAlias(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:User) OPTIONAL MATCH (a)-[:OWNS]->(acct:Account) RETURN a, acct")
	require.NoError(t, err)
	_, ctx, err := Build(q, nil, "")
	require.NoError(t, err)
	require.True(t, ctx.IsOptional("acct"))
}

func TestBuildUnionProducesUnionNode(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:User) RETURN a.name AS name UNION MATCH (b:Org) RETURN b.name AS name")
	require.NoError(t, err)
	plan, _, err := Build(q, nil, "")
	require.NoError(t, err)
	u, ok := plan.(*lplan.Union)
	require.True(t, ok)
	require.Len(t, u.Inputs, 2)
	require.False(t, u.All)
}

func TestBuildShortestPathMarksGraphRel(t *testing.T) {
	plan, _ := mustBuild(t, "MATCH p = shortestPath((a:User)-[:KNOWS*]-(b:User)) RETURN p")
	proj := plan.(*lplan.Projection)
	rel, ok := proj.Input.(*lplan.GraphRel)
	require.True(t, ok)
	require.True(t, rel.ShortestPath)
	require.False(t, rel.AllShortest)
}

func TestContainsAggregateDetectsNestedCall(t *testing.T) {
	plan, _ := mustBuild(t, "MATCH (u:User) RETURN count(u) AS c")
	proj := plan.(*lplan.Projection)
	require.True(t, ContainsAggregate(proj.Items[0].Expr))
}
