package render

import (
	"context"
	"strings"
	"testing"

	"github.com/cyphersql/translator/analyzer"
	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/parser"
	"github.com/cyphersql/translator/planbuilder"
	"github.com/cyphersql/translator/planctx"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *catalog.Schema {
	t.Helper()
	f := &catalog.Fixture{
		Version: 1,
		Nodes: map[string]catalog.NodeFixture{
			"User": {
				Table:      "users",
				ID:         "id",
				Properties: map[string]string{"name": "name", "age": "age"},
			},
			"Account": {
				Table:      "accounts",
				ID:         "id",
				Properties: map[string]string{"balance": "balance"},
			},
		},
		Rels: []catalog.RelationshipFixture{
			{
				Type: "OWNS", Table: "user_owns_account", From: "User", To: "Account",
				FromID: "user_id", ToID: "account_id",
			},
			{
				Type: "FOLLOWS", Table: "user_follows", From: "User", To: "User",
				FromID: "follower_id", ToID: "followee_id",
			},
		},
	}
	s, err := catalog.BuildFromFixture(f)
	require.NoError(t, err)
	return s
}

func buildAnalyzed(t *testing.T, text string, schema *catalog.Schema) (lplan.Node, *planctx.PlanCtx) {
	t.Helper()
	q, err := parser.ParseQuery(text)
	require.NoError(t, err)
	plan, pctx, err := planbuilder.Build(q, schema, "")
	require.NoError(t, err)
	analyzedPlan, err := analyzer.Run(context.Background(), plan, pctx, schema, analyzer.DefaultOptions())
	require.NoError(t, err)
	return analyzedPlan, pctx
}

func TestBuildAndToSQLSimpleNodeScan(t *testing.T) {
	schema := testSchema(t)
	plan, pctx := buildAnalyzed(t, "MATCH (u:User) RETURN u.name", schema)

	rp, err := Build(plan, pctx)
	require.NoError(t, err)
	sql, params, err := rp.ToSQL()
	require.NoError(t, err)
	require.Empty(t, params)
	require.Contains(t, sql, "SELECT")
	require.Contains(t, sql, "FROM users")
}

func TestEmitExprLiteralsAndBinary(t *testing.T) {
	sql, params, err := EmitExpr(lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitInt, Int: 42}), nil)
	require.NoError(t, err)
	require.Empty(t, params)
	require.Equal(t, "42", sql)

	bin := lexpr.NewBinary(lexpr.OpEq, lexpr.NewColumnRef("u", "age"), lexpr.NewParameter("minAge"))
	sql, params, err = EmitExpr(bin, nil)
	require.NoError(t, err)
	require.Equal(t, "(u.age = ?)", sql)
	require.Equal(t, []string{"minAge"}, params)
}

func TestEmitExprRemapsThroughAliasMap(t *testing.T) {
	scope := &AliasScope{Physical: map[string]string{"o": "r"}}
	sql, _, err := EmitExpr(lexpr.NewColumnRef("o", "from_id"), scope)
	require.NoError(t, err)
	require.Equal(t, "r.from_id", sql)
}

func TestToSQLClauseOrder(t *testing.T) {
	schema := testSchema(t)
	plan, pctx := buildAnalyzed(t, "MATCH (u:User) WHERE u.age > 18 RETURN u.name ORDER BY u.name LIMIT 10", schema)
	rp, err := Build(plan, pctx)
	require.NoError(t, err)
	sql, _, err := rp.ToSQL()
	require.NoError(t, err)

	selectIdx := strings.Index(sql, "SELECT")
	fromIdx := strings.Index(sql, "FROM")
	whereIdx := strings.Index(sql, "WHERE")
	orderIdx := strings.Index(sql, "ORDER BY")
	limitIdx := strings.Index(sql, "LIMIT")
	require.True(t, selectIdx >= 0 && selectIdx < fromIdx)
	require.True(t, fromIdx < whereIdx)
	require.True(t, whereIdx < orderIdx)
	require.True(t, orderIdx < limitIdx)
}

func TestBuildRelationshipTraditionalJoin(t *testing.T) {
	schema := testSchema(t)
	plan, pctx := buildAnalyzed(t, "MATCH (u:User)-[:OWNS]->(a:Account) RETURN u.name, a.balance", schema)
	rp, err := Build(plan, pctx)
	require.NoError(t, err)
	sql, _, err := rp.ToSQL()
	require.NoError(t, err)
	require.Contains(t, sql, "JOIN user_owns_account")
	require.Contains(t, sql, "JOIN accounts")
}

func TestBuildWithClauseProducesCTE(t *testing.T) {
	schema := testSchema(t)
	plan, pctx := buildAnalyzed(t, "MATCH (u:User) WITH u, u.age AS age WHERE age > 18 RETURN u.name", schema)
	rp, err := Build(plan, pctx)
	require.NoError(t, err)
	sql, _, err := rp.ToSQL()
	require.NoError(t, err)
	require.Contains(t, sql, "WITH with_")
	require.Contains(t, sql, ") AS (")
	// the WithClause's own WHERE filters on its scalar export directly
	// against the underlying scan, inside the CTE body.
	require.Contains(t, sql, "u.age > 18")
	// the outer query reads u.name back out through the CTE's own encoded
	// column, not a raw "u.name" reference into a CTE that never exposes it.
	require.NotContains(t, sql, "u.name")
}

func TestQuoteStringLiteralEscapesQuotes(t *testing.T) {
	require.Equal(t, "'o''brien'", quoteStringLiteral("o'brien"))
}

func TestSplitConjunctsFlattensAndChain(t *testing.T) {
	a := lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitInt, Int: 1})
	b := lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitInt, Int: 2})
	c := lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitInt, Int: 3})
	combined := andExpr(andExpr(a, b), c)
	parts := splitConjuncts(combined)
	require.Len(t, parts, 3)
}

func TestUnionPlanToSQLJoinsBranchesWithKeyword(t *testing.T) {
	schema := testSchema(t)
	plan, pctx := buildAnalyzed(t, "MATCH (u:User) RETURN u.name UNION MATCH (a:Account) RETURN a.balance", schema)
	union, ok := plan.(*lplan.Union)
	require.True(t, ok, "expected a top-level Union, got %T", plan)

	up, err := BuildUnion(union, pctx)
	require.NoError(t, err)
	sql, _, err := up.ToSQL()
	require.NoError(t, err)
	require.Contains(t, sql, " UNION ")
	require.False(t, strings.Contains(sql, "UNION ALL"))
}
