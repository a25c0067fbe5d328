package analyzer

import (
	"context"
	"testing"

	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/parser"
	"github.com/cyphersql/translator/planbuilder"
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
				Properties: map[string]string{"name": "name", "age": "age", "active": "active"},
			},
			"Account": {
				Table:      "accounts",
				ID:         "id",
				Properties: map[string]string{"balance": "balance"},
			},
			"Org": {
				Table:      "orgs",
				ID:         "id",
				Properties: map[string]string{"name": "org_name"},
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

func buildAndAnalyze(t *testing.T, text string, schema *catalog.Schema) lplan.Node {
	t.Helper()
	q, err := parser.ParseQuery(text)
	require.NoError(t, err)
	plan, pctx, err := planbuilder.Build(q, schema, "")
	require.NoError(t, err)
	analyzed, err := Run(context.Background(), plan, pctx, schema, DefaultOptions())
	require.NoError(t, err)
	return analyzed
}

func TestRunResolvesNodeSchema(t *testing.T) {
	schema := testSchema(t)
	q, err := parser.ParseQuery("MATCH (u:User) WHERE u.age > 18 RETURN u.name")
	require.NoError(t, err)
	plan, pctx, err := planbuilder.Build(q, schema, "")
	require.NoError(t, err)
	_, err = Run(context.Background(), plan, pctx, schema, DefaultOptions())
	require.NoError(t, err)

	tc, ok := pctx.LookupTable("u")
	require.True(t, ok)
	require.NotNil(t, tc.Schema)
	require.Equal(t, "User", tc.Schema.Label)
}

func TestRunPushesScanIntoGraphNode(t *testing.T) {
	schema := testSchema(t)
	analyzed := buildAndAnalyze(t, "MATCH (u:User) RETURN u.name", schema)

	found := lplan.FindAll(analyzed, func(n lplan.Node) bool {
		_, ok := n.(*lplan.GraphNode)
		return ok
	})
	require.Len(t, found, 1)
	gn := found[0].(*lplan.GraphNode)
	scan, ok := gn.Input.(*lplan.Scan)
	require.True(t, ok)
	require.Equal(t, "users", scan.Table)
}

func TestRunInfersMissingEndpointLabel(t *testing.T) {
	schema := testSchema(t)
	q, err := parser.ParseQuery("MATCH (u:User)-[:OWNS]->(acct) RETURN acct")
	require.NoError(t, err)
	plan, pctx, err := planbuilder.Build(q, schema, "")
	require.NoError(t, err)
	_, err = Run(context.Background(), plan, pctx, schema, DefaultOptions())
	require.NoError(t, err)

	tc, ok := pctx.LookupTable("acct")
	require.True(t, ok)
	require.NotNil(t, tc.Schema)
	require.Equal(t, "Account", tc.Schema.Label)
}

func TestRunFoldsRelationshipIntoGraphJoins(t *testing.T) {
	schema := testSchema(t)
	analyzed := buildAndAnalyze(t, "MATCH (u:User)-[:OWNS]->(a:Account) RETURN u, a", schema)

	found := lplan.FindAll(analyzed, func(n lplan.Node) bool {
		_, ok := n.(*lplan.GraphJoins)
		return ok
	})
	require.Len(t, found, 1)
	gj := found[0].(*lplan.GraphJoins)
	require.Equal(t, "u", gj.AnchorTable)
	require.Len(t, gj.Joins, 1)
	require.Equal(t, lplan.JoinTraditional, gj.Joins[0].Strategy)
	require.NotNil(t, gj.Joins[0].On)
}

func TestRunBuildsGroupByForAggregateProjection(t *testing.T) {
	schema := testSchema(t)
	analyzed := buildAndAnalyze(t, "MATCH (u:User) RETURN u.name, count(u) AS c", schema)

	found := lplan.FindAll(analyzed, func(n lplan.Node) bool {
		_, ok := n.(*lplan.GroupBy)
		return ok
	})
	require.Len(t, found, 1)
	gb := found[0].(*lplan.GroupBy)
	require.Len(t, gb.Keys, 1)
	require.Len(t, gb.Aggregates, 1)
	require.True(t, gb.IsMaterializationBoundary)
}

func TestRunRejectsUnresolvedProperty(t *testing.T) {
	schema := testSchema(t)
	q, err := parser.ParseQuery("MATCH (u:User) RETURN u.doesNotExist")
	require.NoError(t, err)
	plan, pctx, err := planbuilder.Build(q, schema, "")
	require.NoError(t, err)
	_, err = Run(context.Background(), plan, pctx, schema, DefaultOptions())
	require.Error(t, err)
	require.True(t, ErrUnresolvedProperty.Is(err))
}

func TestRunVariableLengthPathRegistersCTE(t *testing.T) {
	schema := testSchema(t)
	q, err := parser.ParseQuery("MATCH (u:User)-[:FOLLOWS*1..3]->(v:User) RETURN v")
	require.NoError(t, err)
	plan, pctx, err := planbuilder.Build(q, schema, "")
	require.NoError(t, err)
	_, err = Run(context.Background(), plan, pctx, schema, DefaultOptions())
	require.NoError(t, err)

	tc, ok := pctx.LookupTable("u")
	require.True(t, ok)
	require.True(t, tc.VLPEndpoint.IsVLPEndpoint)
	require.True(t, tc.VLPEndpoint.IsAnchor)
	_, ok = pctx.LookupCTE(tc.VLPEndpoint.CTEName)
	require.True(t, ok)
}

func TestRunCollapsesSingleInputUnion(t *testing.T) {
	plan := lplan.NewUnion([]lplan.Node{lplan.NewScan("users")}, false)
	sanitized, err := planSanitizationPass(context.Background(), plan, nil, DefaultOptions())
	require.NoError(t, err)
	_, ok := sanitized.(*lplan.Scan)
	require.True(t, ok)
}

func TestRunDropsEmptyPredicateFilter(t *testing.T) {
	plan := &lplan.Filter{Predicate: nil, Input: lplan.NewScan("users")}
	sanitized, err := planSanitizationPass(context.Background(), plan, nil, DefaultOptions())
	require.NoError(t, err)
	_, ok := sanitized.(*lplan.Scan)
	require.True(t, ok)
}
