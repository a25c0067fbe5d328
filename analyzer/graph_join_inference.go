package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// graphJoinInferencePass is the central pass: it folds every GraphRel in a
// left-deep chain into a single GraphJoins operator, deciding per
// relationship which physical join shape the render layer must emit
// (JoinTraditional through the edge table, JoinSingleTableScan/
// JoinCoupledSameRow when one or both endpoints are denormalized onto the
// edge row, or JoinFkEdge when the "edge" is really a foreign key column on
// a node table) and building the ON predicate from the resolved schema's id
// columns. GraphJoins never carries a Scan for the relationship's own edge
// table — the render layer resolves it from the relationship alias's
// RelSchema.Table the same way it resolves any GraphNode's table, so the
// join spec only needs alias names and the predicate.
func graphJoinInferencePass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	return lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		rel, ok := n.(*lplan.GraphRel)
		if !ok {
			return n, nil
		}
		return foldGraphRel(rel, pctx), nil
	})
}

func foldGraphRel(rel *lplan.GraphRel, pctx *planctx.PlanCtx) lplan.Node {
	spec := lplan.GraphJoinSpec{
		RelAlias:   rel.Alias,
		Strategy:   chooseJoinStrategy(rel, pctx),
		LeftAlias:  rel.LeftAlias,
		RightAlias: rel.RightAlias,
		On:         buildJoinPredicate(rel, pctx),
		Optional:   rel.Optional,
	}

	if gj, ok := rel.LeftSubplan.(*lplan.GraphJoins); ok {
		joins := append(append([]lplan.GraphJoinSpec{}, gj.Joins...), spec)
		optAliases := gj.OptionalAliases
		if rel.Optional {
			optAliases = append(optAliases, rel.RightAlias)
		}
		return &lplan.GraphJoins{
			Joins:                 joins,
			OptionalAliases:       optAliases,
			AnchorTable:           gj.AnchorTable,
			CTEReferences:         appendCTERef(gj.CTEReferences, rel, pctx),
			CorrelationPredicates: gj.CorrelationPredicates,
			Input:                 gj.Input,
		}
	}

	var optAliases []string
	if rel.Optional {
		optAliases = append(optAliases, rel.RightAlias)
	}
	return &lplan.GraphJoins{
		Joins:           []lplan.GraphJoinSpec{spec},
		OptionalAliases: optAliases,
		AnchorTable:     rel.LeftAlias,
		CTEReferences:   appendCTERef(nil, rel, pctx),
		Input:           rel.LeftSubplan,
	}
}

func appendCTERef(existing []string, rel *lplan.GraphRel, pctx *planctx.PlanCtx) []string {
	tc, ok := pctx.LookupTable(rel.Alias)
	if !ok || !tc.VLPEndpoint.IsVLPEndpoint {
		return existing
	}
	for _, name := range existing {
		if name == tc.VLPEndpoint.CTEName {
			return existing
		}
	}
	return append(existing, tc.VLPEndpoint.CTEName)
}

func chooseJoinStrategy(rel *lplan.GraphRel, pctx *planctx.PlanCtx) lplan.JoinStrategy {
	tc, ok := pctx.LookupTable(rel.Alias)
	if !ok || tc.RelSchema == nil {
		return lplan.JoinTraditional
	}
	rs := tc.RelSchema
	switch {
	case rs.FKEdge:
		return lplan.JoinFkEdge
	case rs.DenormalizedFrom && rs.DenormalizedTo:
		return lplan.JoinCoupledSameRow
	case rs.DenormalizedFrom || rs.DenormalizedTo:
		return lplan.JoinSingleTableScan
	default:
		return lplan.JoinTraditional
	}
}

func buildJoinPredicate(rel *lplan.GraphRel, pctx *planctx.PlanCtx) lexpr.Expr {
	relTC, ok := pctx.LookupTable(rel.Alias)
	if !ok || relTC.RelSchema == nil {
		return rel.Where
	}
	rs := relTC.RelSchema

	fromAlias, toAlias := rel.LeftAlias, rel.RightAlias
	if rel.Direction == lplan.DirIn {
		fromAlias, toAlias = toAlias, fromAlias
	}
	leftTC, _ := pctx.LookupTable(fromAlias)
	rightTC, _ := pctx.LookupTable(toAlias)

	var preds []lexpr.Expr
	if leftTC != nil && leftTC.Schema != nil {
		for i, col := range rs.FromIDColumns {
			if i >= len(leftTC.Schema.IDColumns) {
				break
			}
			preds = append(preds, lexpr.NewBinary(lexpr.OpEq,
				lexpr.NewColumnRef(fromAlias, leftTC.Schema.IDColumns[i]),
				lexpr.NewColumnRef(rel.Alias, col)))
		}
	}
	if rightTC != nil && rightTC.Schema != nil {
		for i, col := range rs.ToIDColumns {
			if i >= len(rightTC.Schema.IDColumns) {
				break
			}
			preds = append(preds, lexpr.NewBinary(lexpr.OpEq,
				lexpr.NewColumnRef(rel.Alias, col),
				lexpr.NewColumnRef(toAlias, rightTC.Schema.IDColumns[i])))
		}
	}

	pred := andAllExprs(preds)
	switch {
	case pred == nil:
		return rel.Where
	case rel.Where == nil:
		return pred
	default:
		return lexpr.NewBinary(lexpr.OpAnd, pred, rel.Where)
	}
}

func andAllExprs(preds []lexpr.Expr) lexpr.Expr {
	if len(preds) == 0 {
		return nil
	}
	out := preds[0]
	for _, p := range preds[1:] {
		out = lexpr.NewBinary(lexpr.OpAnd, out, p)
	}
	return out
}
