package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planbuilder"
	"github.com/cyphersql/translator/planctx"
)

// groupByBuildingPass inserts a GroupBy operator under any Projection or
// WithClause whose items mix aggregate and non-aggregate expressions: the
// non-aggregate items become grouping keys, the aggregate items become the
// materialized aggregates, and IsMaterializationBoundary is set so the
// render layer knows HAVING/ORDER BY above this point must reference the
// group's output columns rather than the raw input.
func groupByBuildingPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	return lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		switch node := n.(type) {
		case *lplan.Projection:
			if gb := buildGroupBy(node.Items, nil, node.Input); gb != nil {
				node.Input = gb
			}
			return node, nil
		case *lplan.WithClause:
			if gb := buildGroupBy(node.Items, node.Where, node.Input); gb != nil {
				node.Input = gb
				node.Where = nil // promoted into the GroupBy's Having
			}
			return node, nil
		default:
			return n, nil
		}
	})
}

func buildGroupBy(items []lplan.ProjectionItem, having lexpr.Expr, input lplan.Node) *lplan.GroupBy {
	hasAgg := false
	for _, it := range items {
		if planbuilder.ContainsAggregate(it.Expr) {
			hasAgg = true
			break
		}
	}
	if !hasAgg {
		return nil
	}

	var keys []lexpr.Expr
	var aggregates []lplan.ProjectionItem
	for _, it := range items {
		if planbuilder.ContainsAggregate(it.Expr) {
			aggregates = append(aggregates, it)
		} else {
			keys = append(keys, it.Expr)
		}
	}
	return lplan.NewGroupBy(keys, aggregates, having, true, input)
}
