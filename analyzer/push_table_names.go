package analyzer

import (
	"context"

	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// pushInferredTableNamesPass fills in every GraphNode's Input with a
// concrete Scan/ViewScan once its TableCtx carries a resolved NodeSchema,
// resolving view parameters from the plan context's bound values and
// carrying any per-label Filter down as the scan's own filter expression
// via ViewScan.Filter (the render layer is responsible for anding this
// into the WHERE clause it finally emits).
func pushInferredTableNamesPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	return lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		gn, ok := n.(*lplan.GraphNode)
		if !ok || gn.Input != nil {
			return n, nil
		}
		tc, ok := pctx.LookupTable(gn.Alias)
		if !ok || tc.Schema == nil {
			return n, nil
		}
		input, err := scanForNodeSchema(tc.Schema, pctx)
		if err != nil {
			return nil, err
		}
		return lplan.NewGraphNode(gn.Alias, gn.Label, input), nil
	})
}

func scanForNodeSchema(schema *catalog.NodeSchema, pctx *planctx.PlanCtx) (lplan.Node, error) {
	if len(schema.ViewParams) == 0 && schema.Filter == "" {
		return lplan.NewScan(schema.Table), nil
	}
	if err := catalog.RequireViewParams(schema.Label, schema.ViewParams, pctx.ViewParamValues); err != nil {
		return nil, err
	}
	table, err := catalog.ResolveViewParams(schema.Table, schema.ViewParams, pctx.ViewParamValues)
	if err != nil {
		return nil, err
	}
	filter, err := catalog.ResolveViewParams(schema.Filter, schema.ViewParams, pctx.ViewParamValues)
	if err != nil {
		return nil, err
	}
	return lplan.NewViewScan(table, filter), nil
}
