package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// projectionTaggingPass records every property a Projection or WithClause
// actually reads (TableCtx.RequireProperty), the same way filterTaggingPass
// does for predicates. It does not add or change projection aliases.
func projectionTaggingPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	lplan.Walk(plan, func(n lplan.Node) bool {
		switch node := n.(type) {
		case *lplan.Projection:
			tagItems(node.Items, pctx)
		case *lplan.WithClause:
			tagItems(node.Items, pctx)
			if node.Where != nil {
				tagPredicate(node.Where, pctx)
			}
		}
		return true
	})
	return plan, nil
}

func tagItems(items []lplan.ProjectionItem, pctx *planctx.PlanCtx) {
	for _, it := range items {
		for _, ref := range lexpr.FindAll(it.Expr, func(x lexpr.Expr) bool {
			_, ok := x.(*lexpr.UnresolvedRef)
			return ok
		}) {
			ur := ref.(*lexpr.UnresolvedRef)
			if ur.Property == "" {
				continue
			}
			if tc, ok := pctx.LookupTable(ur.Alias); ok {
				tc.RequireProperty(ur.Property)
			}
		}
	}
}
