package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// filterTaggingPass walks every predicate reachable from a Filter node or a
// GraphRel's inline Where, splitting AND-conjunctions into individual
// conjuncts and recording, on each referenced alias's TableCtx, that the
// property the conjunct reads must survive to wherever that alias is
// eventually scanned. It does not move or rewrite predicates; placement is
// decided later by graph-join inference and plan sanitization.
func filterTaggingPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	lplan.Walk(plan, func(n lplan.Node) bool {
		switch node := n.(type) {
		case *lplan.Filter:
			tagPredicate(node.Predicate, pctx)
		case *lplan.GraphRel:
			if node.Where != nil {
				tagPredicate(node.Where, pctx)
			}
		}
		return true
	})
	return plan, nil
}

// splitConjuncts flattens nested AND expressions into their leaf conjuncts.
func splitConjuncts(e lexpr.Expr) []lexpr.Expr {
	if b, ok := e.(*lexpr.Binary); ok && b.Op == lexpr.OpAnd {
		return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
	}
	return []lexpr.Expr{e}
}

func tagPredicate(e lexpr.Expr, pctx *planctx.PlanCtx) {
	for _, conjunct := range splitConjuncts(e) {
		for _, ref := range lexpr.FindAll(conjunct, func(x lexpr.Expr) bool {
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
