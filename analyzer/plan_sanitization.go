package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// planSanitizationPass runs a small, fixed set of cleanups over the fully
// analyzed plan: it drops a Filter whose predicate collapsed to nil
// (empty-conjunction elimination), collapses a Union with a single
// remaining input down to that input, and removes a Projection that ended
// up with no items to project (the degenerate case left behind when every
// projected item was folded elsewhere, e.g. into a GroupBy's keys).
// Deterministic CTE naming is already guaranteed by construction —
// graphTraversalPlanningPass allocates every name through the shared,
// monotonically increasing PlanCtx counter — so there is nothing left for
// this pass to do on that front.
func planSanitizationPass(_ context.Context, plan lplan.Node, _ *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	return lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		switch node := n.(type) {
		case *lplan.Filter:
			if node.Predicate == nil {
				return node.Input, nil
			}
			return node, nil
		case *lplan.Union:
			if len(node.Inputs) == 1 {
				return node.Inputs[0], nil
			}
			return node, nil
		case *lplan.Projection:
			if len(node.Items) == 0 {
				return node.Input, nil
			}
			return node, nil
		default:
			return node, nil
		}
	})
}
