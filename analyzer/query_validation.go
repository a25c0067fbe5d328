package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// queryValidationPass checks the invariants that must hold before
// graph-traversal planning commits to a physical shape: every remaining
// UnresolvedRef names a property the resolved schema actually has, and
// every single-typed relationship's declared direction is compatible with
// at least one registered schema variant for its (already-known) endpoint
// labels.
func queryValidationPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	var err error
	lplan.Walk(plan, func(n lplan.Node) bool {
		if err != nil {
			return false
		}
		switch node := n.(type) {
		case *lplan.Filter:
			err = validateExpr(node.Predicate, pctx)
		case *lplan.Projection:
			err = validateItems(node.Items, pctx)
		case *lplan.WithClause:
			if err = validateItems(node.Items, pctx); err == nil && node.Where != nil {
				err = validateExpr(node.Where, pctx)
			}
		case *lplan.GraphRel:
			if node.Where != nil {
				if e := validateExpr(node.Where, pctx); e != nil {
					err = e
					return false
				}
			}
			err = validateDirection(node, pctx)
		}
		return err == nil
	})
	return plan, err
}

func validateItems(items []lplan.ProjectionItem, pctx *planctx.PlanCtx) error {
	for _, it := range items {
		if err := validateExpr(it.Expr, pctx); err != nil {
			return err
		}
	}
	return nil
}

func validateExpr(e lexpr.Expr, pctx *planctx.PlanCtx) error {
	for _, ref := range lexpr.FindAll(e, func(x lexpr.Expr) bool {
		_, ok := x.(*lexpr.UnresolvedRef)
		return ok
	}) {
		ur := ref.(*lexpr.UnresolvedRef)
		if ur.Property == "" {
			continue
		}
		tc, ok := pctx.LookupTable(ur.Alias)
		if !ok || tc.Schema == nil {
			continue // pattern-comprehension/EXISTS bodies resolve in their own scope, later
		}
		if _, found := tc.Schema.ResolveProperty(ur.Property); !found {
			return errUnresolvedProperty(ur.Alias, ur.Property)
		}
	}
	return nil
}

func validateDirection(rel *lplan.GraphRel, pctx *planctx.PlanCtx) error {
	if len(rel.Types) != 1 || pctx.Schema == nil {
		return nil
	}
	tc, ok := pctx.LookupTable(rel.Alias)
	if !ok || tc.RelSchema == nil {
		return nil // not yet resolved to a concrete variant; nothing to validate
	}
	leftTC, leftOK := pctx.LookupTable(rel.LeftAlias)
	rightTC, rightOK := pctx.LookupTable(rel.RightAlias)
	if !leftOK || !rightOK || leftTC.Schema == nil || rightTC.Schema == nil {
		return nil
	}
	switch rel.Direction {
	case lplan.DirOut:
		if tc.RelSchema.FromLabel != leftTC.Schema.Label || tc.RelSchema.ToLabel != rightTC.Schema.Label {
			return ErrInvalidDirection.New(rel.Alias)
		}
	case lplan.DirIn:
		if tc.RelSchema.FromLabel != rightTC.Schema.Label || tc.RelSchema.ToLabel != leftTC.Schema.Label {
			return ErrInvalidDirection.New(rel.Alias)
		}
	}
	return nil
}
