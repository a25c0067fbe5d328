package analyzer

import (
	"context"

	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
	"github.com/mitchellh/hashstructure"
)

// duplicateScanRemovalPass collapses CartesianProduct branches that scan
// the exact same Scan/ViewScan (by structural hash, not pointer identity)
// into a single shared subplan, keeping whichever branch is smaller by
// node count as the survivor. This only fires on branches with no other
// operator between the CartesianProduct and the scan, matching the shape
// planbuilder produces for a repeated bare node pattern across multiple
// MATCH clauses; it is deliberately conservative rather than a general
// common-subexpression eliminator.
func duplicateScanRemovalPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	return lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		cp, ok := n.(*lplan.CartesianProduct)
		if !ok {
			return n, nil
		}
		leftHash, err := scanHash(cp.Left)
		if err != nil || leftHash == 0 {
			return n, nil
		}
		rightHash, err := scanHash(cp.Right)
		if err != nil || rightHash == 0 {
			return n, nil
		}
		if leftHash != rightHash {
			return n, nil
		}
		if lplan.CountNodes(cp.Right) <= lplan.CountNodes(cp.Left) {
			return cp.Right, nil
		}
		return cp.Left, nil
	})
}

// scanHash returns 0 when n is not a bare scan-shaped leaf (Scan, ViewScan,
// or a label-only GraphNode wrapping one), so callers can treat 0 as "not
// eligible" without a separate ok bool.
func scanHash(n lplan.Node) (uint64, error) {
	switch node := n.(type) {
	case *lplan.Scan:
		return hashstructure.Hash(node, nil)
	case *lplan.ViewScan:
		return hashstructure.Hash(node, nil)
	case *lplan.GraphNode:
		if node.Input == nil {
			return 0, nil
		}
		innerHash, err := scanHash(node.Input)
		if err != nil || innerHash == 0 {
			return 0, err
		}
		return hashstructure.Hash(struct {
			Alias string
			Label string
			Inner uint64
		}{node.Alias, node.Label, innerHash}, nil)
	default:
		return 0, nil
	}
}
