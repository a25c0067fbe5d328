package analyzer

import (
	"context"

	"github.com/cyphersql/translator/cteutil"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// graphTraversalPlanningPass gives every variable-length GraphRel a
// recursive-CTE identity: it allocates a deterministic CTE name, registers
// it in the plan context, and marks both endpoints' TableCtx as the
// traversal's anchor and terminal roles. The render layer uses this
// bookkeeping to emit the recursive CTE body; this pass only decides which
// relationships need one and what they're called. A relationship declaring
// more than one type multiplies the concrete (from,type,to) combinations
// the traversal must enumerate; if that count exceeds the configured
// bound, translation fails rather than silently truncating coverage.
func graphTraversalPlanningPass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, opts *Options) (lplan.Node, error) {
	var err error
	lplan.Walk(plan, func(n lplan.Node) bool {
		if err != nil {
			return false
		}
		rel, ok := n.(*lplan.GraphRel)
		if !ok || rel.VarLength == nil {
			return true
		}
		err = planVariableLengthRel(rel, pctx, opts)
		return err == nil
	})
	return plan, err
}

func planVariableLengthRel(rel *lplan.GraphRel, pctx *planctx.PlanCtx, opts *Options) error {
	combinations := len(rel.Types)
	if combinations == 0 {
		combinations = 1
	}
	bound := opts.MaxVLPTypeCombinations
	if bound <= 0 {
		bound = 38
	}
	if bound > 1000 {
		bound = 1000
	}
	if bound < 1 {
		bound = 1
	}
	if combinations > bound {
		return errVLPBoundExceeded(combinations, bound)
	}

	cteName := cteutil.GenerateCTEName([]string{rel.LeftAlias, rel.RightAlias}, pctx.NextCTEName())
	pctx.RegisterCTE(&planctx.CTEInfo{
		Name:    cteName,
		Columns: []string{rel.LeftAlias, rel.RightAlias},
		EntityTypes: map[string]planctx.VariableKind{
			rel.LeftAlias:  planctx.KindNode,
			rel.RightAlias: planctx.KindNode,
		},
	})

	if leftTC, ok := pctx.LookupTable(rel.LeftAlias); ok {
		leftTC.VLPEndpoint = planctx.VLPEndpointInfo{IsVLPEndpoint: true, CTEName: cteName, IsAnchor: true}
	}
	if rightTC, ok := pctx.LookupTable(rel.RightAlias); ok {
		rightTC.VLPEndpoint = planctx.VLPEndpointInfo{IsVLPEndpoint: true, CTEName: cteName, IsAnchor: false}
	}
	if relTC, ok := pctx.LookupTable(rel.Alias); ok {
		relTC.VLPEndpoint = planctx.VLPEndpointInfo{IsVLPEndpoint: true, CTEName: cteName}
	}
	return nil
}
