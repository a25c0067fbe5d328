package analyzer

import (
	"context"

	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// labelInferencePass runs to a fixed point: for every GraphRel with exactly
// one declared type whose endpoints don't both carry a label yet, it asks
// the schema whether that type's (from, to) pair is unique once one
// endpoint's label is known, and if so propagates the inferred label onto
// the other endpoint's GraphNode and TableCtx. It stops once a full pass
// makes no further progress, or after a small fixed number of iterations as
// a non-convergence guard (a query cannot have more unresolved labels than
// it has aliases, so convergence is bounded by query size in practice).
func labelInferencePass(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, _ *Options) (lplan.Node, error) {
	if pctx.Schema == nil {
		return plan, nil
	}
	for iter := 0; iter < 25; iter++ {
		changed := false
		next, err := lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
			gn, ok := n.(*lplan.GraphNode)
			if !ok || gn.Label != "" {
				return n, nil
			}
			tc, ok := pctx.LookupTable(gn.Alias)
			if !ok || len(tc.Labels) != 1 {
				return n, nil
			}
			// A single declared label that just hasn't been copied onto the
			// node yet (e.g. produced by a later rewrite) is filled in
			// directly; this branch otherwise falls through to relationship
			// based inference below via the GraphRel case.
			changed = true
			tc.LabelsInferred = false
			attachNodeSchema(tc, pctx)
			return lplan.NewGraphNode(gn.Alias, tc.Labels[0], gn.Input), nil
		})
		if err != nil {
			return nil, err
		}
		plan = next

		lplan.Walk(plan, func(n lplan.Node) bool {
			rel, ok := n.(*lplan.GraphRel)
			if !ok || len(rel.Types) != 1 {
				return true
			}
			if inferAcrossRel(rel, pctx) {
				changed = true
			}
			return true
		})
		if !changed {
			break
		}
	}

	// Replace any still-unlabelled GraphNode with the label now recorded on
	// its TableCtx, one last time, so downstream passes see the result. Any
	// alias that still has no label at all once the fixed point is reached
	// is the query-shape failure pass 6 is responsible for reporting.
	var failErr error
	result, err := lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		gn, ok := n.(*lplan.GraphNode)
		if !ok || gn.Label != "" {
			return n, nil
		}
		tc, ok := pctx.LookupTable(gn.Alias)
		if !ok || len(tc.Labels) == 0 {
			if failErr == nil {
				failErr = errLabelInferenceFailed(gn.Alias)
			}
			return n, nil
		}
		return lplan.NewGraphNode(gn.Alias, tc.Labels[0], gn.Input), nil
	})
	if err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}
	return result, nil
}

// attachNodeSchema resolves and attaches tc.Schema from whichever label now
// sits in tc.Labels. Schema inference (pass 5) runs before label inference
// and only covers declared labels, so an alias whose label was filled in
// here needs its schema picked up directly rather than waiting on a pass
// that has already run.
func attachNodeSchema(tc *planctx.TableCtx, pctx *planctx.PlanCtx) {
	if tc.Schema != nil || len(tc.Labels) != 1 || pctx.Schema == nil {
		return
	}
	if schema, err := pctx.Schema.GetNodeSchema(tc.Labels[0]); err == nil {
		tc.Schema = schema
	}
}

// inferAcrossRel attempts to propagate a label across a single-typed
// relationship from whichever endpoint already has one. It mutates the
// TableCtx of the still-unlabelled endpoint in place and reports whether it
// made progress.
func inferAcrossRel(rel *lplan.GraphRel, pctx *planctx.PlanCtx) bool {
	leftTC, leftOK := pctx.LookupTable(rel.LeftAlias)
	rightTC, rightOK := pctx.LookupTable(rel.RightAlias)
	if !leftOK || !rightOK {
		return false
	}

	leftKnown := len(leftTC.Labels) == 1
	rightKnown := len(rightTC.Labels) == 1
	if leftKnown == rightKnown {
		return false // either both known (nothing to do) or both unknown (can't infer)
	}

	relType := rel.Types[0]
	if leftKnown && !rightKnown {
		knownIsFrom := rel.Direction != lplan.DirIn
		label, ok := pctx.Schema.InferEndpointLabel(relType, leftTC.Labels[0], knownIsFrom)
		if !ok {
			return false
		}
		rightTC.Labels = []string{label}
		rightTC.LabelsInferred = true
		attachNodeSchema(rightTC, pctx)
		attachRelSchema(rel, pctx)
		return true
	}

	knownIsFrom := rel.Direction == lplan.DirIn
	label, ok := pctx.Schema.InferEndpointLabel(relType, rightTC.Labels[0], knownIsFrom)
	if !ok {
		return false
	}
	leftTC.Labels = []string{label}
	leftTC.LabelsInferred = true
	attachNodeSchema(leftTC, pctx)
	attachRelSchema(rel, pctx)
	return true
}

// attachRelSchema resolves and attaches RelSchema onto rel's own TableCtx
// once both endpoints carry a resolved NodeSchema. Relationship schema
// inference (pass 5) runs before label inference and defers whenever either
// endpoint is still unlabelled, so a relationship whose endpoint was just
// filled in here needs this pickup; it mirrors resolveRelSchema's candidate
// matching but stays silent on failure, the same way best-effort inference
// does, since query validation (pass 7) is responsible for failing loudly.
func attachRelSchema(rel *lplan.GraphRel, pctx *planctx.PlanCtx) {
	if len(rel.Types) != 1 {
		return
	}
	tc, ok := pctx.LookupTable(rel.Alias)
	if !ok || tc.RelSchema != nil {
		return
	}
	leftTC, leftOK := pctx.LookupTable(rel.LeftAlias)
	rightTC, rightOK := pctx.LookupTable(rel.RightAlias)
	if !leftOK || !rightOK || leftTC.Schema == nil || rightTC.Schema == nil {
		return
	}

	leftLabel, rightLabel := leftTC.Schema.Label, rightTC.Schema.Label
	candidates := [][2]string{{leftLabel, rightLabel}}
	switch rel.Direction {
	case lplan.DirIn:
		candidates = [][2]string{{rightLabel, leftLabel}}
	case lplan.DirEither:
		candidates = append(candidates, [2]string{rightLabel, leftLabel})
	}
	for _, c := range candidates {
		if rs, ok := pctx.Schema.GetRelSchemaOpt(catalog.NewRelKey(rel.Types[0], c[0], c[1])); ok {
			tc.RelSchema = rs
			return
		}
	}
}
