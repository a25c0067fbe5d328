package analyzer

import (
	"context"

	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// schemaInferencePass attaches a catalog.NodeSchema/RelationshipSchema to
// every GraphNode/GraphRel whose label, or relationship type plus both
// endpoint labels, already resolves. An alias with no declared label at all
// is always deferred silently, in both modes, since label inference (pass
// 6) runs after this pass and is the one responsible for failing on an
// alias that remains unlabelled. With required set, a label or label pair
// that IS already known but doesn't resolve against the schema is a hard
// error instead of being silently left for a later pass.
func schemaInferencePass(required bool) func(ctx context.Context, plan lplan.Node, pctx *planctx.PlanCtx, opts *Options) (lplan.Node, error) {
	return func(_ context.Context, plan lplan.Node, pctx *planctx.PlanCtx, opts *Options) (lplan.Node, error) {
		var walkErr error
		lplan.Walk(plan, func(n lplan.Node) bool {
			if walkErr != nil {
				return false
			}
			switch node := n.(type) {
			case *lplan.GraphNode:
				walkErr = resolveNodeSchema(node, pctx, required)
			case *lplan.GraphRel:
				walkErr = resolveRelSchema(node, pctx, required)
			}
			return walkErr == nil
		})
		return plan, walkErr
	}
}

func resolveNodeSchema(node *lplan.GraphNode, pctx *planctx.PlanCtx, required bool) error {
	tc, ok := pctx.LookupTable(node.Alias)
	if !ok || tc.Schema != nil {
		return nil
	}
	if node.Label == "" {
		// No declared label yet: this alias is still waiting on label
		// inference (pass 6), which is the pass responsible for failing on a
		// node that remains unlabelled. Required mode only tightens the
		// declared-but-unknown-label case below, not this one.
		return nil
	}
	if pctx.Schema == nil {
		return nil
	}
	schema, err := pctx.Schema.GetNodeSchema(node.Label)
	if err != nil {
		if required {
			return err
		}
		return nil
	}
	tc.Schema = schema
	return nil
}

func resolveRelSchema(rel *lplan.GraphRel, pctx *planctx.PlanCtx, required bool) error {
	tc, ok := pctx.LookupTable(rel.Alias)
	if !ok || tc.RelSchema != nil {
		return nil
	}
	if len(rel.Types) != 1 || pctx.Schema == nil {
		// Multi-type or untyped relationships are resolved concretely by
		// graph-traversal planning instead, one variant at a time.
		return nil
	}
	leftTC, leftOK := pctx.LookupTable(rel.LeftAlias)
	rightTC, rightOK := pctx.LookupTable(rel.RightAlias)
	if !leftOK || !rightOK || leftTC.Schema == nil || rightTC.Schema == nil {
		// One or both endpoints have no resolved label yet; label inference
		// (pass 6) runs after this pass and may still supply it, so this
		// stays a silent defer even in required mode.
		return nil
	}

	leftLabel, rightLabel := leftTC.Schema.Label, rightTC.Schema.Label
	candidates := [][2]string{{leftLabel, rightLabel}}
	switch rel.Direction {
	case lplan.DirIn:
		candidates = [][2]string{{rightLabel, leftLabel}}
	case lplan.DirEither:
		candidates = append(candidates, [2]string{rightLabel, leftLabel})
	}

	var relSchema *catalog.RelationshipSchema
	for _, c := range candidates {
		if rs, ok := pctx.Schema.GetRelSchemaOpt(catalog.NewRelKey(rel.Types[0], c[0], c[1])); ok {
			relSchema = rs
			break
		}
	}
	if relSchema == nil {
		if required {
			return errSchemaRequired("relationship", rel.Alias)
		}
		return nil
	}
	tc.RelSchema = relSchema
	return nil
}
