// Package analyzer runs the fixed, three-phase pass pipeline over a
// logical plan produced by planbuilder: schema inference, filter/
// projection tagging, group-by building, label inference, query
// validation, graph-traversal planning, scan pushdown, duplicate-scan
// removal, graph-join inference, plan sanitization, and
// pattern-comprehension rewriting. Passes run in a fixed order; each
// consumes and returns a plan and may mutate the plan context it is
// given.
package analyzer

import (
	"context"

	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/internal/obslog"
	"github.com/cyphersql/translator/internal/obstrace"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
	"github.com/sirupsen/logrus"
)

// Pass is one analyzer rule: it receives the plan and context, and
// returns a (possibly rewritten) plan.
type Pass struct {
	Name string
	Run  func(ctx context.Context, plan lplan.Node, pctx *planctx.PlanCtx, opts *Options) (lplan.Node, error)
}

// Options configures the pipeline run; MaxVLPTypeCombinations bounds the
// concrete-type enumeration in graph-traversal planning (pass 8).
type Options struct {
	MaxVLPTypeCombinations int
	Log                    *logrus.Entry
}

// DefaultOptions returns the bound-clamped defaults: 38 concrete
// type combinations for an unannotated multi-type VLP, clamped to
// [1, 1000].
func DefaultOptions() *Options {
	return &Options{
		MaxVLPTypeCombinations: 38,
		Log:                    obslog.New(nil, "analyzer"),
	}
}

func (o *Options) logger() *logrus.Entry {
	if o.Log != nil {
		return o.Log
	}
	return obslog.Discard()
}

// initialPhase tags predicates/projections and adds GroupBy before any
// schema requirement is enforced, so later passes see a stable shape.
var initialPhase = []Pass{
	{Name: "schema_inference_best_effort", Run: schemaInferencePass(false)},
	{Name: "filter_tagging", Run: filterTaggingPass},
	{Name: "projection_tagging", Run: projectionTaggingPass},
	{Name: "group_by_building", Run: groupByBuildingPass},
}

// intermediatePhase enforces schema completeness and decides the physical
// shape of every graph pattern.
var intermediatePhase = []Pass{
	{Name: "schema_inference_required", Run: schemaInferencePass(true)},
	{Name: "label_inference", Run: labelInferencePass},
	{Name: "query_validation", Run: queryValidationPass},
	{Name: "graph_traversal_planning", Run: graphTraversalPlanningPass},
	{Name: "push_inferred_table_names", Run: pushInferredTableNamesPass},
	{Name: "duplicate_scan_removal", Run: duplicateScanRemovalPass},
	{Name: "graph_join_inference", Run: graphJoinInferencePass},
}

// finalPhase cleans up the plan shape and rewrites the expressions that
// need every earlier pass to have already run.
var finalPhase = []Pass{
	{Name: "plan_sanitization", Run: planSanitizationPass},
	{Name: "pattern_comprehension_rewriting", Run: patternComprehensionRewritingPass},
}

// Run executes all thirteen passes in their fixed order against plan,
// threading pctx through every one, and returns the final analyzed plan.
func Run(ctx context.Context, plan lplan.Node, pctx *planctx.PlanCtx, schema *catalog.Schema, opts *Options) (lplan.Node, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	pctx.Schema = schema

	for _, phase := range [][]Pass{initialPhase, intermediatePhase, finalPhase} {
		for _, pass := range phase {
			spanCtx, finish := obstrace.StartPassSpan(ctx, pass.Name)
			next, err := pass.Run(spanCtx, plan, pctx, opts)
			finish()
			if err != nil {
				opts.logger().WithFields(obslog.PassFields(pass.Name, nil)).WithError(err).Debug("analyzer pass failed")
				return nil, err
			}
			plan = next
		}
	}
	return plan, nil
}
