// Package planbuilder lowers a parsed ast.Query into an initial lplan.Node
// tree plus the planctx.PlanCtx tracking every alias it registered. It
// performs no schema-aware resolution: labels may still be absent, rel
// endpoints may still lack inferred types, and every property reference is
// an lexpr.UnresolvedRef. That work belongs to the analyzer passes that
// run over the tree this package hands them.
package planbuilder

import (
	"fmt"

	"github.com/cyphersql/translator/ast"
	"github.com/cyphersql/translator/catalog"
	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// Builder holds the state that must stay unique across an entire query
// (the synthetic-alias counter), as opposed to planctx.PlanCtx which is
// scoped per WITH boundary.
type Builder struct {
	anonCounter int
}

// New returns a fresh Builder for one query translation.
func New() *Builder { return &Builder{} }

func (b *Builder) nextAnon(prefix string) string {
	b.anonCounter++
	return fmt.Sprintf("_anon_%s_%d", prefix, b.anonCounter)
}

// BuildPattern lowers a single connected pattern against ctx — typically a
// fresh planctx.NewChildScope() — without wrapping it in a Projection or
// WithClause. It is the entry point the pattern-comprehension-rewriting
// analyzer pass uses to build the nested plan for a pattern comprehension
// or EXISTS subquery body, reusing the same left-deep chain construction
// the top-level MATCH clauses go through.
func BuildPattern(cp ast.ConnectedPattern, ctx *planctx.PlanCtx, optional bool) (lplan.Node, []lexpr.Expr, error) {
	b := New()
	return b.buildConnectedPattern(cp, ctx, optional)
}

// Build lowers a full query (including any UNION branches) into a logical
// plan and the root plan context used to build it.
func Build(q *ast.Query, schema *catalog.Schema, tenantID string) (lplan.Node, *planctx.PlanCtx, error) {
	ctx := planctx.NewRoot(schema, tenantID)
	if q.Union != nil {
		branches := make([]lplan.Node, 0, len(q.Union.Branches))
		for _, rq := range q.Union.Branches {
			b := New()
			branchCtx := planctx.NewRoot(schema, tenantID)
			plan, err := b.buildReadingQuery(rq, branchCtx)
			if err != nil {
				return nil, nil, err
			}
			branches = append(branches, plan)
		}
		return lplan.NewUnion(branches, q.Union.All), ctx, nil
	}
	b := New()
	plan, err := b.buildReadingQuery(q.Reading, ctx)
	if err != nil {
		return nil, nil, err
	}
	return plan, ctx, nil
}

func (b *Builder) buildReadingQuery(rq ast.ReadingQuery, ctx *planctx.PlanCtx) (lplan.Node, error) {
	var plan lplan.Node
	cur := ctx
	for _, clause := range rq.Clauses {
		switch clause.Kind {
		case ast.ClauseMatch:
			sub, err := b.buildMatchClause(*clause.Match, cur)
			if err != nil {
				return nil, err
			}
			plan = combinePlans(plan, sub, clause.Match.Optional)

		case ast.ClauseUnwind:
			listExpr, err := lowerExpr(clause.Unwind.List)
			if err != nil {
				return nil, err
			}
			if err := cur.DefineVariable(&planctx.Variable{Alias: clause.Unwind.As, Kind: planctx.KindList, Source: planctx.SourceUnwind}); err != nil {
				return nil, err
			}
			plan = lplan.NewUnwind(listExpr, clause.Unwind.As, plan)

		case ast.ClauseCall:
			for _, y := range clause.Call.Yield {
				if err := cur.DefineVariable(&planctx.Variable{Alias: y, Kind: planctx.KindScalar, Source: planctx.SourceCTE}); err != nil {
					return nil, err
				}
			}

		case ast.ClauseWith:
			newPlan, newCtx, err := b.buildWithClause(*clause.With, plan, cur)
			if err != nil {
				return nil, err
			}
			plan, cur = newPlan, newCtx
		}
	}
	if rq.Return != nil {
		var err error
		plan, err = b.buildReturn(*rq.Return, plan, cur)
		if err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func combinePlans(existing, next lplan.Node, optional bool) lplan.Node {
	if existing == nil {
		return next
	}
	return lplan.NewCartesianProduct(existing, next, optional, nil)
}

func (b *Builder) buildMatchClause(m ast.MatchClause, ctx *planctx.PlanCtx) (lplan.Node, error) {
	var plan lplan.Node
	var preds []lexpr.Expr
	for _, pp := range m.Patterns {
		sub, extra, err := b.buildPathPattern(pp, ctx, m.Optional)
		if err != nil {
			return nil, err
		}
		plan = combinePlans(plan, sub, false)
		preds = append(preds, extra...)
	}
	if !isAbsentExpr(m.Where) {
		whereExpr, err := lowerExpr(m.Where)
		if err != nil {
			return nil, err
		}
		preds = append(preds, whereExpr)
	}
	if len(preds) > 0 {
		plan = lplan.NewFilter(andAll(preds), plan)
	}
	return plan, nil
}

func andAll(preds []lexpr.Expr) lexpr.Expr {
	result := preds[0]
	for _, p := range preds[1:] {
		result = lexpr.NewBinary(lexpr.OpAnd, result, p)
	}
	return result
}

func (b *Builder) buildPathPattern(pp ast.PathPattern, ctx *planctx.PlanCtx, optional bool) (lplan.Node, []lexpr.Expr, error) {
	var plan lplan.Node
	var preds []lexpr.Expr
	var err error

	switch pp.Kind {
	case ast.PathKindNode:
		var gn *lplan.GraphNode
		gn, preds, err = b.buildNodePattern(*pp.Node, ctx, optional)
		plan = gn
	case ast.PathKindConnected:
		plan, preds, err = b.buildConnectedPattern(*pp.Connected, ctx, optional)
	case ast.PathKindShortestPath:
		plan, preds, err = b.buildConnectedPattern(*pp.ShortestPath, ctx, optional)
		markShortestPath(plan, false)
	case ast.PathKindAllShortestPaths:
		plan, preds, err = b.buildConnectedPattern(*pp.AllShortestPaths, ctx, optional)
		markShortestPath(plan, true)
	}
	if err != nil {
		return nil, nil, err
	}

	if pp.PathVariable != "" {
		if err := ctx.DefineVariable(&planctx.Variable{Alias: pp.PathVariable, Kind: planctx.KindPath, Source: planctx.SourceMatch}); err != nil {
			return nil, nil, errPathVariableConflict(pp.PathVariable)
		}
	}
	return plan, preds, nil
}

func markShortestPath(n lplan.Node, all bool) {
	lplan.Walk(n, func(x lplan.Node) bool {
		if gr, ok := x.(*lplan.GraphRel); ok {
			gr.ShortestPath = true
			gr.AllShortest = all
		}
		return true
	})
}

func (b *Builder) buildNodePattern(np ast.NodePattern, ctx *planctx.PlanCtx, optional bool) (*lplan.GraphNode, []lexpr.Expr, error) {
	alias := np.Variable
	if alias == "" {
		alias = b.nextAnon("n")
	}
	label := ""
	if len(np.Labels) == 1 {
		label = np.Labels[0]
	}
	if _, exists := ctx.LookupTable(alias); !exists {
		if err := ctx.DefineTable(alias, &planctx.TableCtx{
			Labels:         np.Labels,
			LabelsInferred: len(np.Labels) == 0,
			OptionalMatch:  optional,
		}); err != nil {
			return nil, nil, err
		}
		if optional {
			ctx.MarkOptional(alias)
		}
	}

	var preds []lexpr.Expr
	for key, val := range np.Properties {
		lv, err := lowerExpr(val)
		if err != nil {
			return nil, nil, err
		}
		preds = append(preds, lexpr.NewBinary(lexpr.OpEq, lexpr.NewUnresolvedRef(alias, key), lv))
	}
	return lplan.NewGraphNode(alias, label, nil), preds, nil
}

func (b *Builder) buildConnectedPattern(cp ast.ConnectedPattern, ctx *planctx.PlanCtx, optional bool) (lplan.Node, []lexpr.Expr, error) {
	if len(cp.Nodes) == 0 {
		return nil, nil, errEmptyPattern()
	}
	firstNode, preds, err := b.buildNodePattern(cp.Nodes[0], ctx, optional)
	if err != nil {
		return nil, nil, err
	}

	var plan lplan.Node = firstNode
	leftAlias := firstNode.Alias

	for i, rel := range cp.Rels {
		rightNode, rpreds, err := b.buildNodePattern(cp.Nodes[i+1], ctx, optional)
		if err != nil {
			return nil, nil, err
		}
		preds = append(preds, rpreds...)

		relAlias := rel.Variable
		if relAlias == "" {
			relAlias = b.nextAnon("r")
		}
		if err := ctx.DefineVariable(&planctx.Variable{Alias: relAlias, Kind: planctx.KindRelationship, Source: planctx.SourceMatch}); err != nil {
			return nil, nil, err
		}
		if _, exists := ctx.LookupTable(relAlias); !exists {
			if err := ctx.DefineTable(relAlias, &planctx.TableCtx{OptionalMatch: optional}); err != nil {
				return nil, nil, err
			}
		}
		if optional {
			ctx.MarkOptional(relAlias)
		}

		var varLen *lplan.VarLenSpec
		if rel.VarLength != nil {
			varLen = &lplan.VarLenSpec{Min: rel.VarLength.Min, Max: rel.VarLength.Max}
		}

		var whereExpr lexpr.Expr
		if !isAbsentExpr(rel.Where) {
			whereExpr, err = lowerExpr(rel.Where)
			if err != nil {
				return nil, nil, err
			}
		}
		for key, val := range rel.Properties {
			lv, err := lowerExpr(val)
			if err != nil {
				return nil, nil, err
			}
			preds = append(preds, lexpr.NewBinary(lexpr.OpEq, lexpr.NewUnresolvedRef(relAlias, key), lv))
		}

		plan = &lplan.GraphRel{
			Alias:         relAlias,
			Types:         rel.Types,
			Direction:     lplan.Direction(rel.Direction),
			VarLength:     varLen,
			Where:         whereExpr,
			Optional:      optional,
			LeftSubplan:   plan,
			RightSubplan:  rightNode,
			LeftAlias:     leftAlias,
			RightAlias:    rightNode.Alias,
		}
		leftAlias = rightNode.Alias
	}
	return plan, preds, nil
}

func (b *Builder) buildWithClause(w ast.WithClause, input lplan.Node, ctx *planctx.PlanCtx) (lplan.Node, *planctx.PlanCtx, error) {
	items := make([]lplan.ProjectionItem, len(w.Items))
	exported := make([]string, len(w.Items))
	for i, it := range w.Items {
		le, err := lowerExpr(it.Expr)
		if err != nil {
			return nil, nil, err
		}
		alias := it.Alias
		if alias == "" {
			if ref, ok := le.(*lexpr.UnresolvedRef); ok {
				alias = ref.Alias
			}
		}
		items[i] = lplan.ProjectionItem{Expr: le, Alias: alias}
		exported[i] = alias
	}

	var whereExpr lexpr.Expr
	var err error
	if !isAbsentExpr(w.Where) {
		whereExpr, err = lowerExpr(w.Where)
		if err != nil {
			return nil, nil, err
		}
	}

	var skipExpr, limitExpr lexpr.Expr
	if !isAbsentExpr(w.Skip) {
		if skipExpr, err = lowerExpr(w.Skip); err != nil {
			return nil, nil, err
		}
	}
	if !isAbsentExpr(w.Limit) {
		if limitExpr, err = lowerExpr(w.Limit); err != nil {
			return nil, nil, err
		}
	}

	orderBy, err := lowerOrderItems(w.OrderBy)
	if err != nil {
		return nil, nil, err
	}

	wc := &lplan.WithClause{
		Items:           items,
		Distinct:        w.Distinct,
		ExportedAliases: exported,
		Where:           whereExpr,
		OrderBy:         orderBy,
		Skip:            skipExpr,
		Limit:           limitExpr,
		Input:           input,
	}

	newCtx := ctx.NewWithScope()
	for i, it := range items {
		alias := exported[i]
		if alias == "" {
			continue
		}
		if ref, ok := it.Expr.(*lexpr.UnresolvedRef); ok && ref.Property == "" {
			if orig, ok2 := ctx.LookupTable(ref.Alias); ok2 {
				_ = newCtx.DefineTable(alias, &planctx.TableCtx{
					Labels:        orig.Labels,
					Schema:        orig.Schema,
					RelSchema:     orig.RelSchema,
					OptionalMatch: orig.OptionalMatch,
				})
				continue
			}
		}
		_ = newCtx.DefineVariable(&planctx.Variable{Alias: alias, Kind: planctx.KindScalar, Source: planctx.SourceCTE})
	}
	return wc, newCtx, nil
}

func (b *Builder) buildReturn(ret ast.ReturnClause, input lplan.Node, ctx *planctx.PlanCtx) (lplan.Node, error) {
	items := make([]lplan.ProjectionItem, len(ret.Items))
	for i, it := range ret.Items {
		le, err := lowerExpr(it.Expr)
		if err != nil {
			return nil, err
		}
		alias := it.Alias
		if alias == "" {
			if ref, ok := le.(*lexpr.UnresolvedRef); ok {
				alias = ref.Alias
			}
		}
		items[i] = lplan.ProjectionItem{Expr: le, Alias: alias}
	}

	var plan lplan.Node = lplan.NewProjection(items, ret.Distinct, input)

	if len(ret.OrderBy) > 0 {
		orderBy, err := lowerOrderItems(ret.OrderBy)
		if err != nil {
			return nil, err
		}
		plan = lplan.NewOrderBy(orderBy, plan)
	}
	if !isAbsentExpr(ret.Skip) {
		skipExpr, err := lowerExpr(ret.Skip)
		if err != nil {
			return nil, err
		}
		plan = lplan.NewSkip(skipExpr, plan)
	}
	if !isAbsentExpr(ret.Limit) {
		limitExpr, err := lowerExpr(ret.Limit)
		if err != nil {
			return nil, err
		}
		plan = lplan.NewLimit(limitExpr, plan)
	}
	return plan, nil
}

func lowerOrderItems(items []ast.OrderItem) ([]lplan.OrderItem, error) {
	out := make([]lplan.OrderItem, len(items))
	for i, it := range items {
		le, err := lowerExpr(it.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = lplan.OrderItem{Expr: le, Descending: it.Descending}
	}
	return out, nil
}

// ContainsAggregate reports whether e contains a FunctionCall marked as an
// aggregate, used by the group-by-building analyzer pass to decide whether
// a projection needs a GroupBy wrapper.
func ContainsAggregate(e lexpr.Expr) bool {
	return len(lexpr.FindAll(e, func(x lexpr.Expr) bool {
		fc, ok := x.(*lexpr.FunctionCall)
		return ok && fc.IsAggregate
	})) > 0
}
