package analyzer

import (
	"context"

	"github.com/cyphersql/translator/ast"
	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planbuilder"
	"github.com/cyphersql/translator/planctx"
)

// patternComprehensionRewritingPass resolves every PatternComprehensionRef
// and ExistsSubqueryRef still left in the plan's expressions. Each one
// carries a nested pattern that never went through the outer query's own
// planbuilder/analyzer run, precisely because its aliases belong to their
// own correlated scope; this pass builds that nested plan now, against a
// child scope of the enclosing context, and runs it through the exact same
// pipeline recursively. It runs last so every earlier pass has already
// reached a fixed point on the outer query and the nested resolution
// cannot disturb it.
func patternComprehensionRewritingPass(ctx context.Context, plan lplan.Node, pctx *planctx.PlanCtx, opts *Options) (lplan.Node, error) {
	rewriteExpr := func(e lexpr.Expr) (lexpr.Expr, error) {
		if e == nil {
			return nil, nil
		}
		return lexpr.TransformUp(e, func(x lexpr.Expr) (lexpr.Expr, error) {
			switch ref := x.(type) {
			case *lexpr.PatternComprehensionRef:
				return rewritePatternComprehension(ctx, ref, pctx, opts)
			case *lexpr.ExistsSubqueryRef:
				return rewriteExistsSubquery(ctx, ref, pctx, opts)
			default:
				return x, nil
			}
		})
	}

	rewriteItems := func(items []lplan.ProjectionItem) ([]lplan.ProjectionItem, error) {
		out := make([]lplan.ProjectionItem, len(items))
		for i, it := range items {
			ne, err := rewriteExpr(it.Expr)
			if err != nil {
				return nil, err
			}
			out[i] = lplan.ProjectionItem{Expr: ne, Alias: it.Alias}
		}
		return out, nil
	}

	result, err := lplan.TransformUp(plan, func(n lplan.Node) (lplan.Node, error) {
		switch node := n.(type) {
		case *lplan.Filter:
			ne, err := rewriteExpr(node.Predicate)
			if err != nil {
				return nil, err
			}
			return &lplan.Filter{Predicate: ne, Input: node.Input}, nil
		case *lplan.Projection:
			items, err := rewriteItems(node.Items)
			if err != nil {
				return nil, err
			}
			return &lplan.Projection{Items: items, Distinct: node.Distinct, Input: node.Input}, nil
		case *lplan.WithClause:
			items, err := rewriteItems(node.Items)
			if err != nil {
				return nil, err
			}
			nw := *node
			nw.Items = items
			if node.Where != nil {
				ne, err := rewriteExpr(node.Where)
				if err != nil {
					return nil, err
				}
				nw.Where = ne
			}
			return &nw, nil
		case *lplan.GraphRel:
			if node.Where == nil {
				return node, nil
			}
			ne, err := rewriteExpr(node.Where)
			if err != nil {
				return nil, err
			}
			nr := *node
			nr.Where = ne
			return &nr, nil
		default:
			return n, nil
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func rewritePatternComprehension(ctx context.Context, ref *lexpr.PatternComprehensionRef, pctx *planctx.PlanCtx, opts *Options) (lexpr.Expr, error) {
	cp, ok := ref.Pattern.(*ast.ConnectedPattern)
	if !ok || cp == nil {
		return nil, errInvalidPattern("pattern comprehension")
	}
	childCtx := pctx.NewChildScope()
	nested, _, err := planbuilder.BuildPattern(*cp, childCtx, false)
	if err != nil {
		return nil, err
	}
	if ref.Where != nil {
		nested = lplan.NewFilter(ref.Where, nested)
	}
	analyzed, err := Run(ctx, nested, childCtx, pctx.Schema, opts)
	if err != nil {
		return nil, err
	}
	return lexpr.NewCorrelatedSubquery(analyzed, childCtx, ref.Project, false), nil
}

func rewriteExistsSubquery(ctx context.Context, ref *lexpr.ExistsSubqueryRef, pctx *planctx.PlanCtx, opts *Options) (lexpr.Expr, error) {
	cp, ok := ref.Pattern.(*ast.ConnectedPattern)
	if !ok || cp == nil {
		return nil, errInvalidPattern("EXISTS subquery")
	}
	childCtx := pctx.NewChildScope()
	nested, _, err := planbuilder.BuildPattern(*cp, childCtx, false)
	if err != nil {
		return nil, err
	}
	if ref.Where != nil {
		nested = lplan.NewFilter(ref.Where, nested)
	}
	analyzed, err := Run(ctx, nested, childCtx, pctx.Schema, opts)
	if err != nil {
		return nil, err
	}
	return lexpr.NewCorrelatedSubquery(analyzed, childCtx, nil, true), nil
}
