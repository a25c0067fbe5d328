package planbuilder

import (
	"github.com/cyphersql/translator/ast"
	"github.com/cyphersql/translator/lexpr"
)

var binaryOpTable = map[ast.BinaryOp]lexpr.BinaryOp{
	ast.OpAdd:        lexpr.OpAdd,
	ast.OpSub:        lexpr.OpSub,
	ast.OpMul:        lexpr.OpMul,
	ast.OpDiv:        lexpr.OpDiv,
	ast.OpMod:        lexpr.OpMod,
	ast.OpPow:        lexpr.OpPow,
	ast.OpEq:         lexpr.OpEq,
	ast.OpNeq:        lexpr.OpNeq,
	ast.OpLt:         lexpr.OpLt,
	ast.OpLte:        lexpr.OpLte,
	ast.OpGt:         lexpr.OpGt,
	ast.OpGte:        lexpr.OpGte,
	ast.OpAnd:        lexpr.OpAnd,
	ast.OpOr:         lexpr.OpOr,
	ast.OpXor:        lexpr.OpXor,
	ast.OpIn:         lexpr.OpIn,
	ast.OpStartsWith: lexpr.OpStartsWith,
	ast.OpEndsWith:   lexpr.OpEndsWith,
	ast.OpContains:   lexpr.OpContains,
	ast.OpRegexMatch: lexpr.OpRegexMatch,
}

var unaryOpTable = map[ast.UnaryOp]lexpr.UnaryOp{
	ast.OpNot:      lexpr.OpNot,
	ast.OpNeg:      lexpr.OpNeg,
	ast.OpIsNull:   lexpr.OpIsNull,
	ast.OpIsNotNull: lexpr.OpIsNotNull,
}

// isAbsentExpr reports whether e is the zero-value Expr the parser leaves
// in place of an omitted optional sub-expression (e.g. a WHERE-less list
// comprehension). A parsed NULL literal is never mistaken for this: it
// always carries a non-nil Literal pointer.
func isAbsentExpr(e ast.Expr) bool {
	return e.Kind == ast.ExprLiteral && e.Literal == nil
}

func lowerOptionalExpr(e ast.Expr) (lexpr.Expr, error) {
	if isAbsentExpr(e) {
		return nil, nil
	}
	return lowerExpr(e)
}

// lowerExpr converts an ast.Expr into an lexpr.Expr. Bare variable and
// property references become lexpr.UnresolvedRef, which the render layer
// resolves against the plan context. ast.OpDistinctMark has no logical-expression shape of its own: it
// is consumed by the projection builder directly off the ProjectionItem's
// enclosing DISTINCT flag, never reaching lowerExpr.
func lowerExpr(e ast.Expr) (lexpr.Expr, error) {
	switch e.Kind {
	case ast.ExprLiteral:
		return lowerLiteral(e.Literal), nil

	case ast.ExprVariable:
		return lexpr.NewUnresolvedRef(e.Variable, ""), nil

	case ast.ExprParameter:
		return lexpr.NewParameter(e.Parameter), nil

	case ast.ExprProperty:
		base, err := lowerExpr(e.Property.Base)
		if err != nil {
			return nil, err
		}
		if ref, ok := base.(*lexpr.UnresolvedRef); ok {
			prop := e.Property.Property
			if ref.Property != "" {
				prop = ref.Property + "." + prop
			}
			return lexpr.NewUnresolvedRef(ref.Alias, prop), nil
		}
		return nil, errUnsupportedExpr("property access requires a variable base")

	case ast.ExprFunctionCall:
		args := make([]lexpr.Expr, len(e.FunctionCall.Args))
		for i, a := range e.FunctionCall.Args {
			la, err := lowerExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = la
		}
		return lexpr.NewFunctionCall(e.FunctionCall.Name, args, e.FunctionCall.Distinct, e.FunctionCall.IsAggregate), nil

	case ast.ExprBinaryOp:
		op, ok := binaryOpTable[e.BinaryOp.Op]
		if !ok {
			return nil, errUnsupportedExpr("unknown binary operator")
		}
		left, err := lowerExpr(e.BinaryOp.Left)
		if err != nil {
			return nil, err
		}
		right, err := lowerExpr(e.BinaryOp.Right)
		if err != nil {
			return nil, err
		}
		return lexpr.NewBinary(op, left, right), nil

	case ast.ExprUnaryOp:
		op, ok := unaryOpTable[e.UnaryOp.Op]
		if !ok {
			return nil, errUnsupportedExpr("unknown unary operator")
		}
		operand, err := lowerExpr(e.UnaryOp.Operand)
		if err != nil {
			return nil, err
		}
		return lexpr.NewUnary(op, operand), nil

	case ast.ExprListLiteral:
		items := make([]lexpr.Expr, len(e.ListLiteral))
		for i, it := range e.ListLiteral {
			li, err := lowerExpr(it)
			if err != nil {
				return nil, err
			}
			items[i] = li
		}
		return lexpr.NewListLiteral(items), nil

	case ast.ExprMapLiteral:
		keys := make([]string, 0, len(e.MapLiteral))
		for k := range e.MapLiteral {
			keys = append(keys, k)
		}
		values := make([]lexpr.Expr, len(keys))
		for i, k := range keys {
			v, err := lowerExpr(e.MapLiteral[k])
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return lexpr.NewMapLiteral(keys, values), nil

	case ast.ExprListComprehension:
		lc := e.ListComprehension
		list, err := lowerExpr(lc.List)
		if err != nil {
			return nil, err
		}
		where, err := lowerOptionalExpr(lc.Where)
		if err != nil {
			return nil, err
		}
		project, err := lowerOptionalExpr(lc.Project)
		if err != nil {
			return nil, err
		}
		return lexpr.NewListComprehension(lc.Variable, list, where, project), nil

	case ast.ExprPatternComprehension:
		pc := e.PatternComprehension
		where, err := lowerOptionalExpr(pc.Where)
		if err != nil {
			return nil, err
		}
		project, err := lowerExpr(pc.Project)
		if err != nil {
			return nil, err
		}
		return lexpr.NewPatternComprehensionRef(&pc.Pattern, where, project), nil

	case ast.ExprCase:
		ce := e.Case
		operand, err := lowerOptionalExpr(ce.Operand)
		if err != nil {
			return nil, err
		}
		branches := make([]lexpr.CaseBranch, len(ce.Branches))
		for i, b := range ce.Branches {
			when, err := lowerExpr(b.When)
			if err != nil {
				return nil, err
			}
			then, err := lowerExpr(b.Then)
			if err != nil {
				return nil, err
			}
			branches[i] = lexpr.CaseBranch{When: when, Then: then}
		}
		elseExpr, err := lowerOptionalExpr(ce.Else)
		if err != nil {
			return nil, err
		}
		return lexpr.NewCase(operand, branches, elseExpr), nil

	case ast.ExprLambda:
		body, err := lowerExpr(e.Lambda.Body)
		if err != nil {
			return nil, err
		}
		return lexpr.NewLambda(e.Lambda.Params, body), nil

	case ast.ExprSubscript:
		base, err := lowerExpr(e.Subscript.Base)
		if err != nil {
			return nil, err
		}
		index, err := lowerExpr(e.Subscript.Index)
		if err != nil {
			return nil, err
		}
		return lexpr.NewSubscript(base, index), nil

	case ast.ExprSlice:
		se := e.Slice
		base, err := lowerExpr(se.Base)
		if err != nil {
			return nil, err
		}
		var from, to lexpr.Expr
		if se.From != nil {
			from, err = lowerExpr(*se.From)
			if err != nil {
				return nil, err
			}
		}
		if se.To != nil {
			to, err = lowerExpr(*se.To)
			if err != nil {
				return nil, err
			}
		}
		return lexpr.NewSlice(base, from, to), nil

	case ast.ExprReduce:
		re := e.Reduce
		init, err := lowerExpr(re.Init)
		if err != nil {
			return nil, err
		}
		list, err := lowerExpr(re.List)
		if err != nil {
			return nil, err
		}
		body, err := lowerExpr(re.Body)
		if err != nil {
			return nil, err
		}
		return lexpr.NewReduce(re.Accumulator, init, re.Variable, list, body), nil

	case ast.ExprExistsSubquery:
		es := e.ExistsSubquery
		where, err := lowerOptionalExpr(es.Where)
		if err != nil {
			return nil, err
		}
		return lexpr.NewExistsSubqueryRef(&es.Pattern, where), nil

	case ast.ExprLabelCheck:
		return lexpr.NewLabelCheck(e.LabelExpr.Variable, e.LabelExpr.Labels), nil

	case ast.ExprPathVariable:
		return lexpr.NewPathVariableRef(e.PathVariable), nil

	default:
		return nil, errUnsupportedExpr("unrecognized expression kind")
	}
}

func lowerLiteral(l *ast.LiteralExpr) *lexpr.Literal {
	switch l.Kind {
	case ast.LitNull:
		return lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitNull})
	case ast.LitBool:
		return lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitBool, Bool: l.Bool})
	case ast.LitInt:
		return lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitInt, Int: l.Int})
	case ast.LitFloat:
		return lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitFloat, Float: l.Float})
	default:
		return lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitString, Str: l.Str})
	}
}
