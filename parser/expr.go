package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/cyphersql/translator/ast"
)

var aggregateNames = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true, "collect": true,
}

// parseExpr is the entry point into the precedence-climbing expression
// grammar, lowest-precedence first: OR, XOR, AND, NOT, comparison, string
// predicates (IN/STARTS WITH/ENDS WITH/CONTAINS/regex/IS [NOT] NULL),
// additive, multiplicative, power, unary, postfix, atom.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() (ast.Expr, error) {
	left, err := p.parseXorExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.eatKeyword("or") {
		right, err := p.parseXorExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.NewBinaryOp(ast.OpOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseXorExpr() (ast.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.eatKeyword("xor") {
		right, err := p.parseAndExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.NewBinaryOp(ast.OpXor, left, right)
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (ast.Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.eatKeyword("and") {
		right, err := p.parseNotExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.NewBinaryOp(ast.OpAnd, left, right)
	}
	return left, nil
}

func (p *Parser) parseNotExpr() (ast.Expr, error) {
	if p.eatKeyword("not") {
		operand, err := p.parseNotExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.NewUnaryOp(ast.OpNot, operand), nil
	}
	return p.parseComparisonExpr()
}

var comparisonOps = map[string]ast.BinaryOp{
	"=": ast.OpEq, "<>": ast.OpNeq, "<": ast.OpLt, "<=": ast.OpLte,
	">": ast.OpGt, ">=": ast.OpGte,
}

func (p *Parser) parseComparisonExpr() (ast.Expr, error) {
	left, err := p.parseStringPredicateExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for {
		matched := false
		for sym, op := range comparisonOps {
			if p.peekPunct(sym) {
				p.next()
				right, err := p.parseStringPredicateExpr()
				if err != nil {
					return ast.Expr{}, err
				}
				left = ast.NewBinaryOp(op, left, right)
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	return left, nil
}

// parseStringPredicateExpr handles the postfix-ish predicates that bind
// tighter than comparison but looser than arithmetic: IN, STARTS WITH,
// ENDS WITH, CONTAINS, the regex match operator, and IS [NOT] NULL.
func (p *Parser) parseStringPredicateExpr() (ast.Expr, error) {
	left, err := p.parseAdditiveExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for {
		switch {
		case p.eatKeyword("in"):
			right, err := p.parseAdditiveExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpIn, left, right)
		case p.peekKeyword("starts"):
			p.next()
			if err := p.expectKeyword("with", "STARTS WITH"); err != nil {
				return ast.Expr{}, err
			}
			right, err := p.parseAdditiveExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpStartsWith, left, right)
		case p.peekKeyword("ends"):
			p.next()
			if err := p.expectKeyword("with", "ENDS WITH"); err != nil {
				return ast.Expr{}, err
			}
			right, err := p.parseAdditiveExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpEndsWith, left, right)
		case p.eatKeyword("contains"):
			right, err := p.parseAdditiveExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpContains, left, right)
		case p.peekPunct("=~"):
			p.next()
			right, err := p.parseAdditiveExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpRegexMatch, left, right)
		case p.peekKeyword("is"):
			p.next()
			negate := p.eatKeyword("not")
			if err := p.expectKeyword("null", "IS [NOT] NULL"); err != nil {
				return ast.Expr{}, err
			}
			if negate {
				left = ast.NewUnaryOp(ast.OpIsNotNull, left)
			} else {
				left = ast.NewUnaryOp(ast.OpIsNull, left)
			}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAdditiveExpr() (ast.Expr, error) {
	left, err := p.parseMultiplicativeExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for {
		switch {
		case p.peekPunct("+"):
			p.next()
			right, err := p.parseMultiplicativeExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpAdd, left, right)
		case p.peekPunct("-"):
			p.next()
			right, err := p.parseMultiplicativeExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpSub, left, right)
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseMultiplicativeExpr() (ast.Expr, error) {
	left, err := p.parsePowerExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for {
		switch {
		case p.peekPunct("*"):
			p.next()
			right, err := p.parsePowerExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpMul, left, right)
		case p.peekPunct("/"):
			p.next()
			right, err := p.parsePowerExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpDiv, left, right)
		case p.peekPunct("%"):
			p.next()
			right, err := p.parsePowerExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			left = ast.NewBinaryOp(ast.OpMod, left, right)
		default:
			return left, nil
		}
	}
}

func (p *Parser) parsePowerExpr() (ast.Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if p.eatPunct("^") {
		right, err := p.parsePowerExpr() // right-associative
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.NewBinaryOp(ast.OpPow, left, right), nil
	}
	return left, nil
}

func (p *Parser) parseUnaryExpr() (ast.Expr, error) {
	if p.eatPunct("-") {
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.NewUnaryOp(ast.OpNeg, operand), nil
	}
	if p.eatPunct("+") {
		return p.parseUnaryExpr()
	}
	return p.parsePostfixExpr()
}

// parsePostfixExpr handles chained property access, subscript/slice, and
// label checks following an atom: a.b.c, a[0], a[1..3], a:Label.
func (p *Parser) parsePostfixExpr() (ast.Expr, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return ast.Expr{}, err
	}
	for {
		switch {
		case p.peekPunct("."):
			p.next()
			prop, err := p.parseIdentifier("property access")
			if err != nil {
				return ast.Expr{}, err
			}
			expr = ast.NewProperty(expr, prop)
		case p.peekPunct("["):
			p.next()
			if p.eatPunct("..") {
				to, err := p.parseExpr()
				if err != nil {
					return ast.Expr{}, err
				}
				if err := p.expectPunct("]", "slice"); err != nil {
					return ast.Expr{}, err
				}
				expr = ast.Expr{Kind: ast.ExprSlice, Slice: &ast.SliceExpr{Base: expr, To: &to}}
				continue
			}
			first, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			if p.eatPunct("..") {
				if p.peekPunct("]") {
					p.next()
					expr = ast.Expr{Kind: ast.ExprSlice, Slice: &ast.SliceExpr{Base: expr, From: &first}}
					continue
				}
				to, err := p.parseExpr()
				if err != nil {
					return ast.Expr{}, err
				}
				if err := p.expectPunct("]", "slice"); err != nil {
					return ast.Expr{}, err
				}
				expr = ast.Expr{Kind: ast.ExprSlice, Slice: &ast.SliceExpr{Base: expr, From: &first, To: &to}}
				continue
			}
			if err := p.expectPunct("]", "subscript"); err != nil {
				return ast.Expr{}, err
			}
			expr = ast.Expr{Kind: ast.ExprSubscript, Subscript: &ast.SubscriptExpr{Base: expr, Index: first}}
		case p.peekPunct(":"):
			// Only consume as a label check when followed by an identifier
			// that isn't itself starting a new clause; property maps and
			// node patterns never reach this code path since they parse
			// their own colons directly.
			save := p.pos
			p.next()
			if p.cur().Type == lexer.EOF {
				p.pos = save
				return expr, nil
			}
			label, err := p.parseIdentifier("label check")
			if err != nil {
				p.pos = save
				return expr, nil
			}
			labels := []string{label}
			for p.eatPunct(":") {
				l, err := p.parseIdentifier("label check")
				if err != nil {
					return ast.Expr{}, err
				}
				labels = append(labels, l)
			}
			variable := ""
			if expr.Kind == ast.ExprVariable {
				variable = expr.Variable
			}
			expr = ast.Expr{Kind: ast.ExprLabelCheck, LabelExpr: &ast.LabelCheckExpr{Variable: variable, Labels: labels}}
		default:
			return expr, nil
		}
	}
}

// parseAtom parses the innermost expression forms: literals, variables,
// parameters, parenthesized expressions, list/map literals, function
// calls, CASE, list/pattern comprehensions, reduce, and EXISTS subqueries.
func (p *Parser) parseAtom() (ast.Expr, error) {
	cur := p.cur()
	if cur.Type == lexer.EOF {
		return ast.Expr{}, p.errorf("expression", "expression")
	}

	if strings.HasPrefix(cur.Value, "$") {
		p.next()
		return ast.NewParameter(strings.TrimPrefix(cur.Value, "$")), nil
	}

	if isIntToken(cur) {
		p.next()
		v, _ := strconv.ParseInt(cur.Value, 10, 64)
		return ast.NewInt(v), nil
	}
	if isFloatToken(cur) {
		p.next()
		v, _ := strconv.ParseFloat(cur.Value, 64)
		return ast.NewFloat(v), nil
	}
	if isStringToken(cur) {
		p.next()
		return ast.NewString(unquoteString(cur.Value)), nil
	}

	switch strings.ToLower(cur.Value) {
	case "null":
		p.next()
		return ast.NewNull(), nil
	case "true":
		p.next()
		return ast.NewBool(true), nil
	case "false":
		p.next()
		return ast.NewBool(false), nil
	case "case":
		return p.parseCaseExpr()
	case "reduce":
		return p.parseReduceExpr()
	case "exists":
		return p.parseExistsExpr()
	}

	switch {
	case p.eatPunct("("):
		// Could be a parenthesized expression or a lambda "(x, y) -> expr".
		if lambda, ok, err := p.tryParseLambda(); err != nil {
			return ast.Expr{}, err
		} else if ok {
			return lambda, nil
		}
		inner, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")", "parenthesized expression"); err != nil {
			return ast.Expr{}, err
		}
		return inner, nil
	case p.peekPunct("["):
		return p.parseListOrComprehension()
	case p.peekPunct("{"):
		return p.parseMapLiteral()
	}

	// Bareword: identifier, possibly a function call, or the start of a
	// pattern comprehension/EXISTS-style bracketed pattern is handled above;
	// here it's a plain variable reference or function call.
	id, err := p.parseIdentifier("expression")
	if err != nil {
		return ast.Expr{}, err
	}
	afterID := p.pos
	name := id
	for p.eatPunct(".") {
		part, err := p.parseIdentifier("function name")
		if err != nil {
			return ast.Expr{}, err
		}
		name = name + "." + part
	}
	if p.eatPunct("(") {
		return p.parseFunctionCallTail(name)
	}
	// Not a (possibly dotted) function call: rewind so parsePostfixExpr
	// turns any `.prop` suffix into property access on the variable.
	p.pos = afterID
	return ast.NewVariable(id), nil
}

func (p *Parser) parseFunctionCallTail(name string) (ast.Expr, error) {
	distinct := p.eatKeyword("distinct")
	var args []ast.Expr
	if !p.peekPunct(")") {
		if p.peekPunct("*") { // count(*)
			p.next()
			args = append(args, ast.NewVariable("*"))
		} else {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return ast.Expr{}, err
				}
				args = append(args, arg)
				if !p.eatPunct(",") {
					break
				}
			}
		}
	}
	if err := p.expectPunct(")", "function call"); err != nil {
		return ast.Expr{}, err
	}
	isAgg := aggregateNames[strings.ToLower(name)]
	return ast.NewFunctionCall(name, args, distinct, isAgg), nil
}

// tryParseLambda speculatively parses "(p1, p2) -> expr" from just after the
// opening '(' already consumed by the caller. On failure to match the
// lambda shape it rewinds and returns ok=false so the caller falls back to
// a parenthesized expression.
func (p *Parser) tryParseLambda() (ast.Expr, bool, error) {
	save := p.pos
	var params []string
	if !p.peekPunct(")") {
		for {
			cur := p.cur()
			if cur.Type == lexer.EOF || keywords[strings.ToLower(cur.Value)] {
				p.pos = save
				return ast.Expr{}, false, nil
			}
			id, err := p.parseIdentifier("lambda parameter")
			if err != nil {
				p.pos = save
				return ast.Expr{}, false, nil
			}
			params = append(params, id)
			if !p.eatPunct(",") {
				break
			}
		}
	}
	if !p.eatPunct(")") || !p.eatPunct("->") {
		p.pos = save
		return ast.Expr{}, false, nil
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.Expr{}, false, err
	}
	return ast.Expr{Kind: ast.ExprLambda, Lambda: &ast.LambdaExpr{Params: params, Body: body}}, true, nil
}

// parseListOrComprehension disambiguates a plain list literal `[1, 2, 3]`
// from a list comprehension `[x IN list WHERE pred | expr]` and a pattern
// comprehension `[(a)-[:R]->(b) WHERE pred | expr]`.
func (p *Parser) parseListOrComprehension() (ast.Expr, error) {
	if err := p.expectPunct("[", "list"); err != nil {
		return ast.Expr{}, err
	}
	if p.peekPunct("(") {
		pattern, err := p.parseParenConnectedPattern()
		if err != nil {
			return ast.Expr{}, err
		}
		pc := &ast.PatternComprehensionExpr{Pattern: *pattern}
		if p.eatKeyword("where") {
			where, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			pc.Where = where
		}
		if err := p.expectPunct("|", "pattern comprehension"); err != nil {
			return ast.Expr{}, err
		}
		project, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		pc.Project = project
		if err := p.expectPunct("]", "pattern comprehension"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprPatternComprehension, PatternComprehension: pc}, nil
	}

	if p.peekPunct("]") {
		p.next()
		return ast.Expr{Kind: ast.ExprListLiteral}, nil
	}

	// Lookahead for "ident IN" to detect a list comprehension vs. a plain
	// list literal whose first element happens to be a bare identifier.
	if p.isListComprehensionLookahead() {
		variable, err := p.parseIdentifier("list comprehension variable")
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectKeyword("in", "list comprehension"); err != nil {
			return ast.Expr{}, err
		}
		list, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		lc := &ast.ListComprehensionExpr{Variable: variable, List: list}
		if p.eatKeyword("where") {
			where, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			lc.Where = where
		}
		if p.eatPunct("|") {
			proj, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			lc.Project = proj
		}
		if err := p.expectPunct("]", "list comprehension"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprListComprehension, ListComprehension: lc}, nil
	}

	var items []ast.Expr
	for {
		item, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		items = append(items, item)
		if !p.eatPunct(",") {
			break
		}
	}
	if err := p.expectPunct("]", "list literal"); err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: ast.ExprListLiteral, ListLiteral: items}, nil
}

func (p *Parser) isListComprehensionLookahead() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	cur := p.toks[p.pos]
	nxt := p.toks[p.pos+1]
	if cur.Type == lexer.EOF || keywords[strings.ToLower(cur.Value)] {
		return false
	}
	return strings.EqualFold(nxt.Value, "in")
}

func (p *Parser) parseMapLiteral() (ast.Expr, error) {
	props, err := p.parsePropertyMap()
	if err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: ast.ExprMapLiteral, MapLiteral: props}, nil
}

func (p *Parser) parseCaseExpr() (ast.Expr, error) {
	if err := p.expectKeyword("case", "CASE"); err != nil {
		return ast.Expr{}, err
	}
	c := &ast.CaseExpr{}
	if !p.peekKeyword("when") {
		operand, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		c.Operand = operand
	}
	for p.eatKeyword("when") {
		when, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectKeyword("then", "CASE WHEN ... THEN"); err != nil {
			return ast.Expr{}, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		c.Branches = append(c.Branches, ast.CaseBranch{When: when, Then: then})
	}
	if p.eatKeyword("else") {
		elseExpr, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		c.Else = elseExpr
	}
	if err := p.expectKeyword("end", "CASE ... END"); err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: ast.ExprCase, Case: c}, nil
}

func (p *Parser) parseReduceExpr() (ast.Expr, error) {
	if err := p.expectKeyword("reduce", "reduce"); err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectPunct("(", "reduce("); err != nil {
		return ast.Expr{}, err
	}
	acc, err := p.parseIdentifier("reduce accumulator")
	if err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectPunct("=", "reduce(acc = init, ...)"); err != nil {
		return ast.Expr{}, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectPunct(",", "reduce(acc = init, x IN list | expr)"); err != nil {
		return ast.Expr{}, err
	}
	variable, err := p.parseIdentifier("reduce loop variable")
	if err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectKeyword("in", "reduce(... x IN list | expr)"); err != nil {
		return ast.Expr{}, err
	}
	list, err := p.parseExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectPunct("|", "reduce(... | expr)"); err != nil {
		return ast.Expr{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectPunct(")", "reduce(...)"); err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: ast.ExprReduce, Reduce: &ast.ReduceExpr{
		Accumulator: acc, Init: init, Variable: variable, List: list, Body: body,
	}}, nil
}

func (p *Parser) parseExistsExpr() (ast.Expr, error) {
	if err := p.expectKeyword("exists", "EXISTS"); err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectPunct("{", "EXISTS { ... }"); err != nil {
		return ast.Expr{}, err
	}
	if err := p.expectKeyword("match", "EXISTS { MATCH ... }"); err != nil {
		return ast.Expr{}, err
	}
	pattern, err := p.parseParenConnectedPattern()
	if err != nil {
		return ast.Expr{}, err
	}
	e := &ast.ExistsSubqueryExpr{Pattern: *pattern}
	if p.eatKeyword("where") {
		where, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		e.Where = where
	}
	if err := p.expectPunct("}", "EXISTS { ... }"); err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: ast.ExprExistsSubquery, ExistsSubquery: e}, nil
}

func isFloatToken(t lexer.Token) bool {
	if t.Value == "" || !strings.Contains(t.Value, ".") {
		return false
	}
	_, err := strconv.ParseFloat(t.Value, 64)
	return err == nil
}

func isStringToken(t lexer.Token) bool {
	if len(t.Value) < 2 {
		return false
	}
	c := t.Value[0]
	return (c == '\'' || c == '"') && t.Value[len(t.Value)-1] == c
}

func unquoteString(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
