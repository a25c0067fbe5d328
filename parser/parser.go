// Package parser implements the parser from Cypher text to ast.Query.
// Tokenization is built on github.com/alecthomas/participle/v2's lexer (see
// lexer.go); the expression/clause grammar itself is a hand-written
// recursive-descent parser with Pratt-style precedence climbing.
package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/cyphersql/translator/ast"
)

var keywords = map[string]bool{
	"match": true, "optional": true, "where": true, "with": true, "return": true,
	"distinct": true, "order": true, "by": true, "skip": true, "limit": true,
	"asc": true, "desc": true, "ascending": true, "descending": true,
	"union": true, "all": true, "as": true, "unwind": true, "call": true, "yield": true,
	"use": true, "and": true, "or": true, "xor": true, "not": true, "in": true,
	"is": true, "null": true, "true": true, "false": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "exists": true, "reduce": true,
	"shortestpath": true, "allshortestpaths": true, "starts": true, "ends": true,
	"contains": true,
}

func isKeyword(text string, kw string) bool {
	return strings.EqualFold(text, kw)
}

// Parser holds the token stream and current position.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// ParseQuery is the top-level entry point.
func ParseQuery(text string) (*ast.Query, error) {
	stripped := StripComments(text)
	toks, err := tokenize(stripped)
	if err != nil {
		return nil, &ParseError{Context: "tokenizing", Got: err.Error()}
	}
	p := &Parser{toks: toks}
	q, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	p.skipSemicolon()
	if !p.atEOF() {
		return nil, p.errorf("end of query", "trailing input")
	}
	return q, nil
}

// ParseCypherStatement parses one statement and returns any trailing text
// left unconsumed, for callers that need to process multiple
// semicolon-separated statements from one input.
func ParseCypherStatement(text string) (string, *ast.Query, error) {
	stripped := StripComments(text)
	toks, err := tokenize(stripped)
	if err != nil {
		return "", nil, &ParseError{Context: "tokenizing", Got: err.Error()}
	}
	p := &Parser{toks: toks}
	q, err := p.parseStatement()
	if err != nil {
		return "", nil, err
	}
	p.skipSemicolon()
	remaining := p.remainingText()
	return remaining, q, nil
}

func (p *Parser) remainingText() string {
	var b strings.Builder
	for _, t := range p.toks[p.pos:] {
		if t.Type == lexer.EOF {
			continue
		}
		b.WriteString(t.Value)
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

func (p *Parser) skipSemicolon() {
	if p.peekIs(lexer.Token{Value: ";"}) {
		p.next()
	}
}

// ---------------------------------------------------------------------
// Token stream helpers
// ---------------------------------------------------------------------

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) atEOF() bool {
	return p.cur().Type == lexer.EOF
}

func (p *Parser) next() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// peekIs reports whether the current token's Value matches want.Value,
// case-insensitively for alphabetic tokens (keywords), exactly otherwise.
func (p *Parser) peekIs(want lexer.Token) bool {
	cur := p.cur()
	if cur.Type == lexer.EOF {
		return false
	}
	return strings.EqualFold(cur.Value, want.Value)
}

func (p *Parser) peekKeyword(kw string) bool {
	cur := p.cur()
	return cur.Type != lexer.EOF && isIdentLike(cur) && strings.EqualFold(cur.Value, kw)
}

func isIdentLike(t lexer.Token) bool {
	return true // our lexer only ever produces Ident tokens for bareword text
}

func (p *Parser) peekPunct(sym string) bool {
	cur := p.cur()
	return cur.Type != lexer.EOF && cur.Value == sym
}

func (p *Parser) eatKeyword(kw string) bool {
	if p.peekKeyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) eatPunct(sym string) bool {
	if p.peekPunct(sym) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw, ctx string) error {
	if !p.eatKeyword(kw) {
		return p.errorf(ctx, kw)
	}
	return nil
}

func (p *Parser) expectPunct(sym, ctx string) error {
	if !p.eatPunct(sym) {
		return p.errorf(ctx, sym)
	}
	return nil
}

func (p *Parser) errorf(ctx string, expected ...string) *ParseError {
	cur := p.cur()
	got := cur.Value
	if cur.Type == lexer.EOF {
		got = "<eof>"
	}
	return &ParseError{
		Line:     cur.Pos.Line,
		Column:   cur.Pos.Column,
		Context:  ctx,
		Expected: expected,
		Got:      got,
	}
}

// ---------------------------------------------------------------------
// Statement / query structure
// ---------------------------------------------------------------------

func (p *Parser) parseStatement() (*ast.Query, error) {
	q := &ast.Query{}

	if p.eatKeyword("use") {
		id, err := p.parseIdentifier("USE clause")
		if err != nil {
			return nil, err
		}
		q.Use = id
	}

	rq, err := p.parseReadingQuery()
	if err != nil {
		return nil, err
	}
	q.Reading = rq

	if p.peekKeyword("union") {
		union := &ast.UnionQuery{Branches: []ast.ReadingQuery{rq}}
		for p.eatKeyword("union") {
			union.All = p.eatKeyword("all")
			branch, err := p.parseReadingQuery()
			if err != nil {
				return nil, err
			}
			union.Branches = append(union.Branches, branch)
		}
		q.Union = union
	}

	return q, nil
}

func (p *Parser) parseReadingQuery() (ast.ReadingQuery, error) {
	var rq ast.ReadingQuery

	for {
		switch {
		case p.peekKeyword("match") || p.peekKeyword("optional"):
			m, err := p.parseMatchClause()
			if err != nil {
				return rq, err
			}
			rq.Matches = append(rq.Matches, m)
			rq.Clauses = append(rq.Clauses, ast.ReadingClause{Kind: ast.ClauseMatch, Match: &rq.Matches[len(rq.Matches)-1]})
		case p.peekKeyword("unwind"):
			u, err := p.parseUnwindClause()
			if err != nil {
				return rq, err
			}
			rq.Unwinds = append(rq.Unwinds, u)
			rq.Clauses = append(rq.Clauses, ast.ReadingClause{Kind: ast.ClauseUnwind, Unwind: &rq.Unwinds[len(rq.Unwinds)-1]})
		case p.peekKeyword("call"):
			c, err := p.parseCallClause()
			if err != nil {
				return rq, err
			}
			rq.Calls = append(rq.Calls, c)
			rq.Clauses = append(rq.Clauses, ast.ReadingClause{Kind: ast.ClauseCall, Call: &rq.Calls[len(rq.Calls)-1]})
		case p.peekKeyword("with"):
			w, err := p.parseWithClause()
			if err != nil {
				return rq, err
			}
			rq.Withs = append(rq.Withs, w)
			rq.Clauses = append(rq.Clauses, ast.ReadingClause{Kind: ast.ClauseWith, With: &rq.Withs[len(rq.Withs)-1]})
		case p.peekKeyword("return"):
			r, err := p.parseReturnClause()
			if err != nil {
				return rq, err
			}
			rq.Return = r
			return rq, nil
		default:
			return rq, p.errorf("reading query clause", "MATCH", "OPTIONAL MATCH", "WITH", "UNWIND", "CALL", "RETURN")
		}
	}
}

func (p *Parser) parseMatchClause() (ast.MatchClause, error) {
	var m ast.MatchClause
	if p.eatKeyword("optional") {
		m.Optional = true
		if err := p.expectKeyword("match", "OPTIONAL MATCH"); err != nil {
			return m, err
		}
	} else if err := p.expectKeyword("match", "MATCH"); err != nil {
		return m, err
	}

	for {
		pattern, err := p.parsePathPattern()
		if err != nil {
			return m, err
		}
		m.Patterns = append(m.Patterns, pattern)
		if !p.eatPunct(",") {
			break
		}
	}

	if p.eatKeyword("where") {
		expr, err := p.parseExpr()
		if err != nil {
			return m, err
		}
		m.Where = expr
	}
	return m, nil
}

func (p *Parser) parseUnwindClause() (ast.UnwindClause, error) {
	var u ast.UnwindClause
	if err := p.expectKeyword("unwind", "UNWIND"); err != nil {
		return u, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return u, err
	}
	u.List = expr
	if err := p.expectKeyword("as", "UNWIND ... AS"); err != nil {
		return u, err
	}
	id, err := p.parseIdentifier("UNWIND alias")
	if err != nil {
		return u, err
	}
	u.As = id
	return u, nil
}

func (p *Parser) parseCallClause() (ast.CallClause, error) {
	var c ast.CallClause
	if err := p.expectKeyword("call", "CALL"); err != nil {
		return c, err
	}
	name, err := p.parseIdentifier("CALL procedure name")
	if err != nil {
		return c, err
	}
	for p.eatPunct(".") {
		part, err := p.parseIdentifier("CALL procedure name")
		if err != nil {
			return c, err
		}
		name = name + "." + part
	}
	c.Procedure = name
	if err := p.expectPunct("(", "CALL arguments"); err != nil {
		return c, err
	}
	if !p.peekPunct(")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return c, err
			}
			c.Args = append(c.Args, arg)
			if !p.eatPunct(",") {
				break
			}
		}
	}
	if err := p.expectPunct(")", "CALL arguments"); err != nil {
		return c, err
	}
	if p.eatKeyword("yield") {
		for {
			id, err := p.parseIdentifier("YIELD item")
			if err != nil {
				return c, err
			}
			c.Yield = append(c.Yield, id)
			if !p.eatPunct(",") {
				break
			}
		}
	}
	return c, nil
}

func (p *Parser) parseWithClause() (ast.WithClause, error) {
	var w ast.WithClause
	if err := p.expectKeyword("with", "WITH"); err != nil {
		return w, err
	}
	w.Distinct = p.eatKeyword("distinct")

	items, err := p.parseProjectionItems()
	if err != nil {
		return w, err
	}
	w.Items = items

	if p.eatKeyword("where") {
		expr, err := p.parseExpr()
		if err != nil {
			return w, err
		}
		w.Where = expr
		// WHERE after WITH's projection terminates the clause: no
		// ORDER BY/SKIP/LIMIT may follow a WHERE in this grammar position,
		// matching the reading-clause shape of MATCH ... WHERE.
		return w, nil
	}

	if err := p.parseOrderSkipLimit(&w.OrderBy, &w.Skip, &w.Limit); err != nil {
		return w, err
	}
	return w, nil
}

func (p *Parser) parseReturnClause() (*ast.ReturnClause, error) {
	r := &ast.ReturnClause{}
	if err := p.expectKeyword("return", "RETURN"); err != nil {
		return nil, err
	}
	r.Distinct = p.eatKeyword("distinct")

	items, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	r.Items = items

	if err := p.parseOrderSkipLimit(&r.OrderBy, &r.Skip, &r.Limit); err != nil {
		return nil, err
	}
	return r, nil
}

// parseOrderSkipLimit enforces openCypher's ordering of suffixes:
// "ORDER BY? SKIP? LIMIT?" in that order only.
func (p *Parser) parseOrderSkipLimit(orderBy *[]ast.OrderItem, skip, limit *ast.Expr) error {
	stage := 0 // 0 = before ORDER BY, 1 = before SKIP, 2 = before LIMIT, 3 = done
	for {
		switch {
		case p.peekKeyword("order"):
			if stage > 0 {
				return ErrSuffixOrder.New("ORDER BY", "SKIP/LIMIT")
			}
			items, err := p.parseOrderByClause()
			if err != nil {
				return err
			}
			*orderBy = items
			stage = 1
		case p.peekKeyword("skip"):
			if stage > 1 {
				return ErrSuffixOrder.New("SKIP", "LIMIT")
			}
			p.next()
			expr, err := p.parseExpr()
			if err != nil {
				return err
			}
			*skip = expr
			stage = 2
		case p.peekKeyword("limit"):
			if stage > 2 {
				return ErrSuffixOrder.New("LIMIT", "<end>")
			}
			p.next()
			expr, err := p.parseExpr()
			if err != nil {
				return err
			}
			*limit = expr
			stage = 3
		default:
			return nil
		}
	}
}

func (p *Parser) parseOrderByClause() ([]ast.OrderItem, error) {
	if err := p.expectKeyword("order", "ORDER BY"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("by", "ORDER BY"); err != nil {
		return nil, err
	}
	var items []ast.OrderItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		switch {
		case p.eatKeyword("desc"), p.eatKeyword("descending"):
			desc = true
		case p.eatKeyword("asc"), p.eatKeyword("ascending"):
			desc = false
		}
		items = append(items, ast.OrderItem{Expr: expr, Descending: desc})
		if !p.eatPunct(",") {
			break
		}
	}
	return items, nil
}

func (p *Parser) parseProjectionItems() ([]ast.ProjectionItem, error) {
	var items []ast.ProjectionItem
	for {
		if p.peekPunct("*") {
			p.next()
			items = append(items, ast.ProjectionItem{Expr: ast.NewVariable("*")})
		} else {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item := ast.ProjectionItem{Expr: expr}
			if p.eatKeyword("as") {
				id, err := p.parseIdentifier("projection alias")
				if err != nil {
					return nil, err
				}
				item.Alias = id
			}
			items = append(items, item)
		}
		if !p.eatPunct(",") {
			break
		}
	}
	return items, nil
}

func (p *Parser) parseIdentifier(ctx string) (string, error) {
	cur := p.cur()
	if cur.Type == lexer.EOF {
		return "", p.errorf(ctx, "identifier")
	}
	if cur.Value == "`" || strings.HasPrefix(cur.Value, "`") {
		p.next()
		return strings.Trim(cur.Value, "`"), nil
	}
	if keywords[strings.ToLower(cur.Value)] {
		// Keywords are still valid identifiers in several grammar positions
		// (e.g. a property named "type"); callers that need a strict
		// identifier call this helper anyway and accept the keyword text.
	}
	p.next()
	return cur.Value, nil
}

// ---------------------------------------------------------------------
// Path patterns
// ---------------------------------------------------------------------

func (p *Parser) parsePathPattern() (ast.PathPattern, error) {
	var pathVar string
	if p.isPathVariableLookahead() {
		id, err := p.parseIdentifier("path variable")
		if err != nil {
			return ast.PathPattern{}, err
		}
		pathVar = id
		p.next() // consume '='
	}

	if p.eatKeyword("shortestpath") {
		cp, err := p.parseWrappedConnectedPattern()
		if err != nil {
			return ast.PathPattern{}, err
		}
		return ast.PathPattern{Kind: ast.PathKindShortestPath, PathVariable: pathVar, ShortestPath: cp}, nil
	}
	if p.eatKeyword("allshortestpaths") {
		cp, err := p.parseWrappedConnectedPattern()
		if err != nil {
			return ast.PathPattern{}, err
		}
		return ast.PathPattern{Kind: ast.PathKindAllShortestPaths, PathVariable: pathVar, AllShortestPaths: cp}, nil
	}

	node, err := p.parseNodePattern()
	if err != nil {
		return ast.PathPattern{}, err
	}

	if !p.peekPunct("-") && !p.peekPunct("<") {
		return ast.PathPattern{Kind: ast.PathKindNode, PathVariable: pathVar, Node: &node}, nil
	}

	cp := &ast.ConnectedPattern{Nodes: []ast.NodePattern{node}}
	for p.peekPunct("-") || p.peekPunct("<") {
		rel, err := p.parseRelationshipPattern()
		if err != nil {
			return ast.PathPattern{}, err
		}
		cp.Rels = append(cp.Rels, rel)
		nextNode, err := p.parseNodePattern()
		if err != nil {
			return ast.PathPattern{}, err
		}
		cp.Nodes = append(cp.Nodes, nextNode)
	}
	return ast.PathPattern{Kind: ast.PathKindConnected, PathVariable: pathVar, Connected: cp}, nil
}

// isPathVariableLookahead detects "ident =" at the start of a pattern,
// which binds the whole pattern to a path variable.
func (p *Parser) isPathVariableLookahead() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	cur := p.toks[p.pos]
	nxt := p.toks[p.pos+1]
	if cur.Type == lexer.EOF || keywords[strings.ToLower(cur.Value)] {
		return false
	}
	return nxt.Value == "="
}

// parseWrappedConnectedPattern parses "( pattern )" for shortestPath(...)/
// allShortestPaths(...), whose call-style parens wrap a connected pattern
// that carries its own node parens.
func (p *Parser) parseWrappedConnectedPattern() (*ast.ConnectedPattern, error) {
	if err := p.expectPunct("(", "shortestPath(...)"); err != nil {
		return nil, err
	}
	cp, err := p.parseParenConnectedPattern()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")", "shortestPath(...)"); err != nil {
		return nil, err
	}
	return cp, nil
}

func (p *Parser) parseParenConnectedPattern() (*ast.ConnectedPattern, error) {
	node, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	cp := &ast.ConnectedPattern{Nodes: []ast.NodePattern{node}}
	for p.peekPunct("-") || p.peekPunct("<") {
		rel, err := p.parseRelationshipPattern()
		if err != nil {
			return nil, err
		}
		cp.Rels = append(cp.Rels, rel)
		nextNode, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		cp.Nodes = append(cp.Nodes, nextNode)
	}
	return cp, nil
}

func (p *Parser) parseNodePattern() (ast.NodePattern, error) {
	var n ast.NodePattern
	if err := p.expectPunct("(", "node pattern"); err != nil {
		return n, err
	}
	if !p.peekPunct(":") && !p.peekPunct(")") && !p.peekPunct("{") {
		id, err := p.parseIdentifier("node variable")
		if err != nil {
			return n, err
		}
		n.Variable = id
	}
	for p.eatPunct(":") {
		label, err := p.parseIdentifier("node label")
		if err != nil {
			return n, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.peekPunct("{") {
		props, err := p.parsePropertyMap()
		if err != nil {
			return n, err
		}
		n.Properties = props
	}
	if err := p.expectPunct(")", "node pattern"); err != nil {
		return n, err
	}
	return n, nil
}

func (p *Parser) parseRelationshipPattern() (ast.RelationshipPattern, error) {
	var r ast.RelationshipPattern

	leftArrow := p.eatPunct("<")
	if err := p.expectPunct("-", "relationship pattern"); err != nil {
		return r, err
	}

	hasBracket := p.eatPunct("[")
	if hasBracket {
		if !p.peekPunct(":") && !p.peekPunct("*") && !p.peekPunct("]") {
			id, err := p.parseIdentifier("relationship variable")
			if err != nil {
				return r, err
			}
			r.Variable = id
		}
		for p.eatPunct(":") {
			typ, err := p.parseIdentifier("relationship type")
			if err != nil {
				return r, err
			}
			r.Types = append(r.Types, typ)
			for p.eatPunct("|") {
				typ, err := p.parseIdentifier("relationship type")
				if err != nil {
					return r, err
				}
				r.Types = append(r.Types, typ)
			}
		}
		if p.eatPunct("*") {
			spec, err := p.parseVarLenSpec()
			if err != nil {
				return r, err
			}
			r.VarLength = spec
		}
		if p.peekPunct("{") {
			props, err := p.parsePropertyMap()
			if err != nil {
				return r, err
			}
			r.Properties = props
		}
		if p.eatKeyword("where") {
			expr, err := p.parseExpr()
			if err != nil {
				return r, err
			}
			r.Where = expr
		}
		if err := p.expectPunct("]", "relationship pattern"); err != nil {
			return r, err
		}
	}

	rightArrow := p.eatPunct("->")
	if !rightArrow {
		if err := p.expectPunct("-", "relationship pattern"); err != nil {
			return r, err
		}
		rightArrow = p.eatPunct(">")
	}

	switch {
	case leftArrow && !rightArrow:
		r.Direction = ast.DirIn
	case rightArrow && !leftArrow:
		r.Direction = ast.DirOut
	default:
		r.Direction = ast.DirEither
	}
	return r, nil
}

// parseVarLenSpec parses `n`, `n..m`, `..m`, or bare `*` (already consumed)
// meaning 1..∞. Validates min<=max and that neither bound is zero.
func (p *Parser) parseVarLenSpec() (*ast.VarLenSpec, error) {
	spec := &ast.VarLenSpec{}
	if p.cur().Type != lexer.EOF && isIntToken(p.cur()) {
		v, err := p.parseIntLiteralValue()
		if err != nil {
			return nil, err
		}
		spec.Min = &v
		spec.Max = &v
	}
	if p.eatPunct("..") {
		if p.cur().Type != lexer.EOF && isIntToken(p.cur()) {
			v, err := p.parseIntLiteralValue()
			if err != nil {
				return nil, err
			}
			spec.Max = &v
		} else {
			spec.Max = nil
		}
	}
	if err := validateVarLenSpec(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func validateVarLenSpec(spec *ast.VarLenSpec) error {
	if spec.Min != nil && *spec.Min == 0 {
		return ErrVLPZeroHop.New("min 0")
	}
	if spec.Max != nil && *spec.Max == 0 {
		return ErrVLPZeroHop.New("max 0")
	}
	if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
		return ErrVLPInverted.New(*spec.Min, *spec.Max)
	}
	return nil
}

func isIntToken(t lexer.Token) bool {
	if t.Value == "" {
		return false
	}
	_, err := strconv.Atoi(t.Value)
	return err == nil
}

func (p *Parser) parseIntLiteralValue() (int, error) {
	t := p.next()
	v, err := strconv.Atoi(t.Value)
	if err != nil {
		return 0, &ParseError{Line: t.Pos.Line, Column: t.Pos.Column, Context: "integer literal", Got: t.Value}
	}
	return v, nil
}

func (p *Parser) parsePropertyMap() (map[string]ast.Expr, error) {
	props := map[string]ast.Expr{}
	if err := p.expectPunct("{", "property map"); err != nil {
		return nil, err
	}
	if !p.peekPunct("}") {
		for {
			key, err := p.parseIdentifier("property key")
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(":", "property map"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			props[key] = val
			if !p.eatPunct(",") {
				break
			}
		}
	}
	if err := p.expectPunct("}", "property map"); err != nil {
		return nil, err
	}
	return props, nil
}
