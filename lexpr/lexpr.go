// Package lexpr is the logical expression tree produced by planbuilder and
// rewritten in place by the analyzer passes. Unlike ast.Expr, which names
// variables by their Cypher alias, lexpr can name a concrete column on a
// concrete table/CTE alias (ColumnRef). References lowered from the Cypher
// text stay UnresolvedRef through the analyzer passes; the render layer
// resolves them against the plan context.
package lexpr

import "github.com/cyphersql/translator/planctx"

// Expr is the interface every logical expression node implements, mirroring
// the Children/WithChildren tree-rewrite shape used across the plan: a
// pass walks the tree, optionally replaces children, and rebuilds the node
// without mutating the original (lexpr trees are treated as immutable once
// built, same as ast).
type Expr interface {
	// String renders the expression in a debug form used by error messages
	// and test assertions; it is not SQL text (see render.EmitExpr for that).
	String() string
	// Children returns this node's direct expression children, in a fixed
	// order specific to the node kind.
	Children() []Expr
	// WithChildren returns a copy of this node with its children replaced.
	// len(children) must equal len(Children()); returns an error otherwise.
	WithChildren(children ...Expr) (Expr, error)
}

// Literal is a constant value carried through to SQL literal emission.
type Literal struct {
	Kind LiteralKind
	Bool bool
	Int  int64
	Float float64
	Str  string
}

type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

func NewLiteral(v Literal) *Literal { cp := v; return &cp }

func (l *Literal) String() string                        { return "literal" }
func (l *Literal) Children() []Expr                       { return nil }
func (l *Literal) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errWrongArity("Literal", 0, len(children))
	}
	return l, nil
}

// ColumnRef is a resolved reference to a column on a specific table/CTE
// alias, e.g. "u.name" once "u" has been bound to a concrete scan.
type ColumnRef struct {
	TableAlias string
	Column     string
}

func NewColumnRef(tableAlias, column string) *ColumnRef {
	return &ColumnRef{TableAlias: tableAlias, Column: column}
}

func (c *ColumnRef) String() string { return c.TableAlias + "." + c.Column }
func (c *ColumnRef) Children() []Expr { return nil }
func (c *ColumnRef) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errWrongArity("ColumnRef", 0, len(children))
	}
	return c, nil
}

// UnresolvedRef is a reference that carries only the Cypher alias and
// property name the parser saw. No analyzer pass replaces it; the render
// layer resolves it to a column of the alias's table/CTE when it emits SQL.
type UnresolvedRef struct {
	Alias    string
	Property string // "" when this refers to the whole bound value, not a property
}

func NewUnresolvedRef(alias, property string) *UnresolvedRef {
	return &UnresolvedRef{Alias: alias, Property: property}
}

func (u *UnresolvedRef) String() string {
	if u.Property == "" {
		return u.Alias
	}
	return u.Alias + "." + u.Property
}
func (u *UnresolvedRef) Children() []Expr { return nil }
func (u *UnresolvedRef) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errWrongArity("UnresolvedRef", 0, len(children))
	}
	return u, nil
}

// Parameter is a bound query parameter, `$name`.
type Parameter struct {
	Name string
}

func NewParameter(name string) *Parameter { return &Parameter{Name: name} }

func (p *Parameter) String() string { return "$" + p.Name }
func (p *Parameter) Children() []Expr { return nil }
func (p *Parameter) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errWrongArity("Parameter", 0, len(children))
	}
	return p, nil
}

// BinaryOp enumerates the binary operators carried from ast.BinaryOp,
// resolved to operate over lexpr operands.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpXor
	OpIn
	OpStartsWith
	OpEndsWith
	OpContains
	OpRegexMatch
)

type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

func NewBinary(op BinaryOp, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func (b *Binary) String() string { return "(" + b.Left.String() + " op " + b.Right.String() + ")" }
func (b *Binary) Children() []Expr { return []Expr{b.Left, b.Right} }
func (b *Binary) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, errWrongArity("Binary", 2, len(children))
	}
	return &Binary{Op: b.Op, Left: children[0], Right: children[1]}, nil
}

type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpIsNull
	OpIsNotNull
)

type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func NewUnary(op UnaryOp, operand Expr) *Unary { return &Unary{Op: op, Operand: operand} }

func (u *Unary) String() string { return "(unary " + u.Operand.String() + ")" }
func (u *Unary) Children() []Expr { return []Expr{u.Operand} }
func (u *Unary) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, errWrongArity("Unary", 1, len(children))
	}
	return &Unary{Op: u.Op, Operand: children[0]}, nil
}

// FunctionCall covers both scalar and aggregate function calls. The render
// layer special-cases the recognized aggregate names; anything else is
// passed through as a SQL function call by name.
type FunctionCall struct {
	Name        string
	Args        []Expr
	Distinct    bool
	IsAggregate bool
}

func NewFunctionCall(name string, args []Expr, distinct, isAggregate bool) *FunctionCall {
	return &FunctionCall{Name: name, Args: args, Distinct: distinct, IsAggregate: isAggregate}
}

func (f *FunctionCall) String() string { return f.Name + "(...)" }
func (f *FunctionCall) Children() []Expr { return f.Args }
func (f *FunctionCall) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != len(f.Args) {
		return nil, errWrongArity("FunctionCall", len(f.Args), len(children))
	}
	return &FunctionCall{Name: f.Name, Args: children, Distinct: f.Distinct, IsAggregate: f.IsAggregate}, nil
}

// ListLiteral is a literal list value `[a, b, c]`.
type ListLiteral struct {
	Items []Expr
}

func NewListLiteral(items []Expr) *ListLiteral { return &ListLiteral{Items: items} }

func (l *ListLiteral) String() string { return "list" }
func (l *ListLiteral) Children() []Expr { return l.Items }
func (l *ListLiteral) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != len(l.Items) {
		return nil, errWrongArity("ListLiteral", len(l.Items), len(children))
	}
	return &ListLiteral{Items: children}, nil
}

// MapLiteral is a literal map value `{a: 1, b: 2}`. Key order isn't
// semantically meaningful, but Keys is kept for deterministic rendering.
type MapLiteral struct {
	Keys   []string
	Values []Expr
}

func NewMapLiteral(keys []string, values []Expr) *MapLiteral {
	return &MapLiteral{Keys: keys, Values: values}
}

func (m *MapLiteral) String() string { return "map" }
func (m *MapLiteral) Children() []Expr { return m.Values }
func (m *MapLiteral) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != len(m.Values) {
		return nil, errWrongArity("MapLiteral", len(m.Values), len(children))
	}
	return &MapLiteral{Keys: m.Keys, Values: children}, nil
}

// CaseBranch is one WHEN/THEN pair.
type CaseBranch struct {
	When, Then Expr
}

// Case models both the simple and generic CASE forms; Operand is nil for
// the generic form.
type Case struct {
	Operand  Expr // may be nil
	Branches []CaseBranch
	Else     Expr // may be nil
}

func NewCase(operand Expr, branches []CaseBranch, elseExpr Expr) *Case {
	return &Case{Operand: operand, Branches: branches, Else: elseExpr}
}

func (c *Case) String() string { return "case" }
func (c *Case) Children() []Expr {
	var out []Expr
	if c.Operand != nil {
		out = append(out, c.Operand)
	}
	for _, b := range c.Branches {
		out = append(out, b.When, b.Then)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}
func (c *Case) WithChildren(children ...Expr) (Expr, error) {
	want := len(c.Children())
	if len(children) != want {
		return nil, errWrongArity("Case", want, len(children))
	}
	i := 0
	nc := &Case{Branches: make([]CaseBranch, len(c.Branches))}
	if c.Operand != nil {
		nc.Operand = children[i]
		i++
	}
	for bi := range c.Branches {
		nc.Branches[bi] = CaseBranch{When: children[i], Then: children[i+1]}
		i += 2
	}
	if c.Else != nil {
		nc.Else = children[i]
	}
	return nc, nil
}

// Subscript is `base[index]`.
type Subscript struct {
	Base, Index Expr
}

func NewSubscript(base, index Expr) *Subscript { return &Subscript{Base: base, Index: index} }

func (s *Subscript) String() string { return s.Base.String() + "[...]" }
func (s *Subscript) Children() []Expr { return []Expr{s.Base, s.Index} }
func (s *Subscript) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, errWrongArity("Subscript", 2, len(children))
	}
	return &Subscript{Base: children[0], Index: children[1]}, nil
}

// Slice is `base[from..to]`; From/To may be nil.
type Slice struct {
	Base, From, To Expr
}

func NewSlice(base, from, to Expr) *Slice { return &Slice{Base: base, From: from, To: to} }

func (s *Slice) String() string { return s.Base.String() + "[..]" }
func (s *Slice) Children() []Expr {
	out := []Expr{s.Base}
	if s.From != nil {
		out = append(out, s.From)
	}
	if s.To != nil {
		out = append(out, s.To)
	}
	return out
}
func (s *Slice) WithChildren(children ...Expr) (Expr, error) {
	want := len(s.Children())
	if len(children) != want {
		return nil, errWrongArity("Slice", want, len(children))
	}
	ns := &Slice{Base: children[0]}
	i := 1
	if s.From != nil {
		ns.From = children[i]
		i++
	}
	if s.To != nil {
		ns.To = children[i]
	}
	return ns, nil
}

// Reduce is `reduce(acc = init, x IN list | body)`. No analyzer pass
// rewrites it, and the render layer rejects it with ErrUnsupportedExpr.
type Reduce struct {
	Accumulator string
	Init        Expr
	Variable    string
	List        Expr
	Body        Expr
}

func NewReduce(acc string, init Expr, variable string, list, body Expr) *Reduce {
	return &Reduce{Accumulator: acc, Init: init, Variable: variable, List: list, Body: body}
}

func (r *Reduce) String() string { return "reduce(...)" }
func (r *Reduce) Children() []Expr { return []Expr{r.Init, r.List, r.Body} }
func (r *Reduce) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 3 {
		return nil, errWrongArity("Reduce", 3, len(children))
	}
	return &Reduce{Accumulator: r.Accumulator, Init: children[0], Variable: r.Variable, List: children[1], Body: children[2]}, nil
}

// ListComprehension is `[x IN list WHERE pred | project]`; Where/Project
// may be nil.
type ListComprehension struct {
	Variable string
	List     Expr
	Where    Expr
	Project  Expr
}

func NewListComprehension(variable string, list, where, project Expr) *ListComprehension {
	return &ListComprehension{Variable: variable, List: list, Where: where, Project: project}
}

func (l *ListComprehension) String() string { return "[... | ...]" }
func (l *ListComprehension) Children() []Expr {
	out := []Expr{l.List}
	if l.Where != nil {
		out = append(out, l.Where)
	}
	if l.Project != nil {
		out = append(out, l.Project)
	}
	return out
}
func (l *ListComprehension) WithChildren(children ...Expr) (Expr, error) {
	want := len(l.Children())
	if len(children) != want {
		return nil, errWrongArity("ListComprehension", want, len(children))
	}
	nl := &ListComprehension{Variable: l.Variable, List: children[0]}
	i := 1
	if l.Where != nil {
		nl.Where = children[i]
		i++
	}
	if l.Project != nil {
		nl.Project = children[i]
	}
	return nl, nil
}

// LabelCheck is `var:Label[:Label2...]` used as a boolean predicate. No
// analyzer pass rewrites it, and the render layer rejects it with
// ErrUnsupportedExpr.
type LabelCheck struct {
	Variable string
	Labels   []string
}

func NewLabelCheck(variable string, labels []string) *LabelCheck {
	return &LabelCheck{Variable: variable, Labels: labels}
}

func (l *LabelCheck) String() string { return l.Variable + ":label" }
func (l *LabelCheck) Children() []Expr { return nil }
func (l *LabelCheck) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errWrongArity("LabelCheck", 0, len(children))
	}
	return l, nil
}

// Lambda is `(params) -> body`, used only as an argument to functions like
// reduce()/predicate functions. No analyzer pass rewrites it, and the render
// layer rejects it with ErrUnsupportedExpr.
type Lambda struct {
	Params []string
	Body   Expr
}

func NewLambda(params []string, body Expr) *Lambda { return &Lambda{Params: params, Body: body} }

func (l *Lambda) String() string   { return "lambda(...)" }
func (l *Lambda) Children() []Expr { return []Expr{l.Body} }
func (l *Lambda) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, errWrongArity("Lambda", 1, len(children))
	}
	return &Lambda{Params: l.Params, Body: children[0]}, nil
}

// PatternComprehensionRef carries a not-yet-rewritten pattern comprehension
// through planbuilder; the pattern-comprehension-rewriting analyzer pass
// replaces it with a correlated CTE reference or subquery expression.
type PatternComprehensionRef struct {
	Pattern interface{} // *ast.ConnectedPattern, kept opaque to avoid an import cycle
	Where   Expr
	Project Expr
}

func NewPatternComprehensionRef(pattern interface{}, where, project Expr) *PatternComprehensionRef {
	return &PatternComprehensionRef{Pattern: pattern, Where: where, Project: project}
}

func (p *PatternComprehensionRef) String() string { return "[(...)|...]" }
func (p *PatternComprehensionRef) Children() []Expr {
	var out []Expr
	if p.Where != nil {
		out = append(out, p.Where)
	}
	out = append(out, p.Project)
	return out
}
func (p *PatternComprehensionRef) WithChildren(children ...Expr) (Expr, error) {
	want := len(p.Children())
	if len(children) != want {
		return nil, errWrongArity("PatternComprehensionRef", want, len(children))
	}
	np := &PatternComprehensionRef{Pattern: p.Pattern}
	i := 0
	if p.Where != nil {
		np.Where = children[i]
		i++
	}
	np.Project = children[i]
	return np, nil
}

// ExistsSubqueryRef carries an `EXISTS { MATCH ... }` block through
// planbuilder; the pattern-comprehension-rewriting pass replaces it with a
// CorrelatedSubquery marked IsExists, which the render layer emits as
// `EXISTS (subquery)`.
type ExistsSubqueryRef struct {
	Pattern interface{} // *ast.ConnectedPattern
	Where   Expr
}

func NewExistsSubqueryRef(pattern interface{}, where Expr) *ExistsSubqueryRef {
	return &ExistsSubqueryRef{Pattern: pattern, Where: where}
}

func (e *ExistsSubqueryRef) String() string { return "exists(...)" }
func (e *ExistsSubqueryRef) Children() []Expr {
	if e.Where == nil {
		return nil
	}
	return []Expr{e.Where}
}
func (e *ExistsSubqueryRef) WithChildren(children ...Expr) (Expr, error) {
	want := len(e.Children())
	if len(children) != want {
		return nil, errWrongArity("ExistsSubqueryRef", want, len(children))
	}
	ne := &ExistsSubqueryRef{Pattern: e.Pattern}
	if e.Where != nil {
		ne.Where = children[0]
	}
	return ne, nil
}

// PathVariableRef refers to a path alias bound by a MATCH pattern, e.g.
// `p = (a)-[:R]->(b)`; the render layer emits it as the CTE's path_nodes
// column, and a projected path expands to path_nodes, hop_count and
// path_relationships.
type PathVariableRef struct {
	Alias string
}

func NewPathVariableRef(alias string) *PathVariableRef { return &PathVariableRef{Alias: alias} }

func (p *PathVariableRef) String() string   { return p.Alias }
func (p *PathVariableRef) Children() []Expr { return nil }
func (p *PathVariableRef) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errWrongArity("PathVariableRef", 0, len(children))
	}
	return p, nil
}

// CorrelatedSubquery replaces a PatternComprehensionRef or
// ExistsSubqueryRef once the pattern-comprehension-rewriting analyzer pass
// has built and analyzed the nested pattern's own plan. Plan is kept as
// interface{} (concretely an lplan.Node) because lplan itself depends on
// this package for every expression it carries, so a direct field would be
// an import cycle; Ctx is the child planctx.PlanCtx scope the nested plan
// and Project were resolved against, which the render layer needs to
// resolve any UnresolvedRef still inside Project. IsExists marks an EXISTS
// check, which only cares whether the nested plan has any rows — Project
// is nil in that case.
type CorrelatedSubquery struct {
	Plan     interface{} // lplan.Node
	Ctx      *planctx.PlanCtx
	Project  Expr // nil for an EXISTS check
	IsExists bool
}

func NewCorrelatedSubquery(plan interface{}, ctx *planctx.PlanCtx, project Expr, isExists bool) *CorrelatedSubquery {
	return &CorrelatedSubquery{Plan: plan, Ctx: ctx, Project: project, IsExists: isExists}
}

func (c *CorrelatedSubquery) String() string {
	if c.IsExists {
		return "exists(subquery)"
	}
	return "[(subquery)|...]"
}
func (c *CorrelatedSubquery) Children() []Expr {
	if c.Project == nil {
		return nil
	}
	return []Expr{c.Project}
}
func (c *CorrelatedSubquery) WithChildren(children ...Expr) (Expr, error) {
	want := len(c.Children())
	if len(children) != want {
		return nil, errWrongArity("CorrelatedSubquery", want, len(children))
	}
	nc := &CorrelatedSubquery{Plan: c.Plan, Ctx: c.Ctx, IsExists: c.IsExists}
	if c.Project != nil {
		nc.Project = children[0]
	}
	return nc, nil
}
