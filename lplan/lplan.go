// Package lplan is the logical plan: a tree of operator nodes built by
// planbuilder from the AST and rewritten in place by the analyzer passes
// before being lowered to a render.RenderPlan. Every operator owns its
// input plan(s) exclusively (copy-on-write: a rewrite rebuilds the node
// rather than mutating a shared child), mirroring the teacher's sql.Node
// tree shape minus execution (no RowIter/Schema — this plan is never run,
// only lowered to SQL text).
package lplan

import "github.com/cyphersql/translator/lexpr"

// Node is the interface every logical plan operator implements.
type Node interface {
	String() string
	Children() []Node
	WithChildren(children ...Node) (Node, error)
}

// Empty represents a statically known-empty result, e.g. a relationship
// pattern whose declared direction is incompatible with the schema.
type Empty struct {
	Reason string
}

func NewEmpty(reason string) *Empty { return &Empty{Reason: reason} }

func (e *Empty) String() string           { return "Empty(" + e.Reason + ")" }
func (e *Empty) Children() []Node         { return nil }
func (e *Empty) WithChildren(c ...Node) (Node, error) {
	if len(c) != 0 {
		return nil, errWrongArity("Empty", 0, len(c))
	}
	return e, nil
}

// Scan reads every row of a physical table.
type Scan struct {
	Table string
}

func NewScan(table string) *Scan { return &Scan{Table: table} }

func (s *Scan) String() string   { return "Scan(" + s.Table + ")" }
func (s *Scan) Children() []Node { return nil }
func (s *Scan) WithChildren(c ...Node) (Node, error) {
	if len(c) != 0 {
		return nil, errWrongArity("Scan", 0, len(c))
	}
	return s, nil
}

// ViewScan is a Scan whose table name and filter come from a
// catalog.ResolveViewParams substitution rather than a bare table name.
type ViewScan struct {
	Table  string
	Filter string
}

func NewViewScan(table, filter string) *ViewScan { return &ViewScan{Table: table, Filter: filter} }

func (v *ViewScan) String() string   { return "ViewScan(" + v.Table + ")" }
func (v *ViewScan) Children() []Node { return nil }
func (v *ViewScan) WithChildren(c ...Node) (Node, error) {
	if len(c) != 0 {
		return nil, errWrongArity("ViewScan", 0, len(c))
	}
	return v, nil
}

// GraphNode binds a pattern alias to a label over a scan input, before the
// analyzer has committed to a join strategy against any adjacent relationship.
type GraphNode struct {
	Alias string
	Label string // "" until label inference runs
	Input Node   // nil until pushed down by the schema/table-name passes
}

func NewGraphNode(alias, label string, input Node) *GraphNode {
	return &GraphNode{Alias: alias, Label: label, Input: input}
}

func (g *GraphNode) String() string { return "GraphNode(" + g.Alias + ":" + g.Label + ")" }
func (g *GraphNode) Children() []Node {
	if g.Input == nil {
		return nil
	}
	return []Node{g.Input}
}
func (g *GraphNode) WithChildren(c ...Node) (Node, error) {
	if g.Input == nil {
		if len(c) != 0 {
			return nil, errWrongArity("GraphNode", 0, len(c))
		}
		return g, nil
	}
	if len(c) != 1 {
		return nil, errWrongArity("GraphNode", 1, len(c))
	}
	return &GraphNode{Alias: g.Alias, Label: g.Label, Input: c[0]}, nil
}

// Direction mirrors ast.Direction for a relationship pattern's arrow.
type Direction int

const (
	DirEither Direction = iota
	DirOut
	DirIn
)

// VarLenSpec mirrors ast.VarLenSpec once carried into the logical plan.
type VarLenSpec struct {
	Min *int
	Max *int
}

// GraphRel carries the binding information the analyzer needs to decide a
// join strategy, without committing to one yet: endpoint subplans, types,
// direction, optional variable-length bounds, and an optional inline
// predicate. LeftSubplan/RightSubplan are the two GraphNode (or further
// GraphRel, for chained patterns) operands; CenterSubplan, when non-nil,
// carries a standalone scan for the relationship's own edge table before
// the join-strategy pass folds it into left/right.
type GraphRel struct {
	Alias        string
	Types        []string
	Direction    Direction
	VarLength    *VarLenSpec
	PathVariable string
	Where        lexpr.Expr
	Optional     bool
	ShortestPath bool
	AllShortest  bool

	LeftSubplan   Node
	CenterSubplan Node
	RightSubplan  Node
	LeftAlias     string
	RightAlias    string
}

func (g *GraphRel) String() string { return "GraphRel(" + g.Alias + ")" }
func (g *GraphRel) Children() []Node {
	var out []Node
	if g.LeftSubplan != nil {
		out = append(out, g.LeftSubplan)
	}
	if g.CenterSubplan != nil {
		out = append(out, g.CenterSubplan)
	}
	if g.RightSubplan != nil {
		out = append(out, g.RightSubplan)
	}
	return out
}
func (g *GraphRel) WithChildren(c ...Node) (Node, error) {
	want := len(g.Children())
	if len(c) != want {
		return nil, errWrongArity("GraphRel", want, len(c))
	}
	ng := *g
	i := 0
	if g.LeftSubplan != nil {
		ng.LeftSubplan = c[i]
		i++
	}
	if g.CenterSubplan != nil {
		ng.CenterSubplan = c[i]
		i++
	}
	if g.RightSubplan != nil {
		ng.RightSubplan = c[i]
	}
	return &ng, nil
}

// Filter applies a boolean predicate to its input.
type Filter struct {
	Predicate lexpr.Expr
	Input     Node
}

func NewFilter(predicate lexpr.Expr, input Node) *Filter {
	return &Filter{Predicate: predicate, Input: input}
}

func (f *Filter) String() string   { return "Filter" }
func (f *Filter) Children() []Node { return []Node{f.Input} }
func (f *Filter) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("Filter", 1, len(c))
	}
	return &Filter{Predicate: f.Predicate, Input: c[0]}, nil
}

// ProjectionItem is one projected expression, optionally aliased.
type ProjectionItem struct {
	Expr  lexpr.Expr
	Alias string
}

// Projection selects and optionally renames a set of expressions.
type Projection struct {
	Items    []ProjectionItem
	Distinct bool
	Input    Node
}

func NewProjection(items []ProjectionItem, distinct bool, input Node) *Projection {
	return &Projection{Items: items, Distinct: distinct, Input: input}
}

func (p *Projection) String() string   { return "Projection" }
func (p *Projection) Children() []Node { return []Node{p.Input} }
func (p *Projection) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("Projection", 1, len(c))
	}
	return &Projection{Items: p.Items, Distinct: p.Distinct, Input: c[0]}, nil
}

// GroupBy aggregates its input by Keys, filtering groups with Having.
// IsMaterializationBoundary marks that the group's aggregate outputs must
// be computed in their own SELECT/CTE layer rather than inline, which the
// render layer uses to decide whether HAVING needs a wrapping subquery.
type GroupBy struct {
	Keys                      []lexpr.Expr
	Aggregates                []ProjectionItem
	Having                    lexpr.Expr
	IsMaterializationBoundary bool
	Input                     Node
}

func NewGroupBy(keys []lexpr.Expr, aggregates []ProjectionItem, having lexpr.Expr, boundary bool, input Node) *GroupBy {
	return &GroupBy{Keys: keys, Aggregates: aggregates, Having: having, IsMaterializationBoundary: boundary, Input: input}
}

func (g *GroupBy) String() string   { return "GroupBy" }
func (g *GroupBy) Children() []Node { return []Node{g.Input} }
func (g *GroupBy) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("GroupBy", 1, len(c))
	}
	return &GroupBy{Keys: g.Keys, Aggregates: g.Aggregates, Having: g.Having, IsMaterializationBoundary: g.IsMaterializationBoundary, Input: c[0]}, nil
}

// OrderItem is one ORDER BY entry over a logical expression.
type OrderItem struct {
	Expr       lexpr.Expr
	Descending bool
}

type OrderBy struct {
	Items []OrderItem
	Input Node
}

func NewOrderBy(items []OrderItem, input Node) *OrderBy { return &OrderBy{Items: items, Input: input} }

func (o *OrderBy) String() string   { return "OrderBy" }
func (o *OrderBy) Children() []Node { return []Node{o.Input} }
func (o *OrderBy) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("OrderBy", 1, len(c))
	}
	return &OrderBy{Items: o.Items, Input: c[0]}, nil
}

type Skip struct {
	Count lexpr.Expr
	Input Node
}

func NewSkip(count lexpr.Expr, input Node) *Skip { return &Skip{Count: count, Input: input} }

func (s *Skip) String() string   { return "Skip" }
func (s *Skip) Children() []Node { return []Node{s.Input} }
func (s *Skip) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("Skip", 1, len(c))
	}
	return &Skip{Count: s.Count, Input: c[0]}, nil
}

type Limit struct {
	Count lexpr.Expr
	Input Node
}

func NewLimit(count lexpr.Expr, input Node) *Limit { return &Limit{Count: count, Input: input} }

func (l *Limit) String() string   { return "Limit" }
func (l *Limit) Children() []Node { return []Node{l.Input} }
func (l *Limit) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("Limit", 1, len(c))
	}
	return &Limit{Count: l.Count, Input: c[0]}, nil
}

// Unwind expands a list-valued expression into one row per element, bound
// to a new alias.
type Unwind struct {
	List  lexpr.Expr
	As    string
	Input Node
}

func NewUnwind(list lexpr.Expr, as string, input Node) *Unwind {
	return &Unwind{List: list, As: as, Input: input}
}

func (u *Unwind) String() string   { return "Unwind(" + u.As + ")" }
func (u *Unwind) Children() []Node { return []Node{u.Input} }
func (u *Unwind) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("Unwind", 1, len(c))
	}
	return &Unwind{List: u.List, As: u.As, Input: c[0]}, nil
}

// WithClause is the scope-boundary operator a WITH clause introduces: a
// projection plus optional DISTINCT/WHERE/ORDER BY/SKIP/LIMIT, recording
// which aliases the outer scope may reference afterward.
type WithClause struct {
	Items           []ProjectionItem
	Distinct        bool
	ExportedAliases []string
	Where           lexpr.Expr
	OrderBy         []OrderItem
	Skip            lexpr.Expr
	Limit           lexpr.Expr
	Input           Node
}

func (w *WithClause) String() string   { return "WithClause" }
func (w *WithClause) Children() []Node { return []Node{w.Input} }
func (w *WithClause) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("WithClause", 1, len(c))
	}
	nw := *w
	nw.Input = c[0]
	return &nw, nil
}

// Cte wraps a subplan as a named common table expression reference.
type Cte struct {
	Name  string
	Input Node
}

func NewCte(name string, input Node) *Cte { return &Cte{Name: name, Input: input} }

func (c *Cte) String() string   { return "Cte(" + c.Name + ")" }
func (c *Cte) Children() []Node { return []Node{c.Input} }
func (c *Cte) WithChildren(children ...Node) (Node, error) {
	if len(children) != 1 {
		return nil, errWrongArity("Cte", 1, len(children))
	}
	return &Cte{Name: c.Name, Input: children[0]}, nil
}

// JoinStrategy records the graph-join inference pass's decision for one
// GraphRel once analyzed.
type JoinStrategy int

const (
	JoinTraditional JoinStrategy = iota
	JoinSingleTableScan
	JoinEdgeToEdge
	JoinCoupledSameRow
	JoinFkEdge
)

// GraphJoinSpec is one analyzed join the render layer must emit, carrying
// the strategy chosen for a single GraphRel plus the endpoints it connects.
type GraphJoinSpec struct {
	RelAlias   string
	Strategy   JoinStrategy
	LeftAlias  string
	RightAlias string
	On         lexpr.Expr
	Optional   bool
}

// GraphJoins is the result of graph-join inference: every GraphRel in Input
// has been analyzed into a concrete GraphJoinSpec, plus bookkeeping the
// render layer needs (which aliases are optional-match, which CTEs are
// referenced by VLP expansion, and any correlation predicates carried from
// an enclosing pattern comprehension or EXISTS subquery).
type GraphJoins struct {
	Joins                []GraphJoinSpec
	OptionalAliases      []string
	AnchorTable          string
	CTEReferences        []string
	CorrelationPredicates []lexpr.Expr
	Input                Node
}

func (g *GraphJoins) String() string   { return "GraphJoins" }
func (g *GraphJoins) Children() []Node { return []Node{g.Input} }
func (g *GraphJoins) WithChildren(c ...Node) (Node, error) {
	if len(c) != 1 {
		return nil, errWrongArity("GraphJoins", 1, len(c))
	}
	ng := *g
	ng.Input = c[0]
	return &ng, nil
}

// CartesianProduct joins two subplans with no ON predicate beyond an
// optional JoinCondition (carried for OPTIONAL MATCH patterns that turn out
// disconnected from the rest of the query).
type CartesianProduct struct {
	Left, Right   Node
	Optional      bool
	JoinCondition lexpr.Expr
}

func NewCartesianProduct(left, right Node, optional bool, cond lexpr.Expr) *CartesianProduct {
	return &CartesianProduct{Left: left, Right: right, Optional: optional, JoinCondition: cond}
}

func (c *CartesianProduct) String() string   { return "CartesianProduct" }
func (c *CartesianProduct) Children() []Node { return []Node{c.Left, c.Right} }
func (c *CartesianProduct) WithChildren(children ...Node) (Node, error) {
	if len(children) != 2 {
		return nil, errWrongArity("CartesianProduct", 2, len(children))
	}
	return &CartesianProduct{Left: children[0], Right: children[1], Optional: c.Optional, JoinCondition: c.JoinCondition}, nil
}

// Union combines the results of its inputs; All distinguishes UNION from
// UNION ALL.
type Union struct {
	Inputs []Node
	All    bool
}

func NewUnion(inputs []Node, all bool) *Union { return &Union{Inputs: inputs, All: all} }

func (u *Union) String() string   { return "Union" }
func (u *Union) Children() []Node { return u.Inputs }
func (u *Union) WithChildren(c ...Node) (Node, error) {
	if len(c) != len(u.Inputs) {
		return nil, errWrongArity("Union", len(u.Inputs), len(c))
	}
	return &Union{Inputs: c, All: u.All}, nil
}
