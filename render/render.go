// Package render lowers an analyzed lplan.Node tree into a RenderPlan — a
// flat description of one SQL SELECT (CTEs, FROM, JOINs, WHERE, GROUP BY,
// HAVING, ORDER BY, LIMIT/OFFSET) — and serializes that into SQL text.
// Construction is a single bottom-up pass over the logical plan, mirroring
// how the teacher's planbuilder/analyzer packages walk sql.Node trees, but
// building a render-specific shape rather than an executable iterator tree
// since this layer is never executed, only emitted as text.
package render

import (
	"sort"

	"github.com/cyphersql/translator/cteutil"
	"github.com/cyphersql/translator/lexpr"
	"github.com/cyphersql/translator/lplan"
	"github.com/cyphersql/translator/planctx"
)

// JoinKind distinguishes an inner join (required match) from a left join
// (an OPTIONAL MATCH endpoint).
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
)

// FromSource is one FROM/JOIN source: either a physical table or a
// reference to a CTE declared earlier in the same RenderPlan (or an
// ancestor one).
type FromSource struct {
	Table string
	Alias string
	IsCTE bool
}

// Join is one JOIN entry following the FROM source, in pattern order.
type Join struct {
	Source FromSource
	On     lexpr.Expr
	Kind   JoinKind
}

// SelectItem is one projected SQL expression, optionally aliased.
type SelectItem struct {
	Expr  lexpr.Expr
	Alias string
}

// OrderItem mirrors lplan.OrderItem at the render layer.
type OrderItem struct {
	Expr       lexpr.Expr
	Descending bool
}

// NamedCTE is one entry in RenderPlan.CTEs: a name, its encoded column
// list, and the RenderPlan that computes it.
type NamedCTE struct {
	Name    string
	Columns []string
	Body    *RenderPlan
}

// RenderPlan is a flat description of one SQL SELECT. CTEs nest (a CTE's
// own Body may carry further CTEs, e.g. a WithClause chain), but within one
// RenderPlan the shape is exactly the clause list SQL emission walks in
// order: CTEs, SELECT, FROM, JOINs, WHERE, GROUP BY, HAVING, ORDER BY,
// LIMIT, OFFSET.
type RenderPlan struct {
	CTEs     []NamedCTE
	Select   []SelectItem
	Distinct bool
	From     FromSource
	Joins    []Join
	Where    []lexpr.Expr
	// RawWhere carries schema/view Filter text verbatim (already-resolved
	// SQL fragments from catalog.NodeSchema.Filter / ViewScan.Filter), kept
	// separate from lexpr.Expr predicates since it is plain SQL text, not a
	// logical expression tree.
	RawWhere []string
	GroupBy  []lexpr.Expr
	Having   []lexpr.Expr
	OrderBy  []OrderItem
	Limit    lexpr.Expr
	Offset   lexpr.Expr

	// aliasMap maps a logical pattern alias (node or relationship) to the
	// FROM/JOIN source alias that actually carries its columns. Most
	// aliases map to themselves; a denormalized endpoint under
	// JoinSingleTableScan/JoinCoupledSameRow maps onto the edge table's own
	// alias instead, since no separate scan exists for it.
	aliasMap map[string]string

	// cteEntities is the set of aliases re-exported through a WITH clause's
	// CTE that still carry node/relationship property needs. Such an
	// alias's physical source (aliasMap[alias]) is a generated CTE rather
	// than a schema table, so any column read against it must go through
	// cteutil.CTEColumnName the same way the CTE's own SELECT list encoded
	// that column, instead of the raw schema column/property name.
	cteEntities map[string]bool

	// scalarColumns maps a WITH-exported scalar alias (e.g. `u.age AS age`,
	// or an aggregate result) directly to its fully-qualified CTE column,
	// since a bare reference to it later (`WHERE age > 18`) carries no
	// property to look up — the whole alias already names one column.
	scalarColumns map[string]string
}

func newRenderPlan() *RenderPlan {
	return &RenderPlan{aliasMap: make(map[string]string)}
}

func (rp *RenderPlan) mapAlias(logical, physical string) {
	if rp.aliasMap == nil {
		rp.aliasMap = make(map[string]string)
	}
	rp.aliasMap[logical] = physical
}

func (rp *RenderPlan) markCTEEntity(alias string) {
	if rp.cteEntities == nil {
		rp.cteEntities = make(map[string]bool)
	}
	rp.cteEntities[alias] = true
}

func (rp *RenderPlan) mapScalarColumn(alias, column string) {
	if rp.scalarColumns == nil {
		rp.scalarColumns = make(map[string]string)
	}
	rp.scalarColumns[alias] = column
}

// resolveAlias returns the physical FROM/JOIN alias a logical pattern alias
// renders through, defaulting to the alias itself when no remapping was
// recorded (the common case: one alias, one scan).
func (rp *RenderPlan) resolveAlias(alias string) string {
	if rp.aliasMap != nil {
		if phys, ok := rp.aliasMap[alias]; ok {
			return phys
		}
	}
	return alias
}

// scope bundles the aliasing information SQL emission needs into the shape
// EmitExpr takes, so every emit call site just threads the owning
// RenderPlan's own bookkeeping through unchanged.
func (rp *RenderPlan) scope() *AliasScope {
	return &AliasScope{Physical: rp.aliasMap, CTEEntities: rp.cteEntities, ScalarColumns: rp.scalarColumns}
}

// Build lowers an analyzed logical plan into a RenderPlan.
func Build(plan lplan.Node, pctx *planctx.PlanCtx) (*RenderPlan, error) {
	return buildOperator(plan, pctx)
}

func buildOperator(n lplan.Node, pctx *planctx.PlanCtx) (*RenderPlan, error) {
	switch node := n.(type) {
	case *lplan.Scan:
		rp := newRenderPlan()
		rp.From = FromSource{Table: node.Table}
		return rp, nil

	case *lplan.ViewScan:
		rp := newRenderPlan()
		rp.From = FromSource{Table: node.Table}
		if node.Filter != "" {
			rp.RawWhere = append(rp.RawWhere, node.Filter)
		}
		return rp, nil

	case *lplan.GraphNode:
		var rp *RenderPlan
		var err error
		if node.Input != nil {
			rp, err = buildOperator(node.Input, pctx)
			if err != nil {
				return nil, err
			}
		} else {
			rp = newRenderPlan()
		}
		rp.From.Alias = node.Alias
		if tc, ok := pctx.LookupTable(node.Alias); ok && tc.Schema != nil && tc.Schema.Filter != "" {
			rp.RawWhere = append(rp.RawWhere, tc.Schema.Filter)
		}
		return rp, nil

	case *lplan.GraphJoins:
		return buildGraphJoins(node, pctx)

	case *lplan.Filter:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		if node.Predicate != nil {
			rp.Where = append(rp.Where, node.Predicate)
		}
		return rp, nil

	case *lplan.Projection:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		items, err := expandProjectionItems(node.Items, rp, pctx)
		if err != nil {
			return nil, err
		}
		rp.Select = items
		rp.Distinct = node.Distinct
		return rp, nil

	case *lplan.GroupBy:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		rp.GroupBy = node.Keys
		if node.Having != nil {
			rp.Having = append(rp.Having, node.Having)
		}
		items := make([]SelectItem, 0, len(node.Keys)+len(node.Aggregates))
		for _, k := range node.Keys {
			items = append(items, SelectItem{Expr: k})
		}
		for _, a := range node.Aggregates {
			items = append(items, SelectItem{Expr: a.Expr, Alias: a.Alias})
		}
		rp.Select = items
		return rp, nil

	case *lplan.OrderBy:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		for _, it := range node.Items {
			rp.OrderBy = append(rp.OrderBy, OrderItem{Expr: it.Expr, Descending: it.Descending})
		}
		return rp, nil

	case *lplan.Skip:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		rp.Offset = node.Count
		return rp, nil

	case *lplan.Limit:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		rp.Limit = node.Count
		return rp, nil

	case *lplan.WithClause:
		return buildWithClause(node, pctx)

	case *lplan.Cte:
		// A bare Cte wrapper (no outer consumer built yet, e.g. when the
		// WithClause builder hasn't yet composed an outer SELECT against
		// it) renders as a pass-through reference to its own body; callers
		// that need the outer SELECT go through buildWithClause instead.
		return buildOperator(node.Input, pctx)

	case *lplan.CartesianProduct:
		return buildCartesianProduct(node, pctx)

	case *lplan.Union:
		// A Union reached mid-tree (not as the top-level plan) has no
		// single FROM/JOIN shape; it must be rendered as its own
		// sub-statement. The common case — Union as the terminal node — is
		// handled by ToSQL directly via UnionPlan, so this path only
		// matters for a union nested under further operators, which
		// plan_sanitization's single-input collapse already prevents from
		// being trivial. We lower it into a single-source RenderPlan whose
		// FROM is a synthetic derived table text, keeping Build total over
		// every operator the analyzer can produce.
		return buildNestedUnion(node, pctx)

	case *lplan.Unwind:
		rp, err := buildOperator(node.Input, pctx)
		if err != nil {
			return nil, err
		}
		// UNWIND lowers to a lateral array-expansion join; the store's SQL
		// dialect (e.g. ClickHouse's ARRAY JOIN) is surfaced as a raw join
		// source rather than modeled as its own Join variant, since no
		// other operator needs an arbitrary-expression join source.
		rp.Joins = append(rp.Joins, Join{
			Source: FromSource{Table: "ARRAY JOIN " + mustEmit(node.List, rp) + " AS " + node.As},
		})
		return rp, nil

	case *lplan.Empty:
		rp := newRenderPlan()
		rp.From = FromSource{Table: "(SELECT 1 WHERE 1 = 0)"}
		return rp, nil

	default:
		return nil, errUnsupportedNode(n.String())
	}
}

func mustEmit(e lexpr.Expr, rp *RenderPlan) string {
	s, _, err := EmitExpr(e, rp.scope())
	if err != nil {
		return e.String()
	}
	return s
}

// buildWithClause closes the current RenderPlan into a named CTE and opens
// a fresh one whose FROM is that CTE, per §4.4's WithClause rule. Every
// exported alias is remapped onto the new CTE; an alias that still carries a
// resolved node/relationship schema is marked so later column access against
// it goes through the CTE's encoded column names, while a plain scalar
// export (a renamed property, an aggregate result) maps directly onto its
// own single column.
func buildWithClause(node *lplan.WithClause, pctx *planctx.PlanCtx) (*RenderPlan, error) {
	inner, err := buildOperator(node.Input, pctx)
	if err != nil {
		return nil, err
	}
	items, err := expandProjectionItems(node.Items, inner, pctx)
	if err != nil {
		return nil, err
	}
	inner.Select = items
	inner.Distinct = node.Distinct

	// A WITH clause's own WHERE/ORDER BY/SKIP/LIMIT see the row stream it
	// just projected, so a bare reference to one of its own scalar exports
	// (`WITH u.age AS age WHERE age > 18`) names that same expression, not
	// a column the CTE has materialized yet — substitute it back in before
	// attaching to inner, which still computes these clauses directly
	// against the underlying scan.
	scalarExprs := scalarExportExprs(node, pctx)
	whereExpr, err := substituteAliases(node.Where, scalarExprs)
	if err != nil {
		return nil, err
	}
	if whereExpr != nil {
		inner.Where = append(inner.Where, whereExpr)
	}
	for _, it := range node.OrderBy {
		e, err := substituteAliases(it.Expr, scalarExprs)
		if err != nil {
			return nil, err
		}
		inner.OrderBy = append(inner.OrderBy, OrderItem{Expr: e, Descending: it.Descending})
	}
	skipExpr, err := substituteAliases(node.Skip, scalarExprs)
	if err != nil {
		return nil, err
	}
	inner.Offset = skipExpr
	limitExpr, err := substituteAliases(node.Limit, scalarExprs)
	if err != nil {
		return nil, err
	}
	inner.Limit = limitExpr

	columns := make([]string, 0, len(items))
	for _, it := range items {
		name := it.Alias
		if name == "" {
			name = it.Expr.String()
		}
		columns = append(columns, name)
	}
	cteName := cteutil.GenerateCTEName(node.ExportedAliases, pctx.NextCTEName())

	outer := newRenderPlan()
	outer.CTEs = append(outer.CTEs, NamedCTE{Name: cteName, Columns: columns, Body: inner})
	outer.From = FromSource{Table: cteName, Alias: cteName, IsCTE: true}
	for i, alias := range node.ExportedAliases {
		outer.mapAlias(alias, cteName)
		if _, isScalar := scalarExprs[alias]; isScalar {
			outer.mapScalarColumn(alias, cteName+"."+columns[i])
		} else {
			outer.markCTEEntity(alias)
		}
	}
	return outer, nil
}

// scalarExportExprs collects the underlying expression behind every
// WithClause export that is NOT a bare whole-entity (node/relationship)
// reference, keyed by its exported alias. These are the aliases whose own
// WHERE/ORDER BY/SKIP/LIMIT clauses may reference them directly, and whose
// later uses resolve through a single CTE column rather than
// cteutil-encoded property columns.
func scalarExportExprs(node *lplan.WithClause, pctx *planctx.PlanCtx) map[string]lexpr.Expr {
	out := make(map[string]lexpr.Expr, len(node.Items))
	for i, alias := range node.ExportedAliases {
		if i >= len(node.Items) {
			continue
		}
		expr := node.Items[i].Expr
		if ref, ok := expr.(*lexpr.UnresolvedRef); ok && ref.Property == "" {
			if _, ok := pctx.LookupTable(ref.Alias); ok {
				continue
			}
		}
		out[alias] = expr
	}
	return out
}

// substituteAliases rewrites every bare (no-property) UnresolvedRef in e
// whose alias is a key of subst into the expression it stands for. Used to
// resolve a WITH clause's own scalar exports when they're referenced by
// that same clause's WHERE/ORDER BY/SKIP/LIMIT, before the CTE that would
// otherwise carry them exists.
func substituteAliases(e lexpr.Expr, subst map[string]lexpr.Expr) (lexpr.Expr, error) {
	if e == nil {
		return nil, nil
	}
	return lexpr.TransformUp(e, func(n lexpr.Expr) (lexpr.Expr, error) {
		ref, ok := n.(*lexpr.UnresolvedRef)
		if !ok || ref.Property != "" {
			return n, nil
		}
		if repl, ok := subst[ref.Alias]; ok {
			return repl, nil
		}
		return n, nil
	})
}

func buildCartesianProduct(node *lplan.CartesianProduct, pctx *planctx.PlanCtx) (*RenderPlan, error) {
	left, err := buildOperator(node.Left, pctx)
	if err != nil {
		return nil, err
	}
	right, err := buildOperator(node.Right, pctx)
	if err != nil {
		return nil, err
	}
	kind := JoinInner
	if node.Optional {
		kind = JoinLeft
	}
	left.Joins = append(left.Joins, Join{Source: right.From, On: node.JoinCondition, Kind: kind})
	left.Joins = append(left.Joins, right.Joins...)
	left.RawWhere = append(left.RawWhere, right.RawWhere...)
	for k, v := range right.aliasMap {
		left.mapAlias(k, v)
	}
	for k := range right.cteEntities {
		left.markCTEEntity(k)
	}
	for k, v := range right.scalarColumns {
		left.mapScalarColumn(k, v)
	}
	return left, nil
}

func buildNestedUnion(node *lplan.Union, pctx *planctx.PlanCtx) (*RenderPlan, error) {
	u, err := BuildUnion(node, pctx)
	if err != nil {
		return nil, err
	}
	text, _, err := u.ToSQL()
	if err != nil {
		return nil, err
	}
	rp := newRenderPlan()
	rp.From = FromSource{Table: "(" + text + ")"}
	return rp, nil
}

// UnionPlan is the render-level shape of an lplan.Union: a set of branch
// RenderPlans combined with UNION/UNION ALL.
type UnionPlan struct {
	Branches []*RenderPlan
	All      bool
}

// BuildUnion lowers an lplan.Union's branches independently; plan
// sanitization already collapses a single-branch Union away, so this is
// only reached with two or more.
func BuildUnion(node *lplan.Union, pctx *planctx.PlanCtx) (*UnionPlan, error) {
	branches := make([]*RenderPlan, 0, len(node.Inputs))
	for _, in := range node.Inputs {
		b, err := buildOperator(in, pctx)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return &UnionPlan{Branches: branches, All: node.All}, nil
}

// buildGraphJoins lowers the central analyzer output: a left-deep chain of
// resolved joins plus whichever strategy each one was assigned. It resolves
// the right endpoint's and the relationship's own table from pctx directly
// (GraphJoins never carries their subplans, by design — see
// analyzer/graph_join_inference.go) and remaps denormalized aliases onto
// whichever physical alias actually carries their columns.
func buildGraphJoins(node *lplan.GraphJoins, pctx *planctx.PlanCtx) (*RenderPlan, error) {
	rp, err := buildOperator(node.Input, pctx)
	if err != nil {
		return nil, err
	}

	optional := make(map[string]bool, len(node.OptionalAliases))
	for _, a := range node.OptionalAliases {
		optional[a] = true
	}

	for _, spec := range node.Joins {
		kind := JoinInner
		if spec.Optional || optional[spec.RightAlias] {
			kind = JoinLeft
		}
		switch spec.Strategy {
		case lplan.JoinFkEdge:
			// The "edge table" is the right endpoint's own node table
			// carrying an FK; one join covers both the relationship alias
			// and the right node alias, so both logical aliases resolve
			// through the same physical scan.
			rightSrc, err := fromSourceFor(spec.RightAlias, pctx)
			if err != nil {
				return nil, err
			}
			rp.Joins = append(rp.Joins, Join{Source: rightSrc, On: spec.On, Kind: kind})
			rp.mapAlias(spec.RelAlias, spec.RightAlias)

		case lplan.JoinCoupledSameRow:
			// Endpoints and edge all live on one row; a single scan
			// (aliased as the relationship) covers every logical alias
			// this join touches.
			relSrc, err := fromSourceFor(spec.RelAlias, pctx)
			if err != nil {
				return nil, err
			}
			rp.Joins = append(rp.Joins, Join{Source: relSrc, On: spec.On, Kind: kind})
			rp.mapAlias(spec.LeftAlias, spec.RelAlias)
			rp.mapAlias(spec.RightAlias, spec.RelAlias)

		case lplan.JoinSingleTableScan:
			// One endpoint's properties are embedded on the edge row; the
			// edge table is scanned once, and the denormalized endpoint is
			// remapped onto it instead of getting its own join.
			tc, _ := pctx.LookupTable(spec.RelAlias)
			denormalized := tc != nil && tc.RelSchema != nil && tc.RelSchema.DenormalizedTo
			relSrc, err := fromSourceFor(spec.RelAlias, pctx)
			if err != nil {
				return nil, err
			}
			if denormalized {
				rp.Joins = append(rp.Joins, Join{Source: relSrc, On: spec.On, Kind: kind})
				rp.mapAlias(spec.RightAlias, spec.RelAlias)
			} else {
				// The endpoint still has its own row; split the combined
				// predicate the same way JoinTraditional does.
				rightSrc, err := fromSourceFor(spec.RightAlias, pctx)
				if err != nil {
					return nil, err
				}
				leftOn, rightOn := splitJoinPredicate(spec.On, spec.RightAlias, rp.aliasMap)
				rp.Joins = append(rp.Joins, Join{Source: relSrc, On: leftOn, Kind: kind})
				rp.Joins = append(rp.Joins, Join{Source: rightSrc, On: rightOn, Kind: kind})
			}

		case lplan.JoinEdgeToEdge:
			// Intermediate nodes are purely denormalized; the relationship
			// alias carries the only physical scan for this leg, and the
			// right endpoint (itself another edge's relationship alias in
			// the chain) resolves through whatever that edge already
			// mapped.
			relSrc, err := fromSourceFor(spec.RelAlias, pctx)
			if err != nil {
				return nil, err
			}
			rp.Joins = append(rp.Joins, Join{Source: relSrc, On: spec.On, Kind: kind})
			rp.mapAlias(spec.RightAlias, spec.RelAlias)

		default: // JoinTraditional
			relSrc, err := fromSourceFor(spec.RelAlias, pctx)
			if err != nil {
				return nil, err
			}
			rightSrc, err := fromSourceFor(spec.RightAlias, pctx)
			if err != nil {
				return nil, err
			}
			leftOn, rightOn := splitJoinPredicate(spec.On, spec.RightAlias, rp.aliasMap)
			rp.Joins = append(rp.Joins, Join{Source: relSrc, On: leftOn, Kind: kind})
			rp.Joins = append(rp.Joins, Join{Source: rightSrc, On: rightOn, Kind: kind})
		}

		if tc, ok := pctx.LookupTable(spec.RelAlias); ok && tc.RelSchema != nil && tc.RelSchema.Filter != "" {
			rp.RawWhere = append(rp.RawWhere, tc.RelSchema.Filter)
		}
	}

	for _, cteName := range node.CTEReferences {
		rp.Joins = append(rp.Joins, Join{Source: FromSource{Table: cteName, Alias: cteName, IsCTE: true}})
	}
	for _, pred := range node.CorrelationPredicates {
		rp.Where = append(rp.Where, pred)
	}
	return rp, nil
}

// fromSourceFor resolves alias's physical table/CTE source from its
// TableCtx, handling both ordinary nodes/relationships and variable-length
// endpoints (which resolve through their recursive CTE instead of a table).
func fromSourceFor(alias string, pctx *planctx.PlanCtx) (FromSource, error) {
	tc, ok := pctx.LookupTable(alias)
	if !ok {
		return FromSource{}, errUnresolvedAlias(alias)
	}
	if tc.VLPEndpoint.IsVLPEndpoint {
		return FromSource{Table: tc.VLPEndpoint.CTEName, Alias: alias, IsCTE: true}, nil
	}
	if tc.RelSchema != nil {
		return FromSource{Table: tc.RelSchema.Table, Alias: alias}, nil
	}
	if tc.Schema != nil {
		return FromSource{Table: tc.Schema.Table, Alias: alias}, nil
	}
	return FromSource{}, errUnresolvedAlias(alias)
}

// splitJoinPredicate divides a single ANDed join predicate (built by
// analyzer/graph_join_inference.go's buildJoinPredicate, which combines
// both endpoints' id equalities into one expression) into the part that
// only needs the left-side join's aliases already in scope and the part
// that also references rightAlias, which can only be evaluated once the
// right join source has been introduced.
func splitJoinPredicate(on lexpr.Expr, rightAlias string, aliasMap map[string]string) (leftLeg, rightLeg lexpr.Expr) {
	for _, conjunct := range splitConjuncts(on) {
		if referencesAlias(conjunct, rightAlias, aliasMap) {
			rightLeg = andExpr(rightLeg, conjunct)
		} else {
			leftLeg = andExpr(leftLeg, conjunct)
		}
	}
	return leftLeg, rightLeg
}

func andExpr(acc, next lexpr.Expr) lexpr.Expr {
	if acc == nil {
		return next
	}
	return lexpr.NewBinary(lexpr.OpAnd, acc, next)
}

func splitConjuncts(e lexpr.Expr) []lexpr.Expr {
	if e == nil {
		return nil
	}
	b, ok := e.(*lexpr.Binary)
	if !ok || b.Op != lexpr.OpAnd {
		return []lexpr.Expr{e}
	}
	return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
}

func referencesAlias(e lexpr.Expr, alias string, aliasMap map[string]string) bool {
	if e == nil {
		return false
	}
	if col, ok := e.(*lexpr.ColumnRef); ok {
		physical := col.TableAlias
		if aliasMap != nil {
			if p, ok := aliasMap[physical]; ok {
				physical = p
			}
		}
		return physical == alias || col.TableAlias == alias
	}
	for _, c := range e.Children() {
		if referencesAlias(c, alias, aliasMap) {
			return true
		}
	}
	return false
}

// expandProjectionItems lowers every ProjectionItem into one or more
// SelectItems, expanding a whole-entity reference (bare node/relationship
// variable, or a path variable) into its id/label/property tuple per
// §4.4's Projection rule.
func expandProjectionItems(items []lplan.ProjectionItem, rp *RenderPlan, pctx *planctx.PlanCtx) ([]SelectItem, error) {
	var out []SelectItem
	for _, it := range items {
		expanded, err := expandProjectionItem(it, rp, pctx)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandProjectionItem(it lplan.ProjectionItem, rp *RenderPlan, pctx *planctx.PlanCtx) ([]SelectItem, error) {
	switch e := it.Expr.(type) {
	case *lexpr.UnresolvedRef:
		if e.Property != "" {
			break
		}
		if tc, ok := pctx.LookupTable(e.Alias); ok {
			return expandEntityRef(e.Alias, it.Alias, tc, rp), nil
		}
	case *lexpr.PathVariableRef:
		return expandPathRef(e.Alias, it.Alias), nil
	}
	return []SelectItem{{Expr: it.Expr, Alias: it.Alias}}, nil
}

// expandEntityRef emits a node's or relationship's id column(s), a label/
// type marker literal (for Bolt round-trip on the client side), and every
// property the analyzer recorded a need for via TableCtx.PropertyNeeds.
func expandEntityRef(alias, itemAlias string, tc *planctx.TableCtx, rp *RenderPlan) []SelectItem {
	physical := rp.resolveAlias(alias)
	crossedWith := rp.cteEntities != nil && rp.cteEntities[alias]
	// column resolves a real schema column into the text a SELECT item
	// should read: the schema column name normally, or the CTE's own
	// encoded export name when alias's physical source is a WITH-generated
	// CTE rather than the original scan (the CTE never exposes the raw
	// schema column names, only the encoded ones it was built with).
	column := func(col string) string {
		if crossedWith {
			return cteutil.CTEColumnName(alias, col)
		}
		return col
	}
	var out []SelectItem

	if tc.Schema != nil {
		for _, idCol := range tc.Schema.IDColumns {
			out = append(out, SelectItem{
				Expr:  lexpr.NewColumnRef(physical, column(idCol)),
				Alias: cteutil.CTEColumnName(alias, idCol),
			})
		}
		labelItem := SelectItem{
			Expr:  lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitString, Str: tc.Schema.Label}),
			Alias: cteutil.CTEColumnName(alias, "_label"),
		}
		if crossedWith {
			labelItem.Expr = lexpr.NewColumnRef(physical, column("_label"))
		}
		out = append(out, labelItem)
		names := sortedKeys(tc.PropertyNeeds)
		for _, prop := range names {
			col, ok := tc.Schema.ResolveProperty(prop)
			if !ok {
				continue
			}
			out = append(out, SelectItem{
				Expr:  lexpr.NewColumnRef(physical, column(col)),
				Alias: cteutil.CTEColumnName(alias, prop),
			})
		}
	} else if tc.RelSchema != nil {
		for _, idCol := range tc.RelSchema.FromIDColumns {
			out = append(out, SelectItem{Expr: lexpr.NewColumnRef(physical, column(idCol)), Alias: cteutil.CTEColumnName(alias, "from_"+idCol)})
		}
		for _, idCol := range tc.RelSchema.ToIDColumns {
			out = append(out, SelectItem{Expr: lexpr.NewColumnRef(physical, column(idCol)), Alias: cteutil.CTEColumnName(alias, "to_"+idCol)})
		}
		typeItem := SelectItem{
			Expr:  lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitString, Str: tc.RelSchema.Type}),
			Alias: cteutil.CTEColumnName(alias, "_type"),
		}
		if crossedWith {
			typeItem.Expr = lexpr.NewColumnRef(physical, column("_type"))
		}
		out = append(out, typeItem)
		names := sortedKeys(tc.PropertyNeeds)
		for _, prop := range names {
			col, ok := tc.RelSchema.ResolveProperty(prop)
			if !ok {
				continue
			}
			out = append(out, SelectItem{
				Expr:  lexpr.NewColumnRef(physical, column(col)),
				Alias: cteutil.CTEColumnName(alias, prop),
			})
		}
	}
	if len(out) == 0 {
		// No resolved schema yet (e.g. a scalar variable bound by UNWIND):
		// fall back to a bare reference under the requested alias.
		return []SelectItem{{Expr: lexpr.NewUnresolvedRef(alias, ""), Alias: itemAlias}}
	}
	return out
}

// expandPathRef emits the path tuple (path_nodes, hop_count,
// path_relationships) from the enclosing VLP CTE, per §4.4's Path-ref rule.
func expandPathRef(alias, itemAlias string) []SelectItem {
	prefix := itemAlias
	if prefix == "" {
		prefix = alias
	}
	return []SelectItem{
		{Expr: lexpr.NewColumnRef(alias, "path_nodes"), Alias: cteutil.CTEColumnName(prefix, "path_nodes")},
		{Expr: lexpr.NewColumnRef(alias, "hop_count"), Alias: cteutil.CTEColumnName(prefix, "hop_count")},
		{Expr: lexpr.NewColumnRef(alias, "path_relationships"), Alias: cteutil.CTEColumnName(prefix, "path_relationships")},
	}
}

// buildCorrelated lowers a CorrelatedSubquery's nested plan and, for a
// pattern-comprehension (not a bare EXISTS check), wraps it with the
// projection expression the comprehension asked for.
func buildCorrelated(c *lexpr.CorrelatedSubquery) (*RenderPlan, error) {
	plan, ok := c.Plan.(lplan.Node)
	if !ok {
		return nil, errUnresolvedAlias("<correlated subquery>")
	}
	rp, err := buildOperator(plan, c.Ctx)
	if err != nil {
		return nil, err
	}
	if c.IsExists {
		rp.Select = []SelectItem{{Expr: lexpr.NewLiteral(lexpr.Literal{Kind: lexpr.LitInt, Int: 1})}}
		return rp, nil
	}
	if c.Project != nil {
		rp.Select = []SelectItem{{Expr: lexpr.NewFunctionCall("collect", []lexpr.Expr{c.Project}, false, true)}}
	}
	return rp, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
