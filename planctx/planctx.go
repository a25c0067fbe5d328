// Package planctx is the mutable, per-query context threaded through
// planbuilder and every analyzer pass: alias bindings, variable kinds,
// CTE bookkeeping, and the WITH-clause scope chain. Nothing here is
// shared across queries — a fresh PlanCtx is built per translation and
// frozen (by convention, simply no longer written to) once the analyzer
// pipeline finishes.
package planctx

import "github.com/cyphersql/translator/catalog"

// VariableKind is the semantic type a bound alias carries.
type VariableKind int

const (
	KindNode VariableKind = iota
	KindRelationship
	KindScalar
	KindPath
	KindList
)

// VariableSource records where an alias was introduced, for diagnostics
// and for the analyzer passes that only care about certain origins (e.g.
// UNWIND-sourced aliases never get label inference).
type VariableSource int

const (
	SourceMatch VariableSource = iota
	SourceCTE
	SourceParameter
	SourceUnwind
)

// Variable is one entry in the PlanCtx.variables registry.
type Variable struct {
	Alias  string
	Kind   VariableKind
	Source VariableSource
}

// JoinStrategyHint names how a GraphRel is rendered. TableCtx.JoinStrategy
// carries one, but no pass sets it (it stays JoinHintNone); the
// graph-join-inference pass records its choice on lplan.GraphJoinSpec.Strategy.
type JoinStrategyHint int

const (
	JoinHintNone JoinStrategyHint = iota
	JoinHintTraditional
	JoinHintSingleTableScan
	JoinHintEdgeToEdge
	JoinHintCoupledSameRow
	JoinHintFkEdge
)

// VLPEndpointInfo records the variable-length-path role of a TableCtx, set
// by the graph-traversal-planning pass when an alias is an anchor or
// terminal endpoint of a recursive-CTE expansion.
type VLPEndpointInfo struct {
	IsVLPEndpoint bool
	CTEName       string
	IsAnchor      bool
}

// TableCtx is the per-alias binding record.
type TableCtx struct {
	Alias             string
	Labels            []string
	LabelsInferred    bool
	Schema            *catalog.NodeSchema
	RelSchema         *catalog.RelationshipSchema
	PropertyNeeds     map[string]bool
	JoinStrategy      JoinStrategyHint
	VLPEndpoint       VLPEndpointInfo
	OptionalMatch     bool
}

// RequireProperty marks that the plan needs a property read from this
// alias, used by the projection-tagging pass to decide the render layer's
// SELECT list without re-walking the whole expression tree.
func (t *TableCtx) RequireProperty(name string) {
	if t.PropertyNeeds == nil {
		t.PropertyNeeds = make(map[string]bool)
	}
	t.PropertyNeeds[name] = true
}

// CTEAliasSource records that an alias now resolves through a CTE column
// rather than a direct TableCtx, because it crossed a WITH boundary.
type CTEAliasSource struct {
	CTEName string
	Column  string
}

// CTEInfo is the column/entity-type bookkeeping for one generated CTE.
type CTEInfo struct {
	Name        string
	Columns     []string
	EntityTypes map[string]VariableKind
}

// PlanCtx is the scope-chained, per-query mutable context.
type PlanCtx struct {
	parent     *PlanCtx
	isWithScope bool

	tables    map[string]*TableCtx
	variables map[string]*Variable

	cteCounter      int
	ctes            map[string]*CTEInfo
	cteAliasSources map[string]CTEAliasSource

	TenantID        string
	ViewParamValues map[string]catalog.ViewParamValue
	Schema          *catalog.Schema
	MaxInferredType int
	optionalAliases map[string]bool
}

// NewRoot creates the top-level PlanCtx for a query against schema.
func NewRoot(schema *catalog.Schema, tenantID string) *PlanCtx {
	return &PlanCtx{
		tables:          make(map[string]*TableCtx),
		variables:       make(map[string]*Variable),
		ctes:            make(map[string]*CTEInfo),
		cteAliasSources: make(map[string]CTEAliasSource),
		TenantID:        tenantID,
		ViewParamValues: make(map[string]catalog.ViewParamValue),
		Schema:          schema,
		optionalAliases: make(map[string]bool),
	}
}

// NewWithScope opens a new WITH-boundary scope: a scope barrier lookups
// climb through to resolve exported aliases, but never skip past.
func (p *PlanCtx) NewWithScope() *PlanCtx {
	return &PlanCtx{
		parent:          p,
		isWithScope:     true,
		tables:          make(map[string]*TableCtx),
		variables:       make(map[string]*Variable),
		ctes:            p.ctes,
		cteAliasSources: make(map[string]CTEAliasSource),
		TenantID:        p.TenantID,
		ViewParamValues: p.ViewParamValues,
		Schema:          p.Schema,
		MaxInferredType: p.MaxInferredType,
		optionalAliases: make(map[string]bool),
		cteCounter:      p.cteCounter,
	}
}

// NewChildScope opens a non-barrier scope (used for pattern comprehensions
// and EXISTS subqueries): lookups climb past it transparently, but aliases
// registered inside it do not leak to the parent.
func (p *PlanCtx) NewChildScope() *PlanCtx {
	child := p.NewWithScope()
	child.isWithScope = false
	return child
}

// Parent returns the enclosing scope, or nil at the root.
func (p *PlanCtx) Parent() *PlanCtx { return p.parent }

// IsWithScope reports whether this scope is a WITH-clause barrier.
func (p *PlanCtx) IsWithScope() bool { return p.isWithScope }

// DefineTable registers alias in this scope. Returns ErrDuplicateAlias if
// alias is already bound in this exact scope (shadowing an ancestor scope
// is allowed; redefining within one scope is not).
func (p *PlanCtx) DefineTable(alias string, tc *TableCtx) error {
	if _, exists := p.tables[alias]; exists {
		return errDuplicateAlias(alias)
	}
	tc.Alias = alias
	p.tables[alias] = tc
	return nil
}

// LookupTable resolves alias by climbing the scope chain, stopping at (but
// including) the first WITH barrier it crosses — a WITH scope's own table
// is visible to itself, but the climb does not continue past it into the
// grandparent once a barrier scope has been checked.
func (p *PlanCtx) LookupTable(alias string) (*TableCtx, bool) {
	for scope := p; scope != nil; scope = scope.parent {
		if tc, ok := scope.tables[alias]; ok {
			return tc, true
		}
		if scope.isWithScope {
			return nil, false
		}
	}
	return nil, false
}

// DefineVariable registers a non-table-scoped alias (scalar, path, list).
func (p *PlanCtx) DefineVariable(v *Variable) error {
	if _, exists := p.variables[v.Alias]; exists {
		return errDuplicateAlias(v.Alias)
	}
	p.variables[v.Alias] = v
	return nil
}

// LookupVariable resolves alias the same way LookupTable does.
func (p *PlanCtx) LookupVariable(alias string) (*Variable, bool) {
	for scope := p; scope != nil; scope = scope.parent {
		if v, ok := scope.variables[alias]; ok {
			return v, true
		}
		if scope.isWithScope {
			return nil, false
		}
	}
	return nil, false
}

// NextCTEName allocates a fresh, incrementing discriminator for CTE names
// that collide on their sorted-alias prefix; see cteutil.GenerateCTEName.
func (p *PlanCtx) NextCTEName() int {
	root := p
	for root.parent != nil {
		root = root.parent
	}
	root.cteCounter++
	return root.cteCounter
}

// RegisterCTE records the shape of a generated CTE for later alias
// resolution via CTEAliasSource.
func (p *PlanCtx) RegisterCTE(info *CTEInfo) {
	p.ctes[info.Name] = info
}

// LookupCTE returns the registered shape of a named CTE, if any.
func (p *PlanCtx) LookupCTE(name string) (*CTEInfo, bool) {
	info, ok := p.ctes[name]
	return info, ok
}

// MarkCrossedWithBoundary records that alias now resolves through the
// given CTE column rather than a direct TableCtx/Variable.
func (p *PlanCtx) MarkCrossedWithBoundary(alias, cteName, column string) {
	p.cteAliasSources[alias] = CTEAliasSource{CTEName: cteName, Column: column}
}

// LookupCTEAliasSource resolves an alias that crossed a WITH boundary.
func (p *PlanCtx) LookupCTEAliasSource(alias string) (CTEAliasSource, bool) {
	for scope := p; scope != nil; scope = scope.parent {
		if src, ok := scope.cteAliasSources[alias]; ok {
			return src, true
		}
	}
	return CTEAliasSource{}, false
}

// MarkOptional records that alias was bound under an OPTIONAL MATCH.
func (p *PlanCtx) MarkOptional(alias string) { p.optionalAliases[alias] = true }

// IsOptional reports whether alias (in any ancestor scope) was bound
// under an OPTIONAL MATCH.
func (p *PlanCtx) IsOptional(alias string) bool {
	for scope := p; scope != nil; scope = scope.parent {
		if scope.optionalAliases[alias] {
			return true
		}
	}
	return false
}

// AllTablesInScope returns every TableCtx directly registered in this
// scope (not ancestors), used by passes that need to iterate the current
// MATCH/WITH unit rather than resolve a single alias.
func (p *PlanCtx) AllTablesInScope() map[string]*TableCtx {
	return p.tables
}
