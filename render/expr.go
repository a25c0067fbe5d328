package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cyphersql/translator/cteutil"
	"github.com/cyphersql/translator/lexpr"
	"github.com/spf13/cast"
)

// emitResult threads both the SQL text and the ordered list of parameter
// names a subexpression referenced, so the top-level caller can bind
// positional `?` placeholders in the order they appear in the emitted text.
type emitResult struct {
	sql    string
	params []string
}

// AliasScope bundles the aliasing information SQL emission needs to resolve
// a logical pattern alias at render time.
type AliasScope struct {
	// Physical remaps a logical alias onto the FROM/JOIN alias that
	// actually carries its columns (a denormalized endpoint folded onto its
	// edge's own scan).
	Physical map[string]string
	// CTEEntities is the set of aliases whose physical source is a
	// WITH-generated CTE but that still carry node/relationship property
	// needs; column access against them must go through the CTE's encoded
	// column names (cteutil.CTEColumnName), not the raw schema column name.
	CTEEntities map[string]bool
	// ScalarColumns maps a WITH-exported scalar alias directly onto its
	// single fully-qualified CTE column, for a bare reference to it later
	// (e.g. `WITH u.age AS age WHERE age > 18`).
	ScalarColumns map[string]string
}

// EmitExpr renders a logical expression as SQL text, resolving any
// pattern-alias-carrying node (ColumnRef, UnresolvedRef) through scope first
// so a denormalized endpoint's reference lands on the physical alias that
// actually carries its columns, and a WITH-crossed alias resolves through
// its CTE's own column names. It returns the SQL text and the ordered list
// of parameter names referenced, left to right, so callers can bind
// positional placeholders in the same order.
func EmitExpr(e lexpr.Expr, scope *AliasScope) (string, []string, error) {
	r, err := emit(e, scope)
	if err != nil {
		return "", nil, err
	}
	return r.sql, r.params, nil
}

func resolvePhysical(alias string, scope *AliasScope) string {
	if scope != nil && scope.Physical != nil {
		if phys, ok := scope.Physical[alias]; ok {
			return phys
		}
	}
	return alias
}

// resolveColumn renders alias.column, going through the CTE's own encoded
// column name instead of the raw column/property text when alias crossed a
// WITH boundary as a node/relationship reference.
func resolveColumn(alias, column string, scope *AliasScope) string {
	physical := resolvePhysical(alias, scope)
	if scope != nil && scope.CTEEntities != nil && scope.CTEEntities[alias] {
		return physical + "." + cteutil.CTEColumnName(alias, column)
	}
	return physical + "." + column
}

func emit(e lexpr.Expr, scope *AliasScope) (emitResult, error) {
	switch v := e.(type) {
	case *lexpr.Literal:
		return emitResult{sql: literalSQL(v)}, nil

	case *lexpr.ColumnRef:
		return emitResult{sql: resolveColumn(v.TableAlias, v.Column, scope)}, nil

	case *lexpr.UnresolvedRef:
		if v.Property == "" {
			if scope != nil && scope.ScalarColumns != nil {
				if full, ok := scope.ScalarColumns[v.Alias]; ok {
					return emitResult{sql: full}, nil
				}
			}
			return emitResult{}, errUnsupportedExpr(v)
		}
		return emitResult{sql: resolveColumn(v.Alias, v.Property, scope)}, nil

	case *lexpr.Parameter:
		return emitResult{sql: "?", params: []string{v.Name}}, nil

	case *lexpr.Binary:
		return emitBinary(v, scope)

	case *lexpr.Unary:
		return emitUnary(v, scope)

	case *lexpr.FunctionCall:
		return emitFunctionCall(v, scope)

	case *lexpr.ListLiteral:
		return emitList(v, scope)

	case *lexpr.MapLiteral:
		return emitResult{}, errUnsupportedExpr(v)

	case *lexpr.Case:
		return emitCase(v, scope)

	case *lexpr.Subscript:
		return emitSubscript(v, scope)

	case *lexpr.Slice:
		return emitSlice(v, scope)

	case *lexpr.PathVariableRef:
		return emitResult{sql: cteutil.CTEColumnName(v.Alias, "path_nodes")}, nil

	case *lexpr.LabelCheck:
		return emitResult{}, errUnsupportedExpr(v)

	case *lexpr.CorrelatedSubquery:
		return emitCorrelatedSubquery(v, scope)

	default:
		return emitResult{}, errUnsupportedExpr(e)
	}
}

func literalSQL(l *lexpr.Literal) string {
	switch l.Kind {
	case lexpr.LitNull:
		return "NULL"
	case lexpr.LitBool:
		if l.Bool {
			return "TRUE"
		}
		return "FALSE"
	case lexpr.LitInt:
		return cast.ToString(l.Int)
	case lexpr.LitFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case lexpr.LitString:
		return quoteStringLiteral(l.Str)
	default:
		return "NULL"
	}
}

// quoteStringLiteral escapes a Cypher string literal for SQL text by
// doubling embedded single quotes; literal values never come from user
// input directly (parameters do, and those render as `?` placeholders), so
// this only needs to produce valid SQL syntax, not defend against injection.
func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var binaryOpText = map[lexpr.BinaryOp]string{
	lexpr.OpAdd:  "+",
	lexpr.OpSub:  "-",
	lexpr.OpMul:  "*",
	lexpr.OpDiv:  "/",
	lexpr.OpMod:  "%",
	lexpr.OpEq:   "=",
	lexpr.OpNeq:  "!=",
	lexpr.OpLt:   "<",
	lexpr.OpLte:  "<=",
	lexpr.OpGt:   ">",
	lexpr.OpGte:  ">=",
	lexpr.OpAnd:  "AND",
	lexpr.OpOr:   "OR",
	lexpr.OpXor:  "XOR",
	lexpr.OpIn:   "IN",
}

func emitBinary(b *lexpr.Binary, scope *AliasScope) (emitResult, error) {
	left, err := emit(b.Left, scope)
	if err != nil {
		return emitResult{}, err
	}
	right, err := emit(b.Right, scope)
	if err != nil {
		return emitResult{}, err
	}
	params := append(append([]string{}, left.params...), right.params...)

	switch b.Op {
	case lexpr.OpPow:
		return emitResult{sql: fmt.Sprintf("pow(%s, %s)", left.sql, right.sql), params: params}, nil
	case lexpr.OpStartsWith:
		return emitResult{sql: fmt.Sprintf("startsWith(%s, %s)", left.sql, right.sql), params: params}, nil
	case lexpr.OpEndsWith:
		return emitResult{sql: fmt.Sprintf("endsWith(%s, %s)", left.sql, right.sql), params: params}, nil
	case lexpr.OpContains:
		return emitResult{sql: fmt.Sprintf("position(%s, %s) > 0", left.sql, right.sql), params: params}, nil
	case lexpr.OpRegexMatch:
		return emitResult{sql: fmt.Sprintf("match(%s, %s)", left.sql, right.sql), params: params}, nil
	case lexpr.OpIn:
		return emitResult{sql: fmt.Sprintf("%s IN %s", left.sql, right.sql), params: params}, nil
	}

	op, ok := binaryOpText[b.Op]
	if !ok {
		return emitResult{}, errUnsupportedExpr(b)
	}
	return emitResult{sql: fmt.Sprintf("(%s %s %s)", left.sql, op, right.sql), params: params}, nil
}

func emitUnary(u *lexpr.Unary, scope *AliasScope) (emitResult, error) {
	operand, err := emit(u.Operand, scope)
	if err != nil {
		return emitResult{}, err
	}
	switch u.Op {
	case lexpr.OpNot:
		return emitResult{sql: "NOT (" + operand.sql + ")", params: operand.params}, nil
	case lexpr.OpNeg:
		return emitResult{sql: "-(" + operand.sql + ")", params: operand.params}, nil
	case lexpr.OpIsNull:
		return emitResult{sql: operand.sql + " IS NULL", params: operand.params}, nil
	case lexpr.OpIsNotNull:
		return emitResult{sql: operand.sql + " IS NOT NULL", params: operand.params}, nil
	default:
		return emitResult{}, errUnsupportedExpr(u)
	}
}

// aggregateSQLName maps Cypher aggregate function names onto their SQL
// equivalents where the spelling differs; anything absent here is passed
// through verbatim (covers collect -> groupArray and the common case where
// the name already matches, e.g. count/sum/avg/min/max).
var aggregateSQLName = map[string]string{
	"collect": "groupArray",
}

func emitFunctionCall(f *lexpr.FunctionCall, scope *AliasScope) (emitResult, error) {
	name := f.Name
	if f.IsAggregate {
		if mapped, ok := aggregateSQLName[strings.ToLower(name)]; ok {
			name = mapped
		}
	}
	args := make([]string, 0, len(f.Args))
	var params []string
	for _, a := range f.Args {
		r, err := emit(a, scope)
		if err != nil {
			return emitResult{}, err
		}
		args = append(args, r.sql)
		params = append(params, r.params...)
	}
	distinct := ""
	if f.Distinct {
		distinct = "DISTINCT "
	}
	return emitResult{sql: fmt.Sprintf("%s(%s%s)", name, distinct, strings.Join(args, ", ")), params: params}, nil
}

func emitList(l *lexpr.ListLiteral, scope *AliasScope) (emitResult, error) {
	items := make([]string, 0, len(l.Items))
	var params []string
	for _, it := range l.Items {
		r, err := emit(it, scope)
		if err != nil {
			return emitResult{}, err
		}
		items = append(items, r.sql)
		params = append(params, r.params...)
	}
	return emitResult{sql: "[" + strings.Join(items, ", ") + "]", params: params}, nil
}

func emitCase(c *lexpr.Case, scope *AliasScope) (emitResult, error) {
	var b strings.Builder
	var params []string
	b.WriteString("CASE")
	if c.Operand != nil {
		r, err := emit(c.Operand, scope)
		if err != nil {
			return emitResult{}, err
		}
		b.WriteString(" " + r.sql)
		params = append(params, r.params...)
	}
	for _, branch := range c.Branches {
		when, err := emit(branch.When, scope)
		if err != nil {
			return emitResult{}, err
		}
		then, err := emit(branch.Then, scope)
		if err != nil {
			return emitResult{}, err
		}
		b.WriteString(fmt.Sprintf(" WHEN %s THEN %s", when.sql, then.sql))
		params = append(params, when.params...)
		params = append(params, then.params...)
	}
	if c.Else != nil {
		r, err := emit(c.Else, scope)
		if err != nil {
			return emitResult{}, err
		}
		b.WriteString(" ELSE " + r.sql)
		params = append(params, r.params...)
	}
	b.WriteString(" END")
	return emitResult{sql: b.String(), params: params}, nil
}

func emitSubscript(s *lexpr.Subscript, scope *AliasScope) (emitResult, error) {
	base, err := emit(s.Base, scope)
	if err != nil {
		return emitResult{}, err
	}
	idx, err := emit(s.Index, scope)
	if err != nil {
		return emitResult{}, err
	}
	params := append(append([]string{}, base.params...), idx.params...)
	return emitResult{sql: fmt.Sprintf("%s[%s]", base.sql, idx.sql), params: params}, nil
}

func emitSlice(s *lexpr.Slice, scope *AliasScope) (emitResult, error) {
	base, err := emit(s.Base, scope)
	if err != nil {
		return emitResult{}, err
	}
	from := "1"
	params := append([]string{}, base.params...)
	if s.From != nil {
		r, err := emit(s.From, scope)
		if err != nil {
			return emitResult{}, err
		}
		from = fmt.Sprintf("(%s) + 1", r.sql)
		params = append(params, r.params...)
	}
	to := "length(" + base.sql + ")"
	if s.To != nil {
		r, err := emit(s.To, scope)
		if err != nil {
			return emitResult{}, err
		}
		to = r.sql
		params = append(params, r.params...)
	}
	return emitResult{sql: fmt.Sprintf("arraySlice(%s, %s, %s)", base.sql, from, to), params: params}, nil
}

// emitCorrelatedSubquery lowers a pattern-comprehension or EXISTS subquery
// that pattern-comprehension rewriting has already analyzed into its own
// sub-plan. IsExists renders a bare EXISTS(...); otherwise the nested plan
// is wrapped so its single projected column becomes the outer collect(...)
// argument, matching how the analyzer models a comprehension as
// collect(projection-expr FROM correlated-subquery).
func emitCorrelatedSubquery(c *lexpr.CorrelatedSubquery, scope *AliasScope) (emitResult, error) {
	rp, err := buildCorrelated(c)
	if err != nil {
		return emitResult{}, err
	}
	sql, params, err := rp.ToSQL()
	if err != nil {
		return emitResult{}, err
	}
	if c.IsExists {
		return emitResult{sql: "EXISTS (" + sql + ")", params: params}, nil
	}
	return emitResult{sql: "(" + sql + ")", params: params}, nil
}
