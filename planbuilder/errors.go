package planbuilder

import "gopkg.in/src-d/go-errors.v1"

// ErrUnsupportedExpr fires when the AST carries an expression shape the
// logical-plan builder cannot lower (a malformed property chain, an
// operator lowerExpr has no mapping for).
var ErrUnsupportedExpr = errors.NewKind("unsupported expression: %s")

// ErrEmptyPattern fires when a MATCH pattern has no nodes at all, which
// the parser should never produce but which the builder still rejects
// defensively rather than indexing out of range.
var ErrEmptyPattern = errors.NewKind("pattern has no nodes")

// ErrPathVariableConflict fires when a path variable name collides with
// an already-bound alias in the same scope.
var ErrPathVariableConflict = errors.NewKind("path variable %q conflicts with an existing alias")

func errUnsupportedExpr(detail string) error {
	return ErrUnsupportedExpr.New(detail)
}

func errEmptyPattern() error {
	return ErrEmptyPattern.New()
}

func errPathVariableConflict(alias string) error {
	return ErrPathVariableConflict.New(alias)
}
