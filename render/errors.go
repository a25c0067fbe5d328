package render

import "gopkg.in/src-d/go-errors.v1"

// ErrUnsupportedNode fires when the render-plan builder walks a logical
// plan operator it has no construction rule for. Every lplan operator
// except GraphRel has a rule; the graph-join-inference pass folds GraphRel
// into GraphJoins, so this fires when a GraphRel reaches render unfolded.
var ErrUnsupportedNode = errors.NewKind("render plan construction has no rule for %s")

// ErrUnresolvedAlias fires when the render layer needs an alias's table
// name (to emit a FROM/JOIN entry or resolve a whole-entity projection) but
// the plan context never got a resolved schema for it.
var ErrUnresolvedAlias = errors.NewKind("alias %q has no resolved table by render time")

// ErrUnsupportedExpr fires for an lexpr.Expr kind the SQL emitter has no
// rendering rule for.
var ErrUnsupportedExpr = errors.NewKind("SQL emission has no rule for expression kind %T")

func errUnsupportedNode(kind string) error { return ErrUnsupportedNode.New(kind) }
func errUnresolvedAlias(alias string) error { return ErrUnresolvedAlias.New(alias) }
func errUnsupportedExpr(e interface{}) error { return ErrUnsupportedExpr.New(e) }
