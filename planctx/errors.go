package planctx

import "gopkg.in/src-d/go-errors.v1"

// ErrDuplicateAlias fires when a MATCH/WITH/UNWIND clause tries to bind an
// alias already defined in the same scope.
var ErrDuplicateAlias = errors.NewKind("alias %q is already bound in this scope")

// ErrUnresolvedAlias fires when an expression references an alias that
// resolves to neither a TableCtx, a Variable, nor a CTE column in the
// current scope chain.
var ErrUnresolvedAlias = errors.NewKind("alias %q is not bound in this or any enclosing scope")

// ErrMissingLabel describes an alias with no label, declared or inferred.
// No pass returns this kind; an alias left unlabelled is reported by the
// analyzer's ErrLabelInferenceFailed.
var ErrMissingLabel = errors.NewKind("alias %q has no declared or inferable label")

func errDuplicateAlias(alias string) error {
	return ErrDuplicateAlias.New(alias)
}

func errUnresolvedAlias(alias string) error {
	return ErrUnresolvedAlias.New(alias)
}

func errMissingLabel(alias string) error {
	return ErrMissingLabel.New(alias)
}
