package analyzer

import "gopkg.in/src-d/go-errors.v1"

// ErrSchemaRequired fires in the required schema-inference pass (which runs
// before label inference) when a relationship whose type and endpoint
// labels are known has no registered schema variant. A declared node label
// with no registered schema surfaces as the catalog's ErrNodeLabelNotFound.
var ErrSchemaRequired = errors.NewKind("no schema found for %q %q")

// ErrLabelInferenceFailed fires when any GraphNode remains unlabelled
// after the label-inference pass reaches a fixed point.
var ErrLabelInferenceFailed = errors.NewKind("cannot infer a label for alias %q")

// ErrAmbiguousEndpoint fires when a relationship type has more than one
// registered (from, to) variant and neither endpoint carries a declared
// label to disambiguate. No analyzer pass currently returns this kind.
var ErrAmbiguousEndpoint = errors.NewKind("relationship type %q is ambiguous between %q and %q without a declared endpoint label")

// ErrInvalidDirection fires when query validation finds a declared
// direction that no registered schema variant can satisfy; callers may
// choose to degrade to lplan.Empty instead of propagating this.
var ErrInvalidDirection = errors.NewKind("relationship %q has no schema variant compatible with its declared direction")

// ErrVLPBoundExceeded fires when a multi-type variable-length pattern
// enumerates more concrete type combinations than the configured bound.
var ErrVLPBoundExceeded = errors.NewKind("variable-length pattern enumerates %d type combinations, exceeding the bound of %d")

// ErrUnresolvedProperty fires when query validation finds a property
// reference that does not exist on its resolved schema.
var ErrUnresolvedProperty = errors.NewKind("alias %q has no property %q on its resolved schema")

// ErrInvalidPattern fires when a PatternComprehensionRef or
// ExistsSubqueryRef reaches the rewriting pass without the *ast.ConnectedPattern
// planbuilder is expected to have attached.
var ErrInvalidPattern = errors.NewKind("%s carries no resolvable pattern")

func errSchemaRequired(kind, name string) error {
	return ErrSchemaRequired.New(kind, name)
}

func errLabelInferenceFailed(alias string) error {
	return ErrLabelInferenceFailed.New(alias)
}

func errAmbiguousEndpoint(relType, a, b string) error {
	return ErrAmbiguousEndpoint.New(relType, a, b)
}

func errVLPBoundExceeded(count, bound int) error {
	return ErrVLPBoundExceeded.New(count, bound)
}

func errUnresolvedProperty(alias, prop string) error {
	return ErrUnresolvedProperty.New(alias, prop)
}

func errInvalidPattern(kind string) error {
	return ErrInvalidPattern.New(kind)
}
