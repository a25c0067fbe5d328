package catalog

import "gopkg.in/src-d/go-errors.v1"

// Error kinds for the schema catalog, one distinct kind per failure:
// missing node label, missing relationship key, missing property, invalid
// id-column type, duplicate label or relationship key, empty composite-id
// column, unknown view parameter, missing view.
var (
	ErrNodeLabelNotFound = errors.NewKind("no node schema registered for label %q")
	ErrRelKeyNotFound    = errors.NewKind("no relationship schema registered for key %q")
	ErrPropertyNotFound  = errors.NewKind("property %q is not mapped on %s %q")
	ErrInvalidIDColumn   = errors.NewKind("invalid id column type for %s.%s: %s")
	ErrDuplicateLabel    = errors.NewKind("node label %q is already registered")
	ErrDuplicateRelKey   = errors.NewKind("relationship key %q is already registered")
	ErrEmptyCompositeID  = errors.NewKind("composite id for %s %q has an empty column name at position %d")
	ErrUnknownViewParam  = errors.NewKind("view %q has no parameter named %q")
	ErrViewNotFound      = errors.NewKind("no view registered named %q")
)
