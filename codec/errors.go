package codec

import "gopkg.in/src-d/go-errors.v1"

// Error kinds for the element-id codec, one per malformed-input case the
// parser can encounter.
var (
	ErrInvalidFormat  = errors.NewKind("invalid element id format: %s (got %q)")
	ErrMissingLabel   = errors.NewKind("missing label in element id")
	ErrMissingID      = errors.NewKind("missing id value in element id")
	ErrMissingRelType = errors.NewKind("missing relationship type in element id")
	ErrMissingFromID  = errors.NewKind("missing from_id in relationship element id")
	ErrMissingToID    = errors.NewKind("missing to_id in relationship element id")
)

// Integer-codec error kinds.
var (
	ErrLabelRegistryExhausted = errors.NewKind("label code registry exhausted after code %d; further labels collide on code 255")
	ErrIDOutOfRange           = errors.NewKind("id value %d exceeds the 56-bit range the integer codec can encode")
)
