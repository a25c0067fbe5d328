package parser

import (
	"fmt"

	"gopkg.in/src-d/go-errors.v1"
)

// ParseError carries the position, expected-token set, and a descriptive
// context string for a malformed query. It is returned, never panicked,
// for every structural parse failure.
type ParseError struct {
	Line, Column int
	Context      string
	Expected     []string
	Got          string
}

func (e *ParseError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("parse error at %d:%d (%s): unexpected %q", e.Line, e.Column, e.Context, e.Got)
	}
	return fmt.Sprintf("parse error at %d:%d (%s): expected one of %v, got %q", e.Line, e.Column, e.Context, e.Expected, e.Got)
}

// Dedicated messages for VLP validation.
var (
	ErrVLPZeroHop   = errors.NewKind("variable-length relationship has a zero-hop bound: %s")
	ErrVLPInverted  = errors.NewKind("variable-length relationship bounds are inverted (min %d > max %d)")
	ErrSuffixOrder  = errors.NewKind("ORDER BY/SKIP/LIMIT must appear in that order; found %s before %s")
)
