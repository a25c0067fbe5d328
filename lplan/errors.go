package lplan

import "gopkg.in/src-d/go-errors.v1"

var ErrWrongArity = errors.NewKind("%s.WithChildren expects %d children, got %d")

func errWrongArity(node string, want, got int) error {
	return ErrWrongArity.New(node, want, got)
}
