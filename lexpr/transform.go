package lexpr

// TransformUp rewrites every child of e bottom-up, then applies f to e
// itself, mirroring the teacher's plan.TransformUp over sql.Node.
func TransformUp(e Expr, f func(Expr) (Expr, error)) (Expr, error) {
	children := e.Children()
	if len(children) == 0 {
		return f(e)
	}
	newChildren := make([]Expr, len(children))
	for i, c := range children {
		nc, err := TransformUp(c, f)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
	}
	rebuilt, err := e.WithChildren(newChildren...)
	if err != nil {
		return nil, err
	}
	return f(rebuilt)
}

// Walk visits e and every descendant, depth-first, calling f for each. If f
// returns false, Walk does not descend into that node's children.
func Walk(e Expr, f func(Expr) bool) {
	if !f(e) {
		return
	}
	for _, c := range e.Children() {
		Walk(c, f)
	}
}

// FindAll collects every node in e's tree matching pred.
func FindAll(e Expr, pred func(Expr) bool) []Expr {
	var out []Expr
	Walk(e, func(n Expr) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
