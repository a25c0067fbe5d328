package lplan

// TransformUp rewrites every child of n bottom-up, then applies f to n
// itself, mirroring the teacher's plan.TransformUp over sql.Node.
func TransformUp(n Node, f func(Node) (Node, error)) (Node, error) {
	children := n.Children()
	if len(children) == 0 {
		return f(n)
	}
	newChildren := make([]Node, len(children))
	for i, c := range children {
		nc, err := TransformUp(c, f)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
	}
	rebuilt, err := n.WithChildren(newChildren...)
	if err != nil {
		return nil, err
	}
	return f(rebuilt)
}

// Walk visits n and every descendant, depth-first, calling f for each. If f
// returns false, Walk does not descend into that node's children.
func Walk(n Node, f func(Node) bool) {
	if !f(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, f)
	}
}

// FindAll collects every node in n's tree matching pred.
func FindAll(n Node, pred func(Node) bool) []Node {
	var out []Node
	Walk(n, func(x Node) bool {
		if pred(x) {
			out = append(out, x)
		}
		return true
	})
	return out
}

// CountNodes returns the number of nodes in the plan tree rooted at n,
// used by the duplicate-scan-removal pass to pick the cheaper of two
// structurally-equal subplans when hashes collide on cost, not just shape.
func CountNodes(n Node) int {
	count := 1
	for _, c := range n.Children() {
		count += CountNodes(c)
	}
	return count
}
