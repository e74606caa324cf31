package ast

// Inspect traverses the tree rooted at node in depth-first order, calling
// f for each node. If f returns false, the children of that node are
// skipped. Declarations are not visited.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, fn := range n.Functions {
			Inspect(fn, f)
		}
	case *Function:
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *Block:
		for _, m := range n.Members {
			Inspect(m, f)
		}
	case *Assignment:
		Inspect(n.Target, f)
		Inspect(n.Source, f)
	case *Conditional:
		Inspect(n.Test, f)
		Inspect(n.Then, f)

		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *Loop:
		Inspect(n.Test, f)
		Inspect(n.Body, f)
	case *Print:
		Inspect(n.Expr, f)
	case *CallStatement:
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Return:
		Inspect(n.Result, f)
	case *Binary:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Unary:
		Inspect(n.Operand, f)
	case *CallExpression:
		for _, a := range n.Args {
			Inspect(a, f)
		}
	}
}

// Returns collects every Return statement in the tree rooted at node.
func Returns(node Node) []*Return {
	var out []*Return

	Inspect(node, func(n Node) bool {
		if r, ok := n.(*Return); ok {
			out = append(out, r)
		}

		return true
	})

	return out
}
