package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order, visiting a node before its
// children and children in source order.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *ExprStmt:
		Walk(n.X, v)

	case *ReturnStmt:
		Walk(n.Result, v)

	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		Walk(n.Else, v)

	case *WhileStmt:
		Walk(n.Cond, v)
		Walk(n.Body, v)

	case *ForStmt:
		if n.Init != nil {
			Walk(n.Init, v)
		}
		if n.Cond != nil {
			Walk(n.Cond, v)
		}
		if n.Post != nil {
			Walk(n.Post, v)
		}
		Walk(n.Body, v)

	case *BinaryExpr:
		Walk(n.X, v)
		Walk(n.Y, v)

	case *NumberLit, *LocalVar:
		// leaves
	}
}

// Inspect calls f for each node of the tree rooted at node.
func Inspect(node Node, f func(Node) bool) {
	Walk(node, Visitor(f))
}
