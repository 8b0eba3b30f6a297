package queryir

// Flatten collapses the maximal run of Or nodes rooted at or into a single
// BoolGroup. Operands keep their left-to-right order. BoolGroups met inside
// the run are absorbed since they are disjunctions too; any other node
// (And, Not, leaves) ends the run and is kept whole.
func Flatten(or Or) BoolGroup {
	children := make([]Node, 0, 2)
	children = collectOr(or.Left, children)
	children = collectOr(or.Right, children)
	return BoolGroup{Children: children}
}

func collectOr(n Node, out []Node) []Node {
	switch v := n.(type) {
	case Or:
		out = collectOr(v.Left, out)
		return collectOr(v.Right, out)
	case BoolGroup:
		for _, c := range v.Children {
			out = collectOr(c, out)
		}
		return out
	default:
		return append(out, n)
	}
}

// Optimize rewrites every maximal Or run in the tree into a BoolGroup and
// leaves everything else untouched. The result matches exactly the same
// documents as n.
func Optimize(n Node) Node {
	switch v := n.(type) {
	case Or:
		group := Flatten(v)
		for i, c := range group.Children {
			group.Children[i] = Optimize(c)
		}
		return group
	case BoolGroup:
		children := make([]Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = Optimize(c)
		}
		return BoolGroup{Children: children}
	case And:
		return And{Left: Optimize(v.Left), Right: Optimize(v.Right)}
	case Not:
		return Not{Child: Optimize(v.Child)}
	default:
		return n
	}
}

// Depth returns the boolean nesting depth of n: leaves are 0 and each
// combinator adds one level above its deepest child.
func Depth(n Node) int {
	switch v := n.(type) {
	case And:
		return 1 + max(Depth(v.Left), Depth(v.Right))
	case Or:
		return 1 + max(Depth(v.Left), Depth(v.Right))
	case Not:
		return 1 + Depth(v.Child)
	case BoolGroup:
		d := 0
		for _, c := range v.Children {
			d = max(d, Depth(c))
		}
		return 1 + d
	default:
		return 0
	}
}

// Leaves returns the non-combinator nodes of n in left-to-right order.
func Leaves(n Node) []Node {
	var out []Node
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case And:
			walk(v.Left)
			walk(v.Right)
		case Or:
			walk(v.Left)
			walk(v.Right)
		case Not:
			walk(v.Child)
		case BoolGroup:
			for _, c := range v.Children {
				walk(c)
			}
		default:
			out = append(out, n)
		}
	}
	walk(n)
	return out
}
