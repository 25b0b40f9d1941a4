// Package category holds the pure rules of the catalog hierarchy: building
// and walking the tree, detecting cycles and guarding mutations. Every
// function takes a flat snapshot and never performs I/O.
package category

import "github.com/anmar534/loctah-sub000/internal/domain"

// BuildTree nests flat into parent-child trees and returns the roots in input
// order. A node whose parent is missing from flat is kept as a root. Members
// of a stored cycle are never dropped: the cycle is cut at the first member
// reached from input order, which is appended as an extra root with its
// stored ParentID untouched. Nodes are shallow copies; Level is set on every
// node.
func BuildTree(flat []domain.Category) []*domain.Category {
	nodes := make(map[string]*domain.Category, len(flat))
	for i := range flat {
		n := flat[i]
		n.Children = nil
		nodes[n.ID] = &n
	}

	roots := make([]*domain.Category, 0)
	for i := range flat {
		n := nodes[flat[i].ID]
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	reached := make(map[string]struct{}, len(flat))
	for _, r := range roots {
		markReached(r, reached)
	}
	for i := range flat {
		if _, ok := reached[flat[i].ID]; ok {
			continue
		}
		head := cycleMember(nodes[flat[i].ID], nodes)
		parent := nodes[*head.ParentID]
		parent.Children = removeChild(parent.Children, head)
		roots = append(roots, head)
		markReached(head, reached)
	}

	for _, r := range roots {
		setLevels(r, 0)
	}
	return roots
}

// cycleMember climbs from n, which no root reaches, until an ancestor
// repeats. Every ancestor of such a node exists in nodes.
func cycleMember(n *domain.Category, nodes map[string]*domain.Category) *domain.Category {
	seen := make(map[string]struct{})
	cur := n
	for {
		if _, dup := seen[cur.ID]; dup {
			return cur
		}
		seen[cur.ID] = struct{}{}
		cur = nodes[*cur.ParentID]
	}
}

func removeChild(children []*domain.Category, child *domain.Category) []*domain.Category {
	out := children[:0]
	for _, c := range children {
		if c != child {
			out = append(out, c)
		}
	}
	return out
}

func markReached(root *domain.Category, reached map[string]struct{}) {
	stack := []*domain.Category{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := reached[n.ID]; ok {
			continue
		}
		reached[n.ID] = struct{}{}
		stack = append(stack, n.Children...)
	}
}

// setLevels walks iteratively. BuildTree cuts every cycle first, so the walk
// terminates.
func setLevels(root *domain.Category, level int) {
	type item struct {
		node  *domain.Category
		level int
	}
	stack := []item{{root, level}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		it.node.Level = it.level
		for _, c := range it.node.Children {
			stack = append(stack, item{c, it.level + 1})
		}
	}
}

// FlattenTree lists the trees in pre-order, each parent before its children.
// Returned records have no Children.
func FlattenTree(roots []*domain.Category) []domain.Category {
	out := make([]domain.Category, 0, len(roots))
	stack := make([]*domain.Category, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rec := *n
		rec.Children = nil
		out = append(out, rec)

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// PathTo returns the chain from the root down to id, inclusive. The walk
// stops at a root, at an unknown parent or on revisiting a node, so corrupt
// data cannot loop it. An unknown id yields an empty path.
func PathTo(id string, flat []domain.Category) []domain.Category {
	chain := ancestry(id, indexByID(flat))
	path := make([]domain.Category, len(chain))
	for i, c := range chain {
		rec := *c
		rec.Children = nil
		path[len(chain)-1-i] = rec
	}
	return path
}

// LevelOf returns the number of hops from id up to its root; 0 for a root or
// an unknown id.
func LevelOf(id string, flat []domain.Category) int {
	chain := ancestry(id, indexByID(flat))
	if len(chain) == 0 {
		return 0
	}
	return len(chain) - 1
}

// WithLevels returns a copy of flat with Level derived from the parent chain.
func WithLevels(flat []domain.Category) []domain.Category {
	index := indexByID(flat)
	out := make([]domain.Category, len(flat))
	for i, c := range flat {
		c.Level = max(len(ancestry(c.ID, index))-1, 0)
		c.Children = nil
		out[i] = c
	}
	return out
}

// ancestry walks from id towards the root, starting with id itself.
func ancestry(id string, index map[string]*domain.Category) []*domain.Category {
	var chain []*domain.Category
	seen := make(map[string]struct{})
	for cur, ok := index[id]; ok; {
		if _, dup := seen[cur.ID]; dup {
			break
		}
		seen[cur.ID] = struct{}{}
		chain = append(chain, cur)
		if cur.IsRoot() {
			break
		}
		cur, ok = index[*cur.ParentID]
	}
	return chain
}

func indexByID(flat []domain.Category) map[string]*domain.Category {
	index := make(map[string]*domain.Category, len(flat))
	for i := range flat {
		index[flat[i].ID] = &flat[i]
	}
	return index
}
