package category

import "github.com/anmar534/loctah-sub000/internal/domain"

// DescendantIDs returns every id below id in the hierarchy, excluding id
// itself unless corrupt data loops back to it. The expansion is breadth
// first and visits each id once, so it terminates on cyclic input.
func DescendantIDs(id string, flat []domain.Category) map[string]struct{} {
	children := make(map[string][]string, len(flat))
	for _, c := range flat {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	found := make(map[string]struct{})
	queue := append([]string(nil), children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, seen := found[next]; seen {
			continue
		}
		found[next] = struct{}{}
		queue = append(queue, children[next]...)
	}
	return found
}

// WouldCreateCycle reports whether making candidateParentID the parent of id
// would close a loop. Moving to the root (nil) never does.
func WouldCreateCycle(id string, candidateParentID *string, flat []domain.Category) bool {
	if candidateParentID == nil {
		return false
	}
	if *candidateParentID == id {
		return true
	}
	_, below := DescendantIDs(id, flat)[*candidateParentID]
	return below
}
