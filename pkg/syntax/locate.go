package syntax

import "slices"

// FindNode walks down from the node from toward offset and returns the first
// node on that path whose kind is one of kinds.
//
// At a node containing offset (bounds inclusive) the kind is checked and the
// walk moves to the node's first child; at a node not containing offset it
// moves to the next sibling. The walk never leaves the subtree rooted at from
// and never backtracks, so a childless containing node or an exhausted sibling
// list ends the search.
func FindNode(t *Tree, from NodeID, offset int, kinds ...string) (NodeID, bool) {
	if from == NoNode || int(from) >= len(t.nodes) {
		return NoNode, false
	}

	cur := from
	for {
		n := t.nodes[cur]
		if n.Contains(offset) {
			if slices.Contains(kinds, n.Kind) {
				return cur, true
			}
			if n.FirstChild == NoNode {
				return NoNode, false
			}
			cur = n.FirstChild
			continue
		}

		if cur == from || n.NextSibling == NoNode {
			return NoNode, false
		}
		cur = n.NextSibling
	}
}
