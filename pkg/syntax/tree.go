/*
Package syntax parses text with tree-sitter grammars and exposes the result
as an arena of nodes addressed by index.

	   text
	     |
	  Grammar.Parse (tree-sitter)
	     |
	     v
	+-----------+      Tree.Query      +-----------+
	|   Tree    | -------------------> |  Matches  |
	| []Node    |                      | (NodeIDs) |
	+-----------+                      +-----------+
	     |
	  FindNode(offset, kinds...)
	     v
	   NodeID

Trees are immutable once built. An edit produces a brand new Tree; nothing
holds a pointer into an old one, so there is no ownership to untangle.
*/
package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// NodeID indexes Tree.Nodes.
type NodeID int32

const NoNode NodeID = -1

// Point is a zero-based row and byte column as reported by tree-sitter.
type Point struct {
	Row    int
	Column int
}

type Node struct {
	Kind       string
	Named      bool
	Start      int
	End        int
	StartPoint Point
	EndPoint   Point

	Parent      NodeID
	FirstChild  NodeID
	NextSibling NodeID
}

// Contains reports whether offset lies within the node, inclusive on both ends.
func (n Node) Contains(offset int) bool {
	return n.Start <= offset && offset <= n.End
}

type spanKey struct {
	start, end uint32
	kind       string
}

type Tree struct {
	grammar *Grammar
	source  []byte
	nodes   []Node

	// raw is kept alive for query execution only.
	raw    *sitter.Tree
	lookup map[spanKey]NodeID
}

func newTree(grammar *Grammar, source []byte, raw *sitter.Tree) *Tree {
	t := &Tree{
		grammar: grammar,
		source:  source,
		raw:     raw,
		lookup:  make(map[spanKey]NodeID),
	}
	t.add(raw.RootNode(), NoNode)
	return t
}

func (t *Tree) add(n *sitter.Node, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Kind:        n.Type(),
		Named:       n.IsNamed(),
		Start:       int(n.StartByte()),
		End:         int(n.EndByte()),
		StartPoint:  Point{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
		EndPoint:    Point{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
		Parent:      parent,
		FirstChild:  NoNode,
		NextSibling: NoNode,
	})

	key := spanKey{start: n.StartByte(), end: n.EndByte(), kind: n.Type()}
	if _, ok := t.lookup[key]; !ok {
		t.lookup[key] = id
	}

	prev := NoNode
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		cid := t.add(child, id)
		if prev == NoNode {
			t.nodes[id].FirstChild = cid
		} else {
			t.nodes[prev].NextSibling = cid
		}
		prev = cid
	}

	return id
}

func (t *Tree) idOf(n *sitter.Node) (NodeID, bool) {
	id, ok := t.lookup[spanKey{start: n.StartByte(), end: n.EndByte(), kind: n.Type()}]
	return id, ok
}

func (t *Tree) Grammar() *Grammar {
	return t.grammar
}

func (t *Tree) Source() []byte {
	return t.source
}

func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

func (t *Tree) Text(id NodeID) string {
	n := t.nodes[id]
	return string(t.source[n.Start:n.End])
}

// Children returns the direct children of id in source order.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.nodes[id].FirstChild; c != NoNode; c = t.nodes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// NamedChild returns the i-th named child of id.
func (t *Tree) NamedChild(id NodeID, i int) (NodeID, bool) {
	for c := t.nodes[id].FirstChild; c != NoNode; c = t.nodes[c].NextSibling {
		if !t.nodes[c].Named {
			continue
		}
		if i == 0 {
			return c, true
		}
		i--
	}
	return NoNode, false
}

// PrevNamedSibling returns the closest named node before id under the same
// parent.
func (t *Tree) PrevNamedSibling(id NodeID) (NodeID, bool) {
	parent := t.nodes[id].Parent
	if parent == NoNode {
		return NoNode, false
	}
	prev := NoNode
	for c := t.nodes[parent].FirstChild; c != NoNode && c != id; c = t.nodes[c].NextSibling {
		if t.nodes[c].Named {
			prev = c
		}
	}
	return prev, prev != NoNode
}

// HasError reports whether tree-sitter had to recover from a syntax error.
func (t *Tree) HasError() bool {
	return t.raw.RootNode().HasError()
}

// Close releases the underlying tree-sitter tree. Queries fail afterwards;
// navigation keeps working on the arena.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
		t.raw = nil
	}
}
