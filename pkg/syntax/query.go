package syntax

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"
)

// Query is a compiled tree-sitter pattern bound to one grammar. A Query may be
// shared by concurrent Tree.Query calls; each call gets its own cursor.
type Query struct {
	grammar *Grammar
	raw     *sitter.Query
	names   []string
}

func CompileQuery(g *Grammar, pattern string) (*Query, error) {
	raw, err := sitter.NewQuery([]byte(pattern), g.lang)
	if err != nil {
		return nil, errors.Errorf("compiling %s query: %w", g.name, err)
	}

	names := make([]string, raw.CaptureCount())
	for i := range names {
		names[i] = raw.CaptureNameForId(uint32(i))
	}

	return &Query{grammar: g, raw: raw, names: names}, nil
}

// Captures returns the capture names declared by the pattern.
func (q *Query) Captures() []string {
	return q.names
}

type Capture struct {
	Name string
	Node NodeID
}

type Match struct {
	Pattern  int
	Captures []Capture
}

// Get returns the first node captured under name.
func (m Match) Get(name string) (NodeID, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node, true
		}
	}
	return NoNode, false
}

// Query runs q over the whole tree and returns the matches whose captures all
// fall inside scope. Matches that fail a #eq? or #match? predicate are dropped.
func (t *Tree) Query(ctx context.Context, q *Query, scope NodeID) ([]Match, error) {
	if q.grammar != t.grammar {
		return nil, errors.Errorf("query for %s run against %s tree", q.grammar.name, t.grammar.name)
	}
	if t.raw == nil {
		return nil, errors.New("tree is closed")
	}

	bounds := t.nodes[scope]

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q.raw, t.raw.RootNode())

	var out []Match
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("running query: %w", err)
		}

		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		m = qc.FilterPredicates(m, t.source)
		if len(m.Captures) == 0 {
			continue
		}

		match := Match{Pattern: int(m.PatternIndex)}
		inside := true
		for _, c := range m.Captures {
			id, found := t.idOf(c.Node)
			if !found {
				inside = false
				break
			}
			n := t.nodes[id]
			if n.Start < bounds.Start || n.End > bounds.End {
				inside = false
				break
			}
			match.Captures = append(match.Captures, Capture{Name: q.names[c.Index], Node: id})
		}
		if inside {
			out = append(out, match)
		}
	}

	return out, nil
}
