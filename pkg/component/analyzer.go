package component

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/position"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

// componentQuery matches a class carrying a Component({selector: '...'})
// decorator, exported or not.
const componentQuery = `
(export_statement
	(decorator
		(call_expression
			function: (identifier) @decorator
			arguments: (arguments
				(object
					(pair
						key: (property_identifier) @key
						value: (string (string_fragment) @selector))))))
	declaration: (class_declaration
		name: (type_identifier) @class.name) @class
	(#eq? @decorator "Component")
	(#eq? @key "selector"))

(class_declaration
	(decorator
		(call_expression
			function: (identifier) @decorator
			arguments: (arguments
				(object
					(pair
						key: (property_identifier) @key
						value: (string (string_fragment) @selector))))))
	name: (type_identifier) @class.name
	(#eq? @decorator "Component")
	(#eq? @key "selector")) @class
`

// memberQuery matches the fields and methods of a class body. The decorator
// marking a member is either a child of the member or its preceding sibling,
// depending on the member kind, so it is resolved after matching.
const memberQuery = `
[
	(public_field_definition
		name: (property_identifier) @member)
	(method_definition
		name: (property_identifier) @member)
] @definition
`

const (
	markerInput  = "Input"
	markerOutput = "Output"
)

// Analyzer extracts components from TypeScript source. It holds only
// compiled queries and may be shared between goroutines.
type Analyzer struct {
	componentQ *syntax.Query
	memberQ    *syntax.Query
}

func NewAnalyzer() (*Analyzer, error) {
	components, err := syntax.CompileQuery(syntax.TypeScript(), componentQuery)
	if err != nil {
		return nil, errors.Errorf("component query: %w", err)
	}

	members, err := syntax.CompileQuery(syntax.TypeScript(), memberQuery)
	if err != nil {
		return nil, errors.Errorf("member query: %w", err)
	}

	return &Analyzer{componentQ: components, memberQ: members}, nil
}

// Extract returns the components declared in src, in source order. path is
// recorded in each component's Location.
func (a *Analyzer) Extract(ctx context.Context, path string, src []byte) ([]*Component, error) {
	var out []*Component
	err := a.extract(ctx, path, src, func(c *Component) {
		out = append(out, c)
	})
	return out, err
}

func (a *Analyzer) extract(ctx context.Context, path string, src []byte, emit func(*Component)) error {
	tree, err := syntax.TypeScript().Parse(ctx, src)
	if err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	matches, err := tree.Query(ctx, a.componentQ, tree.Root())
	if err != nil {
		return errors.Errorf("querying %s: %w", path, err)
	}

	mapper := position.NewMapper(string(src))

	for _, m := range matches {
		name, ok1 := m.Get("class.name")
		decl, ok2 := m.Get("class")
		selector, ok3 := m.Get("selector")
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		nameNode := tree.Node(name)
		c := &Component{
			Selector:  tree.Text(selector),
			ClassName: tree.Text(name),
			Location: Location{
				Path:  path,
				Range: mapper.Range(nameNode.Start, nameNode.End),
			},
		}

		if err := a.collectMembers(ctx, tree, decl, c); err != nil {
			return errors.Errorf("querying members of %s in %s: %w", c.ClassName, path, err)
		}

		zerolog.Ctx(ctx).Debug().
			Str("selector", c.Selector).
			Str("class", c.ClassName).
			Strs("inputs", c.Inputs).
			Strs("outputs", c.Outputs).
			Msg("found component")

		emit(c)
	}

	return nil
}

type member struct {
	name   string
	marker string
	start  int
}

func (a *Analyzer) collectMembers(ctx context.Context, tree *syntax.Tree, decl syntax.NodeID, c *Component) error {
	matches, err := tree.Query(ctx, a.memberQ, decl)
	if err != nil {
		return err
	}

	found := make([]member, 0, len(matches))
	for _, m := range matches {
		def, ok1 := m.Get("definition")
		name, ok2 := m.Get("member")
		if !ok1 || !ok2 {
			continue
		}
		marker, ok := markerOf(tree, def)
		if !ok {
			continue
		}
		found = append(found, member{
			name:   tree.Text(name),
			marker: marker,
			start:  tree.Node(name).Start,
		})
	}

	slices.SortStableFunc(found, func(x, y member) int {
		return x.start - y.start
	})

	for _, f := range found {
		switch f.marker {
		case markerInput:
			c.Inputs = append(c.Inputs, f.name)
		case markerOutput:
			c.Outputs = append(c.Outputs, f.name)
		}
	}

	return nil
}

// markerOf returns the name of the decorator call directly in front of the
// member def, when it is Input or Output. Comments between the two are
// skipped.
func markerOf(tree *syntax.Tree, def syntax.NodeID) (string, bool) {
	dec := syntax.NoNode
	for _, child := range tree.Children(def) {
		if tree.Node(child).Kind == "decorator" {
			dec = child
		}
	}
	if dec == syntax.NoNode {
		prev, ok := tree.PrevNamedSibling(def)
		for ok && tree.Node(prev).Kind == "comment" {
			prev, ok = tree.PrevNamedSibling(prev)
		}
		if !ok || tree.Node(prev).Kind != "decorator" {
			return "", false
		}
		dec = prev
	}

	call, ok := tree.NamedChild(dec, 0)
	if !ok || tree.Node(call).Kind != "call_expression" {
		return "", false
	}
	fn, ok := tree.NamedChild(call, 0)
	if !ok || tree.Node(fn).Kind != "identifier" {
		return "", false
	}

	switch marker := tree.Text(fn); marker {
	case markerInput, markerOutput:
		return marker, true
	default:
		return "", false
	}
}

// AnalyzeFile reads path from fs and puts each component it declares into
// index as soon as it is found.
func (a *Analyzer) AnalyzeFile(ctx context.Context, fs afero.Fs, path string, index *Index) (int, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, errors.Errorf("reading %s: %w", path, err)
	}

	count := 0
	err = a.extract(ctx, path, src, func(c *Component) {
		if index.Put(c) {
			zerolog.Ctx(ctx).Debug().
				Str("selector", c.Selector).
				Str("path", path).
				Msg("selector already indexed, replaced")
		}
		count++
	})
	return count, err
}
