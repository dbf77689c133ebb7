// Package hover describes the component under the cursor in a template.
package hover

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/walteh/ngtmpls/pkg/completion"
	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

// Info is the markdown shown for a hovered node. Start and End are byte
// offsets of the node in the template.
type Info struct {
	Content string
	Start   int
	End     int
}

// Hover returns a description of the known component whose tag name, or
// one of whose bound attributes, is under offset.
func Hover(tree *syntax.Tree, offset int, index *component.Index) (*Info, bool) {
	cctx := completion.DetectContext(tree, offset)

	switch cctx.Kind {
	case completion.TagNameContext:
		return tagInfo(tree, cctx.Node, index)
	case completion.AttributeNameContext:
		return attributeInfo(tree, cctx, index)
	}

	// end tags are not covered by DetectContext
	name, ok := syntax.FindNode(tree, tree.Root(), offset, "tag_name")
	if !ok {
		return nil, false
	}
	return tagInfo(tree, name, index)
}

func tagInfo(tree *syntax.Tree, name syntax.NodeID, index *component.Index) (*Info, bool) {
	c, ok := index.Get(tree.Text(name))
	if !ok {
		return nil, false
	}
	n := tree.Node(name)
	return &Info{Content: FormatComponent(c), Start: n.Start, End: n.End}, true
}

func attributeInfo(tree *syntax.Tree, cctx completion.Context, index *component.Index) (*Info, bool) {
	c, ok := index.Get(cctx.Selector)
	if !ok {
		return nil, false
	}

	raw := tree.Text(cctx.Node)
	name := BindingName(raw)

	var kind string
	switch {
	case slices.Contains(c.Inputs, name) && !strings.HasPrefix(raw, "("):
		kind = "input"
	case slices.Contains(c.Outputs, name) && !strings.HasPrefix(raw, "["):
		kind = "output"
	default:
		return nil, false
	}

	n := tree.Node(cctx.Node)
	return &Info{
		Content: fmt.Sprintf("(%s) `%s` of **%s**", kind, name, c.ClassName),
		Start:   n.Start,
		End:     n.End,
	}, true
}

// BindingName strips property and event binding brackets from an attribute
// name, so "[value]", "(changed)" and "[(value)]" give the bare member name.
func BindingName(attr string) string {
	return strings.Trim(attr, "[]()")
}

// FormatComponent renders a component as a markdown hover card.
func FormatComponent(c *component.Component) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `<%s>`\n", c.ClassName, c.Selector)
	if len(c.Inputs) > 0 {
		fmt.Fprintf(&sb, "\ninputs: %s\n", codeList(c.Inputs))
	}
	if len(c.Outputs) > 0 {
		fmt.Fprintf(&sb, "\noutputs: %s\n", codeList(c.Outputs))
	}
	if c.Location.Path != "" {
		start := c.Location.Range.Start
		fmt.Fprintf(&sb, "\ndeclared in %s:%d:%d\n", filepath.Base(c.Location.Path), start.Line+1, start.Character+1)
	}
	return sb.String()
}

func codeList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}
