package completion

import (
	"github.com/walteh/ngtmpls/pkg/syntax"
)

// ContextKind says what the cursor is sitting on inside a template.
type ContextKind int

const (
	NoContext ContextKind = iota
	TagNameContext
	AttributeNameContext
)

func (k ContextKind) String() string {
	switch k {
	case TagNameContext:
		return "tag_name"
	case AttributeNameContext:
		return "attribute_name"
	default:
		return "none"
	}
}

var tagKinds = []string{"start_tag", "self_closing_tag"}

// Context holds information about the completion request context
type Context struct {
	Kind ContextKind
	// Tag is the enclosing start or self-closing tag.
	Tag syntax.NodeID
	// Node is the tag_name or attribute_name under the cursor.
	Node syntax.NodeID
	// Selector is the enclosing tag's own name, set for attribute contexts.
	Selector string
}

// DetectContext classifies offset within a parsed template. A tag name match
// wins over an attribute name match.
func DetectContext(tree *syntax.Tree, offset int) Context {
	none := Context{Kind: NoContext, Tag: syntax.NoNode, Node: syntax.NoNode}

	tag, ok := syntax.FindNode(tree, tree.Root(), offset, tagKinds...)
	if !ok {
		return none
	}

	if name, ok := syntax.FindNode(tree, tag, offset, "tag_name"); ok {
		return Context{Kind: TagNameContext, Tag: tag, Node: name}
	}

	attr, ok := syntax.FindNode(tree, tag, offset, "attribute_name")
	if !ok {
		return none
	}

	first, ok := tree.NamedChild(tag, 0)
	if !ok || tree.Node(first).Kind != "tag_name" {
		return none
	}

	return Context{
		Kind:     AttributeNameContext,
		Tag:      tag,
		Node:     attr,
		Selector: tree.Text(first),
	}
}
