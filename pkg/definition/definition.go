// Package definition resolves a component tag in a template to the class
// that declares it.
package definition

import (
	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

// SelectorAt returns the tag name under offset, if any. Both start and end
// tags count.
func SelectorAt(tree *syntax.Tree, offset int) (string, bool) {
	name, ok := syntax.FindNode(tree, tree.Root(), offset, "tag_name")
	if !ok {
		return "", false
	}
	return tree.Text(name), true
}

// Resolve returns the declaration of the component whose tag is under
// offset. Unknown tags and positions outside a tag name resolve to nothing.
func Resolve(tree *syntax.Tree, offset int, index *component.Index) (component.Location, bool) {
	selector, ok := SelectorAt(tree, offset)
	if !ok {
		return component.Location{}, false
	}

	c, ok := index.Get(selector)
	if !ok {
		return component.Location{}, false
	}
	return c.Location, true
}
