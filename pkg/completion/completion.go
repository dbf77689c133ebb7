// Package completion suggests component selectors and bindings inside
// template markup.
package completion

import (
	"fmt"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/lsp/protocol"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

// Complete returns the completion items for offset in a template tree. It
// never fails; an unrecognised position gives no items.
func Complete(tree *syntax.Tree, offset int, index *component.Index) []protocol.CompletionItem {
	cctx := DetectContext(tree, offset)

	switch cctx.Kind {
	case TagNameContext:
		return selectorItems(index)
	case AttributeNameContext:
		c, ok := index.Get(cctx.Selector)
		if !ok {
			return nil
		}
		return bindingItems(c)
	default:
		return nil
	}
}

func selectorItems(index *component.Index) []protocol.CompletionItem {
	all := index.All()
	items := make([]protocol.CompletionItem, 0, len(all))
	for _, c := range all {
		items = append(items, protocol.CompletionItem{
			Label:  c.Selector,
			Kind:   protocol.KeywordCompletion,
			Detail: c.ClassName,
		})
	}
	return items
}

func bindingItems(c *component.Component) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(c.Inputs)+len(c.Outputs))
	for _, name := range c.Inputs {
		items = append(items, snippet(name, fmt.Sprintf(`[%s]="$0"`, name), "input of "+c.ClassName))
	}
	for _, name := range c.Outputs {
		items = append(items, snippet(name, fmt.Sprintf(`(%s)="$0"`, name), "output of "+c.ClassName))
	}
	return items
}

func snippet(label, body, detail string) protocol.CompletionItem {
	format := protocol.SnippetTextFormat
	return protocol.CompletionItem{
		Label:            label,
		Kind:             protocol.FieldCompletion,
		Detail:           detail,
		InsertText:       body,
		InsertTextFormat: &format,
	}
}
