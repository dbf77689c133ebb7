package syntax

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"gitlab.com/tozd/go/errors"
)

var ErrParse = errors.New("parse failed")

type Grammar struct {
	name string
	lang *sitter.Language
}

var (
	typescriptGrammar = &Grammar{name: "typescript", lang: typescript.GetLanguage()}
	htmlGrammar       = &Grammar{name: "html", lang: html.GetLanguage()}
)

func TypeScript() *Grammar { return typescriptGrammar }

func HTML() *Grammar { return htmlGrammar }

func (g *Grammar) Name() string {
	return g.name
}

// Parse builds a fresh tree for src. Parsers are not shared between calls, so
// Parse is safe to call from multiple goroutines.
func (g *Grammar) Parse(ctx context.Context, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang)

	raw, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Errorf("%s: %w: %s", g.name, ErrParse, err.Error())
	}
	if raw == nil {
		return nil, errors.Errorf("%s: %w: no tree produced", g.name, ErrParse)
	}

	return newTree(g, src, raw), nil
}
