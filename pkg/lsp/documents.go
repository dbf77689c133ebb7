package lsp

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/lsp/protocol"
	"github.com/walteh/ngtmpls/pkg/position"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

// normalizeURI ensures consistent URI handling by removing the file:// prefix if present
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// Document is one version of an open template. A new Document replaces the
// old one on every change; the content, tree and mapper always agree.
type Document struct {
	URI        string
	LanguageID protocol.LanguageKind
	Version    int32
	Content    string
	Tree       *syntax.Tree
	Mapper     *position.Mapper
}

// DocumentManager handles document operations
type DocumentManager struct {
	grammar *syntax.Grammar
	store   *sync.Map // map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		grammar: syntax.HTML(),
		store:   &sync.Map{},
	}
}

// Open parses text and stores it under uri, replacing any earlier version.
func (m *DocumentManager) Open(ctx context.Context, uri protocol.DocumentURI, languageID protocol.LanguageKind, version int32, text string) (*Document, error) {
	tree, err := m.grammar.Parse(ctx, []byte(text))
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", uri, err)
	}

	doc := &Document{
		URI:        normalizeURI(string(uri)),
		LanguageID: languageID,
		Version:    version,
		Content:    text,
		Tree:       tree,
		Mapper:     position.NewMapper(text),
	}

	if prev, loaded := m.store.Swap(doc.URI, doc); loaded {
		// trees are freed by the finalizer go-tree-sitter sets; readers
		// holding the previous version keep working
		zerolog.Ctx(ctx).Trace().Str("uri", doc.URI).Int32("replaced_version", prev.(*Document).Version).Msg("document replaced")
	}

	return doc, nil
}

// Change applies content changes in order on top of the current version.
// A change without a range replaces the whole text.
func (m *DocumentManager) Change(ctx context.Context, uri protocol.DocumentURI, version int32, changes []protocol.TextDocumentContentChangeEvent) (*Document, error) {
	cur, ok := m.Get(uri)
	if !ok {
		return nil, errors.Errorf("document not open: %s", uri)
	}

	content := cur.Content
	for _, change := range changes {
		if change.Range == nil {
			content = change.Text
			continue
		}

		next, err := replaceRange(content, change.Range, change.Text)
		if err != nil {
			return nil, errors.Errorf("applying change to %s: %w", uri, err)
		}
		content = next
	}

	return m.Open(ctx, uri, cur.LanguageID, version, content)
}

func replaceRange(content string, rng *protocol.Range, text string) (string, error) {
	mapper := position.NewMapper(content)

	start, err := mapper.Offset(toPlace(rng.Start))
	if err != nil {
		return "", errors.Errorf("range start %d:%d: %w", rng.Start.Line, rng.Start.Character, err)
	}
	end, err := mapper.Offset(toPlace(rng.End))
	if err != nil {
		return "", errors.Errorf("range end %d:%d: %w", rng.End.Line, rng.End.Character, err)
	}
	if end < start {
		start, end = end, start
	}

	return content[:start] + text + content[end:], nil
}

func (m *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	doc, ok := m.store.Load(normalizeURI(string(uri)))
	if !ok {
		return nil, false
	}
	return doc.(*Document), true
}

func (m *DocumentManager) Close(uri protocol.DocumentURI) bool {
	_, ok := m.store.LoadAndDelete(normalizeURI(string(uri)))
	return ok
}

// Len counts the open documents.
func (m *DocumentManager) Len() int {
	n := 0
	m.store.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func toPlace(p protocol.Position) position.Place {
	return position.Place{Line: int(p.Line), Character: int(p.Character)}
}

func fromPlace(p position.Place) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func fromRange(r position.Range) protocol.Range {
	return protocol.Range{Start: fromPlace(r.Start), End: fromPlace(r.End)}
}
