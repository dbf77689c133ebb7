package lsp_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ngtmpls/pkg/lsp"
	"github.com/walteh/ngtmpls/pkg/lsp/protocol"
)

func TestDocumentManagerOpenGetClose(t *testing.T) {
	ctx := context.Background()
	m := lsp.NewDocumentManager()

	doc, err := m.Open(ctx, "file:///ws/a.html", "html", 1, "<app-foo></app-foo>")
	require.NoError(t, err)
	assert.Equal(t, "/ws/a.html", doc.URI)
	assert.Equal(t, int32(1), doc.Version)
	require.NotNil(t, doc.Tree)
	require.NotNil(t, doc.Mapper)
	assert.Equal(t, "<app-foo></app-foo>", string(doc.Tree.Source()))

	got, ok := m.Get("file:///ws/a.html")
	require.True(t, ok)
	assert.Same(t, doc, got)

	// the normalized form addresses the same document
	got, ok = m.Get("/ws/a.html")
	require.True(t, ok)
	assert.Same(t, doc, got)

	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Close("file:///ws/a.html"))
	assert.False(t, m.Close("file:///ws/a.html"))

	_, ok = m.Get("file:///ws/a.html")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestDocumentManagerChange(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		initial string
		changes []protocol.TextDocumentContentChangeEvent
		want    string
	}{
		{
			name:    "full replace",
			initial: "<div></div>",
			changes: []protocol.TextDocumentContentChangeEvent{{Text: "<app-foo></app-foo>"}},
			want:    "<app-foo></app-foo>",
		},
		{
			name:    "last full replace wins",
			initial: "<div></div>",
			changes: []protocol.TextDocumentContentChangeEvent{{Text: "<p></p>"}, {Text: "<span></span>"}},
			want:    "<span></span>",
		},
		{
			name:    "ranged insert",
			initial: "<app-foo></app-foo>",
			changes: []protocol.TextDocumentContentChangeEvent{{
				Range: &protocol.Range{Start: protocol.Position{Line: 0, Character: 8}, End: protocol.Position{Line: 0, Character: 8}},
				Text:  " val",
			}},
			want: "<app-foo val></app-foo>",
		},
		{
			name:    "ranged replace on second line",
			initial: "<div>\n  <p></p>\n</div>",
			changes: []protocol.TextDocumentContentChangeEvent{{
				Range: &protocol.Range{Start: protocol.Position{Line: 1, Character: 3}, End: protocol.Position{Line: 1, Character: 4}},
				Text:  "app-bar",
			}},
			want: "<div>\n  <app-bar></p>\n</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := lsp.NewDocumentManager()
			_, err := m.Open(ctx, "file:///a.html", "html", 1, tt.initial)
			require.NoError(t, err)

			doc, err := m.Change(ctx, "file:///a.html", 2, tt.changes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Content)
			assert.Equal(t, tt.want, string(doc.Tree.Source()))
			assert.Equal(t, int32(2), doc.Version)
			assert.Equal(t, protocol.LanguageKind("html"), doc.LanguageID)
		})
	}
}

func TestDocumentManagerChangeErrors(t *testing.T) {
	ctx := context.Background()
	m := lsp.NewDocumentManager()

	_, err := m.Change(ctx, "file:///missing.html", 2, []protocol.TextDocumentContentChangeEvent{{Text: "x"}})
	require.Error(t, err)

	_, err = m.Open(ctx, "file:///a.html", "html", 1, "<p></p>")
	require.NoError(t, err)

	_, err = m.Change(ctx, "file:///a.html", 2, []protocol.TextDocumentContentChangeEvent{{
		Range: &protocol.Range{Start: protocol.Position{Line: 5}, End: protocol.Position{Line: 5}},
		Text:  "x",
	}})
	require.Error(t, err)

	// a failed change leaves the previous version in place
	doc, ok := m.Get("file:///a.html")
	require.True(t, ok)
	assert.Equal(t, "<p></p>", doc.Content)
}

func TestDocumentManagerConcurrentReplace(t *testing.T) {
	ctx := context.Background()
	m := lsp.NewDocumentManager()

	_, err := m.Open(ctx, "file:///a.html", "html", 0, "<p></p>")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := m.Open(ctx, "file:///a.html", "html", int32(i), fmt.Sprintf("<app-%d></app-%d>", i, i))
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			doc, ok := m.Get("file:///a.html")
			if assert.True(t, ok) {
				// text and tree always come from the same version
				assert.Equal(t, doc.Content, string(doc.Tree.Source()))
			}
		}()
	}
	wg.Wait()
}
