package protocol

import (
	"context"

	"github.com/creachadair/jrpc2/handler"
)

// Server is the subset of the LSP 3.17 server surface this language server
// answers. Methods not listed here are reported as unknown by jrpc2.
type Server interface {
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#initialize
	Initialize(context.Context, *ParamInitialize) (*InitializeResult, error)
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#initialized
	Initialized(context.Context, *InitializedParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#shutdown
	Shutdown(context.Context) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#exit
	Exit(context.Context) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#setTrace
	SetTrace(context.Context, *SetTraceParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didOpen
	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didChange
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didClose
	DidClose(context.Context, *DidCloseTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didSave
	DidSave(context.Context, *DidSaveTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_completion
	Completion(context.Context, *CompletionParams) (*CompletionList, error)
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_definition
	Definition(context.Context, *DefinitionParams) ([]Location, error)
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_hover
	Hover(context.Context, *HoverParams) (*Hover, error)
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#workspace_didChangeWatchedFiles
	DidChangeWatchedFiles(context.Context, *DidChangeWatchedFilesParams) error
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"initialize":                      createHandler(server.Initialize),
		"initialized":                     createEmptyResultHandler(server.Initialized),
		"shutdown":                        createEmptyHandler(server.Shutdown),
		"exit":                            createEmptyHandler(server.Exit),
		"$/setTrace":                      createEmptyResultHandler(server.SetTrace),
		"$/cancelRequest":                 createEmptyResultHandler(cancelRequest),
		"textDocument/didOpen":            createEmptyResultHandler(server.DidOpen),
		"textDocument/didChange":          createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":           createEmptyResultHandler(server.DidClose),
		"textDocument/didSave":            createEmptyResultHandler(server.DidSave),
		"textDocument/completion":         createHandler(server.Completion),
		"textDocument/definition":         createHandler(server.Definition),
		"textDocument/hover":              createHandler(server.Hover),
		"workspace/didChangeWatchedFiles": createEmptyResultHandler(server.DidChangeWatchedFiles),
	}
}

// cancelRequest acknowledges $/cancelRequest. Requests here finish quickly
// enough that nothing is interrupted.
func cancelRequest(ctx context.Context, params *CancelParams) error {
	return nil
}
