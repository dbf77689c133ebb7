// Package lsp implements the language server: it keeps open templates
// parsed, scans the workspace for components and answers completion and
// definition requests against them.
package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/completion"
	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/definition"
	"github.com/walteh/ngtmpls/pkg/hover"
	"github.com/walteh/ngtmpls/pkg/lsp/protocol"
	"github.com/walteh/ngtmpls/pkg/watcher"
)

const serverName = "ngtmpls"

type Options struct {
	// Fs is where workspace sources are read from. Defaults to the OS file
	// system.
	Fs   afero.Fs
	Scan component.ScanOptions
	// Version is reported in the initialize result.
	Version string
	// OnExit runs when the client sends exit.
	OnExit func()
	// Watch re-extracts sources as they change on disk, for editors that do
	// not send workspace/didChangeWatchedFiles.
	Watch      bool
	WatchDelay time.Duration
}

// Server represents an LSP server instance
type Server struct {
	id string

	documents *DocumentManager
	index     *component.Index
	analyzer  *component.Analyzer

	fs       afero.Fs
	scanOpts component.ScanOptions
	version  string
	onExit   func()

	watch      bool
	watchDelay time.Duration
	stopWatch  context.CancelFunc

	mu        sync.Mutex
	root      string
	scanOnce  sync.Once
	scanDone  chan struct{}
	scan      *component.ScanResult
	shutdown  atomic.Bool
	initCount atomic.Int32

	callbackClient protocol.Client
}

var _ protocol.Server = (*Server)(nil)

// NewServer compiles the component queries; a failure there leaves nothing to
// serve.
func NewServer(ctx context.Context, opts Options) (*Server, error) {
	analyzer, err := component.NewAnalyzer()
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("cannot build component analyzer")
		return nil, errors.Errorf("creating analyzer: %w", err)
	}

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	return &Server{
		id:         xid.New().String(),
		documents:  NewDocumentManager(),
		index:      component.NewIndex(),
		analyzer:   analyzer,
		fs:         opts.Fs,
		scanOpts:   opts.Scan,
		version:    opts.Version,
		onExit:     opts.OnExit,
		watch:      opts.Watch,
		watchDelay: opts.WatchDelay,
		scanDone:   make(chan struct{}),
	}, nil
}

func (s *Server) SetCallbackClient(client protocol.Client) {
	s.callbackClient = client
}

func (s *Server) ID() string {
	return s.id
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

func (s *Server) Index() *component.Index {
	return s.index
}

func (s *Server) Analyzer() *component.Analyzer {
	return s.analyzer
}

// IndexReady is closed once the initial workspace scan has finished,
// successfully or not.
func (s *Server) IndexReady() <-chan struct{} {
	return s.scanDone
}

// ScanResult returns the outcome of the initial scan, or nil while it runs.
func (s *Server) ScanResult() *component.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan
}

// Root returns the workspace root chosen at initialize.
func (s *Server) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

func (s *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	if s.initCount.Add(1) > 1 {
		logger.Warn().Msg("initialize received more than once, keeping the first workspace")
	}

	root := workspaceRoot(params)

	s.scanOnce.Do(func() {
		s.mu.Lock()
		s.root = root
		if o := params.InitializationOptions; o != nil {
			if o.SourceDir != "" {
				s.scanOpts.SourceDir = o.SourceDir
			}
			if o.Extension != "" {
				s.scanOpts.Extension = o.Extension
			}
		}
		opts := s.scanOpts
		s.mu.Unlock()

		if root == "" {
			logger.Warn().Msg("no workspace root, component index stays empty")
			close(s.scanDone)
			return
		}

		logger.Info().Str("root", root).Str("pattern", opts.Pattern()).Msg("starting workspace scan")

		go s.scanWorkspace(context.WithoutCancel(ctx), root, opts)
	})

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Full,
				Save:      &protocol.SaveOptions{},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"<", " "},
			},
			DefinitionProvider: true,
			HoverProvider:      true,
			Workspace: &protocol.WorkspaceOptions{
				WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{Supported: true},
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: serverName, Version: s.version},
	}, nil
}

func (s *Server) scanWorkspace(ctx context.Context, root string, opts component.ScanOptions) {
	res, err := s.analyzer.AnalyzeWorkspace(ctx, s.fs, root, opts, s.index)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("workspace scan incomplete")
		if s.callbackClient != nil {
			_ = s.callbackClient.ShowMessage(ctx, &protocol.ShowMessageParams{
				Type:    protocol.Warning,
				Message: "ngtmpls: workspace scan incomplete: " + err.Error(),
			})
		}
	}

	s.mu.Lock()
	s.scan = res
	s.mu.Unlock()
	close(s.scanDone)

	if s.watch {
		s.watchSources(ctx, root, opts)
	}
}

// watchSources blocks until Shutdown, feeding disk changes through
// DidChangeWatchedFiles.
func (s *Server) watchSources(ctx context.Context, root string, opts component.ScanOptions) {
	logger := zerolog.Ctx(ctx)

	s.mu.Lock()
	if s.shutdown.Load() {
		s.mu.Unlock()
		return
	}
	ctx, s.stopWatch = context.WithCancel(ctx)
	s.mu.Unlock()

	w, err := watcher.New(s.watchDelay, func(path string) bool {
		return opts.Matches(root, path)
	}, func(ctx context.Context, changes []watcher.Change) {
		params := &protocol.DidChangeWatchedFilesParams{Changes: make([]protocol.FileEvent, 0, len(changes))}
		for _, c := range changes {
			typ := protocol.Changed
			if c.Op == watcher.Removed {
				typ = protocol.Deleted
			}
			params.Changes = append(params.Changes, protocol.FileEvent{URI: pathToURI(c.Path), Type: typ})
		}
		_ = s.DidChangeWatchedFiles(ctx, params)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("file watching disabled")
		return
	}

	if err := w.AddRecursive(opts.SourceRoot(root)); err != nil {
		logger.Warn().Err(err).Msg("file watching disabled")
		return
	}

	logger.Info().Str("dir", opts.SourceRoot(root)).Msg("watching sources")

	if err := w.Run(ctx); err != nil {
		logger.Warn().Err(err).Msg("file watcher stopped")
	}
}

// workspaceRoot prefers the first workspace folder, then rootUri, then the
// deprecated rootPath.
func workspaceRoot(params *protocol.ParamInitialize) string {
	switch {
	case len(params.WorkspaceFolders) > 0:
		return uriToPath(params.WorkspaceFolders[0].URI)
	case params.RootURI != "":
		return uriToPath(string(params.RootURI))
	default:
		return params.RootPath
	}
}

func uriToPath(uri string) string {
	p := normalizeURI(uri)
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return filepath.FromSlash(p)
}

func pathToURI(path string) protocol.DocumentURI {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return protocol.DocumentURI(u.String())
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	zerolog.Ctx(ctx).Debug().Str("server_id", s.id).Msg("server initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Msg("shutting down")

	s.mu.Lock()
	s.shutdown.Store(true)
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.mu.Unlock()

	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	if !s.shutdown.Load() {
		zerolog.Ctx(ctx).Warn().Msg("exit without shutdown")
	}
	if s.onExit != nil {
		s.onExit()
	}
	return nil
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	zerolog.Ctx(ctx).Debug().Str("trace", string(params.Value)).Msg("trace level changed")
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	logger := zerolog.Ctx(ctx).With().Str("uri", string(item.URI)).Logger()

	if _, err := s.documents.Open(ctx, item.URI, item.LanguageID, item.Version, item.Text); err != nil {
		logger.Warn().Err(err).Msg("document not stored")
		return nil
	}

	logger.Debug().Int32("version", item.Version).Msg("document opened")
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	logger := zerolog.Ctx(ctx).With().Str("uri", string(params.TextDocument.URI)).Logger()

	if len(params.ContentChanges) == 0 {
		return nil
	}

	if _, err := s.documents.Change(ctx, params.TextDocument.URI, params.TextDocument.Version, params.ContentChanges); err != nil {
		logger.Warn().Err(err).Msg("change not applied")
		return nil
	}

	logger.Debug().Int32("version", params.TextDocument.Version).Msg("document changed")
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	if !s.documents.Close(params.TextDocument.URI) {
		zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("closed a document that was not open")
	}
	return nil
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	zerolog.Ctx(ctx).Trace().Str("uri", string(params.TextDocument.URI)).Msg("document saved")
	return nil
}

// offsetOf returns the document and byte offset addressed by params.
func (s *Server) offsetOf(ctx context.Context, params protocol.TextDocumentPositionParams) (*Document, int, bool) {
	logger := zerolog.Ctx(ctx)

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		logger.Debug().Str("uri", string(params.TextDocument.URI)).Msg("document not open")
		return nil, 0, false
	}

	offset, err := doc.Mapper.Offset(toPlace(params.Position))
	if err != nil {
		logger.Debug().Err(err).Msg("position outside document")
		return doc, 0, false
	}

	return doc, offset, true
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, offset, ok := s.offsetOf(ctx, params.TextDocumentPositionParams)
	if doc == nil {
		return nil, nil
	}

	items := []protocol.CompletionItem{}
	if ok {
		items = append(items, completion.Complete(doc.Tree, offset, s.index)...)
	}

	zerolog.Ctx(ctx).Trace().Int("offset", offset).Int("items", len(items)).Msg("completion")

	return &protocol.CompletionList{Items: items}, nil
}

func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc, offset, ok := s.offsetOf(ctx, params.TextDocumentPositionParams)
	if !ok {
		return nil, nil
	}

	loc, ok := definition.Resolve(doc.Tree, offset, s.index)
	if !ok {
		zerolog.Ctx(ctx).Trace().Int("offset", offset).Msg("no definition")
		return nil, nil
	}

	return []protocol.Location{{
		URI:   protocol.DocumentURI(loc.URI()),
		Range: fromRange(loc.Range),
	}}, nil
}

// Hover describes the component tag or bound attribute under the cursor.
func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, offset, ok := s.offsetOf(ctx, params.TextDocumentPositionParams)
	if !ok {
		return nil, nil
	}

	info, ok := hover.Hover(doc.Tree, offset, s.index)
	if !ok {
		return nil, nil
	}

	rng := fromRange(doc.Mapper.Range(info.Start, info.End))
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: info.Content},
		Range:    &rng,
	}, nil
}

// DidChangeWatchedFiles re-extracts created and changed sources. Components
// of deleted files stay indexed until another file claims their selector.
func (s *Server) DidChangeWatchedFiles(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	logger := zerolog.Ctx(ctx)

	for _, change := range params.Changes {
		path := uriToPath(string(change.URI))

		if !s.isSource(path) {
			continue
		}

		if change.Type == protocol.Deleted {
			logger.Debug().Str("path", path).Msg("source deleted, index left as is")
			continue
		}

		n, err := s.analyzer.AnalyzeFile(ctx, s.fs, path, s.index)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("re-extraction failed")
			continue
		}
		logger.Debug().Str("path", path).Int("components", n).Msg("source re-extracted")
	}

	return nil
}

// isSource reports whether path falls under the scan pattern of the
// workspace.
func (s *Server) isSource(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanOpts.Matches(s.root, path)
}
