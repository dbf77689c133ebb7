package component

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

const (
	DefaultSourceDir = "src"
	DefaultExtension = "ts"
)

type ScanOptions struct {
	// SourceDir is relative to the workspace root.
	SourceDir string
	// Extension has no leading dot.
	Extension string
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.SourceDir == "" {
		o.SourceDir = DefaultSourceDir
	}
	o.Extension = strings.TrimPrefix(o.Extension, ".")
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	return o
}

// Pattern returns the glob, relative to the workspace root, that selects
// source files.
func (o ScanOptions) Pattern() string {
	o = o.withDefaults()
	dir := strings.Trim(filepath.ToSlash(o.SourceDir), "/")
	return path.Join(dir, "**", "*."+o.Extension)
}

// SourceRoot returns the directory under root that holds sources.
func (o ScanOptions) SourceRoot(root string) string {
	o = o.withDefaults()
	return filepath.Join(root, filepath.FromSlash(o.SourceDir))
}

// Matches reports whether path is a source file of the workspace at root.
func (o ScanOptions) Matches(root, path string) bool {
	if root == "" {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	ok, err := doublestar.Match(o.Pattern(), filepath.ToSlash(rel))
	return err == nil && ok
}

type ScanResult struct {
	Root       string
	Pattern    string
	Files      int
	Components int
	Duration   time.Duration
	// Err joins every per-file failure. A non-nil Err does not mean the scan
	// stopped early.
	Err error
}

// AnalyzeWorkspace extracts every source file under root matching opts into
// index. Files that cannot be read or parsed are logged and skipped. The
// returned error is set only when the scan itself could not run or was
// cancelled; components indexed before that point stay in index.
func (a *Analyzer) AnalyzeWorkspace(ctx context.Context, fsys afero.Fs, root string, opts ScanOptions, index *Index) (*ScanResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("root", root).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	res := &ScanResult{Root: root, Pattern: opts.Pattern()}

	if !doublestar.ValidatePattern(res.Pattern) {
		logger.Warn().Str("pattern", res.Pattern).Msg("malformed glob pattern, no components will be found")
		return res, errors.Errorf("glob %q: %w", res.Pattern, doublestar.ErrBadPattern)
	}

	logger.Debug().Str("pattern", res.Pattern).Msg("scanning workspace")

	iofs := afero.NewIOFS(afero.NewBasePathFs(fsys, root))

	err := doublestar.GlobWalk(iofs, res.Pattern, func(rel string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		file := filepath.Join(root, filepath.FromSlash(rel))
		res.Files++

		n, err := a.AnalyzeFile(ctx, fsys, file, index)
		res.Components += n
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("skipping file")
			res.Err = multierr.Append(res.Err, err)
		}

		return nil
	})

	res.Duration = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return res, errors.Errorf("scan cancelled after %d files: %w", res.Files, err)
		}
		logger.Warn().Err(err).Msg("glob failed, workspace partially scanned")
		return res, errors.Errorf("glob %q: %w", res.Pattern, err)
	}

	logger.Info().
		Int("files", res.Files).
		Int("components", res.Components).
		Int("failures", len(multierr.Errors(res.Err))).
		Dur("took", res.Duration).
		Msg("workspace scan complete")

	return res, nil
}

// IndexWorkspace scans root into a fresh index. A glob failure still returns
// whatever was indexed before it.
func IndexWorkspace(ctx context.Context, fsys afero.Fs, root string, opts ScanOptions) (*Index, *ScanResult, error) {
	a, err := NewAnalyzer()
	if err != nil {
		return nil, nil, errors.Errorf("creating analyzer: %w", err)
	}

	index := NewIndex()
	res, err := a.AnalyzeWorkspace(ctx, fsys, root, opts, index)
	return index, res, err
}
