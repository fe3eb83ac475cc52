// Package indexer builds and queries the inverted index over files on disk.
// The Engine reads files through a FileSystem, tokenizes them with the
// active strategy of a tokenizer.Context, and records each file's absolute
// path under every distinct lower-cased token.
package indexer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/metrics"
)

type Engine struct {
	memIndex  *index.MemoryIndex
	tokenizer *tokenizer.Context
	fsys      FileSystem
	cache     *cache.QueryCache
	metrics   *metrics.Metrics
	tracker   analytics.Tracker
	cfg       config.IndexerConfig
	logger    *slog.Logger
}

type Option func(*Engine)

func WithFileSystem(fsys FileSystem) Option {
	return func(e *Engine) { e.fsys = fsys }
}

func WithCache(c *cache.QueryCache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithTracker(t analytics.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// NewEngine creates an empty engine bound to tok. Unset options default to
// the real filesystem, no query cache, private metrics and no analytics.
func NewEngine(tok *tokenizer.Context, cfg config.IndexerConfig, opts ...Option) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	e := &Engine{
		memIndex:  index.NewMemoryIndex(),
		tokenizer: tok,
		fsys:      OSFileSystem{},
		cfg:       cfg,
		logger:    slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New(cache.NoopStore{})
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	if e.tracker == nil {
		e.tracker = analytics.NopTracker{}
	}
	return e
}

// IndexFile indexes a single plain file. Anything else (directories,
// devices, missing paths) is silently ignored. A read failure is returned
// as ErrIO.
func (e *Engine) IndexFile(ctx context.Context, path string) error {
	abs, err := absPath(path)
	if err != nil {
		return err
	}
	defer e.afterMutation(ctx)
	return e.indexFile(abs)
}

// IndexPath indexes path, recursing into directories. A directory that
// cannot be listed aborts the walk with ErrInvalidArgument; files indexed
// before the failure stay indexed.
func (e *Engine) IndexPath(ctx context.Context, path string) error {
	abs, err := absPath(path)
	if err != nil {
		return err
	}
	defer e.afterMutation(ctx)
	err = e.walk(ctx, abs, func(file string) error {
		return e.indexFile(file)
	})
	if err != nil {
		e.metrics.TraversalErrorsTotal.WithLabelValues("index", apperrors.Kind(err)).Inc()
	}
	return err
}

// EraseFile removes absolutePath from every term. Unknown paths are a no-op.
func (e *Engine) EraseFile(ctx context.Context, absolutePath string) {
	abs, err := absPath(absolutePath)
	if err != nil {
		return
	}
	defer e.afterMutation(ctx)
	e.eraseFile(abs)
}

// ErasePath mirrors IndexPath, erasing every file found under path. When
// path no longer exists, every indexed path equal to or beneath it is
// removed instead.
func (e *Engine) ErasePath(ctx context.Context, path string) error {
	abs, err := absPath(path)
	if err != nil {
		return err
	}
	defer e.afterMutation(ctx)

	if _, statErr := e.fsys.Stat(abs); errors.Is(statErr, fs.ErrNotExist) {
		removed := e.memIndex.RemovePrefix(abs)
		e.tracker.Track(analytics.EventErasePath, analytics.EraseEvent{Path: abs, Removed: removed})
		e.logger.Debug("erased vanished path", "path", abs, "terms_removed", removed)
		return nil
	}

	err = e.walk(ctx, abs, func(file string) error {
		e.eraseFile(file)
		return nil
	})
	if err != nil {
		e.metrics.TraversalErrorsTotal.WithLabelValues("erase", apperrors.Kind(err)).Inc()
	}
	return err
}

// Query returns the sorted paths of files containing word, compared
// case-insensitively. It never fails; unknown words yield an empty slice.
func (e *Engine) Query(ctx context.Context, word string) []string {
	start := time.Now()
	term := strings.ToLower(word)

	var (
		paths    []string
		cacheHit bool
	)
	if term == "" {
		paths = []string{}
	} else {
		paths, cacheHit = e.cache.GetOrCompute(ctx, term, func() []string {
			return e.memIndex.Lookup(term)
		})
	}

	elapsed := time.Since(start)
	if cacheHit {
		e.metrics.CacheHitsTotal.Inc()
	} else if term != "" {
		e.metrics.CacheMissesTotal.Inc()
	}
	resultType := "hit"
	if len(paths) == 0 {
		resultType = "zero_result"
	}
	e.metrics.QueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.QueryLatency.Observe(elapsed.Seconds())
	e.metrics.QueryResultsCount.Observe(float64(len(paths)))
	e.tracker.Track(analytics.EventQuery, analytics.QueryEvent{
		Term:      term,
		Hits:      len(paths),
		CacheHit:  cacheHit,
		LatencyUs: elapsed.Microseconds(),
	})
	return paths
}

// Clear drops every entry; the engine then behaves like a new one.
func (e *Engine) Clear(ctx context.Context) {
	e.memIndex.Reset()
	e.afterMutation(ctx)
	e.tracker.Track(analytics.EventClear, nil)
	e.logger.Info("index cleared")
}

func (e *Engine) Stats() index.Stats {
	return e.memIndex.Stats()
}

// Tokenizer returns the context whose strategy the engine indexes with.
func (e *Engine) Tokenizer() *tokenizer.Context {
	return e.tokenizer
}

func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

func (e *Engine) indexFile(abs string) error {
	info, err := e.fsys.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		e.metrics.FilesIndexedTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if e.cfg.MaxFileSize > 0 && info.Size() > e.cfg.MaxFileSize {
		e.logger.Warn("skipping oversized file",
			"path", abs,
			"size", info.Size(),
			"max_size", e.cfg.MaxFileSize,
		)
		e.metrics.FilesIndexedTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	start := time.Now()
	data, err := e.fsys.ReadFile(abs)
	if err != nil {
		e.metrics.FilesIndexedTotal.WithLabelValues("error").Inc()
		return apperrors.Wrap(apperrors.ErrIO, abs, "reading file", err)
	}
	tokens, err := e.tokenizer.Tokenize(strings.ToValidUTF8(string(data), " "))
	if err != nil {
		e.metrics.FilesIndexedTotal.WithLabelValues("error").Inc()
		return err
	}
	terms := normalize(tokens)
	added := e.memIndex.Add(abs, terms)

	e.metrics.FilesIndexedTotal.WithLabelValues("indexed").Inc()
	e.tracker.Track(analytics.EventIndexFile, analytics.IndexEvent{
		Path:      abs,
		TermCount: len(terms),
		SizeBytes: len(data),
		LatencyUs: time.Since(start).Microseconds(),
	})
	e.logger.Debug("file indexed",
		"path", abs,
		"token_count", len(tokens),
		"term_count", len(terms),
		"new_postings", added,
	)
	return nil
}

func (e *Engine) eraseFile(abs string) {
	removed := e.memIndex.Remove(abs)
	if removed == 0 {
		return
	}
	e.metrics.FilesErasedTotal.Inc()
	e.tracker.Track(analytics.EventErasePath, analytics.EraseEvent{Path: abs, Removed: removed})
	e.logger.Debug("file erased", "path", abs, "terms_removed", removed)
}

// walk calls visit for path itself when it is not a directory, and for
// every non-directory beneath it otherwise. Directories are listed by the
// calling goroutine; visits run on one errgroup shared by the whole tree, so
// at most cfg.Workers files are processed at once. The first visit error
// cancels the visits not yet started and is returned. An unlistable
// directory stops the traversal; visits already started still finish.
func (e *Engine) walk(ctx context.Context, path string, visit func(file string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := e.fsys.Stat(path)
	if err != nil || !info.IsDir() {
		return visit(path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	walkErr := e.descend(gctx, g, path, visit)
	if err := g.Wait(); err != nil {
		return err
	}
	return walkErr
}

func (e *Engine) descend(ctx context.Context, g *errgroup.Group, path string, visit func(file string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := e.fsys.Stat(path)
	if err != nil || !info.IsDir() {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return visit(path)
		})
		return nil
	}
	entries, err := e.fsys.ReadDir(path)
	if err != nil {
		e.logger.Warn("cannot list directory", "path", path, "error", err)
		return apperrors.Wrap(apperrors.ErrInvalidArgument, path, "directory is invalid or inaccessible", err)
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if entry.Type()&fs.ModeSymlink != 0 && !e.cfg.FollowSymlinks && e.isDir(child) {
			e.logger.Debug("skipping symlinked directory", "path", child)
			continue
		}
		if err := e.descend(ctx, g, child, visit); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) isDir(path string) bool {
	info, err := e.fsys.Stat(path)
	return err == nil && info.IsDir()
}

func (e *Engine) afterMutation(ctx context.Context) {
	e.cache.Invalidate(ctx)
	stats := e.memIndex.Stats()
	e.metrics.IndexedTerms.Set(float64(stats.Terms))
	e.metrics.IndexedPaths.Set(float64(stats.Paths))
}

// normalize lower-cases token text and drops empty and duplicate terms.
func normalize(tokens []tokenizer.Token) []string {
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		term := strings.ToLower(token.Text)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidArgument, path, "resolving absolute path", err)
	}
	return abs, nil
}
