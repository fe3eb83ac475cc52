// Package shell implements the interactive command loop that drives the
// indexer: index and erase paths, query words, and switch tokenizer
// strategies, re-indexing everything the user has indexed so far.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/logger"
)

const banner = `Welcome to the text file indexing service.
Commands:
  index <path>          - Index the specified file or directory
  erase <path>          - Erase the specified file or directory from the index
  query <word>          - Query files containing the given word
  strategy <type>       - Change tokenizer strategy (simple/advanced)
  status                - Show the active strategy and index size
  help                  - Show this list
  exit                  - Exit the application
`

// ErrPathNotFound reports that the path named in an index or erase command
// does not exist. Failures found deeper in a traversal never carry it.
var ErrPathNotFound = errors.New("path does not exist")

// PathWatcher starts watching a newly indexed root.
type PathWatcher interface {
	Add(root string) error
}

type Shell struct {
	engine    *indexer.Engine
	registry  *Registry
	watcher   PathWatcher
	tracker   analytics.Tracker
	prompt    bool
	sessionID string
	logger    *slog.Logger
}

type Option func(*Shell)

func WithRegistry(r *Registry) Option {
	return func(s *Shell) { s.registry = r }
}

func WithWatcher(w PathWatcher) Option {
	return func(s *Shell) { s.watcher = w }
}

func WithTracker(t analytics.Tracker) Option {
	return func(s *Shell) { s.tracker = t }
}

// WithPrompt controls the welcome banner and the "> " prompt. Disable it
// when input is not a terminal.
func WithPrompt(enabled bool) Option {
	return func(s *Shell) { s.prompt = enabled }
}

func WithSessionID(id string) Option {
	return func(s *Shell) { s.sessionID = id }
}

func New(engine *indexer.Engine, opts ...Option) *Shell {
	s := &Shell{
		engine:  engine,
		prompt:  true,
		tracker: analytics.NopTracker{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}
	s.logger = slog.Default().With("component", "shell", "session_id", s.sessionID)
	return s
}

func (s *Shell) Registry() *Registry {
	return s.registry
}

func (s *Shell) SessionID() string {
	return s.sessionID
}

// Run reads commands from in until exit, end of input, or ctx is cancelled.
// It always prints "Goodbye." before returning. Cancellation is noticed
// while waiting for input; the reader goroutine is left blocked on in until
// in yields or is closed.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx = logger.WithSessionID(ctx, s.sessionID)
	defer fmt.Fprintln(out, "Goodbye.")

	if s.prompt {
		fmt.Fprint(out, banner)
	}
	s.logger.Info("shell started")

	lines, readErr := readLines(ctx, in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if s.prompt {
			fmt.Fprint(out, "> ")
		}
		select {
		case <-ctx.Done():
			s.logger.Info("shell interrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				return nil
			}
			if exit := s.Execute(ctx, out, line); exit {
				return nil
			}
		}
	}
}

// readLines feeds lines from in to the returned channel until end of input
// or ctx is done. The error channel receives exactly one value, the scanner
// error or nil, before lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// Execute runs one command line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, out io.Writer, line string) (exit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "exit", "quit":
		return true
	case "index":
		s.cmdIndex(ctx, out, arg)
	case "erase":
		s.cmdErase(ctx, out, arg)
	case "query":
		s.cmdQuery(ctx, out, arg)
	case "strategy":
		s.cmdStrategy(ctx, out, arg)
	case "status":
		s.cmdStatus(out)
	case "help":
		fmt.Fprint(out, banner)
	default:
		fmt.Fprintf(out, "Unknown command: %s\n", command)
	}
	return false
}

// Index resolves path, indexes it and records it in the registry. It fails
// when path does not exist or is already covered by an indexed root.
func (s *Shell) Index(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidArgument, path, "resolving path", err)
	}
	if err := checkExists(path, abs); err != nil {
		return err
	}
	if s.registry.IsIndexed(abs) {
		e := apperrors.New(apperrors.ErrAlreadyIndexed, "path is covered by an indexed root")
		e.Path = path
		return e
	}
	if err := s.engine.IndexPath(ctx, abs); err != nil {
		return err
	}
	s.registry.Include(abs)
	if s.watcher != nil {
		if err := s.watcher.Add(abs); err != nil {
			s.logger.Warn("cannot watch indexed path", "path", abs, "error", err)
		}
	}
	return nil
}

// Erase removes path and everything beneath it from the index. Paths that
// no longer exist on disk may still be erased while the registry knows them.
func (s *Shell) Erase(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidArgument, path, "resolving path", err)
	}
	if !s.registry.Covers(abs) {
		if err := checkExists(path, abs); err != nil {
			return err
		}
		e := apperrors.New(apperrors.ErrNotIndexed, "no indexed path at or beneath it")
		e.Path = path
		return e
	}
	err = s.engine.ErasePath(ctx, abs)
	s.registry.Exclude(abs)
	return err
}

// checkExists stats abs. A missing path is reported as ErrPathNotFound;
// any other failure only as ErrInvalidArgument.
func checkExists(path, abs string) error {
	_, err := os.Stat(abs)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return apperrors.Wrap(apperrors.ErrInvalidArgument, path, "checking path", fmt.Errorf("%w: %w", ErrPathNotFound, err))
	default:
		return apperrors.Wrap(apperrors.ErrInvalidArgument, path, "cannot access path", err)
	}
}

func (s *Shell) cmdIndex(ctx context.Context, out io.Writer, arg string) {
	if arg == "" {
		fmt.Fprintln(out, "Usage: index <path>")
		return
	}
	err := s.Index(ctx, arg)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Indexed: %s\n", arg)
	case errors.Is(err, ErrPathNotFound):
		fmt.Fprintf(out, "Path does not exist: %s\n", arg)
	case errors.Is(err, apperrors.ErrAlreadyIndexed):
		fmt.Fprintf(out, "Path already indexed: %s\n", arg)
	default:
		s.logger.Warn("index command failed", "path", arg, "error", err)
		fmt.Fprintf(out, "Error indexing path: %v\n", err)
	}
}

func (s *Shell) cmdErase(ctx context.Context, out io.Writer, arg string) {
	if arg == "" {
		fmt.Fprintln(out, "Usage: erase <path>")
		return
	}
	err := s.Erase(ctx, arg)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Erased: %s and all its sub-paths.\n", arg)
	case errors.Is(err, ErrPathNotFound):
		fmt.Fprintf(out, "Path does not exist: %s\n", arg)
	case errors.Is(err, apperrors.ErrNotIndexed):
		fmt.Fprintf(out, "Path not indexed: %s\n", arg)
	default:
		s.logger.Warn("erase command failed", "path", arg, "error", err)
		fmt.Fprintf(out, "Error erasing path: %v\n", err)
	}
}

func (s *Shell) cmdQuery(ctx context.Context, out io.Writer, word string) {
	if word == "" {
		fmt.Fprintln(out, "Usage: query <word>")
		return
	}
	paths := s.engine.Query(ctx, word)
	if len(paths) == 0 {
		fmt.Fprintf(out, "No files contain the word: %s\n", word)
		return
	}
	fmt.Fprintf(out, "Files containing the word '%s':\n", word)
	for _, p := range paths {
		fmt.Fprintf(out, "  %s\n", p)
	}
}

// cmdStrategy swaps the tokenizer, clears the index and replays the
// registry. An unknown name changes nothing.
func (s *Shell) cmdStrategy(ctx context.Context, out io.Writer, name string) {
	if name == "" {
		fmt.Fprintf(out, "Usage: strategy <%s>\n", strings.Join(tokenizer.Names(), "|"))
		return
	}
	strategy, err := tokenizer.Lookup(name)
	if err != nil {
		fmt.Fprintf(out, "Unknown strategy type: %s\n", name)
		return
	}

	s.engine.Tokenizer().SetStrategy(strategy)
	fmt.Fprintf(out, "Tokenizer strategy set to %s.\n", strategy.Name())
	s.engine.Clear(ctx)

	var reindexed, failed int
	for _, mark := range s.registry.Marks() {
		if !mark.Include {
			if err := s.engine.ErasePath(ctx, mark.Path); err != nil {
				s.logger.Warn("re-applying erase failed", "path", mark.Path, "error", err)
			}
			continue
		}
		if err := s.engine.IndexPath(ctx, mark.Path); err != nil {
			failed++
			fmt.Fprintf(out, "Error re-indexing path: %v with new strategy.\n", err)
			continue
		}
		reindexed++
		fmt.Fprintf(out, "Re-indexed: %s with new strategy.\n", mark.Path)
	}

	s.engine.Metrics().StrategySwitches.WithLabelValues(strategy.Name()).Inc()
	s.tracker.Track(analytics.EventStrategy, analytics.StrategyEvent{
		Strategy:  strategy.Name(),
		Reindexed: reindexed,
		Failed:    failed,
	})
	s.logger.Info("tokenizer strategy changed",
		"strategy", strategy.Name(),
		"reindexed", reindexed,
		"failed", failed,
	)
}

func (s *Shell) cmdStatus(out io.Writer) {
	name := "none"
	if strategy := s.engine.Tokenizer().Strategy(); strategy != nil {
		name = strategy.Name()
	}
	stats := s.engine.Stats()
	fmt.Fprintf(out, "Strategy: %s\n", name)
	fmt.Fprintf(out, "Indexed roots: %d\n", len(s.registry.Roots()))
	fmt.Fprintf(out, "Terms: %d\n", stats.Terms)
	fmt.Fprintf(out, "Files: %d\n", stats.Paths)
}
