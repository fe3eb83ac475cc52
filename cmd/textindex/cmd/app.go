package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/shell"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/watcher"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/resilience"
)

// app is everything a command needs, built once from the loaded config.
type app struct {
	cfg     *config.Config
	engine  *indexer.Engine
	shell   *shell.Shell
	watcher *watcher.Watcher
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, interactive bool) (*app, error) {
	a := &app{cfg: cfg}

	strategy, err := tokenizer.Lookup(cfg.Indexer.Strategy)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := cache.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	sessionID := uuid.NewString()
	var tracker analytics.Tracker = analytics.NopTracker{}
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		collector := analytics.NewCollector(producer, cfg.Analytics, sessionID)
		collector.Start(ctx)
		tracker = collector
		// the collector drains into the producer, so it closes first
		a.closers = append(a.closers, producer.Close, func() error {
			collector.Close()
			return nil
		})
	}

	m := metrics.New(nil)
	a.engine = indexer.NewEngine(
		tokenizer.NewContext(strategy),
		cfg.Indexer,
		indexer.WithCache(cache.New(store)),
		indexer.WithMetrics(m),
		indexer.WithTracker(tracker),
	)

	registry := shell.NewRegistry()
	opts := []shell.Option{
		shell.WithRegistry(registry),
		shell.WithTracker(tracker),
		shell.WithSessionID(sessionID),
		shell.WithPrompt(interactive),
	}
	if cfg.Indexer.Watch {
		w, err := watcher.New(a.engine, registry.IsIndexed, cfg.Indexer.FollowSymlinks)
		if err != nil {
			a.close()
			return nil, err
		}
		a.watcher = w
		a.closers = append(a.closers, w.Close)
		opts = append(opts, shell.WithWatcher(w))
	}
	a.shell = shell.New(a.engine, opts...)

	if cfg.Metrics.Enabled {
		checker := a.healthChecker(store)
		mux := metrics.NewMux(m, a.healthStats)
		mux.Handle("/health/live", checker.LiveHandler())
		mux.Handle("/health/ready", checker.ReadyHandler())
		shutdown := metrics.StartServer(cfg.Metrics.Port, mux)
		a.closers = append(a.closers, func() error {
			return shutdown(context.Background())
		})
	}

	slog.Info("textindex ready",
		"session_id", sessionID,
		"strategy", strategy.Name(),
		"cache", cfg.Cache.Backend,
		"workers", cfg.Indexer.Workers,
		"watch", cfg.Indexer.Watch,
		"analytics", cfg.Analytics.Enabled,
	)
	return a, nil
}

// indexAll indexes every path through the shell so that each one is
// recorded in the registry and watched.
func (a *app) indexAll(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := a.shell.Index(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("indexing %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// runWatcher processes filesystem events in the background until ctx ends.
func (a *app) runWatcher(ctx context.Context) {
	if a.watcher == nil {
		return
	}
	go func() {
		if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watcher stopped", "error", err)
		}
	}()
}

func (a *app) healthStats() map[string]any {
	stats := a.engine.Stats()
	name := ""
	if s := a.engine.Tokenizer().Strategy(); s != nil {
		name = s.Name()
	}
	return map[string]any{
		"terms":    stats.Terms,
		"files":    stats.Paths,
		"roots":    len(a.shell.Registry().Roots()),
		"strategy": name,
	}
}

// healthChecker reports the index degraded while no strategy is set, and the
// cache down when its remote backend stops answering.
func (a *app) healthChecker(store cache.Store) *health.Checker {
	checker := health.NewChecker()
	checker.Register("index", func(context.Context) health.ComponentHealth {
		stats := a.engine.Stats()
		msg := fmt.Sprintf("%d terms, %d files", stats.Terms, stats.Paths)
		if a.engine.Tokenizer().Strategy() == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no tokenizer strategy"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: msg}
	})
	if pinger, ok := store.(cache.Pinger); ok {
		ping := health.PingCheck(pinger.Ping)
		checker.Register("cache", func(ctx context.Context) health.ComponentHealth {
			result := ping(ctx)
			if guarded, ok := store.(*cache.GuardedStore); ok && result.Status == health.StatusUp {
				if state := guarded.State(); state != resilience.StateClosed {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: "circuit " + state.String()}
				}
			}
			return result
		})
	}
	return checker
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

func isInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
