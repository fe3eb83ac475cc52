// Package cmd provides the CLI commands for textindex.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/logger"
)

type rootOptions struct {
	configPath string
	strategy   string
	logLevel   string
	logFormat  string
	workers    int
	watch      bool
	noCache    bool
}

// NewRootCmd creates the textindex root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "textindex [paths...]",
		Short: "Index text files and look up which files contain a word",
		Long: `textindex builds an in-memory inverted index over the files under the
given paths and opens an interactive shell:

  index <path>      index a file or directory
  erase <path>      remove a file or directory from the index
  query <word>      list files containing word (case-insensitive)
  strategy <type>   switch tokenizer (simple or advanced) and re-index
  status            show strategy and index size
  exit              leave the shell`,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runShell(cmd, cfg, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	flags.StringVar(&opts.strategy, "strategy", "", "tokenizer strategy (simple or advanced)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (text or json)")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines used per directory while indexing")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable the query result cache")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-index indexed paths when they change on disk")

	cmd.AddCommand(newQueryCmd(opts))
	return cmd
}

// load reads the config file, applies flag overrides on top and installs
// the logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Indexer.Strategy = strings.ToLower(o.strategy)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}
	if flags.Changed("workers") {
		cfg.Indexer.Workers = o.workers
	}
	if flags.Changed("watch") {
		cfg.Indexer.Watch = o.watch
	}
	if o.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return cfg, nil
}

func runShell(cmd *cobra.Command, cfg *config.Config, paths []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := false
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		interactive = isInteractive(f)
	}
	a, err := newApp(ctx, cfg, interactive)
	if err != nil {
		return err
	}
	defer a.close()
	a.runWatcher(ctx)

	out := cmd.OutOrStdout()
	for _, p := range paths {
		a.shell.Execute(ctx, out, "index "+p)
	}
	return a.shell.Run(ctx, cmd.InOrStdin(), out)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
