// Package cli builds the drowse command tree.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/drowselabs/drowse/internal/config"
	"github.com/drowselabs/drowse/internal/store"
	"github.com/drowselabs/drowse/internal/tracker"
	"github.com/drowselabs/drowse/internal/ui"
	"github.com/drowselabs/drowse/internal/version"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DataDir    string
	ConfigFile string
	Plain      bool
}

// NewRootCommand creates the root command for the drowse CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "drowse",
		Short:   "drowse - a sleep session tracker",
		Long:    "drowse records sleep sessions in a local database and renders\nhistory, statistics, and model-generated insights.",
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.DataDir == "" {
				dir, err := config.DefaultDataDir()
				if err != nil {
					return err
				}
				opts.DataDir = dir
			}
			if opts.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				ui.UsePlainColors()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (default ~/.drowse)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default <data-dir>/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.Plain, "plain", false, "disable colors and styling")

	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewStopCommand(opts))
	cmd.AddCommand(NewRateCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))
	cmd.AddCommand(NewInsightsCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// env bundles the backends a command works against.
type env struct {
	config  *config.Config
	store   store.Store
	tracker *tracker.Tracker
}

// openEnv loads configuration and opens the store. Commands that mutate
// tracking state go through env.tracker; read-only commands can use
// env.store directly.
func openEnv(opts *RootOptions, logger *log.Logger) (*env, error) {
	cfg, err := config.Load(opts.DataDir, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	if cfg.UI.Theme != "" {
		path := cfg.UI.Theme
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.DataDir, path)
		}
		theme, err := ui.LoadTheme(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load theme: %w", err)
		}
		ui.ApplyTheme(theme)
	}

	st, err := store.Open(cfg.Storage.Driver, store.Options{
		Path:      cfg.Storage.Path,
		CacheDir:  cfg.Storage.CacheDir,
		URL:       cfg.LibSQL.URL,
		AuthToken: cfg.LibSQL.AuthToken,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &env{config: cfg, store: st}, nil
}

// openTrackerEnv is openEnv plus a settled tracker.
func openTrackerEnv(cmd *cobra.Command, opts *RootOptions, logger *log.Logger) (*env, error) {
	e, err := openEnv(opts, logger)
	if err != nil {
		return nil, err
	}

	e.tracker = tracker.New(e.store, tracker.WithLogger(logger))
	if err := e.tracker.Sync(cmd.Context()); err != nil {
		e.close()
		return nil, fmt.Errorf("failed to load tracking state: %w", err)
	}
	return e, nil
}

func (e *env) close() {
	if e.tracker != nil {
		e.tracker.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

// quietLogger swallows backend diagnostics so one-shot commands print
// only their own output.
func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
