package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/config"
	"github.com/drowselabs/drowse/internal/daemon"
	"github.com/drowselabs/drowse/internal/ui"
)

// DaemonOptions holds flags for the daemon command.
type DaemonOptions struct {
	*RootOptions
	Addr string
}

// NewDaemonCommand creates the daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DaemonOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the drowse daemon in the foreground",
		Long: `Run the drowse daemon in the foreground.

The daemon watches the database for writes from other drowse commands,
pulls replica changes on a schedule when the store is backed by a
remote, and serves the live dashboard.

Example:
  drowse daemon
  drowse daemon --addr 127.0.0.1:9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "dashboard listen address (overrides config)")

	return cmd
}

func runDaemon(cmd *cobra.Command, opts *DaemonOptions) error {
	// The log file location is needed before the store opens.
	cfg, err := config.Load(opts.DataDir, opts.ConfigFile)
	if err != nil {
		return err
	}

	logger, logCloser := daemon.NewLogger(cfg.Daemon.LogFile, cfg.Daemon.LogMaxSizeMB, cfg.Daemon.LogMaxBackups)
	defer logCloser.Close()

	e, err := openTrackerEnv(cmd, opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer e.close()

	addr := cfg.Daemon.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	d, err := daemon.New(e.store, e.tracker, &daemon.Config{
		DataDir:      opts.DataDir,
		DBPath:       cfg.Storage.Path,
		Addr:         addr,
		SyncInterval: cfg.LibSQL.SyncInterval,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Printf("Received %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Starting drowse daemon...\n", ui.RenderAccent("🌙"))
	fmt.Fprintf(out, "   Data dir: %s\n", opts.DataDir)
	if cfg.Storage.Path != "" {
		fmt.Fprintf(out, "   Database: %s\n", cfg.Storage.Path)
	}
	fmt.Fprintf(out, "   Dashboard: http://%s\n", addr)
	if cfg.Daemon.LogFile != "" {
		fmt.Fprintf(out, "   Log: %s\n", cfg.Daemon.LogFile)
	}
	fmt.Fprintf(out, "\nPress Ctrl+C to stop\n\n")

	return d.Start(ctx)
}
