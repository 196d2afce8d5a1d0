package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridctl/jsproc/pkg/output"
	"github.com/gridctl/jsproc/pkg/reload"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a warm engine and rebuild it when program sources change",
	Long: `Builds the engine context, then watches the program sources
(engine.source_dir) and the configuration file. Any change resets the
engine and rebuilds it straight away so build errors show up immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		printer := output.NewWithWriter(os.Stderr)
		printer.Banner(version)

		warm := func() error {
			if m := a.proc.Manager(); m != nil {
				if _, err := m.GetOrCreate(); err != nil {
					return err
				}
				printer.Info("Engine ready", "builds", m.Builds())
			}
			return nil
		}
		if err := warm(); err != nil {
			printer.Error("Engine build failed", "error", err)
		}

		var paths []string
		if a.cfg.Engine.SourceDir != "" {
			paths = append(paths, a.cfg.Engine.SourceDir)
		}
		if _, err := os.Stat(flagConfig); err == nil {
			paths = append(paths, flagConfig)
		}
		if len(paths) == 0 {
			return errors.New("nothing to watch: set engine.source_dir or provide a config file")
		}

		watcher, err := reload.NewWatcher(func() error {
			a.proc.ResetEngine()
			return warm()
		}, paths...)
		if err != nil {
			return err
		}
		watcher.SetLogger(a.logger)
		watcher.SetDebounce(watchDebounce)
		watcher.SetExtensions(".js", ".yaml", ".yml")

		printer.Info("Watching", "paths", paths)
		if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a reload")
}
