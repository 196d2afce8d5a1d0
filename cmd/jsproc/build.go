package main

import (
	"io/fs"
	"os"
	"time"

	"github.com/gridctl/jsproc/pkg/artifact"
	"github.com/gridctl/jsproc/pkg/engine"
	"github.com/gridctl/jsproc/pkg/output"
	"github.com/spf13/cobra"
)

var (
	buildOut         string
	buildLockTimeout time.Duration
	buildClean       bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Bundle the transformation program for production",
	Long: `Bundles the transformation program into the shared artifact that
production processes load without rebuilding.

Concurrent builds are serialized with a lock file next to the artifact.
With --clean, per-process bundles left behind by dead development
processes are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		printer := output.NewWithWriter(os.Stderr)

		var source fs.FS = engine.ProgramFS()
		if cfg.Engine.SourceDir != "" {
			source = os.DirFS(cfg.Engine.SourceDir)
		}
		builder := engine.NewEsbuildBuilder(source)
		builder.SetLogger(logger)

		path := buildOut
		if path == "" {
			path = artifact.Path(cfg.Engine.ArtifactDir, true)
		}

		start := time.Now()
		err = artifact.WithLock(artifact.LockPath(path), buildLockTimeout, func() error {
			return builder.Build(path)
		})
		if err != nil {
			return err
		}
		printer.Info("Program bundled", "path", path, "duration", time.Since(start).Round(time.Millisecond))

		if buildClean {
			removed, err := artifact.CleanStale(cfg.Engine.ArtifactDir)
			if err != nil {
				return err
			}
			for _, r := range removed {
				printer.Info("Removed stale bundle", "path", r)
			}
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "Artifact path (default: <artifact_dir>/js-processor.js)")
	buildCmd.Flags().DurationVar(&buildLockTimeout, "lock-timeout", 30*time.Second, "How long to wait for a concurrent build")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Remove bundles of dead development processes")
}
