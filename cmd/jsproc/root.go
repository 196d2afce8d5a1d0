package main

import (
	"os"

	"github.com/gridctl/jsproc/pkg/output"
	"github.com/spf13/cobra"
)

var (
	flagConfig        string
	flagEnvFiles      []string
	flagEnv           string
	flagLogLevel      string
	flagLogFormat     string
	flagLogFile       string
	flagTraceEndpoint string
	flagStats         bool
)

var rootCmd = &cobra.Command{
	Use:   "jsproc",
	Short: "Embedded script transpiler",
	Long: `jsproc transpiles modern script sources into module-wrapped,
backward-compatible output by running a bundled transformation program
inside an embedded engine.

It also minifies script trees, compiles raw templates and tells which
files of an application are transpiled at all.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "jsproc.yaml", "Path to the configuration file")
	pf.StringSliceVar(&flagEnvFiles, "env-file", []string{".env"}, "Env files loaded before the configuration")
	pf.StringVar(&flagEnv, "env", "", "Environment override (development, test, production)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&flagLogFile, "log-file", "", "Also write logs to this file, rotated by size")
	pf.StringVar(&flagTraceEndpoint, "trace-endpoint", "", "OTLP/HTTP endpoint for engine call traces")
	pf.BoolVar(&flagStats, "stats", false, "Print engine status and metrics when done")

	rootCmd.AddCommand(transpileCmd)
	rootCmd.AddCommand(compileTemplateCmd)
	rootCmd.AddCommand(minifyCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.NewWithWriter(os.Stderr).Failure(err)
		os.Exit(1)
	}
}
