package main

import (
	"os"
	"path/filepath"

	"github.com/gridctl/jsproc/pkg/classify"
	"github.com/gridctl/jsproc/pkg/output"
	"github.com/gridctl/jsproc/pkg/processor"
	"github.com/spf13/cobra"
)

var (
	classifyRoot     string
	classifyRegister []string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <path>...",
	Short: "Show whether files are transpiled and their module ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		for _, prefix := range classifyRegister {
			a.proc.RegisterTranspilePath(prefix)
		}

		root := classifyRoot
		if root == "" {
			root = filepath.Join(a.cfg.AppRoot, classify.JSRoot)
		}

		rows := make([]output.ClassifySummary, 0, len(args))
		for _, p := range args {
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			row := output.ClassifySummary{Path: p, Transpile: a.proc.ShouldTranspile(abs)}
			if row.Transpile {
				row.ModuleID = a.proc.ModuleName(root, processor.LogicalPath(root, abs))
				if data, err := os.ReadFile(abs); err == nil {
					row.SkipsWrap = classify.SkipModule(string(data))
				}
			}
			rows = append(rows, row)
		}

		output.New().Classifications(rows)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyRoot, "root", "", "Load path for module ids (default: <app_root>/app/assets/javascripts)")
	classifyCmd.Flags().StringSliceVar(&classifyRegister, "register", nil, "Extra transpile path prefixes")
}
