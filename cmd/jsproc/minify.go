package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	minifyNoMangle   bool
	minifyNoCompress bool
	minifyComments   bool
	minifyTarget     string
	minifyOut        string
)

var minifyCmd = &cobra.Command{
	Use:   "minify <file>...",
	Short: "Minify script files into one output",
	Long:  `Concatenates the given files in name order and minifies the result.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree := make(map[string]string, len(args))
		for _, f := range args {
			data, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			tree[filepath.ToSlash(f)] = string(data)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		opts := map[string]any{
			"mangle":   !minifyNoMangle,
			"compress": !minifyNoCompress,
			"output":   map[string]any{"comments": minifyComments},
		}
		if minifyTarget != "" {
			opts["target"] = minifyTarget
		}

		out, err := a.proc.Minify(cmd.Context(), tree, opts)
		if err != nil {
			return err
		}
		return writeOutput(minifyOut, out)
	},
}

func init() {
	minifyCmd.Flags().BoolVar(&minifyNoMangle, "no-mangle", false, "Keep local identifier names")
	minifyCmd.Flags().BoolVar(&minifyNoCompress, "no-compress", false, "Skip syntax compression")
	minifyCmd.Flags().BoolVar(&minifyComments, "comments", false, "Keep legal comments")
	minifyCmd.Flags().StringVar(&minifyTarget, "target", "", "Output language target (e.g. es2015)")
	minifyCmd.Flags().StringVarP(&minifyOut, "out", "o", "", "Write output to this file instead of stdout")
}
