package main

import (
	"path/filepath"

	"github.com/gridctl/jsproc/pkg/processor"
	"github.com/spf13/cobra"
)

var (
	transpileRoot    string
	transpileLogical string
	transpileTheme   int
	transpileOut     string
	transpileAsset   bool
)

var transpileCmd = &cobra.Command{
	Use:   "transpile [file]",
	Short: "Transpile a script into a module",
	Long: `Transpiles a script read from a file or stdin.

The module id is derived from --root and --logical. When only a file is
given, the logical path is the file path relative to --root with its
extension removed.

With --asset the file goes through the asset hook instead: it is only
transpiled when classified, and outside production the output is wrapped
in an eval carrying a sourceURL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ""
		if len(args) == 1 {
			file = args[0]
		}
		return runTranspile(cmd, file)
	},
}

func init() {
	transpileCmd.Flags().StringVar(&transpileRoot, "root", "", "Load path the logical path is relative to")
	transpileCmd.Flags().StringVar(&transpileLogical, "logical", "", "Logical path of the source (defaults to the file path)")
	transpileCmd.Flags().IntVar(&transpileTheme, "theme", -1, "Theme id the source belongs to")
	transpileCmd.Flags().StringVarP(&transpileOut, "out", "o", "", "Write output to this file instead of stdout")
	transpileCmd.Flags().BoolVar(&transpileAsset, "asset", false, "Process the file as a pipeline asset")
}

func runTranspile(cmd *cobra.Command, file string) error {
	source, err := readInput(file)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	root := transpileRoot
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return err
		}
	}

	var out string
	if transpileAsset {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		out, err = a.proc.Process(cmd.Context(), processor.Asset{LoadPath: root, Filename: abs, Data: source})
		if err != nil {
			return err
		}
		return writeOutput(transpileOut, out)
	}

	logical := transpileLogical
	if logical == "" && file != "" && file != "-" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		logical = processor.LogicalPath(root, abs)
	}

	out, err = a.proc.Transpile(cmd.Context(), source, root, logical, themePtr(transpileTheme))
	if err != nil {
		return err
	}
	return writeOutput(transpileOut, out)
}
