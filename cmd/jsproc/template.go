package main

import "github.com/spf13/cobra"

var (
	templateTheme int
	templateOut   string
)

var compileTemplateCmd = &cobra.Command{
	Use:   "compile-template [file]",
	Short: "Compile a raw template into a render function",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ""
		if len(args) == 1 {
			file = args[0]
		}
		source, err := readInput(file)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		out, err := a.proc.CompileTemplate(cmd.Context(), source, themePtr(templateTheme))
		if err != nil {
			return err
		}
		return writeOutput(templateOut, out+"\n")
	},
}

func init() {
	compileTemplateCmd.Flags().IntVar(&templateTheme, "theme", -1, "Theme id for theme-prefix helpers")
	compileTemplateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Write output to this file instead of stdout")
}
