package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/mitchellh/mapstructure"
)

// TransformOptions are the options accepted by host.transform.
type TransformOptions struct {
	Loader            string          `mapstructure:"loader"`
	Format            string          `mapstructure:"format"`
	Target            string          `mapstructure:"target"`
	Sourcefile        string          `mapstructure:"sourcefile"`
	MinifyWhitespace  bool            `mapstructure:"minifyWhitespace"`
	MinifySyntax      bool            `mapstructure:"minifySyntax"`
	MinifyIdentifiers bool            `mapstructure:"minifyIdentifiers"`
	LegalComments     string          `mapstructure:"legalComments"`
	Supported         map[string]bool `mapstructure:"supported"`
}

// installShims exposes host.logger.{info,warn,error}, a console object and
// host.transform to the program.
func installShims(vm *goja.Runtime, logger *slog.Logger) error {
	logFn := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			logger.Log(context.Background(), level, strings.Join(parts, " "), "source", ProgramFilename)
			return goja.Undefined()
		}
	}

	hostLogger := vm.NewObject()
	console := vm.NewObject()
	for _, target := range []*goja.Object{hostLogger, console} {
		if err := target.Set("info", logFn(slog.LevelInfo)); err != nil {
			return err
		}
		if err := target.Set("warn", logFn(slog.LevelWarn)); err != nil {
			return err
		}
		if err := target.Set("error", logFn(slog.LevelError)); err != nil {
			return err
		}
	}
	if err := console.Set("log", logFn(slog.LevelInfo)); err != nil {
		return err
	}

	host := vm.NewObject()
	if err := host.Set("logger", hostLogger); err != nil {
		return err
	}
	err := host.Set("transform", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewGoError(fmt.Errorf("host.transform requires a source argument")))
		}
		code := call.Argument(0).String()

		var raw map[string]any
		if opts := call.Argument(1); !goja.IsUndefined(opts) && !goja.IsNull(opts) {
			exported, ok := opts.Export().(map[string]any)
			if !ok {
				panic(vm.NewGoError(fmt.Errorf("host.transform options must be an object")))
			}
			raw = exported
		}

		out, err := Transform(code, raw)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(out)
	})
	if err != nil {
		return err
	}

	if err := vm.Set("host", host); err != nil {
		return err
	}
	return vm.Set("console", console)
}

// Transform runs esbuild's transform API on code. raw is decoded into
// TransformOptions; unknown keys are rejected.
func Transform(code string, raw map[string]any) (string, error) {
	var opts TransformOptions
	if raw != nil {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused: true,
			Result:      &opts,
		})
		if err != nil {
			return "", err
		}
		if err := dec.Decode(raw); err != nil {
			return "", fmt.Errorf("invalid transform options: %w", err)
		}
	}

	loader, err := parseLoader(opts.Loader)
	if err != nil {
		return "", err
	}
	format, err := parseFormat(opts.Format)
	if err != nil {
		return "", err
	}
	target, err := parseTarget(opts.Target)
	if err != nil {
		return "", err
	}
	legal, err := parseLegalComments(opts.LegalComments)
	if err != nil {
		return "", err
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:            loader,
		Format:            format,
		Target:            target,
		Sourcefile:        opts.Sourcefile,
		Supported:         opts.Supported,
		MinifyWhitespace:  opts.MinifyWhitespace,
		MinifySyntax:      opts.MinifySyntax,
		MinifyIdentifiers: opts.MinifyIdentifiers,
		LegalComments:     legal,
		Charset:           api.CharsetUTF8,
	})

	if len(result.Errors) > 0 {
		return "", formatMessage(result.Errors[0], opts.Sourcefile)
	}
	return string(result.Code), nil
}

func formatMessage(msg api.Message, file string) error {
	loc := ""
	if msg.Location != nil {
		loc = fmt.Sprintf(" at line %d, column %d", msg.Location.Line, msg.Location.Column)
		if msg.Location.File != "" {
			file = msg.Location.File
		}
	}
	if file == "" {
		file = "<stdin>"
	}
	return fmt.Errorf("%s: syntax error%s: %s", file, loc, msg.Text)
}

func parseLoader(s string) (api.Loader, error) {
	switch s {
	case "", "js":
		return api.LoaderJS, nil
	case "jsx":
		return api.LoaderJSX, nil
	case "ts":
		return api.LoaderTS, nil
	default:
		return api.LoaderNone, fmt.Errorf("unsupported loader %q", s)
	}
}

func parseFormat(s string) (api.Format, error) {
	switch s {
	case "":
		return api.FormatDefault, nil
	case "cjs":
		return api.FormatCommonJS, nil
	case "esm":
		return api.FormatESModule, nil
	case "iife":
		return api.FormatIIFE, nil
	default:
		return api.FormatDefault, fmt.Errorf("unsupported format %q", s)
	}
}

var targets = map[string]api.Target{
	"":       api.ESNext,
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

func parseTarget(s string) (api.Target, error) {
	t, ok := targets[strings.ToLower(s)]
	if !ok {
		return api.ESNext, fmt.Errorf("unsupported target %q", s)
	}
	return t, nil
}

func parseLegalComments(s string) (api.LegalComments, error) {
	switch s {
	case "":
		return api.LegalCommentsDefault, nil
	case "none":
		return api.LegalCommentsNone, nil
	case "inline":
		return api.LegalCommentsInline, nil
	case "eof":
		return api.LegalCommentsEndOfFile, nil
	default:
		return api.LegalCommentsDefault, fmt.Errorf("unsupported legalComments %q", s)
	}
}
