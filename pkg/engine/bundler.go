package engine

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/gridctl/jsproc/pkg/artifact"
	"github.com/gridctl/jsproc/pkg/logging"
)

// ProgramFilename is the script name the bundle is evaluated under.
const ProgramFilename = "js-processor.js"

// ProgramEntry is the entry module of the transformation program sources.
const ProgramEntry = "index.js"

const programNamespace = "js-processor"

//go:embed program/*.js
var programFiles embed.FS

// ProgramFS returns the transformation program sources compiled into the binary.
func ProgramFS() fs.FS {
	sub, err := fs.Sub(programFiles, "program")
	if err != nil {
		panic(err)
	}
	return sub
}

// Builder produces the bundled transformation program at outfile.
type Builder interface {
	Build(outfile string) error
}

// EsbuildBuilder bundles program sources read from an fs.FS with esbuild.
type EsbuildBuilder struct {
	source fs.FS
	entry  string
	logger *slog.Logger
}

// NewEsbuildBuilder creates a builder for the sources in source, starting
// at ProgramEntry.
func NewEsbuildBuilder(source fs.FS) *EsbuildBuilder {
	return &EsbuildBuilder{
		source: source,
		entry:  ProgramEntry,
		logger: logging.NewDiscardLogger(),
	}
}

// SetLogger sets the logger used for bundler warnings.
func (b *EsbuildBuilder) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// Bundle returns the bundled program text.
func (b *EsbuildBuilder) Bundle() ([]byte, error) {
	result := api.Build(api.BuildOptions{
		EntryPoints: []string{b.entry},
		Bundle:      true,
		Write:       false,
		Outfile:     ProgramFilename,
		Format:      api.FormatIIFE,
		Target:      api.ES2015,
		External:    []string{"fs"},
		Define:      map[string]string{"process": `{"env":{}}`},
		LogLevel:    api.LogLevelSilent,
		Charset:     api.CharsetUTF8,
		Plugins:     []api.Plugin{sourcePlugin(b.source)},
	})

	for _, w := range result.Warnings {
		b.logger.Warn("bundler warning", "text", w.Text, "file", locationFile(w))
	}
	if len(result.Errors) > 0 {
		return nil, formatMessage(result.Errors[0], "")
	}
	if len(result.OutputFiles) == 0 {
		return nil, fmt.Errorf("bundler produced no output")
	}
	return result.OutputFiles[0].Contents, nil
}

// Build bundles the program and writes it to outfile.
func (b *EsbuildBuilder) Build(outfile string) error {
	data, err := b.Bundle()
	if err != nil {
		return err
	}
	return artifact.Write(outfile, data)
}

func locationFile(m api.Message) string {
	if m.Location == nil {
		return ""
	}
	return m.Location.File
}

// sourcePlugin resolves and loads every module from source instead of the
// real file system. "fs" stays external.
func sourcePlugin(source fs.FS) api.Plugin {
	return api.Plugin{
		Name: "js-processor-sources",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^fs$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})

			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					p := args.Path
					if args.Kind != api.ResolveEntryPoint {
						if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") {
							return api.OnResolveResult{}, fmt.Errorf("cannot resolve %q: only relative imports are bundled", p)
						}
						p = path.Join(path.Dir(args.Importer), p)
					}
					p = strings.TrimPrefix(path.Clean(p), "/")
					if path.Ext(p) == "" {
						p += ".js"
					}
					return api.OnResolveResult{Path: p, Namespace: programNamespace}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: programNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := fs.ReadFile(source, args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := string(data)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}
