package esbuild

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/builder/jsruntime"
)

const entryModule = jsruntime.EntryModule

// virtualModules resolves the docshell: namespace from the embedded runtime
// and the entries/stories of cfg.
func virtualModules(cfg Config) api.Plugin {
	return api.Plugin{
		Name: "docshell-virtual",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^docshell:`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return api.OnResolveResult{Path: args.Path, Namespace: jsruntime.Namespace}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: jsruntime.Namespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				var contents string
				switch args.Path {
				case entryModule:
					contents = jsruntime.EntrySource(cfg.Entries)
				case jsruntime.StoriesModule:
					contents = jsruntime.StoriesSource(cfg.Stories, cfg.BaseDir)
				default:
					src, err := jsruntime.Source(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents = src
				}
				return api.OnLoadResult{Contents: &contents, ResolveDir: cfg.BaseDir, Loader: api.LoaderJS}, nil
			})
		},
	}
}

var markdownFilter = `\.(md|mdx)$`

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// markdownStories turns Markdown files into docs-only story modules.
func markdownStories() api.Plugin {
	return api.Plugin{
		Name: "docshell-markdown",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: markdownFilter}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				src, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				contents, err := MarkdownModule(args.Path, src)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS, ResolveDir: filepath.Dir(args.Path)}, nil
			})
		},
	}
}

var storySuffix = regexp.MustCompile(`\.stories\.(md|mdx)$`)

// MarkdownModule renders src as an ES module exporting a Docs story whose
// title is the first heading, or the file name.
func MarkdownModule(path string, src []byte) (string, error) {
	doc := md.Parser().Parse(text.NewReader(src))
	title := ""
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); entering && ok && h.Level == 1 {
			title = string(h.Lines().Value(src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if title == "" {
		title = storySuffix.ReplaceAllString(filepath.Base(path), "")
		title = strings.TrimSuffix(title, filepath.Ext(title))
	}
	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	return fmt.Sprintf("export default { title: %s, docsOnly: true };\nexport const Docs = () => %s;\n",
		strconv.Quote(title), strconv.Quote(buf.String())), nil
}

// progress reports compile start/end and hands every result to onEnd.
func progress(target string, reporter builder.ProgressReporter, onEnd func(*api.BuildResult, *builder.Result)) api.Plugin {
	return api.Plugin{
		Name: "docshell-progress",
		Setup: func(build api.PluginBuild) {
			var started time.Time
			build.OnStart(func() (api.OnStartResult, error) {
				started = time.Now()
				reporter.CompileStarted(target)
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				r := toResult(target, result, time.Since(started))
				reporter.CompileFinished(target, r)
				if onEnd != nil {
					onEnd(result, r)
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

func toResult(target string, res *api.BuildResult, d time.Duration) *builder.Result {
	r := &builder.Result{Target: target, Duration: d}
	if res == nil {
		return r
	}
	r.Errors = api.FormatMessages(res.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	r.Warnings = api.FormatMessages(res.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage})
	for _, f := range res.OutputFiles {
		r.Outputs = append(r.Outputs, f.Path)
	}
	return r
}
