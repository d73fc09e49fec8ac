package command

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/builder/jsruntime"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// Backend names.
const (
	Webpack4 = "webpack4"
	Webpack5 = "webpack5"
)

// Webpack4Backend describes the webpack 4 backend.
func Webpack4Backend() builder.Backend { return Backend(4) }

// Webpack5Backend describes the webpack 5 backend.
func Webpack5Backend() builder.Backend { return Backend(5) }

// Webpack is the builder for one webpack major version.
type Webpack struct {
	version int
	runner  Runner

	mu      sync.Mutex
	cancel  context.CancelFunc
	process Process
}

var _ builder.Builder[Config] = (*Webpack)(nil)

// New returns a webpack builder. A nil runner uses ExecRunner.
func New(version int, runner Runner) *Webpack {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Webpack{version: version, runner: runner}
}

// Backend describes the webpack backend for version.
func Backend(version int) builder.Backend {
	name := fmt.Sprintf("webpack%d", version)
	return builder.Backend{
		Name:        name,
		CorePresets: []preset.Source{preset.S(CorePreset)},
		Presets:     RegisterPresets,
		New:         func() builder.Builder[any] { return builder.Erase[Config](New(version, nil)) },
	}
}

// GetConfig implements builder.Builder.
func (w *Webpack) GetConfig(ctx context.Context, opts builder.Options) (Config, error) {
	return resolve(ctx, w.version, opts)
}

// executable picks the configured command, the project-local webpack or
// webpack on PATH, in that order.
func (w *Webpack) executable(cfg Config) (string, error) {
	if cfg.Executable != "" {
		return cfg.Executable, nil
	}
	local := filepath.Join(cfg.WorkDir, "node_modules", ".bin", "webpack")
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	p, err := exec.LookPath("webpack")
	if err != nil {
		return "", fmt.Errorf("webpack executable not found (install webpack-cli or set build.command): %w", err)
	}
	return p, nil
}

func (w *Webpack) prepare(cfg Config) (exe, configPath string, err error) {
	exe, err = w.executable(cfg)
	if err != nil {
		return "", "", err
	}
	entry, err := jsruntime.Materialize(cfg.RuntimeDir, cfg.Entries, cfg.Stories, cfg.WorkDir)
	if err != nil {
		return "", "", err
	}
	configPath, err = writeConfigFile(cfg.RuntimeDir, cfg, entry)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(cfg.OutputPath, 0o750); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	return exe, configPath, nil
}

// Build implements builder.Builder.
func (w *Webpack) Build(ctx context.Context, args builder.BuildArgs) (*builder.Result, error) {
	reporter := builder.ProgressOrNoop(args.Progress)
	cfg, err := w.GetConfig(ctx, args.Options)
	if err != nil {
		return nil, err
	}
	exe, configPath, err := w.prepare(cfg)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
		cancel()
	}()

	reporter.CompileStarted(builder.TargetPreview)
	started := time.Now()
	cliArgs := append(append([]string{}, cfg.Args...), "--config", configPath, "--json")
	stdout, stderr, runErr := w.runner.Run(runCtx, cfg.WorkDir, exe, cliArgs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, parseErr := parseStats(stdout)
	if parseErr != nil {
		if runErr != nil {
			return nil, fmt.Errorf("webpack failed: %w: %s", runErr, strings.TrimSpace(string(stderr)))
		}
		return nil, parseErr
	}
	result.Target = builder.TargetPreview
	result.Duration = time.Since(started)
	if runErr != nil && !result.Failed() {
		result.Errors = append(result.Errors, fmt.Sprintf("webpack exited: %v", runErr))
	}
	reporter.CompileFinished(builder.TargetPreview, result)
	return result, nil
}

type statsMessage struct {
	text string
}

func (m *statsMessage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.text = s
		return nil
	}
	var obj struct {
		Message    string `json:"message"`
		ModuleName string `json:"moduleName"`
		Loc        string `json:"loc"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	text := obj.Message
	if obj.ModuleName != "" {
		loc := obj.ModuleName
		if obj.Loc != "" {
			loc += ":" + obj.Loc
		}
		text = loc + ": " + text
	}
	m.text = text
	return nil
}

type stats struct {
	Errors   []statsMessage `json:"errors"`
	Warnings []statsMessage `json:"warnings"`
	Assets   []struct {
		Name string `json:"name"`
	} `json:"assets"`
	OutputPath string `json:"outputPath"`
}

// parseStats reads the --json stats webpack prints on stdout.
func parseStats(stdout []byte) (*builder.Result, error) {
	start := strings.IndexByte(string(stdout), '{')
	if start < 0 {
		return nil, errors.New("webpack produced no stats output")
	}
	var s stats
	if err := json.Unmarshal(stdout[start:], &s); err != nil {
		return nil, fmt.Errorf("decode webpack stats: %w", err)
	}
	r := &builder.Result{}
	for _, m := range s.Errors {
		r.Errors = append(r.Errors, m.text)
	}
	for _, m := range s.Warnings {
		r.Warnings = append(r.Warnings, m.text)
	}
	for _, a := range s.Assets {
		r.Outputs = append(r.Outputs, filepath.Join(s.OutputPath, a.Name))
	}
	return r, nil
}

// Start implements builder.Builder. It compiles once, serves the output
// directory below /preview/ and keeps webpack running with --watch.
func (w *Webpack) Start(ctx context.Context, args builder.StartArgs) (*builder.StartResult, error) {
	if args.Router == nil {
		return nil, errors.New("start requires a router")
	}
	first, err := w.Build(ctx, builder.BuildArgs{Options: args.Options, StartTime: args.StartTime, Progress: args.Progress})
	if err != nil {
		return nil, err
	}
	cfg, err := w.GetConfig(ctx, args.Options)
	if err != nil {
		return nil, err
	}
	exe, configPath, err := w.prepare(cfg)
	if err != nil {
		return nil, err
	}

	prefix := "/" + builder.TargetPreview
	args.Router.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.OutputPath))))

	watchCtx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	cliArgs := append(append([]string{}, cfg.Args...), "--config", configPath, "--watch")
	proc, err := w.runner.Start(watchCtx, cfg.WorkDir, exe, cliArgs, pw)
	if err != nil {
		cancel()
		_ = pw.Close()
		return nil, fmt.Errorf("start webpack watch: %w", err)
	}
	w.mu.Lock()
	w.cancel = cancel
	w.process = proc
	w.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			slog.Info(scanner.Text(), logfields.Builder(fmt.Sprintf("webpack%d", w.version)))
		}
	}()
	go func() {
		_ = proc.Wait()
		_ = pw.Close()
	}()

	total := time.Duration(0)
	if !args.StartTime.IsZero() {
		total = time.Since(args.StartTime)
	}
	return &builder.StartResult{Stats: first, TotalTime: total, Bail: w.Bail}, nil
}

// Bail implements builder.Builder.
func (w *Webpack) Bail(_ context.Context, cause error) error {
	w.mu.Lock()
	cancel, proc := w.cancel, w.process
	w.cancel, w.process = nil, nil
	w.mu.Unlock()
	if cause != nil {
		slog.Debug("Stopping webpack", logfields.Error(cause))
	}
	if cancel != nil {
		cancel()
	}
	if proc != nil {
		return proc.Stop()
	}
	return nil
}

// CorePreset is registered by both webpack backends.
const CorePreset = "webpack-core"

// RegisterPresets adds the webpack core preset to c.
func RegisterPresets(c *preset.Catalog) error {
	if c.Has(CorePreset) {
		return nil
	}
	core := preset.New(CorePreset)
	preset.Contribute(core, Point, func(_ context.Context, cfg Config, args preset.Args) (Config, error) {
		if cfg.Mode == "development" && cfg.Devtool == "" {
			cfg.Devtool = "eval-cheap-module-source-map"
		}
		if args.Bool(preset.ArgDocsMode) {
			cfg.Define = copyDefine(cfg.Define)
			cfg.Define["DOCS_MODE"] = "true"
		}
		return cfg, nil
	})
	return c.RegisterPreset(core)
}

func copyDefine(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
