package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// EnvPrefix selects process environment variables exposed to bundles.
const EnvPrefix = "DOCSHELL_"

// Head files read from the config dir.
const (
	ManagerHeadFile = "manager-head.html"
	PreviewHeadFile = "preview-head.html"
)

// previewConfigFiles are looked up in the config dir, first match wins.
var previewConfigFiles = []string{"preview.tsx", "preview.ts", "preview.jsx", "preview.js"}

func commonPreset(_ context.Context, _ preset.Args) (*preset.Preset, error) {
	p := preset.New(Common)
	preset.Contribute(p, preset.Core, func(_ context.Context, c preset.CoreConfig, _ preset.Args) (preset.CoreConfig, error) {
		if c.Builder == "" {
			c.Builder = config.DefaultBuilder
		}
		return c, nil
	})
	preset.Contribute(p, preset.Transpile, func(_ context.Context, t preset.TranspileOptions, _ preset.Args) (preset.TranspileOptions, error) {
		loaders := map[string]string{
			".js":   "jsx",
			".jsx":  "jsx",
			".ts":   "ts",
			".tsx":  "tsx",
			".css":  "css",
			".svg":  "file",
			".png":  "file",
			".json": "json",
		}
		for ext, l := range t.Loaders {
			loaders[ext] = l
		}
		t.Loaders = loaders
		return t, nil
	})
	return p, nil
}

func managerPreset(_ context.Context, _ preset.Args) (*preset.Preset, error) {
	p := preset.New(Manager)
	preset.Append(p, preset.ManagerEntries, ManagerEntry)
	preset.Contribute(p, preset.ManagerHead, headFile(ManagerHeadFile))
	return p, nil
}

func previewPreset(_ context.Context, args preset.Args) (*preset.Preset, error) {
	p := preset.New(Preview)
	entries := []string{PreviewEntry}
	if dir := args.String(preset.ArgConfigDir); dir != "" {
		for _, name := range previewConfigFiles {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				entries = append(entries, candidate)
				break
			}
		}
	}
	preset.Append(p, preset.Entries, entries...)
	preset.Contribute(p, preset.PreviewHead, headFile(PreviewHeadFile))
	return p, nil
}

// headFile appends the content of a config dir file to a head extension point.
func headFile(name string) preset.Handler[string] {
	return func(_ context.Context, head string, args preset.Args) (string, error) {
		dir := args.String(preset.ArgConfigDir)
		if dir == "" {
			return head, nil
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			return head, nil
		}
		if err != nil {
			return head, fmt.Errorf("read %s: %w", name, err)
		}
		if head == "" {
			return string(data), nil
		}
		return head + "\n" + string(data), nil
	}
}

func envPreset(_ context.Context, _ preset.Args) (*preset.Preset, error) {
	p := preset.New(Env)
	preset.Contribute(p, preset.Env, func(_ context.Context, env map[string]string, args preset.Args) (map[string]string, error) {
		out := make(map[string]string, len(env)+4)
		for k, v := range env {
			out[k] = v
		}
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if ok && strings.HasPrefix(k, EnvPrefix) {
				out[k] = v
			}
		}
		mode := "production"
		if args.String(preset.ArgConfigType) == preset.ConfigTypeDevelopment {
			mode = "development"
		}
		out["NODE_ENV"] = mode
		if args.Bool(preset.ArgDocsMode) {
			out["DOCSHELL_DOCS_MODE"] = "true"
		}
		return out, nil
	})
	return p, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// EnvDefines converts env into esbuild/webpack define entries. Names that are
// not JavaScript identifiers are skipped.
func EnvDefines(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		if identifier.MatchString(k) {
			quoted, _ := json.Marshal(v)
			out["process.env."+k] = string(quoted)
		}
	}
	return out
}

func staticPreset(_ context.Context, args preset.Args) (*preset.Preset, error) {
	p := preset.New(Static)
	dir := args.String(preset.ArgConfigDir)
	if dir == "" {
		return p, nil
	}
	public := filepath.Join(dir, "public")
	if info, err := os.Stat(public); err == nil && info.IsDir() {
		preset.Append(p, preset.StaticDirs, public)
	}
	return p, nil
}

func cachePreset(_ context.Context, args preset.Args) (*preset.Preset, error) {
	p := preset.New(Cache)
	store, ok := preset.Value[*cache.Store](args, preset.ArgCache)
	if !ok || store == nil {
		return p, nil
	}
	overlayCore(p, preset.CoreConfig{Options: map[string]any{"cacheDir": store.Dir()}})
	return p, nil
}
