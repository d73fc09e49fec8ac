package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// FileLoader resolves declarative presets stored as YAML files. Relative
// names are resolved against the config dir from the load arguments.
type FileLoader struct {
	// BaseDir overrides the config dir argument.
	BaseDir string
}

// declarative is the on-disk preset format.
type declarative struct {
	Name           string                      `yaml:"name"`
	Presets        []config.PresetEntry        `yaml:"presets"`
	Core           *preset.CoreConfig          `yaml:"core"`
	Stories        []string                    `yaml:"stories"`
	Entries        []string                    `yaml:"entries"`
	ManagerEntries []string                    `yaml:"managerEntries"`
	StaticDirs     []string                    `yaml:"staticDirs"`
	Refs           map[string]config.RefConfig `yaml:"refs"`
	Env            map[string]string           `yaml:"env"`
	Transpile      *preset.TranspileOptions    `yaml:"transpile"`
	ManagerHead    string                      `yaml:"managerHead"`
	PreviewHead    string                      `yaml:"previewHead"`
}

// Resolve implements preset.Loader.
func (l FileLoader) Resolve(_ context.Context, src preset.Source, args preset.Args) (*preset.Preset, error) {
	ext := strings.ToLower(filepath.Ext(src.Name))
	if ext != ".yaml" && ext != ".yml" {
		return nil, preset.ErrUnresolved
	}
	path := src.Name
	if !filepath.IsAbs(path) {
		base := l.BaseDir
		if base == "" {
			base = args.String(preset.ArgConfigDir)
		}
		path = filepath.Join(base, path)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, preset.ErrUnresolved
	}
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}

	var d declarative
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	name := d.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d.build(name), nil
}

func (d declarative) build(name string) *preset.Preset {
	p := preset.New(name).With(Sources(d.Presets)...)
	if d.Core != nil {
		overlayCore(p, *d.Core)
	}
	if len(d.Stories) > 0 {
		preset.Append(p, preset.Stories, d.Stories...)
	}
	if len(d.Entries) > 0 {
		preset.Append(p, preset.Entries, d.Entries...)
	}
	if len(d.ManagerEntries) > 0 {
		preset.Append(p, preset.ManagerEntries, d.ManagerEntries...)
	}
	if len(d.StaticDirs) > 0 {
		preset.Append(p, preset.StaticDirs, d.StaticDirs...)
	}
	if len(d.Refs) > 0 {
		preset.Merge(p, preset.Refs, refsFromConfig(d.Refs))
	}
	if len(d.Env) > 0 {
		preset.Merge(p, preset.Env, d.Env)
	}
	if d.Transpile != nil {
		t := *d.Transpile
		preset.Contribute(p, preset.Transpile, func(_ context.Context, cur preset.TranspileOptions, _ preset.Args) (preset.TranspileOptions, error) {
			if t.JSX != "" {
				cur.JSX = t.JSX
			}
			if t.JSXImportSource != "" {
				cur.JSXImportSource = t.JSXImportSource
			}
			if len(t.Target) > 0 {
				cur.Target = t.Target
			}
			if len(t.Loaders) > 0 {
				loaders := make(map[string]string, len(cur.Loaders)+len(t.Loaders))
				for k, v := range cur.Loaders {
					loaders[k] = v
				}
				for k, v := range t.Loaders {
					loaders[k] = v
				}
				cur.Loaders = loaders
			}
			return cur, nil
		})
	}
	if d.ManagerHead != "" {
		head := d.ManagerHead
		preset.Contribute(p, preset.ManagerHead, func(_ context.Context, cur string, _ preset.Args) (string, error) {
			return joinHead(cur, head), nil
		})
	}
	if d.PreviewHead != "" {
		head := d.PreviewHead
		preset.Contribute(p, preset.PreviewHead, func(_ context.Context, cur string, _ preset.Args) (string, error) {
			return joinHead(cur, head), nil
		})
	}
	return p
}

// Loader returns the standard loader chain: built-in catalog first, then
// YAML files relative to the config dir.
func Loader(c *preset.Catalog) preset.Loader {
	return preset.ChainLoader{c, FileLoader{}}
}
