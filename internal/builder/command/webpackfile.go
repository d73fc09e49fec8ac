package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ConfigFileName is written next to the materialized runtime.
const ConfigFileName = "webpack.config.cjs"

type rule struct {
	Test    string `json:"-"`
	Use     any    `json:"use,omitempty"`
	Type    string `json:"type,omitempty"`
	Exclude string `json:"-"`
}

// rules maps loader names onto webpack module rules for the given version.
func rules(version int, loaders map[string]string) []rule {
	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	var out []rule
	for _, ext := range exts {
		test := regexp.QuoteMeta(ext) + "$"
		switch loaders[ext] {
		case "js", "jsx", "ts", "tsx":
			out = append(out, rule{Test: test, Use: "babel-loader", Exclude: "node_modules"})
		case "css":
			out = append(out, rule{Test: test, Use: []string{"style-loader", "css-loader"}})
		case "file", "copy":
			if version >= 5 {
				out = append(out, rule{Test: test, Type: "asset/resource"})
			} else {
				out = append(out, rule{Test: test, Use: "file-loader"})
			}
		case "text":
			if version >= 5 {
				out = append(out, rule{Test: test, Type: "asset/source"})
			} else {
				out = append(out, rule{Test: test, Use: "raw-loader"})
			}
		}
	}
	return out
}

// Render returns the CommonJS webpack configuration for cfg with entry as
// the single entry module.
func Render(cfg Config, entry string) (string, error) {
	output := map[string]any{
		"path":     cfg.OutputPath,
		"filename": "main.js",
	}
	if cfg.PublicPath != "" {
		output["publicPath"] = cfg.PublicPath
	}
	base := map[string]any{
		"mode":    cfg.Mode,
		"context": cfg.WorkDir,
		"entry":   map[string]string{"main": entry},
		"output":  output,
		"resolve": map[string]any{"extensions": cfg.Extensions},
		"optimization": map[string]any{
			"minimize": cfg.Minimize,
		},
	}
	if cfg.Devtool != "" {
		base["devtool"] = cfg.Devtool
	} else {
		base["devtool"] = false
	}
	if cfg.Version >= 5 && cfg.CacheDir != "" {
		base["cache"] = map[string]any{"type": "filesystem", "cacheDirectory": cfg.CacheDir}
	}
	if cfg.Version >= 5 && len(cfg.Target) > 0 {
		base["target"] = append([]string{"web"}, cfg.Target...)
	}

	encoded, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode webpack config: %w", err)
	}
	defines, err := json.MarshalIndent(cfg.Define, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode defines: %w", err)
	}

	var b strings.Builder
	b.WriteString("// Generated by docshell. Do not edit.\n")
	b.WriteString("const webpack = require(\"webpack\");\n")
	fmt.Fprintf(&b, "const config = %s;\n", encoded)
	b.WriteString("config.module = { rules: [\n")
	for _, r := range rules(cfg.Version, cfg.Loaders) {
		extra, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encode rule: %w", err)
		}
		exclude := ""
		if r.Exclude != "" {
			exclude = fmt.Sprintf(", exclude: /%s/", regexp.QuoteMeta(r.Exclude))
		}
		fmt.Fprintf(&b, "  Object.assign({ test: /%s/%s }, %s),\n", r.Test, exclude, extra)
	}
	b.WriteString("] };\n")
	fmt.Fprintf(&b, "config.plugins = [new webpack.DefinePlugin(%s)];\n", defines)
	b.WriteString("module.exports = config;\n")
	return b.String(), nil
}

// writeConfigFile renders cfg into dir and returns the file path.
func writeConfigFile(dir string, cfg Config, entry string) (string, error) {
	src, err := Render(cfg, entry)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		return "", fmt.Errorf("write webpack config: %w", err)
	}
	return path, nil
}
