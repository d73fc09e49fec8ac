package builtin

import (
	"context"

	"git.home.luguber.info/inful/docshell/internal/preset"
)

func frameworkPreset(name string) preset.Factory {
	return func(_ context.Context, _ preset.Args) (*preset.Preset, error) {
		p := preset.New(frameworkPrefix + name)
		preset.Append(p, preset.Entries, FrameworkEntry(name))
		preset.Contribute(p, preset.Transpile, func(_ context.Context, t preset.TranspileOptions, _ preset.Args) (preset.TranspileOptions, error) {
			switch name {
			case "react":
				t.JSX = "automatic"
				t.JSXImportSource = "react"
			case "html":
				if t.JSX == "" {
					t.JSX = "transform"
				}
			}
			return t, nil
		})
		return p, nil
	}
}
