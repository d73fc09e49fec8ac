package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docshell/internal/preset"
)

type stringBuilder struct {
	bailed int
}

func (b *stringBuilder) GetConfig(_ context.Context, opts Options) (string, error) {
	return "config:" + opts.Framework, nil
}

func (b *stringBuilder) Start(context.Context, StartArgs) (*StartResult, error) {
	return &StartResult{Stats: &Result{}}, nil
}

func (b *stringBuilder) Build(_ context.Context, args BuildArgs) (*Result, error) {
	return &Result{Target: TargetPreview, Outputs: []string{args.Options.OutputDir}}, nil
}

func (b *stringBuilder) Bail(context.Context, error) error {
	b.bailed++
	return nil
}

func TestErase(t *testing.T) {
	ctx := context.Background()
	typed := &stringBuilder{}
	erased := Erase[string](typed)

	cfg, err := erased.GetConfig(ctx, Options{Framework: "react"})
	require.NoError(t, err)
	require.Equal(t, "config:react", cfg)

	res, err := erased.Build(ctx, BuildArgs{Options: Options{OutputDir: "out"}})
	require.NoError(t, err)
	require.Equal(t, []string{"out"}, res.Outputs)

	require.NoError(t, erased.Bail(ctx, nil))
	require.Equal(t, 1, typed.bailed)
}

func TestRegistry(t *testing.T) {
	newFn := func() Builder[any] { return Erase[string](&stringBuilder{}) }
	r, err := NewRegistry(
		Backend{Name: "esbuild", New: newFn},
		Backend{Name: "webpack4", New: newFn},
		Backend{Name: "Webpack5", New: newFn, CorePresets: []preset.Source{preset.S("webpack-core")}},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"esbuild", "webpack4", "webpack5"}, r.Names())

	b, err := r.Get("")
	require.NoError(t, err)
	require.Equal(t, "webpack4", b.Name)

	b, err = r.Get("WEBPACK5")
	require.NoError(t, err)
	require.Equal(t, "webpack-core", b.CorePresets[0].Name)

	_, err = r.Get("parcel")
	require.ErrorIs(t, err, ErrUnknownBackend)
	require.ErrorContains(t, err, "esbuild, webpack4, webpack5")

	require.Error(t, r.Register(Backend{Name: "esbuild", New: newFn}))
	require.Error(t, r.Register(Backend{Name: "nocons"}))
}

func TestResultErr(t *testing.T) {
	ok := &Result{Target: TargetManager, Warnings: []string{"w"}}
	require.False(t, ok.Failed())
	require.NoError(t, ok.Err())

	failed := &Result{Target: TargetPreview, Errors: []string{"x.js:1: unexpected token\nmore"}}
	err := failed.Err()
	var ce *CompilationError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "preview compilation failed: x.js:1: unexpected token", err.Error())
}

func TestOptionsArgs(t *testing.T) {
	args := Options{ConfigType: preset.ConfigTypeProduction, ConfigDir: ".docshell", Framework: "html", DocsMode: true}.Args()
	require.Equal(t, ".docshell", args.String(preset.ArgConfigDir))
	require.Equal(t, "html", args.String(preset.ArgFramework))
	require.True(t, args.Bool(preset.ArgDocsMode))
	_, hasCache := args.Get(preset.ArgCache)
	require.False(t, hasCache)
	require.True(t, Options{}.Production())
}
