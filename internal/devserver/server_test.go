package devserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/metrics"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
)

type fakeBuilder struct {
	target string

	mu         sync.Mutex
	starts     int
	bails      int
	configType string
}

func (f *fakeBuilder) GetConfig(context.Context, builder.Options) (any, error) { return nil, nil }

func (f *fakeBuilder) Start(_ context.Context, args builder.StartArgs) (*builder.StartResult, error) {
	f.mu.Lock()
	f.starts++
	f.configType = args.Options.ConfigType
	f.mu.Unlock()
	args.Router.Get("/"+f.target+"/*", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("// " + f.target + " " + chi.URLParam(r, "*")))
	})
	return &builder.StartResult{
		Stats: &builder.Result{Target: f.target, Warnings: []string{"slow module"}},
		Bail:  f.Bail,
	}, nil
}

func (f *fakeBuilder) Build(context.Context, builder.BuildArgs) (*builder.Result, error) {
	return &builder.Result{Target: f.target}, nil
}

func (f *fakeBuilder) Bail(context.Context, error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bails++
	return nil
}

type fixture struct {
	root    string
	manager *fakeBuilder
	preview *fakeBuilder
	orch    *staticbuild.Orchestrator
	opts    staticbuild.Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	configDir := filepath.Join(root, ".docshell")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0o750))
	require.NoError(t, os.MkdirAll(configDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "robots.txt"), []byte("User-agent: *"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "index.html"), []byte("shadowed"), 0o600))

	f := &fixture{
		root:    root,
		manager: &fakeBuilder{target: builder.TargetManager},
		preview: &fakeBuilder{target: builder.TargetPreview},
	}
	reg, err := builder.NewRegistry(builder.Backend{
		Name: "fake",
		New:  func() builder.Builder[any] { return f.preview },
	})
	require.NoError(t, err)
	f.orch = staticbuild.New(reg, builder.Backend{
		Name: "fake-manager",
		New:  func() builder.Builder[any] { return f.manager },
	})
	f.opts = staticbuild.Options{
		Config: &config.Config{
			Version:    config.CurrentVersion,
			Core:       config.CoreConfig{Builder: "fake"},
			Framework:  "react",
			StaticDirs: []string{"../public"},
			Refs:       map[string]config.RefConfig{"design": {Title: "Design", URL: "https://design.example.com"}},
		},
		ConfigDir: configDir,
		OutputDir: filepath.Join(root, "out"),
	}
	return f
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPrepareServesPagesAndAssets(t *testing.T) {
	f := newFixture(t)
	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg).SetPresetCount(3)

	s := New(f.orch, Options{Build: f.opts, Registry: reg}, nil)
	h, err := s.Prepare(t.Context())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	index := get(t, h, "/")
	require.Equal(t, http.StatusOK, index.Code)
	require.Contains(t, index.Body.String(), "__DOCSHELL_REFS__")
	require.Contains(t, index.Body.String(), "https://design.example.com")
	require.Contains(t, index.Body.String(), preset.ConfigTypeDevelopment)

	iframe := get(t, h, "/iframe.html")
	require.Equal(t, http.StatusOK, iframe.Code)
	require.Contains(t, iframe.Body.String(), "./preview/main.js")

	require.Equal(t, "// manager main.js", get(t, h, "/manager/main.js").Body.String())
	require.Equal(t, "// preview main.js", get(t, h, "/preview/main.js").Body.String())
	require.Equal(t, "User-agent: *", get(t, h, "/robots.txt").Body.String())
	require.Equal(t, http.StatusOK, get(t, h, "/favicon.svg").Code)

	missing := get(t, h, "/nope.js")
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.Contains(t, missing.Body.String(), `"code":"not_found"`)

	m := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, m.Code)
	require.Contains(t, m.Body.String(), "docshell_loaded_presets 3")

	require.Equal(t, preset.ConfigTypeDevelopment, f.preview.configType)
}

func TestHealthReportsResolution(t *testing.T) {
	f := newFixture(t)
	s := New(f.orch, Options{Build: f.opts}, nil)
	h, err := s.Prepare(t.Context())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "fake", body.Builder)
	require.Equal(t, "react", body.Framework)
	require.Contains(t, body.Presets, "main")

	require.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
}

func TestManagerOnlyDoesNotStartPreview(t *testing.T) {
	f := newFixture(t)
	f.opts.ManagerOnly = true
	s := New(f.orch, Options{Build: f.opts}, nil)
	h, err := s.Prepare(t.Context())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.Zero(t, f.preview.starts)
	require.Equal(t, 1, f.manager.starts)
	rec := get(t, h, "/iframe.html")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, strings.Contains(rec.Body.String(), "shadowed"))
}

func TestCloseBailsEveryBuilder(t *testing.T) {
	f := newFixture(t)
	s := New(f.orch, Options{Build: f.opts}, nil)
	_, err := s.Prepare(t.Context())
	require.NoError(t, err)

	s.Close()
	s.Close()
	require.Equal(t, 1, f.manager.bails)
	require.Equal(t, 1, f.preview.bails)
}

func TestPrepareFailsOnUnknownBuilder(t *testing.T) {
	f := newFixture(t)
	f.opts.Builder = "rollup"
	s := New(f.orch, Options{Build: f.opts}, nil)
	_, err := s.Prepare(t.Context())
	require.ErrorIs(t, err, builder.ErrUnknownBackend)
	require.Zero(t, f.manager.starts)
}

func TestRecoveryWritesInternalError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := chain(logger, errors.NewHTTPErrorAdapter(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := get(t, h, "/")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"internal"`)
}
