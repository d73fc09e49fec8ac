package devserver

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/metrics"
	"git.home.luguber.info/inful/docshell/internal/pages"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
)

// DefaultPort is used when Options.Port is zero.
const DefaultPort = 6006

// Options configure a dev server.
type Options struct {
	Build staticbuild.Options
	Host  string
	Port  int
	// Registry backs /metrics. Nil disables the endpoint.
	Registry *prom.Registry
}

func (o Options) addr() string {
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(o.Host, fmt.Sprint(port))
}

// Server compiles the manager and preview in watch mode and serves them.
type Server struct {
	orch   *staticbuild.Orchestrator
	opts   Options
	logger *slog.Logger
	errs   *errors.HTTPErrorAdapter

	mu        sync.Mutex
	res       *staticbuild.Resolution
	bails     []func(context.Context, error) error
	ephemeral *cache.Store
	started   time.Time
}

// New creates a dev server. logger may be nil.
func New(orch *staticbuild.Orchestrator, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orch:   orch,
		opts:   opts,
		logger: logger,
		errs:   errors.NewHTTPErrorAdapter(logger),
	}
}

// Run prepares the server, listens until ctx is canceled and then stops
// every builder.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Prepare(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.addr())
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to listen").
			WithContext("addr", s.opts.addr()).
			Build()
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	s.logger.Info("Dev server listening", logfields.Addr("http://"+ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dev server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if stdErrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Prepare resolves presets, starts the builders and returns the router.
// Close must be called to stop the builders.
func (s *Server) Prepare(ctx context.Context) (http.Handler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = time.Now()

	store := s.opts.Build.Cache
	if store == nil {
		eph, err := cache.NewEphemeral("")
		if err != nil {
			return nil, err
		}
		s.ephemeral = eph
		store = eph
	}
	res, err := s.orch.Resolve(ctx, s.opts.Build, preset.ConfigTypeDevelopment, store)
	if err != nil {
		return nil, err
	}
	s.res = res

	r := chi.NewRouter()
	r.Use(chain(s.logger, s.errs))
	r.Get("/health", s.health)
	if s.opts.Registry != nil {
		r.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}

	args := builder.StartArgs{
		Options:   res.Options,
		StartTime: s.started,
		Progress:  builder.SlogProgress{Logger: s.logger},
		Router:    r,
	}
	if err := s.start(ctx, res.Manager.New(), args); err != nil {
		return nil, err
	}
	preview := !s.opts.Build.ManagerOnly && s.opts.Build.PreviewURL == ""
	if preview {
		if err := s.start(ctx, res.Backend.New(), args); err != nil {
			s.closeLocked()
			return nil, err
		}
	}

	managerPage, err := s.managerPage(ctx, res)
	if err != nil {
		s.closeLocked()
		return nil, err
	}
	r.Get("/", s.page(managerPage))
	r.Get("/"+pages.ManagerFile, s.page(managerPage))
	if preview {
		previewPage, err := s.previewPage(ctx, res)
		if err != nil {
			s.closeLocked()
			return nil, err
		}
		r.Get("/"+pages.PreviewFile, s.page(previewPage))
	}

	dirs, err := res.StaticDirs(ctx, s.opts.Build.StaticDirs)
	if err != nil {
		s.closeLocked()
		return nil, err
	}
	s.mountStatic(r, dirs)
	return r, nil
}

func (s *Server) start(ctx context.Context, b builder.Builder[any], args builder.StartArgs) error {
	started, err := b.Start(ctx, args)
	if err != nil {
		return errors.WrapError(err, errors.CategoryBuilder, "failed to start builder").Build()
	}
	if started.Bail != nil {
		s.bails = append(s.bails, started.Bail)
	} else {
		s.bails = append(s.bails, b.Bail)
	}
	if started.Stats != nil {
		for _, w := range started.Stats.Warnings {
			s.logger.Warn(w, logfields.Target(started.Stats.Target))
		}
		for _, e := range started.Stats.Errors {
			s.logger.Error(e, logfields.Target(started.Stats.Target))
		}
	}
	return nil
}

func (s *Server) managerPage(ctx context.Context, res *staticbuild.Resolution) ([]byte, error) {
	args := res.Options.Args()
	refs, err := preset.Apply(ctx, res.Presets, preset.Refs, map[string]preset.Ref{}, args)
	if err != nil {
		return nil, err
	}
	head, err := preset.Apply(ctx, res.Presets, preset.ManagerHead, "", args)
	if err != nil {
		return nil, err
	}
	return pages.Render(pages.Manager(pages.ManagerInput{
		Head:       head,
		Refs:       refs,
		PreviewURL: s.opts.Build.PreviewURL,
		DocsMode:   s.opts.Build.DocsMode,
		ConfigType: res.Options.ConfigType,
	}))
}

func (s *Server) previewPage(ctx context.Context, res *staticbuild.Resolution) ([]byte, error) {
	head, err := preset.Apply(ctx, res.Presets, preset.PreviewHead, "", res.Options.Args())
	if err != nil {
		return nil, err
	}
	return pages.Render(pages.Preview(pages.PreviewInput{
		Head:       head,
		DocsMode:   s.opts.Build.DocsMode,
		ConfigType: res.Options.ConfigType,
	}))
}

func (s *Server) page(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
	}
}

// mountStatic serves static dirs below their destination. Dirs mapped to
// the root and the default assets are looked up when no route matches.
func (s *Server) mountStatic(r chi.Router, dirs []staticfiles.Dir) {
	var root []http.FileSystem
	for _, d := range dirs {
		fsys := http.Dir(d.Source)
		if d.Dest == "." {
			root = append(root, fsys)
			continue
		}
		prefix := "/" + d.Dest
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(fsys)))
	}
	root = append(root, http.FS(staticfiles.Defaults()))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		name := path.Clean("/" + req.URL.Path)
		if !staticfiles.Reserved(name) {
			for _, fsys := range root {
				f, err := fsys.Open(name)
				if err != nil {
					continue
				}
				info, err := f.Stat()
				if err != nil || info.IsDir() {
					_ = f.Close()
					continue
				}
				http.ServeContent(w, req, info.Name(), info.ModTime(), f)
				_ = f.Close()
				return
			}
		}
		s.errs.WriteErrorResponse(w, req, errors.NewError(errors.CategoryNotFound, "not found").
			WithContext("path", name).
			Build())
	})
}

type healthResponse struct {
	Status    string   `json:"status"`
	Builder   string   `json:"builder"`
	Framework string   `json:"framework,omitempty"`
	Presets   []string `json:"presets"`
	Uptime    float64  `json:"uptime_seconds"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	res := s.res
	started := s.started
	s.mu.Unlock()

	resp := healthResponse{Status: "ok", Uptime: time.Since(started).Seconds()}
	if res != nil {
		resp.Builder = res.Backend.Name
		resp.Framework = res.Framework
		resp.Presets = res.Presets.Names()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Close stops every started builder and removes the ephemeral cache.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Server) closeLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, bail := range s.bails {
		if err := bail(ctx, nil); err != nil {
			s.logger.Warn("Failed to stop builder", logfields.Error(err))
		}
	}
	s.bails = nil
	if s.ephemeral != nil {
		if err := s.ephemeral.Cleanup(); err != nil {
			s.logger.Warn("Failed to remove ephemeral cache", logfields.Error(err))
		}
		s.ephemeral = nil
	}
}
