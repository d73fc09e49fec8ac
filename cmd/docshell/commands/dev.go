package commands

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docshell/internal/devserver"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
)

// DevCmd implements the 'dev' command.
type DevCmd struct {
	SelectionFlags

	Host        string   `help:"Interface to listen on" default:"localhost"`
	Port        int      `short:"p" help:"Port to listen on" default:"6006"`
	StaticDir   []string `short:"s" name:"static-dir" help:"Static directory to serve, as src or src:dest"`
	ManagerOnly bool     `name:"manager-only" help:"Only serve the manager UI"`
	PreviewURL  string   `name:"preview-url" help:"Use an externally hosted preview"`
	Docs        bool     `help:"Serve in docs mode"`
	NoCache     bool     `name:"no-cache" help:"Use a temporary compiler cache"`
}

func (d *DevCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	opts := devserver.Options{
		Host: d.Host,
		Port: d.Port,
		Build: staticbuild.Options{
			Config:      cfg,
			ConfigDir:   root.ConfigDir,
			StaticDirs:  d.StaticDir,
			Builder:     d.Builder,
			Framework:   d.Framework,
			ManagerOnly: d.ManagerOnly,
			PreviewURL:  d.PreviewURL,
			DocsMode:    d.Docs,
			Quiet:       root.Quiet,
			Cache:       openCache(cfg, d.NoCache),
		},
	}
	if cfg.Monitoring != nil && cfg.Monitoring.Metrics.Enabled {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Registry = reg
	}

	ctx, cancel := signalContext()
	defer cancel()
	return devserver.New(orch, opts, nil).Run(ctx)
}
