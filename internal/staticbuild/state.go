package staticbuild

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
)

// State is a step of the build state machine.
type State string

const (
	StateInit             State = "init"
	StateStagingOutput    State = "staging_output"
	StateResolvingPresets State = "resolving_presets"
	StateCompilingManager State = "compiling_manager"
	StateCompilingPreview State = "compiling_preview"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Stage executes the work of one state.
type Stage func(ctx context.Context, bs *BuildState) error

type stageDef struct {
	State State
	Fn    Stage
}

// BuildState is shared by the stages of one build.
type BuildState struct {
	Options   Options
	BuildID   string
	ConfigDir string
	OutputDir string
	Cache     *cache.Store

	Backend        builder.Backend
	Framework      string
	BuilderOptions builder.Options
	Presets        *preset.Presets
	StaticDirs     []staticfiles.Dir

	Manager builder.Builder[any]
	Preview builder.Builder[any]

	Report *BuildReport

	state    State
	active   []builder.Builder[any]
	cleanDir func(string) error
	logger   *slog.Logger
}

// State returns the current state.
func (bs *BuildState) State() State { return bs.state }

func (bs *BuildState) enter(s State) {
	if bs.state == s {
		return
	}
	bs.logger.Debug("Build state", logfields.State(string(s)), slog.String("from", string(bs.state)))
	bs.state = s
	bs.Report.States = append(bs.Report.States, s)
}

// track remembers a builder that has to be bailed when the build fails.
func (bs *BuildState) track(b builder.Builder[any]) {
	bs.active = append(bs.active, b)
}

// bail stops every tracked builder; errors are logged.
func (bs *BuildState) bail(cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, b := range bs.active {
		if err := b.Bail(ctx, cause); err != nil {
			bs.logger.Warn("Bail failed", logfields.Error(err))
		}
	}
	bs.active = nil
}
