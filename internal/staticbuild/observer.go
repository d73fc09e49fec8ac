package staticbuild

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/history"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/metrics"
)

// BuildObserver receives callbacks around stage execution and build lifecycle.
type BuildObserver interface {
	OnBuildStart(report *BuildReport)
	OnStageStart(state State)
	OnStageComplete(state State, duration time.Duration, result StageResult)
	OnBuildComplete(report *BuildReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnBuildStart(*BuildReport)                         {}
func (NoopObserver) OnStageStart(State)                                {}
func (NoopObserver) OnStageComplete(State, time.Duration, StageResult) {}
func (NoopObserver) OnBuildComplete(*BuildReport)                      {}

// Observers fans callbacks out to several observers.
type Observers []BuildObserver

func (o Observers) OnBuildStart(r *BuildReport) {
	for _, ob := range o {
		ob.OnBuildStart(r)
	}
}

func (o Observers) OnStageStart(s State) {
	for _, ob := range o {
		ob.OnStageStart(s)
	}
}

func (o Observers) OnStageComplete(s State, d time.Duration, r StageResult) {
	for _, ob := range o {
		ob.OnStageComplete(s, d, r)
	}
}

func (o Observers) OnBuildComplete(r *BuildReport) {
	for _, ob := range o {
		ob.OnBuildComplete(r)
	}
}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (RecorderObserver) OnBuildStart(*BuildReport) {}
func (RecorderObserver) OnStageStart(State)        {}

func (r RecorderObserver) OnStageComplete(s State, d time.Duration, res StageResult) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveStageDuration(string(s), d)
	r.Recorder.IncStageResult(string(s), stageLabel(res))
}

func (r RecorderObserver) OnBuildComplete(report *BuildReport) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveBuildDuration(report.Duration())
	r.Recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))
	r.Recorder.SetPresetCount(len(report.Presets))
	results := map[string]*builder.Result{
		builder.TargetManager: report.ManagerResult,
		builder.TargetPreview: report.PreviewResult,
	}
	for target, result := range results {
		if result == nil {
			continue
		}
		r.Recorder.ObserveCompileDuration(target, result.Duration)
		r.Recorder.AddCompileMessages(target, len(result.Errors), len(result.Warnings))
	}
}

// HistoryStore is the subset of history.SQLiteStore used by HistoryObserver.
type HistoryStore interface {
	Append(ctx context.Context, buildID, eventType string, payload any) error
}

// HistoryObserver appends build events to the build history.
type HistoryObserver struct {
	Store HistoryStore

	buildID string
}

func (h *HistoryObserver) append(eventType string, payload any) {
	if h.Store == nil || h.buildID == "" {
		return
	}
	if err := h.Store.Append(context.Background(), h.buildID, eventType, payload); err != nil {
		slog.Warn("Failed to record build history", logfields.BuildID(h.buildID), logfields.Error(err))
	}
}

func (h *HistoryObserver) OnBuildStart(r *BuildReport) {
	h.buildID = r.BuildID
	h.append(history.TypeBuildStarted, history.BuildStarted{
		Builder:   r.Builder,
		Framework: r.Framework,
		OutputDir: r.OutputDir,
		Mode:      "static",
	})
}

func (h *HistoryObserver) OnStageStart(State) {}

func (h *HistoryObserver) OnStageComplete(s State, d time.Duration, res StageResult) {
	h.append(history.TypeStageCompleted, history.StageCompleted{
		Stage:      string(s),
		Result:     string(res),
		DurationMS: float64(d.Microseconds()) / 1000,
	})
}

func (h *HistoryObserver) OnBuildComplete(r *BuildReport) {
	finished := history.BuildFinished{
		Builder:    r.Builder,
		Framework:  r.Framework,
		Outcome:    string(r.Outcome),
		DurationMS: float64(r.Duration().Microseconds()) / 1000,
		Warnings:   r.warnings(),
		Revision:   r.Revision,
	}
	if r.Err != nil {
		finished.Error = r.Err.Error()
	}
	h.append(history.TypeBuildFinished, finished)
}
