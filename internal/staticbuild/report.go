package staticbuild

import (
	"time"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/metrics"
)

// StageResult is the outcome of a single stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultSkipped  StageResult = "skipped"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// BuildOutcome is the final result of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// BuildReport captures what happened during a build.
type BuildReport struct {
	BuildID   string
	Builder   string
	Framework string
	OutputDir string
	Start     time.Time
	End       time.Time

	States         []State
	StageDurations map[State]time.Duration
	StageResults   map[State]StageResult
	SkipReasons    map[State]string

	Revision         string
	Presets          []string
	StoryFiles       int
	PrebuiltManager  bool
	ManagerResult    *builder.Result
	PreviewResult    *builder.Result
	Outcome          BuildOutcome
	Err              error
	ProjectInfoSaved bool
}

func newReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:        buildID,
		Start:          time.Now(),
		States:         []State{StateInit},
		StageDurations: make(map[State]time.Duration),
		StageResults:   make(map[State]StageResult),
		SkipReasons:    make(map[State]string),
	}
}

// Duration returns the wall time of the build.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Skipped reports whether state ran as a no-op.
func (r *BuildReport) Skipped(s State) bool {
	return r.StageResults[s] == StageResultSkipped
}

func (r *BuildReport) skip(s State, reason string) {
	r.SkipReasons[s] = reason
}

func (r *BuildReport) finish(outcome BuildOutcome, err error) {
	r.Outcome = outcome
	r.Err = err
	r.End = time.Now()
}

func (r *BuildReport) warnings() int {
	n := 0
	for _, res := range []*builder.Result{r.ManagerResult, r.PreviewResult} {
		if res != nil {
			n += len(res.Warnings)
		}
	}
	return n
}

func stageLabel(r StageResult) metrics.ResultLabel {
	switch r {
	case StageResultSkipped:
		return metrics.ResultSkipped
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultSuccess
	}
}
