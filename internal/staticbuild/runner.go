package staticbuild

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// run executes stages in order, recording timing and stopping on the first
// error.
func (o *Orchestrator) run(ctx context.Context, bs *BuildState, stages []stageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			bs.Report.StageResults[st.State] = StageResultCanceled
			o.observer.OnStageComplete(st.State, 0, StageResultCanceled)
			return &StageError{State: st.State, Err: err}
		}

		bs.enter(st.State)
		o.observer.OnStageStart(st.State)

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.State] = dur

		result := StageResultSuccess
		switch {
		case err != nil && isCanceled(err):
			result = StageResultCanceled
		case err != nil:
			result = StageResultFatal
		case bs.Report.SkipReasons[st.State] != "":
			result = StageResultSkipped
		}
		bs.Report.StageResults[st.State] = result
		o.observer.OnStageComplete(st.State, dur, result)

		if err != nil {
			return &StageError{State: st.State, Err: err}
		}
		bs.logger.Debug("Stage complete",
			logfields.Stage(string(st.State)),
			logfields.Duration(dur),
			slog.String("result", string(result)))
	}
	return nil
}
