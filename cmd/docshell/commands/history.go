package commands

import (
	"context"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/history"
	"git.home.luguber.info/inful/docshell/internal/project"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit   int    `short:"n" help:"Number of builds to show" default:"10"`
	BuildID string `arg:"" optional:"" name:"build-id" help:"Show the stages of one build"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open build history").
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.BuildID != "" {
		summary, err := store.Summary(ctx, h.BuildID)
		if err != nil {
			return err
		}
		return h.printStages(root, summary)
	}

	summaries, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(root.out(), 0, 4, 2, ' ', 0)
	printf(tw, "BUILD\tSTARTED\tBUILDER\tOUTCOME\tDURATION\tWARNINGS\tREVISION\n")
	for _, s := range summaries {
		outcome := s.Outcome
		if s.Running() {
			outcome = "running"
		}
		printf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			s.BuildID, s.Started.Local().Format(time.DateTime), s.Builder, outcome,
			s.Duration.Round(time.Millisecond), s.Warnings, project.Revision{Commit: s.Revision}.Short())
	}
	return tw.Flush()
}

func (h *HistoryCmd) printStages(root *CLI, s history.Summary) error {
	w := root.out()
	printf(w, "Build %s (%s, %s)\n", s.BuildID, s.Builder, s.Outcome)
	if s.Error != "" {
		printf(w, "  error: %s\n", s.Error)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printf(tw, "STAGE\tRESULT\tDURATION_MS\n")
	for _, st := range s.Stages {
		printf(tw, "%s\t%s\t%.1f\n", st.Stage, st.Result, st.DurationMS)
	}
	return tw.Flush()
}
