package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func record(t *testing.T, s *SQLiteStore, id, outcome string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, id, TypeBuildStarted, BuildStarted{Builder: "esbuild", Framework: "react", OutputDir: "out", Mode: "static"}))
	require.NoError(t, s.Append(ctx, id, TypeStageCompleted, StageCompleted{Stage: "compile_manager", Result: "success", DurationMS: 12.5}))
	require.NoError(t, s.Append(ctx, id, TypeBuildFinished, BuildFinished{Outcome: outcome, DurationMS: 40, Warnings: 1, Revision: "abc123"}))
}

func TestSummaryProjection(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	record(t, s, "b1", "success")
	sum, err := s.Summary(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, "esbuild", sum.Builder)
	require.Equal(t, "react", sum.Framework)
	require.Equal(t, "success", sum.Outcome)
	require.Equal(t, "abc123", sum.Revision)
	require.Len(t, sum.Stages, 1)
	require.Equal(t, "compile_manager", sum.Stages[0].Stage)
	require.False(t, sum.Running())
}

func TestUnknownBuildIsNotFound(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Summary(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestRecentAndPrune(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	for i := range 5 {
		record(t, s, fmt.Sprintf("b%d", i), "success")
	}
	recent, err := s.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "b4", recent[0].BuildID)
	require.Equal(t, "b3", recent[1].BuildID)

	removed, err := s.Prune(context.Background(), 3)
	require.NoError(t, err)
	require.EqualValues(t, 6, removed)

	ids, err := s.BuildIDs(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"b4", "b3", "b2"}, ids)
}

func TestRunningBuild(t *testing.T) {
	sum, err := Project([]Event{{BuildID: "x", Type: TypeBuildStarted, Payload: []byte(`{"builder":"webpack5"}`)}})
	require.NoError(t, err)
	require.True(t, sum.Running())
	require.Equal(t, "webpack5", sum.Builder)
}

func TestFinishedEventFillsBuilder(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "b", TypeBuildStarted, BuildStarted{OutputDir: "out"}))
	require.NoError(t, s.Append(ctx, "b", TypeBuildFinished, BuildFinished{Builder: "webpack5", Framework: "html", Outcome: "failed", Error: "boom"}))

	sum, err := s.Summary(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "webpack5", sum.Builder)
	require.Equal(t, "html", sum.Framework)
	require.Equal(t, "boom", sum.Error)
}
