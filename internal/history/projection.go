package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Summary is the projection of one build's events.
type Summary struct {
	BuildID   string
	Started   time.Time
	Finished  time.Time
	Builder   string
	Framework string
	OutputDir string
	Mode      string
	Outcome   string
	Error     string
	Warnings  int
	Revision  string
	Duration  time.Duration
	Stages    []StageCompleted
}

// Running reports whether no BuildFinished event was seen.
func (s Summary) Running() bool { return s.Outcome == "" }

// Project folds events into a Summary.
func Project(events []Event) (Summary, error) {
	var s Summary
	for _, e := range events {
		if s.BuildID == "" {
			s.BuildID = e.BuildID
		}
		switch e.Type {
		case TypeBuildStarted:
			var p BuildStarted
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return s, fmt.Errorf("decode %s: %w", e.Type, err)
			}
			s.Started = e.Timestamp
			s.Builder, s.Framework, s.OutputDir, s.Mode = p.Builder, p.Framework, p.OutputDir, p.Mode
		case TypeStageCompleted:
			var p StageCompleted
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return s, fmt.Errorf("decode %s: %w", e.Type, err)
			}
			s.Stages = append(s.Stages, p)
		case TypeBuildFinished:
			var p BuildFinished
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return s, fmt.Errorf("decode %s: %w", e.Type, err)
			}
			s.Finished = e.Timestamp
			s.Outcome, s.Error, s.Warnings, s.Revision = p.Outcome, p.Error, p.Warnings, p.Revision
			if p.Builder != "" {
				s.Builder = p.Builder
			}
			if p.Framework != "" {
				s.Framework = p.Framework
			}
			s.Duration = time.Duration(p.DurationMS * float64(time.Millisecond))
		}
	}
	return s, nil
}

// Recent returns summaries of the newest builds.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	ids, err := s.BuildIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		sum, err := s.Summary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// Summary projects a single build.
func (s *SQLiteStore) Summary(ctx context.Context, buildID string) (Summary, error) {
	events, err := s.Events(ctx, buildID)
	if err != nil {
		return Summary{}, err
	}
	if len(events) == 0 {
		return Summary{}, fmt.Errorf("build %s: %w", buildID, ErrNotFound)
	}
	return Project(events)
}
