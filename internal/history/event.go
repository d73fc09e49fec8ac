package history

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types appended by the build observer.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStageCompleted = "StageCompleted"
	TypeBuildFinished  = "BuildFinished"
)

// Event is one stored row.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
}

// BuildStarted is the payload of TypeBuildStarted.
type BuildStarted struct {
	Builder   string `json:"builder,omitempty"`
	Framework string `json:"framework,omitempty"`
	OutputDir string `json:"output_dir"`
	Mode      string `json:"mode"`
}

// StageCompleted is the payload of TypeStageCompleted.
type StageCompleted struct {
	Stage      string  `json:"stage"`
	Result     string  `json:"result"`
	DurationMS float64 `json:"duration_ms"`
}

// BuildFinished is the payload of TypeBuildFinished. Builder and framework
// are only known once presets are resolved, so they are repeated here.
type BuildFinished struct {
	Builder    string  `json:"builder,omitempty"`
	Framework  string  `json:"framework,omitempty"`
	Outcome    string  `json:"outcome"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
	Warnings   int     `json:"warnings"`
	Revision   string  `json:"revision,omitempty"`
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}
