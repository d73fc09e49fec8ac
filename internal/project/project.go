// Package project describes the project being built: its source revision
// and the project.json metadata file written next to a static build.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ggit "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// FileName is written into the output directory after a successful build.
const FileName = "project.json"

// Revision describes the git state of the project.
type Revision struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
}

// Short returns the first 8 characters of the commit.
func (r Revision) Short() string {
	if len(r.Commit) > 8 {
		return r.Commit[:8]
	}
	return r.Commit
}

// DetectRevision reads HEAD of the git repository containing dir. A
// directory outside any repository yields an empty Revision and no error.
func DetectRevision(dir string) (Revision, error) {
	repo, err := ggit.PlainOpenWithOptions(dir, &ggit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, ggit.ErrRepositoryNotExists) {
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, fmt.Errorf("open git repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		slog.Debug("Repository has no HEAD", logfields.Path(dir), logfields.Error(err))
		return Revision{}, nil
	}
	rev := Revision{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}
	return rev, nil
}

// Info is the content of project.json.
type Info struct {
	BuildID   string    `json:"buildId"`
	Builder   string    `json:"builder"`
	Framework string    `json:"framework,omitempty"`
	Version   string    `json:"docshellVersion"`
	Revision  Revision  `json:"revision,omitempty"`
	Presets   []string  `json:"presets,omitempty"`
	Stories   int       `json:"storyFiles"`
	BuiltAt   time.Time `json:"builtAt"`
}

// Write stores info as outDir/project.json.
func Write(outDir string, info Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project info: %w", err)
	}
	path := filepath.Join(outDir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write project info: %w", err)
	}
	return nil
}

// Read loads outDir/project.json.
func Read(outDir string) (Info, error) {
	var info Info
	data, err := os.ReadFile(filepath.Join(outDir, FileName)) // #nosec G304 -- output dir chosen by the user
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("decode project info: %w", err)
	}
	return info, nil
}
