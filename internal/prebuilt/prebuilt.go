// Package prebuilt decides whether a previously compiled manager can be
// reused and copies it into the output directory.
package prebuilt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/pages"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
)

// CacheSubdir holds the manager saved after a successful compile.
const CacheSubdir = "manager-prebuilt"

// Check holds the inputs of the reuse decision.
type Check struct {
	CacheEnabled   bool
	Refs           map[string]preset.Ref
	ManagerEntries []string
	DefaultEntries []string
	Head           string
	PreviewURL     string
	Dir            string
}

// Reason explains why a prebuilt manager cannot be used. Empty means usable.
func (c Check) Reason() string {
	if reason := c.ineligible(); reason != "" {
		return reason
	}
	if _, err := os.Stat(filepath.Join(c.Dir, pages.ManagerFile)); err != nil {
		return "prebuilt manager not found"
	}
	return ""
}

// Eligible reports whether the build's manager equals the default one, so a
// compiled manager may be saved for reuse.
func (c Check) Eligible() bool {
	return c.ineligible() == ""
}

func (c Check) ineligible() string {
	switch {
	case !c.CacheEnabled:
		return "manager cache disabled"
	case c.Dir == "":
		return "no prebuilt directory"
	case len(c.Refs) > 0:
		return "refs configured"
	case !slices.Equal(c.ManagerEntries, c.DefaultEntries):
		return "custom manager entries"
	case c.Head != "":
		return "custom manager head"
	case c.PreviewURL != "":
		return "external preview url"
	}
	return ""
}

// Usable reports whether the prebuilt manager in c.Dir can be copied.
func (c Check) Usable() bool {
	return c.Reason() == ""
}

// Copy copies the prebuilt manager into outDir verbatim.
func Copy(ctx context.Context, dir, outDir string) error {
	if err := staticfiles.Mirror(ctx, dir, outDir); err != nil {
		return fmt.Errorf("copy prebuilt manager: %w", err)
	}
	slog.Info("Using prebuilt manager", logfields.Path(dir))
	return nil
}

// Save stores the compiled manager and its page from outDir into dir so
// later builds can reuse it.
func Save(ctx context.Context, outDir, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("reset prebuilt dir: %w", err)
	}
	if err := staticfiles.Mirror(ctx, filepath.Join(outDir, "manager"), filepath.Join(dir, "manager")); err != nil {
		return fmt.Errorf("save prebuilt manager: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, pages.ManagerFile)) // #nosec G304 -- generated by this build
	if err != nil {
		return fmt.Errorf("read manager page: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, pages.ManagerFile), data, 0o600); err != nil {
		return fmt.Errorf("save manager page: %w", err)
	}
	return nil
}
