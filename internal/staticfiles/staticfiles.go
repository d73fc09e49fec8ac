package staticfiles

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

//go:embed assets
var defaults embed.FS

// Reserved names are generated by the build and never copied from static dirs.
var reserved = map[string]bool{
	"index.html":  true,
	"iframe.html": true,
}

// Dir is a static directory mapping. Dest is relative to the output dir.
type Dir struct {
	Source string
	Dest   string
}

func (d Dir) String() string {
	if d.Dest == "" || d.Dest == "." {
		return d.Source
	}
	return d.Source + ":" + d.Dest
}

// ParseDir parses "src" or "src:dest". Relative sources are resolved against
// base. A Windows drive letter is not mistaken for a separator.
func ParseDir(spec, base string) (Dir, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Dir{}, errors.New("empty static directory")
	}
	src, dest := spec, ""
	skip := 0
	if hasDrive(spec) {
		skip = 2
	}
	if i := strings.LastIndex(spec[skip:], ":"); i >= 0 {
		src, dest = spec[:skip+i], spec[skip+i+1:]
	}
	if !filepath.IsAbs(src) && base != "" {
		src = filepath.Join(base, src)
	}
	dest = strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+dest)), "/")
	if dest == "" {
		dest = "."
	}
	return Dir{Source: filepath.Clean(src), Dest: dest}, nil
}

// hasDrive reports a Windows drive prefix such as "C:".
func hasDrive(spec string) bool {
	if runtime.GOOS != "windows" || len(spec) < 2 || spec[1] != ':' {
		return false
	}
	c := spec[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// CopyError reports a failed static directory copy.
type CopyError struct {
	Dir Dir
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to copy static directory %s: %v", e.Dir.Source, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// Clean empties dir, creating it when missing.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0o750)
	case err != nil:
		return fmt.Errorf("read output dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clean output dir: %w", err)
		}
	}
	return nil
}

// Defaults returns the embedded default assets, rooted at the output dir.
func Defaults() fs.FS {
	sub, err := fs.Sub(defaults, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Reserved reports whether name, relative to the output dir, is generated
// by the build.
func Reserved(name string) bool {
	return reserved[strings.TrimPrefix(filepath.ToSlash(name), "/")]
}

// WriteDefaults copies the embedded default assets into outDir.
func WriteDefaults(outDir string) error {
	sub := Defaults()
	return fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(sub, path)
		if err != nil {
			return err
		}
		target := filepath.Join(outDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o600)
	})
}

// CopyAll copies every dir into outDir concurrently. The first failure
// cancels the remaining copies and is returned as a *CopyError.
func CopyAll(ctx context.Context, outDir string, dirs []Dir) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, d := range dirs {
		g.Go(func() error {
			if err := Copy(gctx, d, outDir); err != nil {
				return &CopyError{Dir: d, Err: err}
			}
			slog.Debug("Copied static directory", logfields.StaticDir(d.String()), logfields.OutputDir(outDir))
			return nil
		})
	}
	return g.Wait()
}

// Copy copies one static directory into outDir, skipping reserved files.
func Copy(ctx context.Context, d Dir, outDir string) error {
	destRoot := filepath.Join(outDir, filepath.FromSlash(d.Dest))
	return copyTree(ctx, d.Source, destRoot, func(rel, path string) bool {
		if Reserved(filepath.Join(d.Dest, rel)) {
			slog.Warn("Skipping reserved file in static directory", logfields.Path(path))
			return true
		}
		return false
	})
}

// Mirror copies src into dst without filtering.
func Mirror(ctx context.Context, src, dst string) error {
	return copyTree(ctx, src, dst, nil)
}

func copyTree(ctx context.Context, src, dst string, skip func(rel, path string) bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !entry.Type().IsRegular() || (skip != nil && skip(rel, path)) {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- static dirs are user configured
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304 -- output path is validated by the caller
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
