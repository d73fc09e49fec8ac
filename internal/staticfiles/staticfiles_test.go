package staticfiles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestParseDir(t *testing.T) {
	tests := []struct {
		spec string
		want Dir
	}{
		{"public", Dir{Source: "/proj/public", Dest: "."}},
		{"public:assets", Dir{Source: "/proj/public", Dest: "assets"}},
		{"/abs/img:/images/", Dir{Source: "/abs/img", Dest: "images"}},
		{"public:../escape", Dir{Source: "/proj/public", Dest: "escape"}},
		{"p:assets", Dir{Source: "/proj/p", Dest: "assets"}},
		{"p", Dir{Source: "/proj/p", Dest: "."}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseDir(tt.spec, "/proj")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDir("  ", "/proj")
	require.Error(t, err)
}

func TestCleanEmptiesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	write(t, filepath.Join(out, "stale", "a.js"), "x")
	write(t, filepath.Join(out, "old.html"), "x")

	require.NoError(t, Clean(out))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, entries)

	fresh := filepath.Join(t.TempDir(), "missing")
	require.NoError(t, Clean(fresh))
	require.DirExists(t, fresh)
}

func TestWriteDefaults(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, WriteDefaults(out))
	require.FileExists(t, filepath.Join(out, "favicon.svg"))
}

func TestCopyAllSkipsReservedFiles(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(out, 0o750))
	write(t, filepath.Join(root, "public", "logo.png"), "png")
	write(t, filepath.Join(root, "public", "index.html"), "user index")
	write(t, filepath.Join(root, "public", "nested", "index.html"), "nested")
	write(t, filepath.Join(root, "fonts", "a.woff"), "font")

	dirs := []Dir{
		{Source: filepath.Join(root, "public"), Dest: "."},
		{Source: filepath.Join(root, "fonts"), Dest: "static/fonts"},
	}
	require.NoError(t, CopyAll(context.Background(), out, dirs))

	require.FileExists(t, filepath.Join(out, "logo.png"))
	require.NoFileExists(t, filepath.Join(out, "index.html"))
	require.FileExists(t, filepath.Join(out, "nested", "index.html"))
	require.FileExists(t, filepath.Join(out, "static", "fonts", "a.woff"))
}

func TestCopyAllReportsCopyError(t *testing.T) {
	out := t.TempDir()
	missing := Dir{Source: filepath.Join(t.TempDir(), "nope"), Dest: "."}
	err := CopyAll(context.Background(), out, []Dir{missing})
	require.Error(t, err)

	var copyErr *CopyError
	require.True(t, errors.As(err, &copyErr))
	require.Equal(t, missing, copyErr.Dir)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMirrorCopiesEverything(t *testing.T) {
	src := t.TempDir()
	write(t, filepath.Join(src, "index.html"), "<html></html>")
	write(t, filepath.Join(src, "manager", "main.js"), "x")
	dst := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Mirror(context.Background(), src, dst))
	require.FileExists(t, filepath.Join(dst, "index.html"))
	require.FileExists(t, filepath.Join(dst, "manager", "main.js"))
}
