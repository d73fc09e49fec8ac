package jsruntime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	src, err := Source("docshell:framework/react")
	require.NoError(t, err)
	require.Contains(t, src, "createRoot")

	_, err = Source("docshell:unknown")
	require.Error(t, err)
	_, err = Source("./local.js")
	require.Error(t, err)
}

func TestStoriesSource(t *testing.T) {
	out := StoriesSource([]string{"/p/src/a.stories.js"}, "/p")
	require.Contains(t, out, `import * as s0 from "/p/src/a.stories.js";`)
	require.Contains(t, out, `{ file: "src/a.stories.js", exports: s0 }`)
}

func TestMaterialize(t *testing.T) {
	dir := t.TempDir()
	entry, err := Materialize(dir, []string{"docshell:preview", "/abs/preview.js", "docshell:framework/html"}, nil, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "entry.js"), entry)

	data, err := os.ReadFile(entry)
	require.NoError(t, err)
	require.Equal(t, "import \"./preview.js\";\nimport \"/abs/preview.js\";\nimport \"./framework-html.js\";\n", string(data))

	fw, err := os.ReadFile(filepath.Join(dir, "framework-html.js"))
	require.NoError(t, err)
	require.Contains(t, string(fw), `from "./preview.js"`)

	preview, err := os.ReadFile(filepath.Join(dir, "preview.js"))
	require.NoError(t, err)
	require.Contains(t, string(preview), `from "./stories.js"`)
}
