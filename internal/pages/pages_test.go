package pages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docshell/internal/preset"
)

func TestRenderInjectsHeadAndGlobals(t *testing.T) {
	out, err := Render(Page{
		Title:   "Docs",
		Head:    `<meta name="x" content="y"><style>body{margin:0}</style>`,
		Globals: map[string]any{"B": 2, "A": "</script><script>alert(1)</script>"},
		Styles:  []string{"./main.css"},
		Body:    `<div id="root"></div>`,
		Scripts: []string{"./main.js"},
	})
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "<title>Docs</title>")
	require.Contains(t, page, `<meta name="x" content="y"/>`)
	require.Contains(t, page, `<link rel="stylesheet" href="./main.css"/>`)
	require.Contains(t, page, `<script type="module" src="./main.js"></script>`)
	require.NotContains(t, page, "</script><script>alert(1)")
	require.Less(t, strings.Index(page, `window["A"]`), strings.Index(page, `window["B"]`))

	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	root := findID(doc, "root")
	require.NotNil(t, root)
}

func TestManagerPage(t *testing.T) {
	bundle := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "main.css"), []byte("a{}"), 0o600))

	p := Manager(ManagerInput{
		Head:       `<link rel="preconnect" href="https://cdn.example">`,
		Refs:       map[string]preset.Ref{"ds": {ID: "ds", URL: "https://ds.example", Title: "Design"}},
		PreviewURL: "https://preview.example/iframe.html",
		BundleDir:  bundle,
	})
	out, err := Render(p)
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, GlobalRefs)
	require.Contains(t, page, `"https://ds.example"`)
	require.Contains(t, page, `src="https://preview.example/iframe.html"`)
	require.Contains(t, page, `href="./manager/main.css"`)
	require.Contains(t, page, `src="./manager/main.js"`)
}

func TestPreviewPageWithoutStyles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, PreviewFile, Preview(PreviewInput{Head: "<script>window.x=1</script>", DocsMode: true})))
	data, err := os.ReadFile(filepath.Join(dir, PreviewFile))
	require.NoError(t, err)
	page := string(data)
	require.Contains(t, page, "window.x=1")
	require.Contains(t, page, GlobalDocsMode+`"] = true`)
	require.NotContains(t, page, "stylesheet")
}

func findID(n *html.Node, id string) *html.Node {
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == id {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findID(c, id); f != nil {
			return f
		}
	}
	return nil
}
