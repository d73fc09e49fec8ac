package pages

import (
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docshell/internal/preset"
)

// Global names read by the embedded runtime.
const (
	GlobalRefs       = "__DOCSHELL_REFS__"
	GlobalPreviewURL = "__DOCSHELL_PREVIEW_URL__"
	GlobalDocsMode   = "__DOCSHELL_DOCS_MODE__"
	GlobalConfigType = "__DOCSHELL_CONFIG_TYPE__"
)

// ManagerInput carries what the manager page needs.
type ManagerInput struct {
	Title      string
	Head       string
	Refs       map[string]preset.Ref
	PreviewURL string
	DocsMode   bool
	ConfigType string
	// BundleDir is the directory holding the compiled manager; the page
	// links main.css when present.
	BundleDir string
}

// Manager builds the index.html page.
func Manager(in ManagerInput) Page {
	title := in.Title
	if title == "" {
		title = "docshell"
	}
	refs := in.Refs
	if refs == nil {
		refs = map[string]preset.Ref{}
	}
	globals := map[string]any{
		GlobalRefs:       refs,
		GlobalDocsMode:   in.DocsMode,
		GlobalConfigType: in.ConfigType,
	}
	if in.PreviewURL != "" {
		globals[GlobalPreviewURL] = in.PreviewURL
	}
	return Page{
		Title:   title,
		Head:    in.Head,
		Globals: globals,
		Styles:  stylesheet(in.BundleDir, "./manager/main.css"),
		Body:    `<div id="root"></div><iframe id="docshell-preview-iframe" title="preview" src="` + html.EscapeString(previewSrc(in.PreviewURL)) + `"></iframe>`,
		Scripts: []string{"./manager/main.js"},
	}
}

// PreviewInput carries what the preview page needs.
type PreviewInput struct {
	Head       string
	DocsMode   bool
	ConfigType string
	BundleDir  string
}

// Preview builds the iframe.html page.
func Preview(in PreviewInput) Page {
	return Page{
		Title: "docshell preview",
		Head:  in.Head,
		Globals: map[string]any{
			GlobalDocsMode:   in.DocsMode,
			GlobalConfigType: in.ConfigType,
		},
		Styles:  stylesheet(in.BundleDir, "./preview/main.css"),
		Body:    `<div id="root"></div>`,
		Scripts: []string{"./preview/main.js"},
	}
}

func previewSrc(url string) string {
	if url != "" {
		return url
	}
	return PreviewFile
}

func stylesheet(bundleDir, href string) []string {
	if bundleDir == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(bundleDir, "main.css")); err != nil {
		return nil
	}
	return []string{href}
}
