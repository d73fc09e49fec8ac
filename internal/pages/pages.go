// Package pages renders the index.html and iframe.html documents that load
// the manager and preview bundles.
package pages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// File names written into the output directory.
const (
	ManagerFile = "index.html"
	PreviewFile = "iframe.html"
)

// Page describes one HTML document.
type Page struct {
	Title string
	// Head is a raw HTML fragment appended to <head>.
	Head string
	// Globals become window.<name> assignments before any script runs.
	Globals map[string]any
	Styles  []string
	Scripts []string
	// Body is a raw HTML fragment placed before the scripts.
	Body string
}

const skeleton = `<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><link rel="icon" href="./favicon.svg"></head><body></body></html>`

// Render returns the serialized document for p.
func Render(p Page) ([]byte, error) {
	doc, err := html.Parse(strings.NewReader(skeleton))
	if err != nil {
		return nil, fmt.Errorf("parse page skeleton: %w", err)
	}
	head := find(doc, atom.Head)
	body := find(doc, atom.Body)
	if head == nil || body == nil {
		return nil, fmt.Errorf("page skeleton is missing head or body")
	}

	if p.Title != "" {
		title := element(atom.Title)
		title.AppendChild(&html.Node{Type: html.TextNode, Data: p.Title})
		head.AppendChild(title)
	}
	for _, href := range p.Styles {
		head.AppendChild(element(atom.Link, "rel", "stylesheet", "href", href))
	}
	if len(p.Globals) > 0 {
		src, err := globalsScript(p.Globals)
		if err != nil {
			return nil, err
		}
		script := element(atom.Script)
		script.AppendChild(&html.Node{Type: html.RawNode, Data: src})
		head.AppendChild(script)
	}
	if err := appendFragment(head, p.Head); err != nil {
		return nil, fmt.Errorf("invalid head fragment: %w", err)
	}

	if err := appendFragment(body, p.Body); err != nil {
		return nil, fmt.Errorf("invalid body fragment: %w", err)
	}
	for _, src := range p.Scripts {
		body.AppendChild(element(atom.Script, "type", "module", "src", src))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders p into dir/name.
func Write(dir, name string, p Page) error {
	data, err := Render(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// globalsScript assigns every global in sorted order. json.Marshal escapes
// <, > and & so values cannot terminate the script element.
func globalsScript(globals map[string]any) (string, error) {
	names := make([]string, 0, len(globals))
	for k := range globals {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		v, err := json.Marshal(globals[name])
		if err != nil {
			return "", fmt.Errorf("encode global %s: %w", name, err)
		}
		fmt.Fprintf(&b, "window[%q] = %s;\n", name, v)
	}
	return b.String(), nil
}

func appendFragment(parent *html.Node, fragment string) error {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}
