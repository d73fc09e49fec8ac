// Package jsruntime embeds the JavaScript sources of the manager and preview
// applications and resolves the docshell: virtual module namespace.
package jsruntime

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Namespace prefixes every virtual module.
const Namespace = "docshell"

// StoriesModule is the virtual module listing story files.
const StoriesModule = "docshell:stories"

//go:embed assets
var assets embed.FS

// Source returns the embedded source of a virtual module such as
// "docshell:manager" or "docshell:framework/react".
func Source(module string) (string, error) {
	name, ok := strings.CutPrefix(module, Namespace+":")
	if !ok {
		return "", fmt.Errorf("not a %s module: %s", Namespace, module)
	}
	data, err := fs.ReadFile(assets, "assets/"+fileName(Namespace+":"+name))
	if err != nil {
		return "", fmt.Errorf("unknown runtime module %s", module)
	}
	return string(data), nil
}

// IsVirtual reports whether module belongs to the docshell namespace.
func IsVirtual(module string) bool {
	return strings.HasPrefix(module, Namespace+":")
}

// StoriesSource renders the stories module for the given files. Paths in the
// generated module are relative to base.
func StoriesSource(files []string, base string) string {
	var b strings.Builder
	for i, f := range files {
		fmt.Fprintf(&b, "import * as s%d from %s;\n", i, strconv.Quote(f))
	}
	b.WriteString("export default [\n")
	for i, f := range files {
		rel, err := filepath.Rel(base, f)
		if err != nil {
			rel = f
		}
		fmt.Fprintf(&b, "  { file: %s, exports: s%d },\n", strconv.Quote(filepath.ToSlash(rel)), i)
	}
	b.WriteString("];\n")
	return b.String()
}

// EntryModule is the virtual module importing every entry in order.
const EntryModule = "docshell:entry"

// EntrySource renders a module importing entries for their side effects.
func EntrySource(entries []string) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "import %s;\n", strconv.Quote(e))
	}
	return b.String()
}

// Materialize writes the virtual modules reachable from entries into dir and
// returns the path of the generated entry file. Command backends use it
// because external bundlers cannot resolve the docshell namespace.
func Materialize(dir string, entries []string, stories []string, base string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	write := func(name, content string) (string, error) {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			return "", fmt.Errorf("write runtime module: %w", err)
		}
		return p, nil
	}
	if _, err := write("stories.js", StoriesSource(stories, base)); err != nil {
		return "", err
	}
	replacer := strings.NewReplacer(
		strconv.Quote(StoriesModule), strconv.Quote("./stories.js"),
		strconv.Quote(Namespace+":preview"), strconv.Quote("./preview.js"),
	)
	imports := make([]string, 0, len(entries))
	for _, e := range entries {
		if !IsVirtual(e) {
			imports = append(imports, e)
			continue
		}
		src, err := Source(e)
		if err != nil {
			return "", err
		}
		name := fileName(e)
		if _, err := write(name, replacer.Replace(src)); err != nil {
			return "", err
		}
		imports = append(imports, "./"+name)
	}
	return write("entry.js", EntrySource(imports))
}

func fileName(module string) string {
	return strings.ReplaceAll(strings.TrimPrefix(module, Namespace+":"), "/", "-") + ".js"
}
