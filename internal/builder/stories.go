package builder

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ResolveStories expands story globs relative to base into a sorted,
// de-duplicated list of absolute file paths. Patterns support "*", "?",
// character classes, a "**" segment matching any number of directories and
// one level of {a,b} alternation.
func ResolveStories(base string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range patterns {
		for _, pattern := range expandBraces(raw) {
			if !filepath.IsAbs(pattern) {
				pattern = filepath.Join(base, pattern)
			}
			pattern = filepath.Clean(pattern)
			root := staticPrefix(pattern)
			matches, err := walkGlob(root, pattern)
			if err != nil {
				return nil, fmt.Errorf("stories %q: %w", raw, err)
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func expandBraces(p string) []string {
	open := strings.IndexByte(p, '{')
	if open < 0 {
		return []string{p}
	}
	end := strings.IndexByte(p[open:], '}')
	if end < 0 {
		return []string{p}
	}
	end += open
	var out []string
	for _, alt := range strings.Split(p[open+1:end], ",") {
		out = append(out, expandBraces(p[:open]+alt+p[end+1:])...)
	}
	return out
}

// staticPrefix returns the longest leading directory without glob characters.
func staticPrefix(pattern string) string {
	parts := strings.Split(filepath.ToSlash(pattern), "/")
	var static []string
	for _, part := range parts[:len(parts)-1] {
		if strings.ContainsAny(part, "*?[") {
			break
		}
		static = append(static, part)
	}
	root := strings.Join(static, "/")
	if root == "" {
		root = "/"
	}
	return filepath.FromSlash(root)
}

func walkGlob(root, pattern string) ([]string, error) {
	patternParts := strings.Split(filepath.ToSlash(pattern), "/")
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			if name := d.Name(); p != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := matchParts(patternParts, strings.Split(filepath.ToSlash(p), "/"))
		if err != nil {
			return err
		}
		if ok {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func matchParts(pattern, name []string) (bool, error) {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for i := 0; i <= len(name); i++ {
				ok, err := matchParts(pattern[1:], name[i:])
				if ok || err != nil {
					return ok, err
				}
			}
			return false, nil
		}
		if len(name) == 0 {
			return false, nil
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false, err
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0, nil
}
