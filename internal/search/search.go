// Package search finds notes by name across the vault tree.
package search

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// Engine walks a vault root and matches note file names against a query.
type Engine struct {
	root     string
	skipDirs map[string]bool
}

// NewEngine returns an Engine rooted at root. skipDirs lists directory names
// excluded from traversal in addition to dot-directories; nil is fine.
func NewEngine(root string, skipDirs map[string]bool) *Engine {
	return &Engine{root: root, skipDirs: skipDirs}
}

// Search returns vault-relative paths of notes whose base name, with or
// without the .md suffix, matches the query. Results come back in traversal
// order. Dot-directories are never descended into, and only .md files are
// candidates. A traversal error aborts the whole search.
func (e *Engine) Search(query string) ([]string, error) {
	match := compileQuery(query)
	var results []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != e.root && (strings.HasPrefix(name, ".") || e.skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".md") {
			return nil
		}
		stripped := strings.TrimSuffix(name, ".md")
		if match(stripped) || match(name) {
			rel, relErr := filepath.Rel(e.root, path)
			if relErr != nil {
				return relErr
			}
			results = append(results, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// compileQuery classifies the raw query string. A query shaped like
// /pattern/flags, with flags drawn from the JavaScript set g i m u y, is
// compiled as a regular expression; anything else, including a pattern that
// fails to compile, matches as a case-insensitive substring.
//
// Known ambiguity: a literal query that itself starts and ends with "/"
// (e.g. an absolute-looking name) is indistinguishable from a delimited
// regex and is treated as one. This matches the historical behavior and is
// deliberate.
func compileQuery(query string) func(string) bool {
	if pattern, flags, ok := splitRegexQuery(query); ok {
		expr := pattern
		var mods string
		if strings.ContainsRune(flags, 'i') {
			mods += "i"
		}
		if strings.ContainsRune(flags, 'm') {
			mods += "m"
		}
		if mods != "" {
			expr = "(?" + mods + ")" + expr
		}
		if re, err := regexp.Compile(expr); err == nil {
			return re.MatchString
		}
	}
	lower := strings.ToLower(query)
	return func(name string) bool {
		return strings.Contains(strings.ToLower(name), lower)
	}
}

// splitRegexQuery extracts pattern and flags from a /pattern/flags query.
// The g, u, and y flags have no RE2 equivalent and are accepted but ignored.
func splitRegexQuery(query string) (pattern, flags string, ok bool) {
	if len(query) < 2 || !strings.HasPrefix(query, "/") {
		return "", "", false
	}
	last := strings.LastIndex(query, "/")
	if last == 0 {
		return "", "", false
	}
	pattern = query[1:last]
	flags = query[last+1:]
	for _, f := range flags {
		switch f {
		case 'g', 'i', 'm', 'u', 'y':
		default:
			return "", "", false
		}
	}
	return pattern, flags, true
}
