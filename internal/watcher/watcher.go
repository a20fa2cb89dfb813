// Package watcher monitors a vault for note changes and audits them live.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/drapon/notevault/internal/config"
	"github.com/drapon/notevault/internal/note"
	"github.com/drapon/notevault/internal/vault"
)

// Watch monitors the vault for markdown changes and audits changed notes
// after a debounce window: malformed frontmatter and content that trips the
// injection screen are reported on stderr. It blocks until the watcher
// channel closes or an unrecoverable error occurs.
func Watch(g *vault.Guard) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dirs := walkDirs(g.Root())
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", d, err)
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %d directories in %s\n", len(dirs), g.Root())
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop.\n\n")

	// Debounce: collect changed files over a window before auditing, so an
	// editor's save-burst produces one report.
	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)
	debounce := config.WatchDebounce()
	scan := config.ScanEnabled()

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		for _, p := range paths {
			auditFile(g, p, scan)
		}
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if !strings.HasSuffix(event.Name, ".md") {
				// Not a note, but new directories still need a watch.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						name := filepath.Base(event.Name)
						if !strings.HasPrefix(name, ".") && !config.SkipDirs[name] {
							if err := w.Add(event.Name); err != nil {
								fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", event.Name, err)
							}
						}
					}
				}
				continue
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				fmt.Fprintf(os.Stderr, "  removed  %s\n", g.Rel(event.Name))
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				mu.Lock()
				pending[event.Name] = true
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, flush)
				mu.Unlock()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "  [WARN] Watch error: %v\n", err)
		}
	}
}

// auditFile reads a changed note and reports problems. Findings go to stderr;
// a healthy note prints a single changed line.
func auditFile(g *vault.Guard, path string, scan bool) {
	rel := g.Rel(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File disappeared before the debounce flush (common on renames).
			return
		}
		fmt.Fprintf(os.Stderr, "  [ERROR] read %s: %v\n", rel, err)
		return
	}

	findings := Audit(string(content), scan)
	if len(findings) == 0 {
		fmt.Fprintf(os.Stderr, "  changed  %s\n", rel)
		return
	}
	for _, f := range findings {
		fmt.Fprintf(os.Stderr, "  [WARN] %s: %s\n", rel, f)
	}
}

// Audit checks one note's content and returns human-readable findings.
// With scan disabled only the frontmatter is checked.
func Audit(content string, scan bool) []string {
	var findings []string
	parsed, err := note.ParseMeta(content)
	if err != nil {
		findings = append(findings, fmt.Sprintf("malformed frontmatter (%v)", err))
	}
	if scan && note.Suspicious(parsed.Body) {
		findings = append(findings, "content resembles a prompt-injection attempt")
	}
	return findings
}

// walkDirs returns all watchable directories under root, skipping
// dot-directories and configured exclusions.
func walkDirs(root string) []string {
	var dirs []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || config.SkipDirs[name]) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}
