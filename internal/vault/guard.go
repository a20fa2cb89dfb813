// Package vault enforces the sandbox boundary for note file access.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors shared by the store and the CLI for consistent messaging.
var (
	// ErrAccessDenied is returned when a requested path resolves outside the vault root.
	ErrAccessDenied = errors.New("access denied: path is outside the vault")
	// ErrNotFound is returned when an operation targets a note that does not exist.
	ErrNotFound = errors.New("note not found")
)

// Guard resolves requested note paths against a fixed vault root. The root is
// canonicalized once at construction and never mutated, so Resolve is pure in
// its single argument.
type Guard struct {
	root string
}

// NewGuard validates that root exists and is a directory, and returns a Guard
// anchored at its absolute form. Callers treat a failure here as fatal: no
// note operation may run without a valid root.
func NewGuard(root string) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("vault root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root %s is not a directory", abs)
	}
	return &Guard{root: abs}, nil
}

// Root returns the absolute vault root.
func (g *Guard) Root() string { return g.root }

// Resolve maps a requested note path to an absolute path inside the vault.
// Absolute inputs are normalized as-is; relative inputs are joined to the
// root first. Anything that lands outside the root fails with
// ErrAccessDenied, which covers both ".."-style traversal and absolute-path
// injection. The ".md" suffix is enforced after containment: kept when the
// extension is exactly ".md", appended otherwise (an existing non-md
// extension stays part of the filename). A path that resolves to the root
// itself is rejected: there is no note it could name.
func (g *Guard) Resolve(requested string) (string, error) {
	var abs string
	var err error
	if filepath.IsAbs(requested) {
		abs, err = filepath.Abs(requested)
	} else {
		abs, err = filepath.Abs(filepath.Join(g.root, filepath.FromSlash(requested)))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, requested)
	}
	if !strings.HasPrefix(abs, g.root+string(filepath.Separator)) && abs != g.root {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, requested)
	}
	if filepath.Ext(abs) != ".md" {
		abs += ".md"
	}
	// A degenerate input ("", ".", "./") normalizes to the root itself, and
	// the suffix append would turn that into "<root>.md" beside the vault.
	// Re-check containment on the final path.
	if !strings.HasPrefix(abs, g.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, requested)
	}
	return abs, nil
}

// Rel converts an absolute path inside the vault to its vault-relative,
// slash-separated form. Paths outside the vault are returned unchanged.
func (g *Guard) Rel(abs string) string {
	rel, err := filepath.Rel(g.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return filepath.ToSlash(rel)
}
