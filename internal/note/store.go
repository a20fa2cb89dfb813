// Package note reads and writes markdown notes inside the vault sandbox.
package note

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/drapon/notevault/internal/vault"
)

// readConcurrency caps the fan-out of ReadMany so a large batch cannot
// exhaust file descriptors.
const readConcurrency = 16

// Store performs note file operations. Every path goes through the guard
// before it touches the filesystem.
type Store struct {
	guard *vault.Guard
}

// NewStore returns a Store bound to the given guard.
func NewStore(g *vault.Guard) *Store {
	return &Store{guard: g}
}

// Guard exposes the store's guard for callers that need Root or Rel.
func (s *Store) Guard() *vault.Guard { return s.guard }

// Write creates or overwrites a note. With appendTo set, existing content is
// kept and the new content concatenated after a blank line; appending to a
// missing note degrades to a plain create. Parent directories are created as
// needed. Returns the vault-relative path written.
func (s *Store) Write(path, content string, appendTo bool) (string, error) {
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	if appendTo {
		existing, readErr := os.ReadFile(abs)
		if readErr == nil {
			content = string(existing) + "\n\n" + content
		} else if !os.IsNotExist(readErr) {
			return "", fmt.Errorf("read existing note: %w", readErr)
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create note directory: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return s.guard.Rel(abs), nil
}

// Delete removes a note. A missing note is a vault.ErrNotFound error with the
// vault-relative path in the message.
func (s *Store) Delete(path string) error {
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", vault.ErrNotFound, s.guard.Rel(abs))
		}
		return fmt.Errorf("stat note: %w", err)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Read returns the content of a single note.
func (s *Store) Read(path string) (string, error) {
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", vault.ErrNotFound, s.guard.Rel(abs))
		}
		return "", fmt.Errorf("read note: %w", err)
	}
	return string(data), nil
}

// ReadResult is the outcome of reading one path in a batch.
type ReadResult struct {
	Path    string
	Content string
	Err     error
}

// ReadMany reads every path independently and concurrently. A failed path
// does not abort the batch: its result carries the error inline. Results are
// returned in input order.
func (s *Store) ReadMany(paths []string) []ReadResult {
	results := make([]ReadResult, len(paths))
	sem := make(chan struct{}, readConcurrency)
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			content, err := s.Read(p)
			results[i] = ReadResult{Path: p, Content: content, Err: err}
		}(i, p)
	}
	wg.Wait()
	return results
}
