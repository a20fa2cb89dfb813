package note

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/drapon/notevault/internal/vault"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	g, err := vault.NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	return NewStore(g)
}

func readBack(t *testing.T, s *Store, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.Guard().Root(), filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read back %s: %v", rel, err)
	}
	return string(data)
}

func TestWrite_Create(t *testing.T) {
	s := newTestStore(t)
	rel, err := s.Write("notes/a", "hello", false)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rel != "notes/a.md" {
		t.Errorf("rel = %q, want notes/a.md", rel)
	}
	if got := readBack(t, s, rel); got != "hello" {
		t.Errorf("content = %q, want hello", got)
	}
}

func TestWrite_OverwriteIdempotence(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write("a", "content", false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write("a", "content", false); err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, s, "a.md"); got != "content" {
		t.Errorf("content = %q, want exactly one copy", got)
	}
}

func TestWrite_AppendConcatenates(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write("a", "A", false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write("a", "B", true); err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, s, "a.md"); got != "A\n\nB" {
		t.Errorf("content = %q, want %q", got, "A\n\nB")
	}
}

func TestWrite_AppendToMissingCreates(t *testing.T) {
	s := newTestStore(t)
	rel, err := s.Write("fresh", "only this", true)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := readBack(t, s, rel); got != "only this" {
		t.Errorf("content = %q, want %q", got, "only this")
	}
}

func TestWrite_CreatesParentDirs(t *testing.T) {
	s := newTestStore(t)
	rel, err := s.Write("deep/nested/dir/note", "x", false)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rel != "deep/nested/dir/note.md" {
		t.Errorf("rel = %q", rel)
	}
	readBack(t, s, rel)
}

func TestWrite_BlocksEscape(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write("../escape", "x", false); !errors.Is(err, vault.ErrAccessDenied) {
		t.Errorf("Write(../escape) = %v, want ErrAccessDenied", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write("gone", "x", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Guard().Root(), "gone.md")); !os.IsNotExist(err) {
		t.Error("note still exists after delete")
	}
}

func TestDelete_Missing(t *testing.T) {
	s := newTestStore(t)
	err := s.Delete("never-written")
	if !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
}

func TestRead_Missing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read("missing"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("Read = %v, want ErrNotFound", err)
	}
}

func TestReadMany_BatchIsolation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write("exists", "present", false); err != nil {
		t.Fatal(err)
	}

	results := s.ReadMany([]string{"exists", "missing", "../outside"})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[0].Content != "present" {
		t.Errorf("results[0] = %+v, want content 'present'", results[0])
	}
	if !errors.Is(results[1].Err, vault.ErrNotFound) {
		t.Errorf("results[1].Err = %v, want ErrNotFound", results[1].Err)
	}
	if !errors.Is(results[2].Err, vault.ErrAccessDenied) {
		t.Errorf("results[2].Err = %v, want ErrAccessDenied", results[2].Err)
	}
}

func TestReadMany_PreservesInputOrder(t *testing.T) {
	s := newTestStore(t)
	var paths []string
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("n%02d", i)
		if _, err := s.Write(p, p, false); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	results := s.ReadMany(paths)
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("results[%d].Path = %q, want %q", i, r.Path, paths[i])
		}
		if r.Content != paths[i] {
			t.Errorf("results[%d].Content = %q, want %q", i, r.Content, paths[i])
		}
	}
}
