package watcher

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWalkDirs_SkipsHiddenAndConfigured(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"notes", "notes/sub", ".obsidian", "node_modules", "notes/.hidden"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	dirs := walkDirs(root)
	got := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		rel, _ := filepath.Rel(root, d)
		got[rel] = true
	}

	for _, want := range []string{".", "notes", "notes/sub"} {
		if !got[want] {
			t.Errorf("walkDirs missing %q (got %v)", want, dirs)
		}
	}
	for _, skip := range []string{".obsidian", "node_modules", "notes/.hidden"} {
		if got[skip] {
			t.Errorf("walkDirs should skip %q", skip)
		}
	}
}

func TestAudit_CleanNote(t *testing.T) {
	content := "---\ntitle: Fine\n---\n\nNothing to see.\n"
	if findings := Audit(content, true); len(findings) != 0 {
		t.Errorf("findings = %v, want none", findings)
	}
}

func TestAudit_MalformedFrontmatter(t *testing.T) {
	content := "---\ntitle: [unclosed\n---\nbody"
	findings := Audit(content, false)
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want one", findings)
	}
}
