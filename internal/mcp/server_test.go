package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drapon/notevault/internal/config"
	"github.com/drapon/notevault/internal/note"
	"github.com/drapon/notevault/internal/search"
	"github.com/drapon/notevault/internal/vault"
)

func newTestServer(t *testing.T) (*server, string) {
	t.Helper()
	dir := t.TempDir()
	guard, err := vault.NewGuard(dir)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	s := &server{
		store:  note.NewStore(guard),
		engine: search.NewEngine(guard.Root(), config.SkipDirs),
		scan:   false,
	}
	return s, dir
}

func resultText(t *testing.T, res *mcp.CallToolResult, i int) string {
	t.Helper()
	if i >= len(res.Content) {
		t.Fatalf("result has %d content blocks, want at least %d", len(res.Content), i+1)
	}
	tc, ok := res.Content[i].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[%d] is %T, want *mcp.TextContent", i, res.Content[i])
	}
	return tc.Text
}

func TestHandleWriteNote(t *testing.T) {
	s, dir := newTestServer(t)
	res, _, err := s.handleWriteNote(context.Background(), nil, writeInput{
		Path:    "notes/hello",
		Content: "hi",
	})
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res, 0))
	}
	if got := resultText(t, res, 0); got != "Wrote note: notes/hello.md" {
		t.Errorf("text = %q", got)
	}
	data, err := os.ReadFile(filepath.Join(dir, "notes", "hello.md"))
	if err != nil || string(data) != "hi" {
		t.Errorf("file content = %q, err = %v", data, err)
	}
}

func TestHandleWriteNote_SandboxEscape(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleWriteNote(context.Background(), nil, writeInput{
		Path:    "../../etc/pwned",
		Content: "x",
	})
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for sandbox escape")
	}
	if got := resultText(t, res, 0); !strings.HasPrefix(got, "Error:") {
		t.Errorf("error text %q does not begin with Error:", got)
	}
}

func TestHandleWriteNote_EmptyPath(t *testing.T) {
	s, dir := newTestServer(t)
	for _, p := range []string{"", ".", "./"} {
		res, _, err := s.handleWriteNote(context.Background(), nil, writeInput{Path: p, Content: "x"})
		if err != nil {
			t.Fatalf("handler returned protocol error: %v", err)
		}
		if !res.IsError {
			t.Errorf("path %q: expected IsError", p)
		}
	}
	// Nothing may appear beside the vault directory.
	if _, err := os.Stat(dir + ".md"); !os.IsNotExist(err) {
		t.Errorf("file created outside vault: %s.md", dir)
	}
}

func TestHandleWriteNote_Append(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()
	if _, _, err := s.handleWriteNote(ctx, nil, writeInput{Path: "a", Content: "A"}); err != nil {
		t.Fatal(err)
	}
	res, _, err := s.handleWriteNote(ctx, nil, writeInput{Path: "a", Content: "B", Append: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(t, res, 0); got != "Appended to note: a.md" {
		t.Errorf("text = %q", got)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.md"))
	if string(data) != "A\n\nB" {
		t.Errorf("content = %q, want A\\n\\nB", data)
	}
}

func TestHandleDeleteNote(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()
	if _, _, err := s.handleWriteNote(ctx, nil, writeInput{Path: "gone", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	res, _, err := s.handleDeleteNote(ctx, nil, deleteInput{Path: "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res, 0))
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.md")); !os.IsNotExist(err) {
		t.Error("note still on disk")
	}
}

func TestHandleDeleteNote_Missing(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleDeleteNote(context.Background(), nil, deleteInput{Path: "never"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for missing note")
	}
	if got := resultText(t, res, 0); !strings.Contains(got, "not found") {
		t.Errorf("error text = %q, want mention of not found", got)
	}
}

func TestHandleReadNotes_BatchIsolation(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	if _, _, err := s.handleWriteNote(ctx, nil, writeInput{Path: "exists", Content: "present"}); err != nil {
		t.Fatal(err)
	}

	res, _, err := s.handleReadNotes(ctx, nil, readInput{Paths: []string{"exists", "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	// The batch succeeds even though one path failed.
	if res.IsError {
		t.Fatal("batch result marked IsError")
	}
	if len(res.Content) != 2 {
		t.Fatalf("got %d blocks, want 2", len(res.Content))
	}
	if got := resultText(t, res, 0); !strings.Contains(got, "present") {
		t.Errorf("block 0 = %q, want note content", got)
	}
	if got := resultText(t, res, 1); !strings.Contains(got, "Error:") {
		t.Errorf("block 1 = %q, want inline error", got)
	}
}

func TestHandleReadNotes_Empty(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleReadNotes(context.Background(), nil, readInput{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected IsError for empty paths")
	}
}

func TestHandleSearchNotes(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	for _, p := range []string{"Project", "my-proj-notes", "unrelated"} {
		if _, _, err := s.handleWriteNote(ctx, nil, writeInput{Path: p, Content: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	res, _, err := s.handleSearchNotes(ctx, nil, searchInput{Query: "proj"})
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res, 0)
	if !strings.Contains(text, "Project.md") || !strings.Contains(text, "my-proj-notes.md") {
		t.Errorf("search result = %q", text)
	}
	if strings.Contains(text, "unrelated") {
		t.Errorf("search result includes non-match: %q", text)
	}
}

func TestHandleSearchNotes_NoMatches(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleSearchNotes(context.Background(), nil, searchInput{Query: "nothing-here"})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Error("no matches is not an error")
	}
	if got := resultText(t, res, 0); got != "No matching notes found." {
		t.Errorf("text = %q", got)
	}
}

func TestHandleNoteInfo(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	content := "---\ntitle: My Note\ntags: [a, b]\n---\nbody"
	if _, _, err := s.handleWriteNote(ctx, nil, writeInput{Path: "meta", Content: content}); err != nil {
		t.Fatal(err)
	}

	res, _, err := s.handleNoteInfo(ctx, nil, infoInput{Path: "meta"})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res, 0))
	}
	var info note.Info
	if err := json.Unmarshal([]byte(resultText(t, res, 0)), &info); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if info.Title != "My Note" || info.Path != "meta.md" || len(info.Tags) != 2 {
		t.Errorf("info = %+v", info)
	}
}

func TestHandleNoteInfo_Missing(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleNoteInfo(context.Background(), nil, infoInput{Path: "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected IsError for missing note")
	}
}
