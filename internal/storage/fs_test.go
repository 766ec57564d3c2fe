package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("n.md", []byte("one"))
	_ = s.Write("n.md", []byte("two"))
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only n.md, found %d entries", len(entries))
	}
}

func TestList_SkipsHiddenAndNonMarkdown(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.MD", []byte("b"))
	_ = s.Write("image.png", []byte("png"))
	_ = s.Write(".obsidian/workspace.md", []byte("hidden"))

	metas, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]bool{}
	for _, m := range metas {
		got[m.Path] = true
		if m.Checksum == "" {
			t.Errorf("%s: empty checksum", m.Path)
		}
	}
	if len(got) != 2 || !got["a.md"] || !got["sub/b.MD"] {
		t.Errorf("listed = %v", got)
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	s := tempVault(t)
	if _, err := s.Read("../../etc/passwd"); err == nil {
		t.Error("expected traversal to be rejected")
	}
	if err := s.Write(filepath.Join("..", "escape.md"), []byte("x")); err == nil {
		t.Error("expected write outside root to be rejected")
	}
}

func TestWritePreservesMode(t *testing.T) {
	fs := tempVault(t)
	abs := filepath.Join(fs.Root(), "note.md")
	if err := os.WriteFile(abs, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("note.md", []byte("v2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	if err := fs.Write("fresh.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, _ = os.Stat(filepath.Join(fs.Root(), "fresh.md"))
	if info.Mode().Perm() != 0o644 {
		t.Errorf("new file mode = %v, want 0644", info.Mode().Perm())
	}
}
