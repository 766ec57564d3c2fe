package buffer

import (
	"errors"
	"testing"

	"github.com/starford/vaultlink/internal/storage"
)

func TestMemory_Selection(t *testing.T) {
	m := NewMemory("hello world")
	if _, err := m.ReadSelection(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	if err := m.Select(Range{Start: 6, End: 11}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	sel, _ := m.ReadSelection()
	if sel != "world" {
		t.Errorf("selection = %q", sel)
	}
	if err := m.WriteSelection("there!"); err != nil {
		t.Fatalf("WriteSelection: %v", err)
	}
	if m.String() != "hello there!" {
		t.Errorf("text = %q", m.String())
	}
	if sel, _ := m.ReadSelection(); sel != "there!" {
		t.Errorf("selection after write = %q", sel)
	}
}

func TestMemory_SelectOutOfBounds(t *testing.T) {
	m := NewMemory("abc")
	for _, r := range []Range{{-1, 2}, {2, 1}, {0, 4}} {
		if err := m.Select(r); err == nil {
			t.Errorf("Select(%+v) should fail", r)
		}
	}
}

func TestDocument_ReadWrite(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("n.md", []byte("one two three"))

	doc := NewDocument(store, "n.md", &Range{Start: 4, End: 7})
	sel, err := doc.ReadSelection()
	if err != nil || sel != "two" {
		t.Fatalf("ReadSelection = %q, %v", sel, err)
	}
	if err := doc.WriteSelection("2"); err != nil {
		t.Fatalf("WriteSelection: %v", err)
	}
	got, _ := doc.ReadAll()
	if got != "one 2 three" {
		t.Errorf("text = %q", got)
	}

	if err := doc.WriteAll("replaced"); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	data, _ := store.Read("n.md")
	if string(data) != "replaced" {
		t.Errorf("stored = %q", data)
	}
}

func TestDocument_SelectionBeyondFile(t *testing.T) {
	store, _ := storage.NewFS(t.TempDir())
	_ = store.Write("n.md", []byte("short"))
	doc := NewDocument(store, "n.md", &Range{Start: 0, End: 50})
	if _, err := doc.ReadSelection(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}
