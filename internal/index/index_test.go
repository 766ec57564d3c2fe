package index

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/vaultlink/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "vaultlink-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertDocument(DocumentRow{Path: "hello.md", Checksum: "abc123"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "up.md", Checksum: "1", Frontmatter: map[string]any{"uuid": "old"}})
	_ = db.UpsertDocument(DocumentRow{Path: "up.md", Checksum: "2", Frontmatter: map[string]any{"uuid": "new"}})

	docs, _ := db.ListDocuments()
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	fm, err := db.MetadataOf(docs[0])
	if err != nil {
		t.Fatalf("MetadataOf: %v", err)
	}
	if fm["uuid"] != "new" {
		t.Errorf("uuid = %v, want new", fm["uuid"])
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "del.md", Checksum: "x"})
	if err := db.DeleteDocument("del.md"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
}

func TestListDocuments_OrderedByPath(t *testing.T) {
	db := testDB(t)
	for _, p := range []string{"z.md", "a/Plan.md", "m.md"} {
		_ = db.UpsertDocument(DocumentRow{Path: p})
	}
	docs, err := db.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 3 || docs[0].Path != "a/Plan.md" || docs[0].Name != "Plan" || docs[2].Path != "z.md" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestResolveLinkpath(t *testing.T) {
	db := testDB(t)
	for _, p := range []string{"archive/Inbox.md", "Inbox.md", "projects/Project Plan.md", "projects/sub/Draft.md"} {
		_ = db.UpsertDocument(DocumentRow{Path: p})
	}
	cases := map[string]string{
		"inbox":                    "Inbox.md",
		"archive/inbox":            "archive/Inbox.md",
		"Project Plan":             "projects/Project Plan.md",
		"projects/Project Plan.md": "projects/Project Plan.md",
		"sub/draft":                "projects/sub/Draft.md",
	}
	for name, want := range cases {
		d, err := db.ResolveLinkpath(name)
		if err != nil {
			t.Fatalf("ResolveLinkpath(%q): %v", name, err)
		}
		if d == nil || d.Path != want {
			t.Errorf("ResolveLinkpath(%q) = %+v, want %s", name, d, want)
		}
	}
	for _, name := range []string{"missing", "other/Inbox", ""} {
		if d, _ := db.ResolveLinkpath(name); d != nil {
			t.Errorf("ResolveLinkpath(%q) = %+v, want nil", name, d)
		}
	}
}

func TestMetadataOf_Missing(t *testing.T) {
	db := testDB(t)
	fm, err := db.MetadataOf(DocumentRow{Path: "nope.md"}.Ref())
	if err != nil || fm != nil {
		t.Errorf("fm = %v, err = %v", fm, err)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("Project Plan.md", []byte("---\nuuid: \"123\"\ntitle: Plan\n---\nBody"))
	_ = store.Write("notes/Other.md", []byte("no frontmatter"))
	_ = db.UpsertDocument(DocumentRow{Path: "stale.md", Checksum: "old"})

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	docs, _ := db.Documents()
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents after sync, got %+v", docs)
	}
	d, _ := db.ResolveLinkpath("Project Plan")
	if d == nil {
		t.Fatal("Project Plan not indexed")
	}
	fm, _ := db.MetadataOf(*d)
	if fm["uuid"] != "123" || fm["title"] != "Plan" {
		t.Errorf("frontmatter = %v", fm)
	}
	if docs[0].Title != "Plan" {
		t.Errorf("title = %q", docs[0].Title)
	}
}
