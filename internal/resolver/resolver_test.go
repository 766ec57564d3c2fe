package resolver

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/models"
	"github.com/starford/vaultlink/internal/uri"
)

type fakeIndex struct {
	docs []models.DocumentRef
	meta map[string]map[string]any
	err  error
}

func (f *fakeIndex) ListDocuments() ([]models.DocumentRef, error) { return f.docs, f.err }

func (f *fakeIndex) MetadataOf(d models.DocumentRef) (map[string]any, error) {
	return f.meta[d.Path], nil
}

type linkpathIndex struct {
	fakeIndex
	calls int
}

func (l *linkpathIndex) ResolveLinkpath(name string) (*models.DocumentRef, error) {
	l.calls++
	for _, d := range l.docs {
		if strings.EqualFold(d.Linkpath(), name) {
			return &d, nil
		}
	}
	return nil, nil
}

func testIndex() *fakeIndex {
	return &fakeIndex{
		docs: []models.DocumentRef{
			models.NewDocumentRef("projects/Project Plan.md"),
			models.NewDocumentRef("Inbox.md"),
			models.NewDocumentRef("archive/Inbox.md"),
			models.NewDocumentRef("Numbers.md"),
		},
		meta: map[string]map[string]any{
			"projects/Project Plan.md": {"uuid": "123", "uid": "abc"},
			"Inbox.md":                 {"uuid": "ABC"},
			"Numbers.md":               {"uuid": 42},
		},
	}
}

func TestResolveByName_CaseInsensitive(t *testing.T) {
	r := New(testIndex(), nil, nil)
	d, err := r.ResolveByName("project plan")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if d.Name != "Project Plan" || d.Path != "projects/Project Plan.md" {
		t.Errorf("got %+v", d)
	}
}

func TestResolveByName_FirstMatchWins(t *testing.T) {
	r := New(testIndex(), nil, nil)
	d, err := r.ResolveByName("Inbox")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if d.Path != "Inbox.md" {
		t.Errorf("path = %q, want Inbox.md", d.Path)
	}
}

func TestResolveByName_NotFound(t *testing.T) {
	r := New(testIndex(), nil, nil)
	for _, name := range []string{"NoSuchDocument", "Project", ""} {
		if _, err := r.ResolveByName(name); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("ResolveByName(%q) err = %v", name, err)
		}
	}
}

func TestResolveByName_ListErrorIsNotFound(t *testing.T) {
	r := New(&fakeIndex{err: errors.New("db closed")}, nil, nil)
	if _, err := r.ResolveByName("Inbox"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveByName_UsesLinkpathResolver(t *testing.T) {
	idx := &linkpathIndex{fakeIndex: *testIndex()}
	r := New(idx, nil, nil)
	d, err := r.ResolveByName("archive/inbox")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if d.Path != "archive/Inbox.md" || idx.calls != 1 {
		t.Errorf("got %+v after %d calls", d, idx.calls)
	}
}

func TestResolveByStableID(t *testing.T) {
	idx := testIndex()
	r := New(idx, idx, nil)

	d, err := r.ResolveByStableID("123", "uuid")
	if err != nil {
		t.Fatalf("ResolveByStableID: %v", err)
	}
	if d.Name != "Project Plan" {
		t.Errorf("name = %q", d.Name)
	}

	d, err = r.ResolveByStableID("abc", "uid")
	if err != nil || d.Name != "Project Plan" {
		t.Errorf("custom field: %+v, %v", d, err)
	}
}

func TestResolveByStableID_CaseSensitive(t *testing.T) {
	idx := testIndex()
	r := New(idx, idx, nil)
	if _, err := r.ResolveByStableID("abc", "uuid"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("lower-case id should not match ABC, err = %v", err)
	}
}

func TestResolveByStableID_NumericValue(t *testing.T) {
	idx := testIndex()
	r := New(idx, idx, nil)
	d, err := r.ResolveByStableID("42", "uuid")
	if err != nil || d.Name != "Numbers" {
		t.Errorf("got %+v, %v", d, err)
	}
}

func TestResolveByStableID_LongNumericValue(t *testing.T) {
	idx := &fakeIndex{
		docs: []models.DocumentRef{models.NewDocumentRef("Zettel.md")},
		meta: map[string]map[string]any{"Zettel.md": {"uuid": json.Number("20240101123045123")}},
	}
	r := New(idx, idx, nil)
	d, err := r.ResolveByStableID("20240101123045123", "uuid")
	if err != nil || d.Name != "Zettel" {
		t.Errorf("got %+v, %v", d, err)
	}
}

func TestResolveByStableID_NoMetadataCache(t *testing.T) {
	r := New(testIndex(), nil, nil)
	if _, err := r.ResolveByStableID("123", "uuid"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestResolve_Dispatch(t *testing.T) {
	idx := testIndex()
	r := New(idx, idx, nil)
	if d, err := r.Resolve(uri.ByStableID, "123", "uuid"); err != nil || d.Name != "Project Plan" {
		t.Errorf("stable id: %+v, %v", d, err)
	}
	if d, err := r.Resolve(uri.ByName, "numbers", "uuid"); err != nil || d.Name != "Numbers" {
		t.Errorf("name: %+v, %v", d, err)
	}
}
