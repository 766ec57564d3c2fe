package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/vaultlink/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path        string
	Name        string
	Title       string
	Checksum    string
	Frontmatter map[string]any
	UpdatedAt   time.Time
}

// Ref returns the DocumentRef for the row.
func (r DocumentRow) Ref() models.DocumentRef {
	return models.DocumentRef{Name: r.Name, Path: r.Path}
}

// UpsertDocument inserts or replaces a document row.
func (db *DB) UpsertDocument(r DocumentRow) error {
	fm := r.Frontmatter
	if fm == nil {
		fm = map[string]any{}
	}
	fmJSON, err := json.Marshal(fm)
	if err != nil {
		return fmt.Errorf("index: encode frontmatter for %s: %w", r.Path, err)
	}
	if r.Name == "" {
		r.Name = models.DisplayName(r.Path)
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	_, err = db.conn.Exec(`
		INSERT INTO documents (path, name, title, checksum, frontmatter, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name        = excluded.name,
			title       = excluded.title,
			checksum    = excluded.checksum,
			frontmatter = excluded.frontmatter,
			updated_at  = excluded.updated_at
	`, r.Path, r.Name, r.Title, r.Checksum, string(fmJSON), r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document row.
func (db *DB) DeleteDocument(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Documents returns every indexed document ordered by path.
func (db *DB) Documents() ([]DocumentRow, error) {
	rows, err := db.conn.Query(`SELECT path, name, title, checksum, updated_at FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		if err := rows.Scan(&r.Path, &r.Name, &r.Title, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListDocuments returns a reference to every indexed document, ordered by
// path so that first-match resolution is deterministic.
func (db *DB) ListDocuments() ([]models.DocumentRef, error) {
	rows, err := db.Documents()
	if err != nil {
		return nil, err
	}
	out := make([]models.DocumentRef, len(rows))
	for i, r := range rows {
		out[i] = r.Ref()
	}
	return out, nil
}

// ResolveLinkpath resolves a link target the way the host application does:
// an exact vault path (extension optional) first, then a path suffix when the
// target contains a slash, otherwise a display name. Matching ignores case.
// It returns nil when nothing matches.
func (db *DB) ResolveLinkpath(name string) (*models.DocumentRef, error) {
	want := models.TrimMarkdownExt(strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"), "/"))
	if want == "" {
		return nil, nil
	}
	docs, err := db.ListDocuments()
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if strings.EqualFold(d.Linkpath(), want) {
			return &d, nil
		}
	}
	if strings.Contains(want, "/") {
		suffix := "/" + strings.ToLower(want)
		for _, d := range docs {
			if strings.HasSuffix(strings.ToLower(d.Linkpath()), suffix) {
				return &d, nil
			}
		}
		return nil, nil
	}
	for _, d := range docs {
		if strings.EqualFold(d.Name, want) {
			return &d, nil
		}
	}
	return nil, nil
}

// MetadataOf returns the frontmatter stored for doc, or nil when the
// document is not indexed.
func (db *DB) MetadataOf(doc models.DocumentRef) (map[string]any, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT frontmatter FROM documents WHERE path = ?`, doc.Path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: metadata: %w", err)
	}
	// Numbers stay json.Number so long numeric ids keep every digit.
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var fm map[string]any
	if err := dec.Decode(&fm); err != nil {
		return nil, fmt.Errorf("index: decode metadata for %s: %w", doc.Path, err)
	}
	return fm, nil
}
