package index

import (
	"github.com/starford/vaultlink/internal/models"
	"github.com/starford/vaultlink/internal/resolver"
)

// DocumentIndex defines the index operations used outside this package.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type DocumentIndex interface {
	UpsertDocument(r DocumentRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Documents() ([]DocumentRow, error)
	ListDocuments() ([]models.DocumentRef, error)
	ResolveLinkpath(name string) (*models.DocumentRef, error)
	MetadataOf(doc models.DocumentRef) (map[string]any, error)
	Close() error
}

// Verify *DB satisfies the interfaces at compile time.
var (
	_ DocumentIndex             = (*DB)(nil)
	_ resolver.DocumentIndex    = (*DB)(nil)
	_ resolver.LinkpathResolver = (*DB)(nil)
	_ resolver.MetadataCache    = (*DB)(nil)
)
