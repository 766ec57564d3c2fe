// Package resolver maps identifiers found in links onto documents in the vault.
package resolver

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/models"
	"github.com/starford/vaultlink/internal/uri"
)

// DocumentIndex lists the documents of the current vault.
type DocumentIndex interface {
	ListDocuments() ([]models.DocumentRef, error)
}

// LinkpathResolver is implemented by indexes that can resolve a link target
// (a display name or a vault path without extension) the way the host does.
// It returns nil when nothing matches.
type LinkpathResolver interface {
	ResolveLinkpath(name string) (*models.DocumentRef, error)
}

// MetadataCache exposes each document's metadata block. It returns nil when
// the document has none.
type MetadataCache interface {
	MetadataOf(doc models.DocumentRef) (map[string]any, error)
}

// Resolver looks documents up by name or by stable identifier. Lookups are
// pure reads; every failure surfaces as apperr.ErrNotFound.
type Resolver struct {
	docs   DocumentIndex
	meta   MetadataCache
	logger *slog.Logger
}

// New creates a Resolver. meta may be nil, in which case stable-id lookups
// never match.
func New(docs DocumentIndex, meta MetadataCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{docs: docs, meta: meta, logger: logger}
}

// Resolve dispatches on kind. fieldName is the metadata field holding stable
// identifiers.
func (r *Resolver) Resolve(kind uri.IdentifierKind, value, fieldName string) (models.DocumentRef, error) {
	if kind == uri.ByStableID {
		return r.ResolveByStableID(value, fieldName)
	}
	return r.ResolveByName(value)
}

// ResolveByName finds the document whose display name (or extensionless
// vault path) equals name, ignoring case. The index's own link resolution is
// used when it offers one. With duplicate names the first document in index
// order wins.
func (r *Resolver) ResolveByName(name string) (models.DocumentRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DocumentRef{}, apperr.ErrNotFound
	}
	if lr, ok := r.docs.(LinkpathResolver); ok {
		doc, err := lr.ResolveLinkpath(name)
		if err != nil {
			r.logger.Warn("resolver: linkpath lookup failed", slog.String("name", name), slog.String("error", err.Error()))
			return models.DocumentRef{}, apperr.ErrNotFound
		}
		if doc == nil {
			return models.DocumentRef{}, apperr.ErrNotFound
		}
		return *doc, nil
	}

	docs, err := r.docs.ListDocuments()
	if err != nil {
		r.logger.Warn("resolver: list documents failed", slog.String("error", err.Error()))
		return models.DocumentRef{}, apperr.ErrNotFound
	}
	for _, d := range docs {
		if strings.EqualFold(d.Name, name) || strings.EqualFold(d.Linkpath(), name) {
			return d, nil
		}
	}
	return models.DocumentRef{}, apperr.ErrNotFound
}

// ResolveByStableID finds the first document whose metadata field fieldName
// equals id. The comparison is exact and case-sensitive.
func (r *Resolver) ResolveByStableID(id, fieldName string) (models.DocumentRef, error) {
	if id == "" || fieldName == "" || r.meta == nil {
		return models.DocumentRef{}, apperr.ErrNotFound
	}
	docs, err := r.docs.ListDocuments()
	if err != nil {
		r.logger.Warn("resolver: list documents failed", slog.String("error", err.Error()))
		return models.DocumentRef{}, apperr.ErrNotFound
	}
	for _, d := range docs {
		v, ok := r.StableID(d, fieldName)
		if ok && v == id {
			return d, nil
		}
	}
	return models.DocumentRef{}, apperr.ErrNotFound
}

// StableID returns the stable identifier stored in doc's metadata.
func (r *Resolver) StableID(doc models.DocumentRef, fieldName string) (string, bool) {
	if r.meta == nil {
		return "", false
	}
	fm, err := r.meta.MetadataOf(doc)
	if err != nil {
		r.logger.Debug("resolver: metadata unavailable", slog.String("path", doc.Path), slog.String("error", err.Error()))
		return "", false
	}
	if fm == nil {
		return "", false
	}
	return scalarString(fm[fieldName])
}

// scalarString renders a metadata scalar as text. An unquoted YAML id such as
// `uuid: 123` arrives as a number and must still match "123".
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	default:
		return "", false
	}
}
