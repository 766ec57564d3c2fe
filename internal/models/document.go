// Package models defines the domain types for vaultlink.
package models

import (
	"path"
	"strings"
)

// DocumentRef identifies a concrete document in the vault. It is owned by the
// document repository and is never mutated by the conversion engine.
type DocumentRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NewDocumentRef builds a DocumentRef for a vault-relative path, deriving the
// display name from the file name with its .md extension removed.
func NewDocumentRef(p string) DocumentRef {
	p = strings.ReplaceAll(p, "\\", "/")
	return DocumentRef{Name: DisplayName(p), Path: p}
}

// DisplayName returns the case-preserving base name of p without ".md".
func DisplayName(p string) string {
	return TrimMarkdownExt(path.Base(strings.ReplaceAll(p, "\\", "/")))
}

// TrimMarkdownExt strips a trailing .md extension (any case).
func TrimMarkdownExt(p string) string {
	if len(p) >= 3 && strings.EqualFold(p[len(p)-3:], ".md") {
		return p[:len(p)-3]
	}
	return p
}

// Linkpath is the path form used when addressing a document from a URI: the
// vault-relative path without its .md extension.
func (d DocumentRef) Linkpath() string {
	return TrimMarkdownExt(d.Path)
}

// DocumentMetadata is a lightweight representation returned by storage list operations.
type DocumentMetadata struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}
