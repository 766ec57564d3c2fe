// Package linkservice coordinates storage, the document index, the policy
// store and the converter for note-level operations.
package linkservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/checksum"
	"github.com/starford/vaultlink/internal/convert"
	"github.com/starford/vaultlink/internal/index"
	"github.com/starford/vaultlink/internal/models"
	"github.com/starford/vaultlink/internal/parser"
	"github.com/starford/vaultlink/internal/policy"
	"github.com/starford/vaultlink/internal/resolver"
	"github.com/starford/vaultlink/internal/storage"
	"github.com/starford/vaultlink/internal/uri"
)

// DocumentItem is a lightweight item in a document list response.
type DocumentItem struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	StableID  string    `json:"stable_id,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteResult is the outcome of converting a note in place.
type NoteResult struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	convert.Result
}

// ConvertedFunc is notified after a note has been rewritten.
type ConvertedFunc func(path string, converted int)

// Service coordinates storage, index, policy and conversion.
type Service struct {
	store       storage.Provider
	db          *index.DB
	resolver    *resolver.Resolver
	conv        *convert.Converter
	policies    *policy.Store
	logger      *slog.Logger
	onConverted ConvertedFunc
}

// NewService wires a service for the vault called vaultName.
func NewService(store storage.Provider, db *index.DB, policies *policy.Store, vaultName string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	res := resolver.New(db, db, logger)
	return &Service{
		store:    store,
		db:       db,
		resolver: res,
		conv:     convert.New(res, vaultName, logger),
		policies: policies,
		logger:   logger,
	}
}

// OnConverted registers a callback run after each successful note rewrite.
func (s *Service) OnConverted(fn ConvertedFunc) { s.onConverted = fn }

// Vault returns the name of the current vault.
func (s *Service) Vault() string { return s.conv.Vault() }

// Settings returns the current policy.
func (s *Service) Settings() policy.Policy { return s.policies.Snapshot() }

// UpdateSettings applies fn to the policy, validates and persists it.
func (s *Service) UpdateSettings(fn func(*policy.Policy)) (policy.Policy, error) {
	p, err := s.policies.Update(fn)
	if err != nil {
		return p, err
	}
	s.logger.Info("settings updated",
		slog.String("uid_field_name", p.StableIDField),
		slog.Bool("enforce_vault_name", p.EnforceVault),
		slog.String("display_text_mode", string(p.DisplayTextMode)),
		slog.Bool("debug_mode", p.DebugMode))
	return p, nil
}

// ConvertText runs a pass over text. apperr.ErrNoConvertibleSpans is
// returned with the unchanged text when nothing was converted.
func (s *Service) ConvertText(_ context.Context, text string, dir convert.Direction) (convert.Result, error) {
	return s.conv.Convert(text, dir, s.policies.Snapshot())
}

// ConvertNote runs a pass over a vault note, or over sel within it, and
// writes the result back atomically. ifMatch, when set, must name the
// note's current checksum.
func (s *Service) ConvertNote(_ context.Context, path string, dir convert.Direction, sel *buffer.Range, ifMatch string) (*NoteResult, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(ifMatch, existing) {
		return nil, apperr.ErrConflict
	}

	res, err := s.conv.Apply(buffer.NewDocument(s.store, path, sel), sel != nil, dir, s.policies.Snapshot())
	if err != nil {
		if errors.Is(err, apperr.ErrNoConvertibleSpans) {
			return &NoteResult{Path: path, Checksum: checksum.Sum(existing), Result: res}, err
		}
		return nil, err
	}

	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, path, data); err != nil {
		s.logger.Warn("reindex after convert failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	s.logger.Info("note converted",
		slog.String("path", path),
		slog.String("direction", string(dir)),
		slog.Int("converted", res.Converted),
		slog.Int("skipped", res.Skipped))
	if s.onConverted != nil {
		s.onConverted(path, res.Converted)
	}
	return &NoteResult{Path: path, Checksum: checksum.Sum(data), Result: res}, nil
}

// Resolve looks a document up by name or stable id using the current policy.
func (s *Service) Resolve(_ context.Context, kind uri.IdentifierKind, value string) (models.DocumentRef, error) {
	return s.resolver.Resolve(kind, value, s.policies.Snapshot().StableIDField)
}

// StableID returns doc's identifier under the current policy field.
func (s *Service) StableID(doc models.DocumentRef) (string, bool) {
	return s.resolver.StableID(doc, s.policies.Snapshot().StableIDField)
}

// Documents lists every indexed document with its stable id, if any.
func (s *Service) Documents(_ context.Context) ([]DocumentItem, error) {
	rows, err := s.db.Documents()
	if err != nil {
		return nil, err
	}
	field := s.policies.Snapshot().StableIDField
	items := make([]DocumentItem, len(rows))
	for i, r := range rows {
		id, _ := s.resolver.StableID(r.Ref(), field)
		items[i] = DocumentItem{
			Name:      r.Name,
			Path:      r.Path,
			Title:     r.Title,
			StableID:  id,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, nil
}

// Stamp gives the note at path a stable identifier in the configured
// metadata field, generating a UUID when the field is absent. It returns the
// identifier and whether the note was modified.
func (s *Service) Stamp(_ context.Context, path string) (string, bool, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, apperr.ErrNotFound
		}
		return "", false, err
	}
	field := s.policies.Snapshot().StableIDField
	out, id, changed, err := parser.SetField(data, field, uuid.NewString())
	if err != nil {
		return "", false, err
	}
	if !changed {
		return id, false, nil
	}
	if err := s.store.Write(path, out); err != nil {
		return "", false, err
	}
	if err := index.IndexFile(s.db, path, out); err != nil {
		return "", false, err
	}
	s.logger.Info("note stamped", slog.String("path", path), slog.String("field", field), slog.String("id", id))
	return id, true, nil
}
