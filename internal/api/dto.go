package api

import (
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/linkservice"
	"github.com/starford/vaultlink/internal/policy"
)

// ConvertRequest is the request body for converting a piece of text.
type ConvertRequest struct {
	Text string `json:"text" example:"See obsidian://open?vault=Notes&file=Plan" validate:"required"`
}

// ConvertResponse is the outcome of a conversion pass.
type ConvertResponse struct {
	Text      string `json:"text" validate:"required"`
	Converted int    `json:"converted" example:"1"`
	Skipped   int    `json:"skipped" example:"0"`
	Changed   bool   `json:"changed"`
	Message   string `json:"message" example:"URIs converted to internal links!"`
}

// ConvertNoteRequest is the request body for converting a note in place.
// Range, when present, limits the pass to that byte range of the note.
type ConvertNoteRequest struct {
	Direction string        `json:"direction" example:"internal" validate:"required"`
	Range     *buffer.Range `json:"range,omitempty"`
}

// ConvertNoteResponse is the outcome of an in-place conversion.
type ConvertNoteResponse struct {
	Path     string `json:"path" example:"inbox.md" validate:"required"`
	Checksum string `json:"checksum" validate:"required"`
	ConvertResponse
}

// ResolveResponse describes a resolved document.
type ResolveResponse struct {
	Name     string `json:"name" example:"Project Plan" validate:"required"`
	Path     string `json:"path" example:"projects/Project Plan.md" validate:"required"`
	StableID string `json:"stable_id,omitempty" example:"123"`
}

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = linkservice.DocumentItem

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// StampResponse is returned after stamping a note with a stable id.
type StampResponse struct {
	Path    string `json:"path" validate:"required"`
	ID      string `json:"id" validate:"required"`
	Changed bool   `json:"changed"`
}

// Settings is the conversion policy as exposed over the API.
type Settings = policy.Policy

// SettingsUpdate is a partial settings update; absent fields are unchanged.
type SettingsUpdate struct {
	StableIDField   *string `json:"uid_field_name,omitempty"`
	EnforceVault    *bool   `json:"enforce_vault_name,omitempty"`
	DisplayTextMode *string `json:"display_text_mode,omitempty"`
	DebugMode       *bool   `json:"debug_mode,omitempty"`
	Scheme          *string `json:"scheme,omitempty"`
	FallbackURI     *bool   `json:"fallback_uri,omitempty"`
	PreferStableID  *bool   `json:"prefer_stable_id,omitempty"`
}

// apply copies the fields present in u onto p. An unrecognised display mode
// is copied verbatim and rejected by policy validation.
func (u SettingsUpdate) apply(p *policy.Policy) {
	if u.StableIDField != nil {
		p.StableIDField = *u.StableIDField
	}
	if u.EnforceVault != nil {
		p.EnforceVault = *u.EnforceVault
	}
	if u.DisplayTextMode != nil {
		mode, err := policy.ParseDisplayTextMode(*u.DisplayTextMode)
		if err != nil {
			mode = policy.DisplayTextMode(*u.DisplayTextMode)
		}
		p.DisplayTextMode = mode
	}
	if u.DebugMode != nil {
		p.DebugMode = *u.DebugMode
	}
	if u.Scheme != nil {
		p.Scheme = *u.Scheme
	}
	if u.FallbackURI != nil {
		p.FallbackURI = *u.FallbackURI
	}
	if u.PreferStableID != nil {
		p.PreferStableID = *u.PreferStableID
	}
}
