// Package policy holds the conversion settings read by the codecs and the
// orchestrator on every call.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultStableIDField is the metadata field used when none is configured.
const DefaultStableIDField = "uuid"

// DefaultScheme is the URI scheme recognised when none is configured.
const DefaultScheme = "obsidian"

var schemeRe = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)

// DisplayTextMode decides whether a link's display text survives conversion
// to internal notation.
type DisplayTextMode string

// Display text modes.
const (
	DisplayAlways          DisplayTextMode = "always"
	DisplayOnlyIfDifferent DisplayTextMode = "onlyIfDifferent"
	DisplayNever           DisplayTextMode = "never"
)

// ParseDisplayTextMode maps user input onto a DisplayTextMode. Matching is
// case-insensitive and accepts the kebab-case spelling of onlyIfDifferent.
func ParseDisplayTextMode(s string) (DisplayTextMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always":
		return DisplayAlways, nil
	case "onlyifdifferent", "only-if-different":
		return DisplayOnlyIfDifferent, nil
	case "never":
		return DisplayNever, nil
	}
	return "", fmt.Errorf("policy: unknown display text mode %q", s)
}

// IncludeAlias reports whether alias should be kept next to target.
func (m DisplayTextMode) IncludeAlias(alias, target string) bool {
	if alias == "" {
		return false
	}
	switch m {
	case DisplayAlways:
		return true
	case DisplayNever:
		return false
	default:
		return alias != target
	}
}

// Policy is the conversion configuration. It is passed by value into every
// conversion call so a pass always sees one consistent snapshot.
type Policy struct {
	StableIDField   string          `yaml:"uid_field_name" json:"uid_field_name"`
	EnforceVault    bool            `yaml:"enforce_vault_name" json:"enforce_vault_name"`
	DisplayTextMode DisplayTextMode `yaml:"display_text_mode" json:"display_text_mode"`
	DebugMode       bool            `yaml:"debug_mode" json:"debug_mode"`
	Scheme          string          `yaml:"scheme" json:"scheme"`
	FallbackURI     bool            `yaml:"fallback_uri" json:"fallback_uri"`
	PreferStableID  bool            `yaml:"prefer_stable_id" json:"prefer_stable_id"`
}

// Default returns the policy used when nothing has been persisted.
func Default() Policy {
	return Policy{
		StableIDField:   DefaultStableIDField,
		EnforceVault:    true,
		DisplayTextMode: DisplayOnlyIfDifferent,
		Scheme:          DefaultScheme,
	}
}

// Normalize fills blank fields with their defaults.
func (p *Policy) Normalize() {
	p.StableIDField = strings.TrimSpace(p.StableIDField)
	if p.StableIDField == "" {
		p.StableIDField = DefaultStableIDField
	}
	p.Scheme = strings.ToLower(strings.TrimSpace(p.Scheme))
	if p.Scheme == "" {
		p.Scheme = DefaultScheme
	}
	if p.DisplayTextMode == "" {
		p.DisplayTextMode = DisplayOnlyIfDifferent
	}
}

// Validate normalizes p and checks the remaining fields.
func (p *Policy) Validate() error {
	p.Normalize()
	return validation.ValidateStruct(p,
		validation.Field(&p.DisplayTextMode, validation.In(DisplayAlways, DisplayOnlyIfDifferent, DisplayNever)),
		validation.Field(&p.Scheme, validation.Match(schemeRe)),
	)
}
