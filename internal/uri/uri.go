// Package uri decodes and encodes the vault's custom-scheme URIs, e.g.
// obsidian://adv-uri?vault=Notes&uid=123&block=abc.
package uri

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/vaultlink/internal/apperr"
)

// Action is the host part of a URI.
type Action int

// Supported actions.
const (
	Open Action = iota
	AdvancedOpen
)

func (a Action) String() string {
	if a == AdvancedOpen {
		return "adv-uri"
	}
	return "open"
}

func parseAction(host string) (Action, bool) {
	switch strings.ToLower(host) {
	case "open":
		return Open, true
	case "adv-uri":
		return AdvancedOpen, true
	}
	return 0, false
}

// IdentifierKind selects how a URI addresses its target document.
type IdentifierKind int

// Identifier kinds.
const (
	ByName IdentifierKind = iota
	ByStableID
)

func (k IdentifierKind) String() string {
	if k == ByStableID {
		return "stable-id"
	}
	return "name"
}

// Query parameter names.
const (
	ParamVault   = "vault"
	ParamFile    = "file"
	ParamUUID    = "uuid"
	ParamUID     = "uid"
	ParamHeading = "heading"
	ParamBlock   = "block"
)

// identifierKeys is the lookup order when a URI carries several identifiers.
var identifierKeys = []struct {
	key  string
	kind IdentifierKind
}{
	{ParamFile, ByName},
	{ParamUUID, ByStableID},
	{ParamUID, ByStableID},
}

// Parsed is a decoded URI. All values are already percent-decoded.
type Parsed struct {
	Action  Action
	Vault   string
	Kind    IdentifierKind
	Value   string
	Heading string
	Block   string
}

// Decode parses raw as a URI of the given scheme. It fails with
// apperr.ErrMalformedURI when raw is not a valid URI, uses another scheme or
// an unknown action, or carries no file/uuid/uid parameter.
func Decode(raw, scheme string) (Parsed, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", apperr.ErrMalformedURI, err)
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return Parsed{}, fmt.Errorf("%w: scheme %q", apperr.ErrMalformedURI, u.Scheme)
	}
	action, ok := parseAction(u.Host)
	if !ok {
		return Parsed{}, fmt.Errorf("%w: action %q", apperr.ErrMalformedURI, u.Host)
	}
	// A raw ";" is data here, not a separator.
	q, err := url.ParseQuery(strings.ReplaceAll(u.RawQuery, ";", "%3B"))
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: query: %v", apperr.ErrMalformedURI, err)
	}

	p := Parsed{
		Action:  action,
		Vault:   q.Get(ParamVault),
		Heading: q.Get(ParamHeading),
		Block:   q.Get(ParamBlock),
	}
	for _, id := range identifierKeys {
		if v := q.Get(id.key); v != "" {
			p.Kind = id.kind
			p.Value = v
			return p, nil
		}
	}
	return Parsed{}, fmt.Errorf("%w: no file, uuid or uid parameter", apperr.ErrMalformedURI)
}

// Encode renders p in canonical form:
//
//	scheme://action?vault=<vault>&file|uid=<value>[&heading=<h>][&block=<b>]
//
// vault is omitted when empty.
func Encode(p Parsed, scheme string) string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(p.Action.String())

	sep := byte('?')
	add := func(key, value string) {
		b.WriteByte(sep)
		sep = '&'
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(escape(value))
	}
	if p.Vault != "" {
		add(ParamVault, p.Vault)
	}
	if p.Kind == ByStableID {
		add(ParamUID, p.Value)
	} else {
		add(ParamFile, p.Value)
	}
	if p.Heading != "" {
		add(ParamHeading, p.Heading)
	}
	if p.Block != "" {
		add(ParamBlock, p.Block)
	}
	return b.String()
}

// escape percent-encodes s the way encodeURIComponent does for the
// characters that matter here: spaces become %20, never '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
