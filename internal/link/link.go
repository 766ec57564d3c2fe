// Package link decodes and encodes the two bracketed link notations:
// internal [[target#heading^block|alias]] and external [text](scheme://...).
package link

import (
	"fmt"
	"strings"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/policy"
	"github.com/starford/vaultlink/internal/uri"
)

// Link is a decoded internal link.
type Link struct {
	Target  string
	Heading string
	Block   string
	Alias   string
}

// Anchor returns the suffix appended to the target when encoding. A block
// reference wins over a heading.
func (l Link) Anchor() string {
	switch {
	case l.Block != "":
		return "#^" + l.Block
	case l.Heading != "":
		return "#" + l.Heading
	}
	return ""
}

// DecodeInternal parses a [[...]] link. Both a heading and a block may be
// present in the text; both are kept and the encoder prefers the block.
func DecodeInternal(raw string) (Link, error) {
	if !strings.HasPrefix(raw, "[[") || !strings.HasSuffix(raw, "]]") || len(raw) < 4 {
		return Link{}, fmt.Errorf("%w: %q", apperr.ErrNotALink, raw)
	}
	inner := raw[2 : len(raw)-2]

	var l Link
	if i := strings.Index(inner, "|"); i >= 0 {
		l.Alias = inner[i+1:]
		inner = inner[:i]
		// Inside tables the pipe is written as \|.
		inner = strings.TrimSuffix(inner, `\`)
	}
	if i := strings.IndexAny(inner, "#^"); i >= 0 {
		anchor := strings.TrimPrefix(inner[i:], "#")
		inner = inner[:i]
		if j := strings.Index(anchor, "^"); j >= 0 {
			l.Heading = anchor[:j]
			l.Block = anchor[j+1:]
		} else {
			l.Heading = anchor
		}
	}
	l.Target = strings.TrimSpace(inner)
	if l.Target == "" {
		return Link{}, fmt.Errorf("%w: empty target in %q", apperr.ErrNotALink, raw)
	}
	return l, nil
}

// EncodeInternal renders l as [[target#anchor|alias]], keeping the alias only
// when mode allows it for l.Target.
func EncodeInternal(l Link, mode policy.DisplayTextMode) string {
	var b strings.Builder
	b.WriteString("[[")
	b.WriteString(l.Target)
	b.WriteString(l.Anchor())
	if mode.IncludeAlias(l.Alias, l.Target) {
		b.WriteByte('|')
		b.WriteString(l.Alias)
	}
	b.WriteString("]]")
	return b.String()
}

// External is a decoded [text](uri) link.
type External struct {
	Text string
	URI  uri.Parsed
}

// DecodeExternal parses [text](uri) where uri uses scheme. It fails with
// apperr.ErrNotALink when raw is not in that shape and with
// apperr.ErrMalformedURI when the wrapped URI does not decode.
func DecodeExternal(raw, scheme string) (External, error) {
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, ")") {
		return External{}, fmt.Errorf("%w: %q", apperr.ErrNotALink, raw)
	}
	mid := strings.Index(raw, "](")
	if mid < 0 {
		return External{}, fmt.Errorf("%w: %q", apperr.ErrNotALink, raw)
	}
	text := raw[1:mid]
	if strings.ContainsAny(text, "[]") {
		return External{}, fmt.Errorf("%w: nested brackets in %q", apperr.ErrNotALink, raw)
	}
	parsed, err := uri.Decode(raw[mid+2:len(raw)-1], scheme)
	if err != nil {
		return External{}, err
	}
	return External{Text: text, URI: parsed}, nil
}

// EncodeExternal renders [text](uriText).
func EncodeExternal(text, uriText string) string {
	return "[" + text + "](" + uriText + ")"
}
