// Package convert rewrites text between scheme URIs, external links and
// internal links, leaving every span it cannot convert untouched.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/link"
	"github.com/starford/vaultlink/internal/models"
	"github.com/starford/vaultlink/internal/policy"
	"github.com/starford/vaultlink/internal/resolver"
	"github.com/starford/vaultlink/internal/uri"
)

// Direction selects a conversion pass.
type Direction string

// Conversion passes.
const (
	ToInternal Direction = "internal"
	ToExternal Direction = "external"
)

// ParseDirection accepts "internal"/"to-internal" and "external"/"to-external".
func ParseDirection(s string) (Direction, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "to-") {
	case "internal":
		return ToInternal, nil
	case "external":
		return ToExternal, nil
	}
	return "", fmt.Errorf("convert: unknown direction %q", s)
}

// NothingMessage is the notice shown when a pass changes nothing.
func (d Direction) NothingMessage() string {
	if d == ToExternal {
		return "No internal links to convert found."
	}
	return "No valid URIs to convert found."
}

// DoneMessage is the notice shown after a pass changed the text.
func (d Direction) DoneMessage() string {
	if d == ToExternal {
		return "Internal links converted to URIs!"
	}
	return "URIs converted to internal links!"
}

// Result is the outcome of one pass.
type Result struct {
	Text      string `json:"text"`
	Converted int    `json:"converted"`
	Skipped   int    `json:"skipped"`
}

// Changed reports whether any span was rewritten.
func (r Result) Changed() bool { return r.Converted > 0 }

// Converter runs conversion passes against one vault.
type Converter struct {
	resolver *resolver.Resolver
	vault    string
	logger   *slog.Logger
}

// New creates a Converter for the vault named vault.
func New(r *resolver.Resolver, vault string, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{resolver: r, vault: vault, logger: logger}
}

// Vault returns the name of the current vault.
func (c *Converter) Vault() string { return c.vault }

// Convert runs the pass selected by dir.
func (c *Converter) Convert(text string, dir Direction, p policy.Policy) (Result, error) {
	switch dir {
	case ToInternal:
		return c.ToInternal(text, p)
	case ToExternal:
		return c.ToExternal(text, p)
	}
	return Result{Text: text}, fmt.Errorf("convert: unknown direction %q", dir)
}

// ToInternal replaces scheme URIs and external links wrapping them with
// internal links. When nothing changes it returns the input unchanged along
// with apperr.ErrNoConvertibleSpans.
func (c *Converter) ToInternal(text string, p policy.Policy) (Result, error) {
	p.Normalize()
	out, converted, skipped := rewrite(text, scan(uriPattern(p.Scheme), text), func(sp span) (string, bool) {
		raw := text[sp.start:sp.end]
		repl, err := c.uriToInternal(raw, sp, text, p)
		if err != nil {
			c.debug(p, "convert: left uri unchanged", raw, err)
			return "", false
		}
		return repl, true
	})
	return finish(out, converted, skipped)
}

func (c *Converter) uriToInternal(raw string, sp span, text string, p policy.Policy) (string, error) {
	var (
		parsed uri.Parsed
		alias  string
	)
	if _, external := sp.group(text, 2); external {
		e, err := link.DecodeExternal(raw, p.Scheme)
		if err != nil {
			return "", err
		}
		parsed, alias = e.URI, e.Text
	} else {
		var err error
		if parsed, err = uri.Decode(raw, p.Scheme); err != nil {
			return "", err
		}
	}

	if p.EnforceVault && parsed.Vault != "" && parsed.Vault != c.vault {
		return "", fmt.Errorf("%w: %q", apperr.ErrCollectionMismatch, parsed.Vault)
	}
	doc, err := c.resolver.Resolve(parsed.Kind, parsed.Value, p.StableIDField)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", parsed.Kind, parsed.Value, err)
	}
	return link.EncodeInternal(link.Link{
		Target:  doc.Name,
		Heading: parsed.Heading,
		Block:   parsed.Block,
		Alias:   alias,
	}, p.DisplayTextMode), nil
}

// ToExternal replaces internal links with [text](uri) links addressed by
// vault path. Embeds (![[...]]) are never converted.
func (c *Converter) ToExternal(text string, p policy.Policy) (Result, error) {
	p.Normalize()
	out, converted, skipped := rewrite(text, scan(internalLinkRe, text), func(sp span) (string, bool) {
		raw := text[sp.start:sp.end]
		if bang, _ := sp.group(text, 1); bang != "" {
			c.debug(p, "convert: embed left unchanged", raw, nil)
			return "", false
		}
		repl, err := c.internalToExternal(raw, p)
		if err != nil {
			c.debug(p, "convert: left link unchanged", raw, err)
			return "", false
		}
		return repl, true
	})
	return finish(out, converted, skipped)
}

func (c *Converter) internalToExternal(raw string, p policy.Policy) (string, error) {
	l, err := link.DecodeInternal(raw)
	if err != nil {
		return "", err
	}
	text := l.Alias
	if text == "" {
		text = l.Target
	}

	doc, err := c.resolver.ResolveByName(l.Target)
	if errors.Is(err, apperr.ErrNotFound) && p.FallbackURI {
		return link.EncodeExternal(text, uri.Encode(uri.Parsed{
			Action:  uri.AdvancedOpen,
			Vault:   c.vault,
			Kind:    uri.ByName,
			Value:   l.Target,
			Heading: l.Heading,
			Block:   l.Block,
		}, p.Scheme)), nil
	}
	if err != nil {
		return "", fmt.Errorf("name %q: %w", l.Target, err)
	}
	return link.EncodeExternal(text, uri.Encode(c.addressOf(doc, l, p), p.Scheme)), nil
}

// addressOf builds the URI for doc: an open action by path, or an advanced
// open by stable id when the policy prefers it and doc carries one.
func (c *Converter) addressOf(doc models.DocumentRef, l link.Link, p policy.Policy) uri.Parsed {
	target := uri.Parsed{
		Action:  uri.Open,
		Vault:   c.vault,
		Kind:    uri.ByName,
		Value:   doc.Linkpath(),
		Heading: l.Heading,
		Block:   l.Block,
	}
	if p.PreferStableID {
		if id, ok := c.resolver.StableID(doc, p.StableIDField); ok && id != "" {
			target.Action = uri.AdvancedOpen
			target.Kind = uri.ByStableID
			target.Value = id
		}
	}
	return target
}

func finish(out string, converted, skipped int) (Result, error) {
	res := Result{Text: out, Converted: converted, Skipped: skipped}
	if converted == 0 {
		return res, apperr.ErrNoConvertibleSpans
	}
	return res, nil
}

func (c *Converter) debug(p policy.Policy, msg, raw string, err error) {
	if !p.DebugMode {
		return
	}
	attrs := []any{slog.String("span", raw)}
	if err != nil {
		attrs = append(attrs, slog.String("reason", err.Error()))
	}
	c.logger.Info(msg, attrs...)
}
