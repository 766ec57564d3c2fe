package link

import (
	"errors"
	"testing"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/policy"
	"github.com/starford/vaultlink/internal/uri"
)

func TestDecodeInternal(t *testing.T) {
	cases := []struct {
		raw  string
		want Link
	}{
		{"[[Target]]", Link{Target: "Target"}},
		{"[[Target#Intro]]", Link{Target: "Target", Heading: "Intro"}},
		{"[[Target#^abc]]", Link{Target: "Target", Block: "abc"}},
		{"[[Target^abc]]", Link{Target: "Target", Block: "abc"}},
		{"[[Target|Alias]]", Link{Target: "Target", Alias: "Alias"}},
		{"[[Target#Intro|Alias]]", Link{Target: "Target", Heading: "Intro", Alias: "Alias"}},
		{"[[Target#Intro^abc|Alias]]", Link{Target: "Target", Heading: "Intro", Block: "abc", Alias: "Alias"}},
		{"[[dir/Target#Part 1#Sub]]", Link{Target: "dir/Target", Heading: "Part 1#Sub"}},
		{`[[Target\|Alias]]`, Link{Target: "Target", Alias: "Alias"}},
		{"[[ Spaced ]]", Link{Target: "Spaced"}},
	}
	for _, c := range cases {
		got, err := DecodeInternal(c.raw)
		if err != nil {
			t.Errorf("DecodeInternal(%q): %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("DecodeInternal(%q) = %+v, want %+v", c.raw, got, c.want)
		}
	}
}

func TestDecodeInternal_NotALink(t *testing.T) {
	for _, raw := range []string{"[[]]", "[[#Heading]]", "[[|alias]]", "[Target]", "Target"} {
		if _, err := DecodeInternal(raw); !errors.Is(err, apperr.ErrNotALink) {
			t.Errorf("DecodeInternal(%q) err = %v, want ErrNotALink", raw, err)
		}
	}
}

func TestEncodeInternal_BlockWinsOverHeading(t *testing.T) {
	got := EncodeInternal(Link{Target: "Target", Heading: "Intro", Block: "abc"}, policy.DisplayOnlyIfDifferent)
	if got != "[[Target#^abc]]" {
		t.Errorf("got %q, want [[Target#^abc]]", got)
	}
}

func TestEncodeInternal_DisplayModes(t *testing.T) {
	l := Link{Target: "DisplayName", Alias: "DisplayName"}
	if got := EncodeInternal(l, policy.DisplayOnlyIfDifferent); got != "[[DisplayName]]" {
		t.Errorf("onlyIfDifferent same alias = %q", got)
	}
	if got := EncodeInternal(l, policy.DisplayAlways); got != "[[DisplayName|DisplayName]]" {
		t.Errorf("always = %q", got)
	}

	l.Alias = "Custom"
	if got := EncodeInternal(l, policy.DisplayOnlyIfDifferent); got != "[[DisplayName|Custom]]" {
		t.Errorf("onlyIfDifferent custom alias = %q", got)
	}
	if got := EncodeInternal(l, policy.DisplayNever); got != "[[DisplayName]]" {
		t.Errorf("never = %q", got)
	}
}

func TestDecodeExternal(t *testing.T) {
	e, err := DecodeExternal("[Custom](obsidian://open?file=DisplayName&heading=Intro)", "obsidian")
	if err != nil {
		t.Fatalf("DecodeExternal: %v", err)
	}
	if e.Text != "Custom" || e.URI.Value != "DisplayName" || e.URI.Heading != "Intro" || e.URI.Kind != uri.ByName {
		t.Errorf("got %+v", e)
	}
}

func TestDecodeExternal_Failures(t *testing.T) {
	if _, err := DecodeExternal("[x](obsidian://open?vault=V)", "obsidian"); !errors.Is(err, apperr.ErrMalformedURI) {
		t.Errorf("missing identifier err = %v", err)
	}
	if _, err := DecodeExternal("plain text", "obsidian"); !errors.Is(err, apperr.ErrNotALink) {
		t.Errorf("plain text err = %v", err)
	}
	if _, err := DecodeExternal("[x]obsidian://open?file=A", "obsidian"); !errors.Is(err, apperr.ErrNotALink) {
		t.Errorf("no parens err = %v", err)
	}
}

func TestEncodeExternal(t *testing.T) {
	got := EncodeExternal("Plan", "obsidian://open?file=Plan")
	if got != "[Plan](obsidian://open?file=Plan)" {
		t.Errorf("got %q", got)
	}
}
