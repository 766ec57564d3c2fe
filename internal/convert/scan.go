package convert

import (
	"regexp"
	"strings"
	"sync"
)

// span is one candidate match located by a scanner. groups holds submatch
// byte offsets as returned by regexp.FindAllStringSubmatchIndex.
type span struct {
	start, end int
	groups     []int
}

func (s span) group(text string, i int) (string, bool) {
	if 2*i+1 >= len(s.groups) || s.groups[2*i] < 0 {
		return "", false
	}
	return text[s.groups[2*i]:s.groups[2*i+1]], true
}

var (
	uriPatterns sync.Map // scheme -> *regexp.Regexp

	internalLinkRe = regexp.MustCompile(`(!?)\[\[([^\[\]]+?)\]\]`)
)

// uriPattern matches either an external link wrapping a scheme URI
// (group 1 = display text, group 2 = URI) or a bare scheme URI.
func uriPattern(scheme string) *regexp.Regexp {
	if re, ok := uriPatterns.Load(scheme); ok {
		return re.(*regexp.Regexp)
	}
	s := "(?i:" + regexp.QuoteMeta(scheme) + ")://"
	re := regexp.MustCompile(`\[([^\]]*)\]\((` + s + `[^)]+)\)|` + s + `[^\s)]+`)
	actual, _ := uriPatterns.LoadOrStore(scheme, re)
	return actual.(*regexp.Regexp)
}

// scan returns the non-overlapping matches of re in text, left to right.
func scan(re *regexp.Regexp, text string) []span {
	idx := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]span, 0, len(idx))
	for _, m := range idx {
		out = append(out, span{start: m[0], end: m[1], groups: m})
	}
	return out
}

// rewrite builds the output in one forward pass over spans: untouched gaps
// are copied and each span is replaced by fn's result, or copied verbatim
// when fn reports no replacement. Text produced by fn is never rescanned.
func rewrite(text string, spans []span, fn func(span) (string, bool)) (out string, converted, skipped int) {
	if len(spans) == 0 {
		return text, 0, 0
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, sp := range spans {
		b.WriteString(text[last:sp.start])
		orig := text[sp.start:sp.end]
		if repl, ok := fn(sp); ok && repl != orig {
			b.WriteString(repl)
			converted++
		} else {
			b.WriteString(orig)
			skipped++
		}
		last = sp.end
	}
	b.WriteString(text[last:])
	return b.String(), converted, skipped
}
