// Package parser extracts the YAML metadata block (frontmatter) and title
// from Markdown documents, and stamps fields into it.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse extracts frontmatter, body, and title from raw Markdown bytes.
// Invalid YAML is not an error: the whole file is then treated as body.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
	}, nil
}

// locate finds the YAML block between an opening --- line at byte 0 and the
// next line that is exactly ---. start is the first byte after the opening
// delimiter, end is the newline preceding the closing one and next is the
// first byte after the closing line.
func locate(data []byte) (start, end, next int, ok bool) {
	if !bytes.HasPrefix(data, []byte(delim)) {
		return 0, 0, 0, false
	}
	start = len(delim)
	if rest := data[start:]; !bytes.HasPrefix(rest, []byte("\n")) && !bytes.HasPrefix(rest, []byte("\r\n")) {
		return 0, 0, 0, false
	}
	for p := start; p < len(data); {
		i := bytes.IndexByte(data[p:], '\n')
		if i < 0 {
			break
		}
		nl := p + i
		lineStart := nl + 1
		lineEnd, after := len(data), len(data)
		if j := bytes.IndexByte(data[lineStart:], '\n'); j >= 0 {
			lineEnd = lineStart + j
			after = lineEnd + 1
		}
		if string(bytes.TrimSuffix(data[lineStart:lineEnd], []byte("\r"))) == delim {
			return start, nl, after, true
		}
		p = lineStart
	}
	return 0, 0, 0, false
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	start, end, next, ok := locate(data)
	if !ok {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(data[next:]), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(data[start:end], &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// SetField adds key: value to the document's frontmatter, creating the block
// when the document has none. An existing non-empty value is kept and
// reported with changed == false.
func SetField(data []byte, key, value string) (out []byte, current string, changed bool, err error) {
	fm, _ := splitFrontmatter(data)
	if v, ok := fm[key]; ok && v != nil && fmt.Sprint(v) != "" {
		return data, fmt.Sprint(v), false, nil
	}

	line, err := yaml.Marshal(map[string]string{key: value})
	if err != nil {
		return nil, "", false, fmt.Errorf("parser: marshal %s: %w", key, err)
	}

	start, end, _, ok := locate(data)
	if !ok {
		var b bytes.Buffer
		b.WriteString(delim + "\n")
		b.Write(line)
		b.WriteString(delim + "\n")
		b.Write(data)
		return b.Bytes(), value, true, nil
	}
	if _, exists := fm[key]; exists {
		if out, ok := replaceField(data, start, end, key, line); ok {
			return out, value, true, nil
		}
		return nil, "", false, fmt.Errorf("parser: field %q is present but empty", key)
	}

	out = make([]byte, 0, len(data)+len(line))
	out = append(out, data[:end+1]...)
	out = append(out, line...)
	out = append(out, data[end+1:]...)
	return out, value, true, nil
}

// replaceField swaps the top-level "key:" line inside data[start:end] for
// line, which carries its own trailing newline.
func replaceField(data []byte, start, end int, key string, line []byte) ([]byte, bool) {
	prefix := []byte(key + ":")
	for p := start; p < end; {
		lineStart := p
		if data[lineStart] == '\n' {
			lineStart++
		}
		lineEnd := end
		if j := bytes.IndexByte(data[lineStart:end], '\n'); j >= 0 {
			lineEnd = lineStart + j
		}
		if bytes.HasPrefix(data[lineStart:lineEnd], prefix) {
			out := make([]byte, 0, len(data)+len(line))
			out = append(out, data[:lineStart]...)
			out = append(out, line...)
			out = append(out, data[lineEnd+1:]...)
			return out, true
		}
		p = lineEnd
	}
	return nil, false
}
