// Package notebook is the read-only(-ish) view over the entry store:
// fetch by path/id, list with filters, parse/render frontmatter. Two
// backends implement the Adapter interface: DirectFileBackend (always
// available) and RichBackend (shells an external indexer, degrades to
// apierr.BackendUnavailable when absent).
package notebook

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// Document is a parsed markdown file: YAML frontmatter plus body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// ParseFrontmatter splits a markdown document into frontmatter and
// body, grounded on jra3-linear-fuse's marshal.Document shape.
func ParseFrontmatter(content []byte) (*Document, error) {
	str := string(content)

	if !strings.HasPrefix(str, frontmatterDelimiter) {
		return &Document{Frontmatter: make(map[string]any), Body: str}, nil
	}

	rest := str[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return nil, fmt.Errorf("notebook: unclosed frontmatter")
	}

	fmYAML := rest[:idx]
	body := strings.TrimPrefix(rest[idx+len("\n"+frontmatterDelimiter):], "\n")

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(fmYAML), &frontmatter); err != nil {
		return nil, fmt.Errorf("notebook: parse frontmatter: %w", err)
	}
	if frontmatter == nil {
		frontmatter = make(map[string]any)
	}

	return &Document{Frontmatter: frontmatter, Body: body}, nil
}

// RenderFrontmatter combines frontmatter and body back into a markdown
// document via yaml.v3's marshaler.
func RenderFrontmatter(doc *Document) ([]byte, error) {
	var buf bytes.Buffer

	if len(doc.Frontmatter) > 0 {
		buf.WriteString(frontmatterDelimiter)
		buf.WriteString("\n")

		fmBytes, err := yaml.Marshal(doc.Frontmatter)
		if err != nil {
			return nil, fmt.Errorf("notebook: marshal frontmatter: %w", err)
		}
		buf.Write(fmBytes)

		buf.WriteString(frontmatterDelimiter)
		buf.WriteString("\n")
	}

	buf.WriteString(doc.Body)
	return buf.Bytes(), nil
}

// hostileChars is the byte set spec.md §4.1 calls YAML-hostile when
// found in a value that would otherwise be marshaled by yaml.v3.
const hostileChars = ":#[]{}|<>!&*?`'\",@%="

// IsYAMLHostile reports whether v must take the manual write path
// (escape-and-write by hand) instead of delegating to yaml.Marshal:
// it contains a hostile character, leading/trailing whitespace, or a
// literal "---" sentinel. This is a hand-rolled scan rather than
// post-processing yaml.Marshal's own output, because the spec requires
// detecting hostility in the *input* value before it ever reaches the
// marshaler (so a manual-write decision can be made up front).
func IsYAMLHostile(v string) bool {
	if v == "" {
		return false
	}
	if strings.TrimSpace(v) != v {
		return true
	}
	if strings.Contains(v, frontmatterDelimiter) {
		return true
	}
	return strings.ContainsAny(v, hostileChars)
}

// SanitizeTitle trims control characters from a title before persist.
func SanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' {
			return -1
		}
		return r
	}, title)
}

// SanitizeTags drops empty tags after trimming whitespace.
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SanitizeBody strips \r and \0 from free text before persist.
func SanitizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r", "")
	return strings.ReplaceAll(body, "\x00", "")
}

// EscapeRef escapes embedded quotes and backslashes in a dependency
// ref so it survives round-tripping through a manually-written
// frontmatter block.
func EscapeRef(ref string) string {
	ref = strings.ReplaceAll(ref, `\`, `\\`)
	return strings.ReplaceAll(ref, `"`, `\"`)
}
