package entries

import (
	"strings"
)

// Section is one heading-delimited slice of a document body, with
// 1-based line numbers into the original body (spec.md §4.2's
// parseSections/extractSection: h2/h3 only, case-insensitive lookup).
// A section ends at the next h2 or h3 heading of any level, so an h2
// section's body does not include its h3 subsections.
type Section struct {
	Level     int
	Title     string
	StartLine int
	EndLine   int
	Body      string
}

// ParseSections splits body into its h2 ("## ") and h3 ("### ")
// sections. Content before the first heading is not a section.
func ParseSections(body string) []Section {
	lines := strings.Split(body, "\n")

	var sections []Section
	var cur *Section

	flush := func(endLine int) {
		if cur == nil {
			return
		}
		bodyLines := lines[cur.StartLine-1 : endLine-1]
		// Trim trailing blank lines from the section body.
		for len(bodyLines) > 0 && strings.TrimSpace(bodyLines[len(bodyLines)-1]) == "" {
			bodyLines = bodyLines[:len(bodyLines)-1]
		}
		cur.EndLine = endLine - 1
		cur.Body = strings.Join(bodyLines, "\n")
		sections = append(sections, *cur)
		cur = nil
	}

	for i, line := range lines {
		lineNo := i + 1
		level, title, ok := headingLevel(line)
		if !ok {
			continue
		}
		if level != 2 && level != 3 {
			continue
		}
		flush(lineNo)
		cur = &Section{Level: level, Title: title, StartLine: lineNo + 1}
	}
	flush(len(lines) + 1)

	return sections
}

// headingLevel reports the markdown heading level (count of leading
// '#') and trimmed title text, if line is a heading.
func headingLevel(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n >= len(trimmed) || trimmed[n] != ' ' {
		return 0, "", false
	}
	return n, strings.TrimSpace(trimmed[n+1:]), true
}

// ExtractSection finds the first h2/h3 section whose title matches
// name case-insensitively and returns it. Returns nil, false if no
// section matches.
func ExtractSection(body, name string) (*Section, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	for _, sec := range ParseSections(body) {
		if strings.ToLower(sec.Title) == target {
			s := sec
			return &s, true
		}
	}
	return nil, false
}
