package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatterNoDelimiter(t *testing.T) {
	doc, err := ParseFrontmatter([]byte("just a body\n\nwith two paragraphs"))
	require.NoError(t, err)
	assert.Empty(t, doc.Frontmatter)
	assert.Equal(t, "just a body\n\nwith two paragraphs", doc.Body)
}

func TestParseFrontmatterValid(t *testing.T) {
	doc, err := ParseFrontmatter([]byte("---\ntitle: My Title\nstatus: draft\n---\nBody here."))
	require.NoError(t, err)
	assert.Equal(t, "My Title", doc.Frontmatter["title"])
	assert.Equal(t, "draft", doc.Frontmatter["status"])
	assert.Equal(t, "Body here.", doc.Body)
}

func TestParseFrontmatterUnclosed(t *testing.T) {
	_, err := ParseFrontmatter([]byte("---\ntitle: nope"))
	assert.Error(t, err)
}

func TestParseFrontmatterInvalidYAML(t *testing.T) {
	_, err := ParseFrontmatter([]byte("---\ntitle: [oops\n---\nbody"))
	assert.Error(t, err)
}

func TestRenderFrontmatterRoundtrip(t *testing.T) {
	doc := &Document{
		Frontmatter: map[string]any{"title": "Test", "status": "active"},
		Body:        "Line 1\n\nLine 2",
	}
	rendered, err := RenderFrontmatter(doc)
	require.NoError(t, err)

	doc2, err := ParseFrontmatter(rendered)
	require.NoError(t, err)
	assert.Equal(t, doc.Frontmatter["title"], doc2.Frontmatter["title"])
	assert.Equal(t, doc.Frontmatter["status"], doc2.Frontmatter["status"])
	assert.Equal(t, doc.Body, doc2.Body)
}

func TestIsYAMLHostile(t *testing.T) {
	cases := map[string]bool{
		"plain text":        false,
		"":                  false,
		"has: colon":        true,
		" leading space":    true,
		"trailing space ":   true,
		"contains --- dash": true,
		"safe-words-only":   false,
		`quote"inside`:      true,
	}
	for input, want := range cases {
		assert.Equal(t, want, IsYAMLHostile(input), "input %q", input)
	}
}

func TestSanitizeTags(t *testing.T) {
	got := SanitizeTags([]string{"  go  ", "", "backend", "   "})
	assert.Equal(t, []string{"go", "backend"}, got)
}

func TestSanitizeBodyStripsControlBytes(t *testing.T) {
	got := SanitizeBody("line one\r\nline two\x00end")
	assert.Equal(t, "line one\nline twoend", got)
}
