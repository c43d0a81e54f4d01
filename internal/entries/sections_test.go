package entries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `Intro paragraph, not a section.

## Summary

Top level findings go here.

Second paragraph of summary.

### Details

Nested details.

## Next Steps

Do the thing.

`

func TestParseSectionsSplitsByHeadingLevel(t *testing.T) {
	sections := ParseSections(sampleBody)
	require.Len(t, sections, 3)

	assert.Equal(t, "Summary", sections[0].Title)
	assert.Equal(t, 2, sections[0].Level)
	assert.Contains(t, sections[0].Body, "Top level findings")

	assert.Equal(t, "Details", sections[1].Title)
	assert.Equal(t, 3, sections[1].Level)
	assert.Contains(t, sections[1].Body, "Nested details")

	assert.Equal(t, "Next Steps", sections[2].Title)
	assert.Contains(t, sections[2].Body, "Do the thing.")
}

func TestParseSectionsTrimsTrailingBlankLines(t *testing.T) {
	sections := ParseSections(sampleBody)
	for _, s := range sections {
		assert.NotEmpty(t, s.Body)
		assert.NotContains(t, s.Body+"\n\n", "\n\n\n")
	}
}

func TestExtractSectionIsCaseInsensitive(t *testing.T) {
	sec, ok := ExtractSection(sampleBody, "summary")
	require.True(t, ok)
	assert.Contains(t, sec.Body, "Top level findings")
}

func TestExtractSectionMissingReturnsFalse(t *testing.T) {
	_, ok := ExtractSection(sampleBody, "does not exist")
	assert.False(t, ok)
}

func TestParseSectionsNoHeadingsReturnsEmpty(t *testing.T) {
	sections := ParseSections("just a paragraph, no headings at all")
	assert.Empty(t, sections)
}
