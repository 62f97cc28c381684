package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrailers(t *testing.T) {
	block := "Co-Authored-By: Alice <alice@example.com>\n" +
		"Signed-off-by: Bob <bob@example.com>\n" +
		"not a trailer line\n"

	trailers := ParseTrailers(block)
	require.Len(t, trailers, 2, "lines without a colon are not trailers")
	assert.Equal(t, "Co-Authored-By", trailers[0].Token)
	assert.Equal(t, "Alice <alice@example.com>", trailers[0].Value)
	assert.Equal(t, "Signed-off-by", trailers[1].Token)
}

func TestCoAuthorsFromTrailers(t *testing.T) {
	t.Run("derives identities", func(t *testing.T) {
		trailers := []Trailer{
			{Token: "Co-Authored-By", Value: "Alice <alice@example.com>"},
			{Token: "co-authored-by", Value: "Bob <bob@example.com>"},
			{Token: "Signed-off-by", Value: "Carol <carol@example.com>"},
		}

		coAuthors := CoAuthorsFromTrailers(trailers)
		require.Len(t, coAuthors, 2, "token match is case-insensitive, non-co-author trailers skipped")
		assert.Equal(t, "Alice", coAuthors[0].Name)
		assert.Equal(t, "alice@example.com", coAuthors[0].Email)
		assert.Equal(t, "Bob", coAuthors[1].Name)
	})

	t.Run("skips malformed values", func(t *testing.T) {
		trailers := []Trailer{
			{Token: "Co-Authored-By", Value: "no email here"},
		}
		assert.Empty(t, CoAuthorsFromTrailers(trailers))
	})
}

func TestFormatCoAuthorTrailers(t *testing.T) {
	lines := FormatCoAuthorTrailers([]CommitIdentity{
		{Name: "Alice", Email: "alice@example.com"},
	})
	require.Len(t, lines, 1)
	assert.Equal(t, "Co-Authored-By: Alice <alice@example.com>", lines[0])
}

func TestParseCommits(t *testing.T) {
	record := "aaaa000000000000000000000000000000000000\x1f" +
		"Fix the widget\x1f" +
		"Longer body text\nsecond line\x1f" +
		"Alice\x1falice@example.com\x1f2024-03-01T10:00:00+00:00\x1f" +
		"Bob\x1fbob@example.com\x1f2024-03-01T11:00:00+00:00\x1f" +
		"bbbb000000000000000000000000000000000000 cccc000000000000000000000000000000000000\x1f" +
		"Co-Authored-By: Carol <carol@example.com>\n\x1e"

	commits := parseCommits(record)
	require.Len(t, commits, 1)

	c := commits[0]
	assert.Equal(t, "aaaa000000000000000000000000000000000000", c.SHA)
	assert.Equal(t, "Fix the widget", c.Summary)
	assert.Equal(t, "Longer body text\nsecond line", c.Body)
	assert.Equal(t, "Alice", c.Author.Name)
	assert.Equal(t, "Bob", c.Committer.Name)
	assert.Len(t, c.ParentSHAs, 2)
	require.Len(t, c.CoAuthors, 1)
	assert.Equal(t, "Carol", c.CoAuthors[0].Name)
}
