package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGzipRule(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{`0 string \x1f\x8b\x08 gzip compressed data`})
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)

	r := p.Rules[0]
	assert.Equal(t, "gzip compressed data", r.Title)
	assert.Equal(t, []byte{0x1f, 0x8b, 0x08}, r.PrescreenPattern)
	assert.Equal(t, 3, r.Confidence)
}

func TestParseIndirectSizeRule(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{
		"0 string ABCD header",
		">4 belong x size %d {size:%d}",
	})
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)

	r := p.Rules[0]
	require.Len(t, r.Lines, 2)
	child := r.Lines[1]
	assert.Equal(t, 1, child.Level)
	assert.True(t, child.Wildcard)
	assert.True(t, child.BigEndian)
	require.Len(t, child.Tags, 1)
	assert.Equal(t, "size", child.Tags[0].Name)
	assert.Equal(t, "%d", child.Tags[0].Value)
}

func TestConfidenceSortDescending(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{
		"0 byte 0x41 one byte",
		"0 belong 0x41424344 four bytes",
		"0 beshort 0x4142 two bytes",
	})
	require.NoError(t, err)
	require.Len(t, p.Rules, 3)

	assert.Equal(t, 4, p.Rules[0].Confidence)
	assert.Equal(t, 2, p.Rules[1].Confidence)
	assert.Equal(t, 1, p.Rules[2].Confidence)
}

func TestExcludeFilter(t *testing.T) {
	p, err := NewParser(nil, []string{"^gzip"})
	require.NoError(t, err)

	err = p.Parse([]string{`0 string \x1f\x8b\x08 gzip compressed data`})
	require.NoError(t, err)
	assert.Empty(t, p.Rules)
}

func TestIncludeFilterRequiresMatch(t *testing.T) {
	p, err := NewParser([]string{"^png"}, nil)
	require.NoError(t, err)

	err = p.Parse([]string{`0 string \x1f\x8b\x08 gzip compressed data`})
	require.NoError(t, err)
	assert.Empty(t, p.Rules)
}

func TestIndentedLineWithoutParentIsParseError(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{">4 belong x whatever"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestWildcardFirstLineIsParseError(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{"0 byte x impossible"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestBigEndianLongRule(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{"0 belong 0x89504E47 PNG image"})
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, p.Rules[0].PrescreenPattern)
}

func TestCommentsAndBlankLinesIgnored(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	err = p.Parse([]string{
		"# a comment",
		"",
		"0 byte 0x7F ELF-ish # trailing comment",
	})
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.Equal(t, "ELF-ish", p.Rules[0].Title)
}

func TestRepeatedParseAppendsAndResorts(t *testing.T) {
	p, err := NewParser(nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.Parse([]string{"0 byte 0x41 one byte"}))
	require.NoError(t, p.Parse([]string{"0 belong 0x41424344 four bytes"}))

	require.Len(t, p.Rules, 2)
	assert.Equal(t, 4, p.Rules[0].Confidence)
	assert.Equal(t, 1, p.Rules[1].Confidence)
}
