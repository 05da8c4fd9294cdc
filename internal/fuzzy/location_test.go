package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocationNoSuffixPassesThrough(t *testing.T) {
	query, loc := ParseLocation("main.rs")
	assert.Equal(t, "main.rs", query)
	assert.Nil(t, loc)
}

func TestParseLocationBareLine(t *testing.T) {
	query, loc := ParseLocation(":42")
	assert.Equal(t, "", query)
	require.NotNil(t, loc)
	require.NotNil(t, loc.Point)
	assert.Equal(t, 42, loc.Point.Line)
	assert.Nil(t, loc.Point.Col)
}

func TestParseLocationFileAndLine(t *testing.T) {
	query, loc := ParseLocation("README.md:10")
	assert.Equal(t, "README.md", query)
	require.NotNil(t, loc)
	require.NotNil(t, loc.Point)
	assert.Equal(t, 10, loc.Point.Line)
}

func TestParseLocationLineAndColumn(t *testing.T) {
	query, loc := ParseLocation("src/main.rs:10:5")
	assert.Equal(t, "src/main.rs", query)
	require.NotNil(t, loc)
	require.NotNil(t, loc.Point)
	assert.Equal(t, 10, loc.Point.Line)
	require.NotNil(t, loc.Point.Col)
	assert.Equal(t, 5, *loc.Point.Col)
}

func TestParseLocationRange(t *testing.T) {
	query, loc := ParseLocation("src/main.rs:10-20")
	assert.Equal(t, "src/main.rs", query)
	require.NotNil(t, loc)
	require.NotNil(t, loc.Start)
	require.NotNil(t, loc.End)
	assert.Equal(t, 10, loc.Start.Line)
	assert.Equal(t, 20, loc.End.Line)
}

func TestParseLocationTrailingColonWithoutDigitsPassesThrough(t *testing.T) {
	query, loc := ParseLocation("src/main.rs:")
	assert.Equal(t, "src/main.rs:", query)
	assert.Nil(t, loc)
}

func TestParseLocationNonNumericSuffixPassesThrough(t *testing.T) {
	query, loc := ParseLocation("namespace:Foo")
	assert.Equal(t, "namespace:Foo", query)
	assert.Nil(t, loc)
}
