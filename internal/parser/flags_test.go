package parser

import (
	"testing"

	"github.com/inkjet-run/inkjet/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsList_Shorthand(t *testing.T) {
	items := []listItem{
		{Text: "flag: -n --num |number| required the count to use"},
	}
	flags, err := parseOptionsList(items, tree.SourceLocation{})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "num", flags[0].Long)
	assert.Equal(t, "n", flags[0].Short)
	assert.Equal(t, tree.FlagNumber, flags[0].Type)
	assert.True(t, flags[0].Required)
	assert.Equal(t, "the count to use", flags[0].Description)
}

func TestParseOptionsList_ShorthandOptionalNoRequired(t *testing.T) {
	items := []listItem{
		{Text: "flag: --dry-run |boolean| skip side effects"},
	}
	flags, err := parseOptionsList(items, tree.SourceLocation{})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "dry-run", flags[0].Long)
	assert.Empty(t, flags[0].Short)
	assert.False(t, flags[0].Required)
	assert.Equal(t, "skip side effects", flags[0].Description)
}

func TestParseOptionsList_Longform(t *testing.T) {
	items := []listItem{
		{Sub: []listItem{
			{Text: "flags: -o, --output"},
			{Text: "type: string"},
			{Text: "desc: where to write the result"},
			{Text: "required"},
		}},
	}
	flags, err := parseOptionsList(items, tree.SourceLocation{})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "output", flags[0].Long)
	assert.Equal(t, "o", flags[0].Short)
	assert.Equal(t, tree.FlagString, flags[0].Type)
	assert.True(t, flags[0].Required)
	assert.Equal(t, "where to write the result", flags[0].Description)
}

func TestParseOptionsList_LongformSingularFlag(t *testing.T) {
	items := []listItem{
		{Sub: []listItem{
			{Text: "flag: --force"},
			{Text: "desc: overwrite existing files"},
		}},
	}
	flags, err := parseOptionsList(items, tree.SourceLocation{})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "force", flags[0].Long)
	assert.Equal(t, tree.FlagBool, flags[0].Type)
	assert.False(t, flags[0].Required)
}

func TestParseOptionsList_MalformedBulletIsConfigError(t *testing.T) {
	items := []listItem{{Text: "not a flag at all"}}
	_, err := parseOptionsList(items, tree.SourceLocation{File: "f.md", Line: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "f.md:3")
}
