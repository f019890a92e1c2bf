package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# Edits

## Metadata

Version: 1.2
Author Name: Ada Lovelace
Author Email: ada@example.com

## Edits Table

| Block | Op | Diff | Comment |
|---|---|---|---|
| b001 | replace | true | tighten wording |
| b002 | delete | - | - |
| b003 | insert | - | - |
| b004 | comment | - | please review |

## Replacement Text

### b001 newText
The replacement paragraph.
Second line of it.

### b003 insertText
A brand new paragraph.
`

func TestDecodeMarkdown(t *testing.T) {
	res, err := DecodeMarkdown(sampleMarkdown)
	require.NoError(t, err)

	assert.Equal(t, "1.2", res.Meta.Version)
	assert.Equal(t, "Ada Lovelace", res.Meta.AuthorName)
	assert.Equal(t, "ada@example.com", res.Meta.AuthorEmail)

	require.Len(t, res.Edits, 4)

	rep := res.Edits[0]
	assert.Equal(t, OpReplace, rep.Operation)
	assert.Equal(t, "b001", rep.BlockID)
	require.NotNil(t, rep.Diff)
	assert.True(t, *rep.Diff)
	assert.Equal(t, "tighten wording", rep.Comment)
	require.NotNil(t, rep.NewText)
	assert.Equal(t, "The replacement paragraph.\nSecond line of it.", *rep.NewText)

	del := res.Edits[1]
	assert.Equal(t, OpDelete, del.Operation)
	assert.Nil(t, del.Diff, "dash diff cell means unspecified")
	assert.Empty(t, del.Comment)

	ins := res.Edits[2]
	assert.Equal(t, OpInsert, ins.Operation)
	assert.Equal(t, "b003", ins.AfterBlockID)
	assert.Empty(t, ins.BlockID)
	require.NotNil(t, ins.Text)
	assert.Equal(t, "A brand new paragraph.", *ins.Text)

	com := res.Edits[3]
	assert.Equal(t, OpComment, com.Operation)
	assert.Equal(t, "please review", com.Comment)

	assert.Empty(t, res.Warnings)
}

func TestDecodeMarkdownBareTable(t *testing.T) {
	res, err := DecodeMarkdown(`| Block | Op | Diff | Comment |
|---|---|---|---|
| b001 | comment | - | needs a citation |
| b002 | delete | - | - |
`)
	require.NoError(t, err)
	require.Len(t, res.Edits, 2)
	assert.Equal(t, OpComment, res.Edits[0].Operation)
	assert.Equal(t, "needs a citation", res.Edits[0].Comment)
	assert.Equal(t, OpDelete, res.Edits[1].Operation)

	// Whatever DetectFormat routes to the markdown decoder must decode.
	assert.Equal(t, FormatMarkdown, DetectFormat("| Block | Op | Diff | Comment |\n"))
}

func TestDecodeMarkdownSkipsBadRows(t *testing.T) {
	res, err := DecodeMarkdown(`## Edits Table

| Block | Op | Diff | Comment |
|---|---|---|---|
| b001 | delete | - | - |
| b002 | delete | - |
`)
	require.NoError(t, err)
	require.Len(t, res.Edits, 1)
	assert.Equal(t, "b001", res.Edits[0].BlockID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "3 cells")
}

func TestDecodeMarkdownReplaceWithoutText(t *testing.T) {
	res, err := DecodeMarkdown(`## Edits Table

| Block | Op | Diff | Comment |
|---|---|---|---|
| b001 | replace | - | - |
`)
	require.NoError(t, err)
	require.Len(t, res.Edits, 1)
	assert.Nil(t, res.Edits[0].NewText, "missing newText section leaves the field unset for the validator")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "newText")
}

func TestDecodeMarkdownEmpty(t *testing.T) {
	_, err := DecodeMarkdown("# Edits\n\nno table here\n")
	assert.ErrorIs(t, err, ErrNoEdits)

	_, err = DecodeMarkdown("## Edits Table\n\n| Block | Op | Diff | Comment |\n|---|---|---|---|\n")
	assert.ErrorIs(t, err, ErrNoEdits)
}

func TestMarkdownRoundTrip(t *testing.T) {
	newText := "Updated clause text."
	insText := "Inserted clause."
	diffFalse := false
	in := []Edit{
		{Operation: OpReplace, BlockID: "b001", NewText: &newText, Diff: &diffFalse, Comment: "reword"},
		{Operation: OpDelete, BlockID: "b002"},
		{Operation: OpInsert, AfterBlockID: "b003", Text: &insText},
		{Operation: OpComment, BlockID: "b004", Comment: "check this"},
	}
	meta := Meta{Version: "1.0", AuthorName: "Ada", AuthorEmail: "ada@example.com"}

	res, err := DecodeMarkdown(EncodeMarkdown(in, meta))
	require.NoError(t, err)
	assert.Equal(t, meta, res.Meta)
	assert.Equal(t, in, res.Edits)
	assert.Empty(t, res.Warnings)
}
