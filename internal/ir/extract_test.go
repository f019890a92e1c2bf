package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftops/redline-server/internal/engine"
)

func srcBlocks(texts ...string) []engine.Block {
	blocks := make([]engine.Block, len(texts))
	pos := 0
	for i, t := range texts {
		end := pos + len([]rune(t)) + 1
		blocks[i] = engine.Block{
			ID:       fmt.Sprintf("uuid-%d", i+1),
			Type:     engine.TypeParagraph,
			Text:     t,
			StartPos: pos,
			EndPos:   end,
		}
		pos = end
	}
	return blocks
}

func TestExtractAssignsMonotonicSeqIDs(t *testing.T) {
	doc, err := Extract(srcBlocks("one", "two", "three"), "test.docx", DefaultOptions)
	require.NoError(t, err)

	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, "b001", doc.Blocks[0].SeqID)
	assert.Equal(t, "b002", doc.Blocks[1].SeqID)
	assert.Equal(t, "b003", doc.Blocks[2].SeqID)

	assert.Equal(t, 3, doc.Metadata.BlockCount)
	assert.Equal(t, 3, doc.Metadata.IdsAssigned)
	assert.Equal(t, "test.docx", doc.Metadata.Filename)
	assert.False(t, doc.Metadata.Generated.IsZero())
}

func TestExtractIDMappingBijection(t *testing.T) {
	doc, err := Extract(srcBlocks("a", "b", "c", "d"), "f.docx", DefaultOptions)
	require.NoError(t, err)

	require.Len(t, doc.IDMapping, len(doc.Blocks))
	seen := make(map[string]bool)
	for uuid, seq := range doc.IDMapping {
		assert.False(t, seen[seq])
		seen[seq] = true

		b, ok := doc.Resolve(seq)
		require.True(t, ok)
		assert.Equal(t, uuid, b.ID)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	_, err := Extract(nil, "empty.docx", DefaultOptions)
	assert.Error(t, err)
}

func TestExtractKeepsEmptyBlocks(t *testing.T) {
	doc, err := Extract(srcBlocks("first", "", "third"), "f.docx", DefaultOptions)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, "b002", doc.Blocks[1].SeqID)
	assert.Equal(t, "", doc.Blocks[1].Text)
	assert.Greater(t, doc.Blocks[1].EndPos, doc.Blocks[1].StartPos)
}

func TestExtractResolvePrecedence(t *testing.T) {
	blocks := srcBlocks("one", "two")
	// Make the second block's UUID collide with the first block's seqId.
	blocks[1].ID = "b001"
	doc, err := Extract(blocks, "f.docx", DefaultOptions)
	require.NoError(t, err)

	// "b001" matches block 1 by seqId and block 2 by UUID: seqId wins.
	b, ok := doc.Resolve("b001")
	require.True(t, ok)
	assert.Equal(t, "one", b.Text)

	// Plain UUID resolution still works.
	b, ok = doc.Resolve("uuid-1")
	require.True(t, ok)
	assert.Equal(t, "one", b.Text)

	_, ok = doc.Resolve("bZZZ")
	assert.False(t, ok)
}

func TestExtractOutlineNesting(t *testing.T) {
	blocks := []engine.Block{
		{ID: "u1", Type: engine.TypeHeading, Level: 1, Text: "Part I", StartPos: 0, EndPos: 7},
		{ID: "u2", Type: engine.TypeParagraph, Text: "intro", StartPos: 7, EndPos: 13},
		{ID: "u3", Type: engine.TypeHeading, Level: 2, Text: "Section A", StartPos: 13, EndPos: 23},
		{ID: "u4", Type: engine.TypeHeading, Level: 2, Text: "Section B", StartPos: 23, EndPos: 33},
		{ID: "u5", Type: engine.TypeHeading, Level: 1, Text: "Part II", StartPos: 33, EndPos: 41},
	}
	doc, err := Extract(blocks, "f.docx", DefaultOptions)
	require.NoError(t, err)

	require.Len(t, doc.Outline, 2)
	assert.Equal(t, "Part I", doc.Outline[0].Title)
	require.Len(t, doc.Outline[0].Children, 2)
	assert.Equal(t, "Section A", doc.Outline[0].Children[0].Title)
	assert.Equal(t, "Section B", doc.Outline[0].Children[1].Title)
	assert.Equal(t, "Part II", doc.Outline[1].Title)
	assert.Empty(t, doc.Outline[1].Children)
}

func TestExtractMaxTextLength(t *testing.T) {
	opts := DefaultOptions
	opts.MaxTextLength = 5
	doc, err := Extract(srcBlocks("a very long paragraph"), "f.docx", opts)
	require.NoError(t, err)

	b := doc.Blocks[0]
	assert.Equal(t, "a ver", b.Text)
	assert.Equal(t, len([]rune("a very long paragraph")), b.OriginalLength)
}

func TestExtractDefinedTerms(t *testing.T) {
	opts := DefaultOptions
	opts.IncludeDefinedTerms = true
	doc, err := Extract(srcBlocks(
		`"Confidential Information" means any non-public material.`,
		"The receiving party protects Confidential Information.",
		"Nothing here uses the term.",
	), "nda.docx", opts)
	require.NoError(t, err)

	refs, ok := doc.DefinedTerms["Confidential Information"]
	require.True(t, ok)
	assert.Equal(t, "b001", refs.DefiningBlockSeqID)
	assert.Equal(t, []string{"b002"}, refs.UsageBlockSeqIDs)
}

func TestExtractDeterministic(t *testing.T) {
	blocks := srcBlocks("one", "two", "three")
	a, err := Extract(blocks, "f.docx", DefaultOptions)
	require.NoError(t, err)
	b, err := Extract(blocks, "f.docx", DefaultOptions)
	require.NoError(t, err)

	require.Len(t, b.Blocks, len(a.Blocks))
	for i := range a.Blocks {
		assert.Equal(t, a.Blocks[i].SeqID, b.Blocks[i].SeqID)
		assert.Equal(t, a.Blocks[i].Text, b.Blocks[i].Text)
	}
}
