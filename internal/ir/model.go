// Package ir builds the intermediate representation of a loaded document: the
// ordered block list with stable-within-extraction sequential ids, the heading
// outline, the defined-terms index, and the uuid/seqId mapping. The IR is the
// referent for edit validation and the body of a /v1/read response; it is
// never persisted.
package ir

import "time"

// Metadata describes the extraction itself.
type Metadata struct {
	Filename    string    `json:"filename"`
	Generated   time.Time `json:"generated"`
	Version     string    `json:"version"`
	Format      string    `json:"format"`
	BlockCount  int       `json:"blockCount"`
	IdsAssigned int       `json:"idsAssigned"`
}

// Block is one block-level content unit.
type Block struct {
	ID     string `json:"id"`
	SeqID  string `json:"seqId"`
	Type   string `json:"type"`
	Level  int    `json:"level,omitempty"`
	Text   string `json:"text"`
	// OriginalLength is set when MaxTextLength truncated Text, so the
	// validator can warn about edits that might lose content.
	OriginalLength int  `json:"originalLength,omitempty"`
	StartPos       int  `json:"startPos"`
	EndPos         int  `json:"endPos"`
	TOC            bool `json:"toc,omitempty"`
}

// OutlineNode is one entry of the heading tree.
type OutlineNode struct {
	ID       string         `json:"id"`
	SeqID    string         `json:"seqId"`
	Title    string         `json:"title"`
	Level    int            `json:"level"`
	Children []*OutlineNode `json:"children"`
}

// TermRefs locates a defined term's definition and usages by seqId.
type TermRefs struct {
	DefiningBlockSeqID string   `json:"definingBlockSeqId"`
	UsageBlockSeqIDs   []string `json:"usageBlockSeqIds"`
}

// Document is the full IR.
type Document struct {
	Metadata     Metadata            `json:"metadata"`
	Blocks       []Block             `json:"blocks"`
	Outline      []*OutlineNode      `json:"outline,omitempty"`
	DefinedTerms map[string]TermRefs `json:"definedTerms,omitempty"`
	IDMapping    map[string]string   `json:"idMapping"`

	bySeq  map[string]int
	byUUID map[string]int
}

// Resolve looks a block reference up, trying seqId first and UUID second.
func (d *Document) Resolve(ref string) (*Block, bool) {
	if i, ok := d.bySeq[ref]; ok {
		return &d.Blocks[i], true
	}
	if i, ok := d.byUUID[ref]; ok {
		return &d.Blocks[i], true
	}
	return nil, false
}

func (d *Document) reindex() {
	d.bySeq = make(map[string]int, len(d.Blocks))
	d.byUUID = make(map[string]int, len(d.Blocks))
	for i, b := range d.Blocks {
		d.bySeq[b.SeqID] = i
		d.byUUID[b.ID] = i
	}
}
