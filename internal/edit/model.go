// Package edit holds the position-independent edit model, its two wire
// decodings (JSON array and markdown edit document), and the batch validator.
package edit

// Operation is the edit kind tag.
type Operation string

const (
	OpReplace Operation = "replace"
	OpDelete  Operation = "delete"
	OpInsert  Operation = "insert"
	OpComment Operation = "comment"
)

// KnownOperation reports membership in the closed operation set.
func KnownOperation(op Operation) bool {
	switch op {
	case OpReplace, OpDelete, OpInsert, OpComment:
		return true
	}
	return false
}

// Author overrides the service's tracked-change attribution for one edit.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Edit is one instruction. BlockID and AfterBlockID accept either a seqId or
// a UUID; resolution tries seqId first.
type Edit struct {
	Operation    Operation `json:"operation"`
	BlockID      string    `json:"blockId,omitempty"`
	AfterBlockID string    `json:"afterBlockId,omitempty"`

	// NewText is the replacement content (replace). Pointer so the
	// validator can tell "absent" from "empty".
	NewText *string `json:"newText,omitempty"`
	// Text is the inserted content (insert).
	Text *string `json:"text,omitempty"`
	// Diff selects word-level tracked changes on replace; nil means true.
	Diff *bool `json:"diff,omitempty"`

	Type  string `json:"type,omitempty"`
	Level int    `json:"level,omitempty"`

	Comment string  `json:"comment,omitempty"`
	Author  *Author `json:"author,omitempty"`
}

// DiffEnabled reports whether a replace should go through the word diff.
func (e Edit) DiffEnabled() bool {
	return e.Diff == nil || *e.Diff
}

// TargetID returns the block reference the edit points at.
func (e Edit) TargetID() string {
	if e.Operation == OpInsert {
		return e.AfterBlockID
	}
	return e.BlockID
}
