package edit

import (
	"fmt"

	"github.com/draftops/redline-server/internal/ir"
)

// IssueType is the closed enumeration of validation findings.
type IssueType string

const (
	IssueInvalidOperation   IssueType = "invalid_operation"
	IssueMissingField       IssueType = "missing_field"
	IssueMissingBlock       IssueType = "missing_block"
	IssueEmptySourceForDiff IssueType = "empty_source_for_diff"

	WarnTruncationRisk IssueType = "truncation_risk"
	WarnTOCBlock       IssueType = "toc_block"
)

// Issue is one validation finding. BlockID is nil when the edit carried no
// usable block reference.
type Issue struct {
	EditIndex int       `json:"editIndex"`
	BlockID   *string   `json:"blockId"`
	Type      IssueType `json:"type"`
	Message   string    `json:"message"`
}

// Summary aggregates a validation run.
type Summary struct {
	TotalEdits   int `json:"totalEdits"`
	ValidEdits   int `json:"validEdits"`
	InvalidEdits int `json:"invalidEdits"`
	WarningCount int `json:"warningCount"`
}

// Result is the full validation report. Issues render the batch invalid;
// warnings never do.
type Result struct {
	Valid    bool    `json:"valid"`
	Issues   []Issue `json:"issues"`
	Warnings []Issue `json:"warnings"`
	Summary  Summary `json:"summary"`
}

// Validate checks every edit against the IR without mutating either. It never
// short-circuits: the result carries every issue and warning in input order.
func Validate(edits []Edit, doc *ir.Document) *Result {
	res := &Result{
		Issues:   []Issue{},
		Warnings: []Issue{},
	}
	invalid := make(map[int]bool)

	issue := func(i int, e Edit, t IssueType, msg string) {
		res.Issues = append(res.Issues, Issue{EditIndex: i, BlockID: blockRef(e), Type: t, Message: msg})
		invalid[i] = true
	}
	warn := func(i int, e Edit, t IssueType, msg string) {
		res.Warnings = append(res.Warnings, Issue{EditIndex: i, BlockID: blockRef(e), Type: t, Message: msg})
	}

	for i, e := range edits {
		if !KnownOperation(e.Operation) {
			issue(i, e, IssueInvalidOperation, fmt.Sprintf("unknown operation %q", e.Operation))
			continue
		}

		missing := missingFields(e)
		for _, f := range missing {
			issue(i, e, IssueMissingField, fmt.Sprintf("%s requires field %q", e.Operation, f))
		}
		if e.TargetID() == "" {
			continue // nothing to resolve
		}

		block, ok := doc.Resolve(e.TargetID())
		if !ok {
			issue(i, e, IssueMissingBlock, fmt.Sprintf("block %q not found", e.TargetID()))
			continue
		}
		if len(missing) > 0 {
			continue
		}

		if e.Operation == OpReplace {
			if e.DiffEnabled() && block.Text == "" {
				issue(i, e, IssueEmptySourceForDiff, fmt.Sprintf("block %q has no text to diff against", e.TargetID()))
			}
			if e.NewText != nil {
				oldLen := len([]rune(block.Text))
				if block.OriginalLength > 0 {
					oldLen = block.OriginalLength
					warn(i, e, WarnTruncationRisk, fmt.Sprintf("block %q text was truncated during extraction", e.TargetID()))
				}
				// A replacement at exactly half the length still counts.
				if oldLen > 0 && len([]rune(*e.NewText))*2 <= oldLen {
					warn(i, e, WarnTruncationRisk, fmt.Sprintf("replacement shortens block %q by 50%% or more", e.TargetID()))
				}
			}
		}

		if block.TOC && e.Operation != OpComment {
			warn(i, e, WarnTOCBlock, fmt.Sprintf("block %q is a table-of-contents block; the edit will be skipped", e.TargetID()))
		}
	}

	res.Summary = Summary{
		TotalEdits:   len(edits),
		ValidEdits:   len(edits) - len(invalid),
		InvalidEdits: len(invalid),
		WarningCount: len(res.Warnings),
	}
	res.Valid = len(res.Issues) == 0
	return res
}

func missingFields(e Edit) []string {
	var out []string
	switch e.Operation {
	case OpReplace:
		if e.BlockID == "" {
			out = append(out, "blockId")
		}
		if e.NewText == nil {
			out = append(out, "newText")
		}
	case OpDelete:
		if e.BlockID == "" {
			out = append(out, "blockId")
		}
	case OpInsert:
		if e.AfterBlockID == "" {
			out = append(out, "afterBlockId")
		}
		if e.Text == nil {
			out = append(out, "text")
		}
	case OpComment:
		if e.BlockID == "" {
			out = append(out, "blockId")
		}
		if e.Comment == "" {
			out = append(out, "comment")
		}
	}
	return out
}

func blockRef(e Edit) *string {
	if id := e.TargetID(); id != "" {
		return &id
	}
	return nil
}
