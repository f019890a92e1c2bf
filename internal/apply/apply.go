// Package apply runs a validated edit batch against a live editor.
//
// The core contract is the sort: edits are applied in descending document
// position so an applied edit can never invalidate the position of one still
// pending. Each edit runs in its own error boundary; only an unrecoverable
// editor failure aborts the batch.
package apply

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/draftops/redline-server/internal/edit"
	"github.com/draftops/redline-server/internal/engine"
	"github.com/draftops/redline-server/internal/ir"
	"github.com/draftops/redline-server/pkg/worddiff"
)

// Skipped records one edit that was not applied, with the reason.
type Skipped struct {
	EditIndex int    `json:"editIndex"`
	BlockID   string `json:"blockId"`
	Reason    string `json:"reason"`
}

// CommentRef identifies a comment attached during the run.
type CommentRef struct {
	BlockID   string `json:"blockId"`
	CommentID string `json:"commentId"`
	Text      string `json:"text"`
}

// Result summarizes a run. Applied + len(Skipped) equals the input batch
// size.
type Result struct {
	Applied  int          `json:"applied"`
	Skipped  []Skipped    `json:"skipped"`
	Comments []CommentRef `json:"comments"`
}

type ordered struct {
	index int
	pos   int
	edit  edit.Edit
	block *ir.Block
}

// Run applies the batch to ed. The IR supplies block resolution and sort
// positions; the editor carries the mutations. Run does not export; the
// caller drives Export after a successful return.
func Run(edits []edit.Edit, doc *ir.Document, ed *engine.Editor, fallback engine.Author, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{Skipped: []Skipped{}, Comments: []CommentRef{}}

	// Sort key: the target block's start position, or its end position for
	// inserts so a replace and an insert on the same block keep their
	// relative safety. Unresolved edits sort last and are skipped at
	// dispatch. Stable sort preserves input order on ties.
	order := make([]ordered, len(edits))
	for i, e := range edits {
		o := ordered{index: i, pos: -1, edit: e}
		if block, ok := doc.Resolve(e.TargetID()); ok {
			o.block = block
			if e.Operation == edit.OpInsert {
				o.pos = block.EndPos
			} else {
				o.pos = block.StartPos
			}
		}
		order[i] = o
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].pos > order[j].pos })

	for _, o := range order {
		if o.block == nil {
			res.Skipped = append(res.Skipped, Skipped{
				EditIndex: o.index,
				BlockID:   o.edit.TargetID(),
				Reason:    "block not found",
			})
			continue
		}
		if o.block.TOC && o.edit.Operation != edit.OpComment {
			res.Skipped = append(res.Skipped, Skipped{
				EditIndex: o.index,
				BlockID:   o.block.SeqID,
				Reason:    "table-of-contents blocks cannot be edited",
			})
			continue
		}

		err := dispatch(o, ed, author(o.edit, fallback), res)
		if err != nil {
			if errors.Is(err, engine.ErrEditorClosed) {
				return nil, fmt.Errorf("editor failed mid-batch: %w", err)
			}
			log.Warn("edit failed", zap.Int("edit_index", o.index), zap.String("block", o.block.SeqID), zap.Error(err))
			res.Skipped = append(res.Skipped, Skipped{
				EditIndex: o.index,
				BlockID:   o.block.SeqID,
				Reason:    err.Error(),
			})
			continue
		}
		res.Applied++
	}
	return res, nil
}

// dispatch runs one edit inside a panic boundary so a misbehaving mutation
// cannot take the batch down.
func dispatch(o ordered, ed *engine.Editor, who engine.Author, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("edit panicked: %v", r)
		}
	}()

	e := o.edit
	switch e.Operation {
	case edit.OpReplace:
		if e.NewText == nil {
			return errors.New("replace without newText")
		}
		var ops []worddiff.Op
		if e.DiffEnabled() {
			ops = worddiff.Diff(o.block.Text, *e.NewText)
		}
		return ed.Replace(o.block.ID, *e.NewText, ops, who)
	case edit.OpDelete:
		return ed.Delete(o.block.ID, who)
	case edit.OpInsert:
		if e.Text == nil {
			return errors.New("insert without text")
		}
		return ed.InsertAfter(o.block.ID, *e.Text, e.Type, e.Level, who)
	case edit.OpComment:
		id, err := ed.AddComment(o.block.ID, e.Comment, who)
		if err != nil {
			return err
		}
		res.Comments = append(res.Comments, CommentRef{BlockID: o.block.SeqID, CommentID: id, Text: e.Comment})
		return nil
	default:
		return fmt.Errorf("unknown operation %q", e.Operation)
	}
}

func author(e edit.Edit, fallback engine.Author) engine.Author {
	if e.Author != nil && e.Author.Name != "" {
		return engine.Author{Name: e.Author.Name, Email: e.Author.Email}
	}
	return fallback
}
