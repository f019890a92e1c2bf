package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/draftops/redline-server/pkg/worddiff"
)

// Replace swaps the block's visible text for text. When ops is non-nil it is
// the word-diff between the current and new text and only the changed runs are
// emitted as tracked changes; otherwise the whole block is replaced. In
// editing mode the swap is destructive either way.
func (e *Editor) Replace(uuid, text string, ops []worddiff.Op, author Author) error {
	n, err := e.lookup(uuid)
	if err != nil {
		return err
	}
	paras := blockParagraphs(n.el)
	if len(paras) == 0 {
		return fmt.Errorf("block %s has no paragraph content", uuid)
	}

	if ops == nil {
		ops = []worddiff.Op{
			{Kind: worddiff.Delete, Text: n.block.Text},
			{Kind: worddiff.Insert, Text: text},
		}
	}
	e.rebuildParagraph(paras[0], ops, e.pick(author))
	// A multi-paragraph block (table row) collapses into its first cell;
	// the remaining paragraphs are emptied as tracked deletions.
	for _, p := range paras[1:] {
		e.rebuildParagraph(p, []worddiff.Op{{Kind: worddiff.Delete, Text: visibleText(p)}}, e.pick(author))
	}
	return nil
}

// Delete removes the block. Suggesting mode marks every run as a tracked
// deletion; editing mode detaches the element.
func (e *Editor) Delete(uuid string, author Author) error {
	n, err := e.lookup(uuid)
	if err != nil {
		return err
	}
	if e.mode == ModeEditing {
		if parent := n.el.Parent(); parent != nil {
			parent.RemoveChild(n.el)
		}
		return nil
	}
	for _, p := range blockParagraphs(n.el) {
		if t := visibleText(p); t != "" {
			e.rebuildParagraph(p, []worddiff.Op{{Kind: worddiff.Delete, Text: t}}, e.pick(author))
		}
	}
	return nil
}

// InsertAfter emits a new block immediately after the target. A table-row
// target places the new paragraph after the enclosing table. The new block is
// not indexed; edits cannot reference blocks they created.
func (e *Editor) InsertAfter(uuid, text, typ string, level int, author Author) error {
	n, err := e.lookup(uuid)
	if err != nil {
		return err
	}

	anchor := n.el
	if anchor.Space == "w" && anchor.Tag == "tr" {
		if tbl := anchor.Parent(); tbl != nil {
			anchor = tbl
		}
	}
	parent := anchor.Parent()
	if parent == nil {
		return fmt.Errorf("block %s is detached", uuid)
	}

	p := etree.NewElement("w:p")
	if style := styleFor(typ, level); style != "" {
		pPr := p.CreateElement("w:pPr")
		pPr.CreateElement("w:pStyle").CreateAttr("w:val", style)
	}
	e.appendRun(p, worddiff.Op{Kind: worddiff.Insert, Text: text}, e.pick(author))
	parent.InsertChildAt(anchor.Index()+1, p)
	return nil
}

// AddComment anchors an external review comment on the block. The document
// structure is unchanged apart from the anchor markers; the comment body is
// emitted by Export.
func (e *Editor) AddComment(uuid, text string, author Author) (string, error) {
	n, err := e.lookup(uuid)
	if err != nil {
		return "", err
	}
	paras := blockParagraphs(n.el)
	if len(paras) == 0 {
		return "", fmt.Errorf("block %s has no paragraph content", uuid)
	}
	p := paras[0]

	id := len(e.comments)
	e.comments = append(e.comments, commentRec{id: id, text: text, author: e.pick(author)})

	idStr := fmt.Sprintf("%d", id)
	start := etree.NewElement("w:commentRangeStart")
	start.CreateAttr("w:id", idStr)
	p.InsertChildAt(anchorIndex(p), start)

	end := p.CreateElement("w:commentRangeEnd")
	end.CreateAttr("w:id", idStr)
	ref := p.CreateElement("w:r")
	ref.CreateElement("w:commentReference").CreateAttr("w:id", idStr)
	return idStr, nil
}

// pick returns the per-edit author override, falling back to the editor's
// fixed author.
func (e *Editor) pick(a Author) Author {
	if a.Name == "" {
		return e.author
	}
	return a
}

// blockParagraphs returns the paragraph elements carrying the block's runs: a
// w:p is itself, a w:tr is every paragraph in its cells.
func blockParagraphs(el *etree.Element) []*etree.Element {
	if el.Space == "w" && el.Tag == "p" {
		return []*etree.Element{el}
	}
	return el.FindElements(".//w:p")
}

// anchorIndex finds the insertion point for a comment range start: after the
// paragraph properties if present, else at the front.
func anchorIndex(p *etree.Element) int {
	children := p.ChildElements()
	if len(children) > 0 && children[0].Space == "w" && children[0].Tag == "pPr" {
		return children[0].Index() + 1
	}
	return 0
}

func styleFor(typ string, level int) string {
	switch typ {
	case TypeHeading:
		if level < 1 {
			level = 1
		}
		return fmt.Sprintf("Heading%d", level)
	case TypeListItem:
		return "ListParagraph"
	}
	return ""
}

// rebuildParagraph replaces the paragraph's run content with the diff op
// sequence, keeping w:pPr. Suggesting mode wraps inserts in w:ins and
// deletions in w:del with authorship; editing mode keeps only the surviving
// text.
func (e *Editor) rebuildParagraph(p *etree.Element, ops []worddiff.Op, author Author) {
	for _, child := range p.ChildElements() {
		if child.Space == "w" && child.Tag == "pPr" {
			continue
		}
		p.RemoveChild(child)
	}
	for _, op := range ops {
		if op.Text == "" {
			continue
		}
		e.appendRun(p, op, author)
	}
}

func (e *Editor) appendRun(p *etree.Element, op worddiff.Op, author Author) {
	tracked := e.mode == ModeSuggesting

	switch op.Kind {
	case worddiff.Equal:
		run := p.CreateElement("w:r")
		setText(run.CreateElement("w:t"), op.Text)
	case worddiff.Insert:
		parent := p
		if tracked {
			parent = e.revisionWrapper(p, "w:ins", author)
		}
		run := parent.CreateElement("w:r")
		setText(run.CreateElement("w:t"), op.Text)
	case worddiff.Delete:
		if !tracked {
			return // destructive mode drops deleted text outright
		}
		parent := e.revisionWrapper(p, "w:del", author)
		run := parent.CreateElement("w:r")
		setText(run.CreateElement("w:delText"), op.Text)
	}
}

func (e *Editor) revisionWrapper(p *etree.Element, tag string, author Author) *etree.Element {
	w := p.CreateElement(tag)
	w.CreateAttr("w:id", e.nextRevID())
	w.CreateAttr("w:author", author.Name)
	w.CreateAttr("w:date", time.Now().UTC().Format(time.RFC3339))
	return w
}

func setText(t *etree.Element, text string) {
	t.SetText(text)
	if strings.TrimSpace(text) != text {
		t.CreateAttr("xml:space", "preserve")
	}
}
