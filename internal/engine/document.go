package engine

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

const documentPart = "word/document.xml"

func (e *Editor) load(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	e.parts = make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open part %q: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read part %q: %w", f.Name, err)
		}
		e.partNames = append(e.partNames, f.Name)
		e.parts[f.Name] = b
	}

	raw, ok := e.parts[documentPart]
	if !ok {
		return fmt.Errorf("archive has no %s", documentPart)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return fmt.Errorf("parse %s: %w", documentPart, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%s: empty document", documentPart)
	}
	body := root.SelectElement("w:body")
	if body == nil {
		return fmt.Errorf("%s: no w:body", documentPart)
	}

	e.doc = doc
	e.body = body
	e.index()
	return nil
}

// index walks the body once, assigning each block-level element a fresh UUID
// and a start/end extent in a running character space. One position is
// reserved between blocks for the implicit block break, so EndPos > StartPos
// holds even for empty blocks.
func (e *Editor) index() {
	pos := 0
	emit := func(el *etree.Element, typ string, level int, toc bool) {
		text := visibleText(el)
		start := pos
		pos += len([]rune(text)) + 1
		n := &node{
			el: el,
			block: Block{
				ID:       uuid.NewString(),
				Type:     typ,
				Level:    level,
				Text:     text,
				StartPos: start,
				EndPos:   pos,
				TOC:      toc,
			},
		}
		e.nodes = append(e.nodes, n)
		e.byUUID[n.block.ID] = n
	}

	var walk func(parent *etree.Element, inTOC bool)
	walk = func(parent *etree.Element, inTOC bool) {
		for _, el := range parent.ChildElements() {
			if el.Space != "w" {
				continue
			}
			switch el.Tag {
			case "p":
				typ, level := classifyParagraph(el)
				toc := inTOC || isTOCParagraph(el)
				if toc {
					typ = TypeTOC
				}
				emit(el, typ, level, toc)
			case "tbl":
				for _, row := range el.SelectElements("w:tr") {
					emit(row, TypeTableRow, 0, inTOC)
				}
			case "sdt":
				if content := el.FindElement("w:sdtContent"); content != nil {
					walk(content, inTOC || isTOCSdt(el))
				}
			}
		}
	}
	walk(e.body, false)
}

// classifyParagraph types a paragraph from its style and numbering
// properties.
func classifyParagraph(p *etree.Element) (string, int) {
	style := paragraphStyle(p)
	if lvl, ok := headingLevel(style); ok {
		return TypeHeading, lvl
	}
	if p.FindElement("w:pPr/w:numPr") != nil {
		return TypeListItem, 0
	}
	return TypeParagraph, 0
}

func paragraphStyle(p *etree.Element) string {
	if st := p.FindElement("w:pPr/w:pStyle"); st != nil {
		return st.SelectAttrValue("w:val", "")
	}
	return ""
}

func headingLevel(style string) (int, bool) {
	for _, prefix := range []string{"Heading", "heading"} {
		if strings.HasPrefix(style, prefix) {
			if lvl, err := strconv.Atoi(style[len(prefix):]); err == nil && lvl > 0 {
				return lvl, true
			}
		}
	}
	if style == "Title" {
		return 1, true
	}
	return 0, false
}

// isTOCParagraph flags paragraphs that are part of a generated table of
// contents: TOC paragraph styles, or a TOC field instruction in the subtree.
func isTOCParagraph(p *etree.Element) bool {
	if strings.HasPrefix(paragraphStyle(p), "TOC") {
		return true
	}
	for _, instr := range p.FindElements(".//w:instrText") {
		if strings.Contains(strings.TrimSpace(instr.Text()), "TOC") {
			return true
		}
	}
	for _, fld := range p.FindElements(".//w:fldSimple") {
		if strings.Contains(fld.SelectAttrValue("w:instr", ""), "TOC") {
			return true
		}
	}
	return false
}

// isTOCSdt flags structured document tags holding a Word-generated table of
// contents.
func isTOCSdt(sdt *etree.Element) bool {
	if g := sdt.FindElement("w:sdtPr/w:docPartObj/w:docPartGallery"); g != nil {
		return strings.Contains(g.SelectAttrValue("w:val", ""), "Table of Contents")
	}
	return false
}

// visibleText concatenates the run text under el, excluding tracked-deleted
// spans and including tracked-inserted ones.
func visibleText(el *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(cur *etree.Element) {
		for _, child := range cur.ChildElements() {
			if child.Space == "w" {
				switch child.Tag {
				case "del":
					continue // tracked deletion: not visible
				case "t":
					sb.WriteString(child.Text())
					continue
				case "tab":
					sb.WriteString("\t")
					continue
				}
			}
			walk(child)
		}
	}
	walk(el)
	return sb.String()
}
