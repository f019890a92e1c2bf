package edit

import (
	"errors"
	"fmt"
	"strings"
)

// Meta carries the recognized keys of a markdown edit document's Metadata
// section.
type Meta struct {
	Version     string
	AuthorName  string
	AuthorEmail string
}

// MarkdownResult is a decoded markdown edit document. Warnings record rows or
// sections the parser skipped; they do not fail the decode.
type MarkdownResult struct {
	Edits    []Edit
	Meta     Meta
	Warnings []string
}

// ErrNoEdits reports a markdown document with no usable table rows.
var ErrNoEdits = errors.New("markdown edit document has no edit rows")

const tableHeader = "| Block | Op | Diff | Comment |"

type mdRow struct {
	block   string
	op      string
	diff    string
	comment string
}

// DecodeMarkdown parses the three-section markdown edit document: Metadata
// key-value lines, the pipe table of edits, and the replacement-text
// sections binding `### <seqId> newText` / `### <seqId> insertText` bodies to
// table rows.
func DecodeMarkdown(s string) (*MarkdownResult, error) {
	res := &MarkdownResult{}

	var rows []mdRow
	newTexts := make(map[string]string)
	insertTexts := make(map[string]string)

	const (
		secNone = iota
		secMetadata
		secTable
		secReplacement
	)
	section := secNone
	sawHeader := false

	// Replacement-section accumulation state.
	var curKey string
	var curInsert bool
	var curBody []string
	flush := func() {
		if curKey == "" {
			return
		}
		body := strings.TrimRight(strings.Join(curBody, "\n"), "\n")
		if curInsert {
			insertTexts[curKey] = body
		} else {
			newTexts[curKey] = body
		}
		curKey = ""
		curBody = nil
	}

	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(trimmed, "## "):
			flush()
			switch strings.TrimSpace(trimmed) {
			case "## Metadata":
				section = secMetadata
			case "## Edits Table":
				section = secTable
			case "## Replacement Text":
				section = secReplacement
			default:
				section = secNone
			}
			continue
		case strings.HasPrefix(trimmed, "# "):
			flush()
			section = secNone
			continue
		}

		switch section {
		case secMetadata:
			key, val, ok := strings.Cut(trimmed, ":")
			if !ok {
				continue
			}
			val = strings.TrimSpace(val)
			switch strings.TrimSpace(strings.TrimPrefix(key, "-")) {
			case "Version":
				res.Meta.Version = val
			case "Author Name":
				res.Meta.AuthorName = val
			case "Author Email":
				res.Meta.AuthorEmail = val
			}
		// Table rows are also accepted before any section header, so a bare
		// pipe table decodes without the surrounding document.
		case secNone, secTable:
			t := strings.TrimSpace(trimmed)
			if !strings.HasPrefix(t, "|") {
				continue
			}
			if t == tableHeader {
				sawHeader = true
				continue
			}
			if strings.HasPrefix(strings.ReplaceAll(t, " ", ""), "|-") {
				continue // separator row
			}
			cells := splitRow(t)
			if len(cells) != 4 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("skipping table row with %d cells: %s", len(cells), t))
				continue
			}
			rows = append(rows, mdRow{block: cells[0], op: cells[1], diff: cells[2], comment: cells[3]})
		case secReplacement:
			if strings.HasPrefix(trimmed, "### ") {
				flush()
				fields := strings.Fields(strings.TrimPrefix(trimmed, "### "))
				if len(fields) != 2 || (fields[1] != "newText" && fields[1] != "insertText") {
					res.Warnings = append(res.Warnings, fmt.Sprintf("skipping unrecognized replacement section: %s", trimmed))
					continue
				}
				curKey = fields[0]
				curInsert = fields[1] == "insertText"
				continue
			}
			if curKey != "" {
				curBody = append(curBody, trimmed)
			}
		}
	}
	flush()

	if !sawHeader && len(rows) == 0 {
		return nil, ErrNoEdits
	}
	if len(rows) == 0 {
		return nil, ErrNoEdits
	}

	for _, row := range rows {
		e := Edit{Operation: Operation(strings.ToLower(row.op))}
		if c := cellValue(row.comment); c != "" {
			e.Comment = c
		}
		switch cellValue(row.diff) {
		case "true":
			t := true
			e.Diff = &t
		case "false":
			f := false
			e.Diff = &f
		}

		if e.Operation == OpInsert {
			e.AfterBlockID = row.block
			if body, ok := insertTexts[row.block]; ok {
				e.Text = &body
			} else {
				res.Warnings = append(res.Warnings, fmt.Sprintf("insert row %s has no insertText section", row.block))
			}
		} else {
			e.BlockID = row.block
			if e.Operation == OpReplace {
				if body, ok := newTexts[row.block]; ok {
					e.NewText = &body
				} else {
					res.Warnings = append(res.Warnings, fmt.Sprintf("replace row %s has no newText section", row.block))
				}
			}
		}
		res.Edits = append(res.Edits, e)
	}
	return res, nil
}

// EncodeMarkdown renders edits as a markdown edit document, the inverse of
// DecodeMarkdown for edits whose text fields survive table-cell quoting.
func EncodeMarkdown(edits []Edit, meta Meta) string {
	var sb strings.Builder
	sb.WriteString("# Edits\n\n")

	if meta != (Meta{}) {
		sb.WriteString("## Metadata\n\n")
		if meta.Version != "" {
			fmt.Fprintf(&sb, "Version: %s\n", meta.Version)
		}
		if meta.AuthorName != "" {
			fmt.Fprintf(&sb, "Author Name: %s\n", meta.AuthorName)
		}
		if meta.AuthorEmail != "" {
			fmt.Fprintf(&sb, "Author Email: %s\n", meta.AuthorEmail)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Edits Table\n\n")
	sb.WriteString(tableHeader + "\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, e := range edits {
		diff := "-"
		if e.Diff != nil {
			diff = fmt.Sprintf("%t", *e.Diff)
		}
		comment := e.Comment
		if comment == "" {
			comment = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", e.TargetID(), e.Operation, diff, comment)
	}

	var sections []string
	for _, e := range edits {
		switch {
		case e.Operation == OpReplace && e.NewText != nil:
			sections = append(sections, fmt.Sprintf("### %s newText\n%s", e.BlockID, *e.NewText))
		case e.Operation == OpInsert && e.Text != nil:
			sections = append(sections, fmt.Sprintf("### %s insertText\n%s", e.AfterBlockID, *e.Text))
		}
	}
	if len(sections) > 0 {
		sb.WriteString("\n## Replacement Text\n\n")
		sb.WriteString(strings.Join(sections, "\n\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// splitRow splits a pipe-table row into trimmed cells, dropping the empty
// leading and trailing fields produced by the outer pipes.
func splitRow(row string) []string {
	parts := strings.Split(row, "|")
	if len(parts) < 2 {
		return nil
	}
	parts = parts[1 : len(parts)-1]
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// cellValue normalizes a table cell, mapping the "-" placeholder to empty.
func cellValue(cell string) string {
	if cell == "-" {
		return ""
	}
	return cell
}
