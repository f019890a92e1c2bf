package engine

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	commentsPart      = "word/comments.xml"
	contentTypesPart  = "[Content_Types].xml"
	documentRelsPart  = "word/_rels/document.xml.rels"
	commentsType      = "application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"
	commentsRelType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	wordprocessmlNS   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relationshipsNS   = "http://schemas.openxmlformats.org/package/2006/relationships"
	commentsRelations = `<Relationship Id="rIdComments" Type="` + commentsRelType + `" Target="comments.xml"/>`
)

// Export serializes the mutated document back into a DOCX byte buffer. Parts
// the editor never touched are carried over byte-for-byte; entries are stored
// uncompressed, so callers wanting small output run the result through the
// recompressor. The editor stays usable after Export.
func (e *Editor) Export() ([]byte, error) {
	if e.closed {
		return nil, ErrEditorClosed
	}

	// The serializer logs rather than fails on dangling selection state left
	// by destructive edits; nothing here may mutate process-global state.
	docXML, err := e.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", documentPart, err)
	}

	parts := make(map[string][]byte, len(e.parts)+1)
	order := make([]string, 0, len(e.partNames)+1)
	for _, name := range e.partNames {
		parts[name] = e.parts[name]
		order = append(order, name)
	}
	parts[documentPart] = docXML

	if len(e.comments) > 0 {
		commentsXML, err := e.commentsXML()
		if err != nil {
			return nil, err
		}
		if _, ok := parts[commentsPart]; !ok {
			order = append(order, commentsPart)
		}
		parts[commentsPart] = commentsXML

		parts[contentTypesPart] = withCommentsOverride(parts[contentTypesPart])
		rels, ok := parts[documentRelsPart]
		if !ok {
			order = append(order, documentRelsPart)
		}
		parts[documentRelsPart] = withCommentsRelationship(rels)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, name := range order {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("create entry %q: %w", name, err)
		}
		if _, err := w.Write(parts[name]); err != nil {
			return nil, fmt.Errorf("write entry %q: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return out.Bytes(), nil
}

func (e *Editor) commentsXML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:comments")
	root.CreateAttr("xmlns:w", wordprocessmlNS)

	for _, c := range e.comments {
		com := root.CreateElement("w:comment")
		com.CreateAttr("w:id", fmt.Sprintf("%d", c.id))
		com.CreateAttr("w:author", c.author.Name)
		com.CreateAttr("w:initials", initials(c.author.Name))
		com.CreateAttr("w:date", time.Now().UTC().Format(time.RFC3339))
		p := com.CreateElement("w:p")
		r := p.CreateElement("w:r")
		setText(r.CreateElement("w:t"), c.text)
	}

	b, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", commentsPart, err)
	}
	return b, nil
}

// withCommentsOverride adds the comments part override to [Content_Types].xml
// unless one is already declared.
func withCommentsOverride(contentTypes []byte) []byte {
	s := string(contentTypes)
	if strings.Contains(s, commentsPart) {
		return contentTypes
	}
	override := `<Override PartName="/` + commentsPart + `" ContentType="` + commentsType + `"/>`
	if i := strings.LastIndex(s, "</Types>"); i >= 0 {
		return []byte(s[:i] + override + s[i:])
	}
	return contentTypes
}

// withCommentsRelationship adds the comments relationship to the document
// rels part, creating the part when the source archive had none.
func withCommentsRelationship(rels []byte) []byte {
	if rels == nil {
		return []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="` + relationshipsNS + `">` + commentsRelations + `</Relationships>`)
	}
	s := string(rels)
	if strings.Contains(s, commentsRelType) {
		return rels
	}
	if i := strings.LastIndex(s, "</Relationships>"); i >= 0 {
		return []byte(s[:i] + commentsRelations + s[i:])
	}
	return rels
}

func initials(name string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		sb.WriteRune(r[0])
	}
	if sb.Len() == 0 {
		return "?"
	}
	return sb.String()
}
