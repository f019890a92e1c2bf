// Package testdocx builds minimal valid DOCX buffers for tests.
package testdocx

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// Para is one source paragraph. A non-empty Style becomes w:pStyle.
type Para struct {
	Style string
	Text  string
}

// Heading returns a heading paragraph at the given level.
func Heading(level int, text string) Para {
	return Para{Style: fmt.Sprintf("Heading%d", level), Text: text}
}

// Simple builds a document of plain paragraphs.
func Simple(texts ...string) []byte {
	paras := make([]Para, len(texts))
	for i, t := range texts {
		paras[i] = Para{Text: t}
	}
	return Build(paras...)
}

// Build assembles a DOCX archive with the given paragraphs.
func Build(paras ...Para) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", wordNS)
	body := root.CreateElement("w:body")
	for _, p := range paras {
		el := body.CreateElement("w:p")
		if p.Style != "" {
			pPr := el.CreateElement("w:pPr")
			pPr.CreateElement("w:pStyle").CreateAttr("w:val", p.Style)
		}
		if p.Text != "" {
			r := el.CreateElement("w:r")
			r.CreateElement("w:t").SetText(p.Text)
		}
	}
	docXML, err := doc.WriteToBytes()
	if err != nil {
		panic(err)
	}
	return BuildArchive(map[string][]byte{
		"[Content_Types].xml": []byte(contentTypes),
		"_rels/.rels":         []byte(rels),
		"word/document.xml":   docXML,
	})
}

// BuildRaw assembles a DOCX archive around a literal word/document.xml body
// fragment (the children of w:body).
func BuildRaw(bodyXML string) []byte {
	docXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + wordNS + `"><w:body>` + bodyXML + `</w:body></w:document>`
	return BuildArchive(map[string][]byte{
		"[Content_Types].xml": []byte(contentTypes),
		"_rels/.rels":         []byte(rels),
		"word/document.xml":   []byte(docXML),
	})
}

// BuildArchive zips the given parts in map-iteration-independent order:
// [Content_Types].xml first, then the rest.
func BuildArchive(parts map[string][]byte) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string) {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(parts[name]); err != nil {
			panic(err)
		}
	}
	if _, ok := parts["[Content_Types].xml"]; ok {
		write("[Content_Types].xml")
	}
	for name := range parts {
		if name != "[Content_Types].xml" {
			write(name)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`
