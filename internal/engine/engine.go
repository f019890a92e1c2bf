// Package engine is the in-process DOCX editor behind the service: it loads a
// document archive into an XML tree, exposes the block-level nodes with their
// positional extents, applies tracked-change mutations, and serializes the
// result back to a DOCX byte buffer.
//
// An Editor is request-scoped and not safe for concurrent use. Callers own it
// exclusively and must run the cleanup returned by Open on every exit path.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Mode selects how mutations are recorded.
type Mode string

const (
	// ModeEditing applies mutations destructively.
	ModeEditing Mode = "editing"
	// ModeSuggesting records every mutation as a tracked change.
	ModeSuggesting Mode = "suggesting"
)

// Author is the tracked-change and comment attribution.
type Author struct {
	Name  string
	Email string
}

// Options configure Open.
type Options struct {
	Mode   Mode
	Author Author
	Logger *zap.Logger
}

// Block describes one block-level node as seen by the IR extractor. IDs are
// fresh UUIDs minted at load time; they are not stable across loads of the
// same file.
type Block struct {
	ID       string
	Type     string
	Level    int
	Text     string
	StartPos int
	EndPos   int
	TOC      bool
}

// Block types emitted by the indexer.
const (
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeListItem  = "listItem"
	TypeTableRow  = "tableRow"
	TypeTOC       = "toc"
)

// ErrEditorClosed reports use of an editor after its cleanup ran. It is the
// one editor error treated as unrecoverable by callers.
var ErrEditorClosed = errors.New("editor closed")

// ErrUnknownBlock reports an operation against a UUID the editor never
// indexed.
var ErrUnknownBlock = errors.New("unknown block")

type node struct {
	el    *etree.Element
	block Block
}

// Editor is a live handle over one loaded document.
type Editor struct {
	mode   Mode
	author Author
	log    *zap.Logger

	partNames []string          // archive entry order
	parts     map[string][]byte // entry name -> raw bytes
	doc       *etree.Document
	body      *etree.Element

	nodes  []*node
	byUUID map[string]*node

	comments []commentRec
	revID    int

	closed bool
}

type commentRec struct {
	id     int
	text   string
	author Author
}

// Open parses a DOCX buffer into a live editor. The returned cleanup is
// idempotent and must be called on every path; it releases the document tree.
// On failure any partially-built tree is released before the error returns.
func Open(data []byte, opts Options) (*Editor, func(), error) {
	if opts.Mode == "" {
		opts.Mode = ModeSuggesting
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Editor{
		mode:   opts.Mode,
		author: opts.Author,
		log:    opts.Logger.Named("engine"),
		byUUID: make(map[string]*node),
	}
	if err := e.load(data); err != nil {
		e.release()
		return nil, func() {}, err
	}

	var once sync.Once
	cleanup := func() { once.Do(e.release) }
	return e, cleanup, nil
}

// Blocks returns the indexed block-level nodes in document order.
func (e *Editor) Blocks() []Block {
	out := make([]Block, len(e.nodes))
	for i, n := range e.nodes {
		out[i] = n.block
	}
	return out
}

// Closed reports whether cleanup has run.
func (e *Editor) Closed() bool { return e.closed }

func (e *Editor) lookup(uuid string) (*node, error) {
	if e.closed {
		return nil, ErrEditorClosed
	}
	n, ok := e.byUUID[uuid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, uuid)
	}
	return n, nil
}

// release drops every reference into the parsed tree. Safe to call more than
// once; Open's cleanup wraps it in a sync.Once anyway.
func (e *Editor) release() {
	e.closed = true
	e.doc = nil
	e.body = nil
	e.nodes = nil
	e.byUUID = nil
	e.parts = nil
	e.partNames = nil
	e.comments = nil
}

func (e *Editor) nextRevID() string {
	e.revID++
	return fmt.Sprintf("%d", e.revID)
}
