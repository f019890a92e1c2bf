package ir

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/draftops/redline-server/internal/engine"
)

// IRVersion is stamped into Metadata.Version.
const IRVersion = "1.0"

// Options configure an extraction.
type Options struct {
	Format              string
	IncludeOutline      bool
	IncludeDefinedTerms bool
	// MaxTextLength truncates block text when > 0; the original length is
	// recorded on the block.
	MaxTextLength int
}

// DefaultOptions match the HTTP read endpoint.
var DefaultOptions = Options{
	Format:         "docx",
	IncludeOutline: true,
}

var errNoBlocks = errors.New("document has no block content")

// Extract builds the IR from the engine's block listing in a single pass over
// the blocks (the defined-terms scan is a second O(n) pass). Sequential ids
// are assigned in emission order, so they are monotonically increasing.
func Extract(blocks []engine.Block, filename string, opts Options) (*Document, error) {
	if len(blocks) == 0 {
		return nil, errNoBlocks
	}

	reg := NewRegistry()
	doc := &Document{
		Blocks: make([]Block, 0, len(blocks)),
	}

	var stack []*OutlineNode
	for _, src := range blocks {
		seq := reg.RegisterExisting(src.ID)
		b := Block{
			ID:       src.ID,
			SeqID:    seq,
			Type:     src.Type,
			Level:    src.Level,
			Text:     src.Text,
			StartPos: src.StartPos,
			EndPos:   src.EndPos,
			TOC:      src.TOC,
		}
		if opts.MaxTextLength > 0 {
			if r := []rune(b.Text); len(r) > opts.MaxTextLength {
				b.OriginalLength = len(r)
				b.Text = string(r[:opts.MaxTextLength])
			}
		}
		doc.Blocks = append(doc.Blocks, b)

		if opts.IncludeOutline && src.Type == engine.TypeHeading && !src.TOC {
			node := &OutlineNode{
				ID:       src.ID,
				SeqID:    seq,
				Title:    src.Text,
				Level:    src.Level,
				Children: []*OutlineNode{},
			}
			for len(stack) > 0 && stack[len(stack)-1].Level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				doc.Outline = append(doc.Outline, node)
			} else {
				top := stack[len(stack)-1]
				top.Children = append(top.Children, node)
			}
			stack = append(stack, node)
		}
	}

	doc.IDMapping = reg.Export()
	doc.Metadata = Metadata{
		Filename:    filename,
		Generated:   time.Now().UTC(),
		Version:     IRVersion,
		Format:      opts.Format,
		BlockCount:  len(doc.Blocks),
		IdsAssigned: len(doc.IDMapping),
	}
	doc.reindex()

	if opts.IncludeDefinedTerms {
		doc.DefinedTerms = scanDefinedTerms(doc.Blocks)
	}
	return doc, nil
}

// Definition introduction patterns: `"Term" means ...` (contract style) and a
// leading `Term: ...` line.
var (
	quotedDefRe  = regexp.MustCompile(`[“"]([A-Z][^”"]{0,79})[”"]\s+(?:shall\s+mean|means|has\s+the\s+meaning)`)
	leadingDefRe = regexp.MustCompile(`^([A-Z][A-Za-z0-9][A-Za-z0-9 \-]{0,78}):\s`)
)

// scanDefinedTerms finds term definitions, then locates usages with an
// inverted index keyed by each term's first word so the usage pass stays O(n)
// in block text.
func scanDefinedTerms(blocks []Block) map[string]TermRefs {
	terms := make(map[string]TermRefs)
	firstWord := make(map[string][]string) // lowercase first word -> terms

	for _, b := range blocks {
		for _, re := range []*regexp.Regexp{quotedDefRe, leadingDefRe} {
			for _, m := range re.FindAllStringSubmatch(b.Text, -1) {
				term := strings.TrimSpace(m[1])
				if term == "" {
					continue
				}
				if _, seen := terms[term]; seen {
					continue // first definition wins
				}
				terms[term] = TermRefs{DefiningBlockSeqID: b.SeqID, UsageBlockSeqIDs: []string{}}
				w := strings.ToLower(strings.Fields(term)[0])
				firstWord[w] = append(firstWord[w], term)
			}
		}
	}
	if len(terms) == 0 {
		return terms
	}

	for _, b := range blocks {
		seen := make(map[string]bool)
		for _, tok := range strings.Fields(b.Text) {
			key := strings.ToLower(strings.Trim(tok, `"“”.,;:()`))
			for _, term := range firstWord[key] {
				if seen[term] {
					continue
				}
				refs := terms[term]
				if refs.DefiningBlockSeqID == b.SeqID {
					continue
				}
				if strings.Contains(b.Text, term) {
					seen[term] = true
					refs.UsageBlockSeqIDs = append(refs.UsageBlockSeqIDs, b.SeqID)
					terms[term] = refs
				}
			}
		}
	}
	return terms
}
