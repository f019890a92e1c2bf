package edit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format tags the wire encoding of an edits payload.
type Format int

const (
	FormatJSON Format = iota
	FormatMarkdown
)

// ErrNotArray reports a syntactically valid JSON payload that is not an
// array. The HTTP layer maps it to MISSING_EDITS.
var ErrNotArray = errors.New("edits must be a JSON array")

// markdown header indicators, checked against the leading line of the
// payload.
var markdownIndicators = []string{"# Edits", "## Edits Table", "## Metadata", "| Block |"}

// DetectFormat decides whether an edits payload is markdown or JSON. Only the
// fixed set of header indicators selects markdown; everything else is treated
// as JSON.
func DetectFormat(s string) Format {
	head := strings.TrimLeft(s, " \t\r\n")
	for _, ind := range markdownIndicators {
		if strings.HasPrefix(head, ind) {
			return FormatMarkdown
		}
	}
	return FormatJSON
}

// DecodeJSON parses a JSON edits array. Malformed JSON surfaces as a decode
// error; well-formed non-array JSON surfaces as ErrNotArray so the two map to
// distinct HTTP codes.
func DecodeJSON(s string) ([]Edit, error) {
	b := []byte(s)
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if trimmed == "" {
		return nil, ErrNotArray
	}
	if !json.Valid(b) {
		var probe []Edit
		err := json.Unmarshal(b, &probe)
		return nil, fmt.Errorf("malformed edits JSON: %w", err)
	}
	if trimmed[0] != '[' {
		return nil, ErrNotArray
	}
	var edits []Edit
	if err := json.Unmarshal(b, &edits); err != nil {
		return nil, fmt.Errorf("malformed edits JSON: %w", err)
	}
	return edits, nil
}
