// Package worddiff computes word-level diffs between two plain-text strings.
//
// The diff is intended for tracked-change production: the returned ops are a
// minimal sequence of equal/insert/delete runs over a word-and-whitespace
// tokenization, so whitespace is preserved exactly in both directions.
package worddiff

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// Kind classifies a diff operation.
type Kind int

const (
	Equal Kind = iota
	Insert
	Delete
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Op is a single run of the diff. Text is the concatenation of the tokens
// covered by the run.
type Op struct {
	Kind Kind
	Text string
}

// Tokenize splits s into alternating word and whitespace tokens. Concatenating
// the result reproduces s exactly.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	var tokens []string
	runes := []rune(s)
	start := 0
	inSpace := unicode.IsSpace(runes[0])
	for i := 1; i < len(runes); i++ {
		isSpace := unicode.IsSpace(runes[i])
		if isSpace != inSpace {
			tokens = append(tokens, string(runes[start:i]))
			start = i
			inSpace = isSpace
		}
	}
	tokens = append(tokens, string(runes[start:]))
	return tokens
}

// Diff returns the minimal op sequence transforming old into new. Replacements
// are decomposed into a delete followed by an insert so callers only handle
// the three kinds.
func Diff(old, new string) []Op {
	a := Tokenize(old)
	b := Tokenize(new)

	var ops []Op
	m := difflib.NewMatcher(a, b)
	for _, oc := range m.GetOpCodes() {
		switch oc.Tag {
		case 'e':
			ops = append(ops, Op{Equal, strings.Join(a[oc.I1:oc.I2], "")})
		case 'd':
			ops = append(ops, Op{Delete, strings.Join(a[oc.I1:oc.I2], "")})
		case 'i':
			ops = append(ops, Op{Insert, strings.Join(b[oc.J1:oc.J2], "")})
		case 'r':
			ops = append(ops, Op{Delete, strings.Join(a[oc.I1:oc.I2], "")})
			ops = append(ops, Op{Insert, strings.Join(b[oc.J1:oc.J2], "")})
		}
	}
	return ops
}
