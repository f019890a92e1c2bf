package worddiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"one",
		"one two  three",
		"  leading and trailing  ",
		"tabs\tand\nnewlines",
	}
	for _, s := range cases {
		assert.Equal(t, s, strings.Join(Tokenize(s), ""), "tokens must concatenate back to the input")
	}
}

func TestDiffEqualInputs(t *testing.T) {
	ops := Diff("same text here", "same text here")
	require.Len(t, ops, 1)
	assert.Equal(t, Equal, ops[0].Kind)
	assert.Equal(t, "same text here", ops[0].Text)
}

func TestDiffSingleWordChange(t *testing.T) {
	ops := Diff("the quick brown fox", "the slow brown fox")

	var old, new strings.Builder
	for _, op := range ops {
		if op.Kind != Insert {
			old.WriteString(op.Text)
		}
		if op.Kind != Delete {
			new.WriteString(op.Text)
		}
	}
	assert.Equal(t, "the quick brown fox", old.String())
	assert.Equal(t, "the slow brown fox", new.String())

	// Minimality: the shared prefix and suffix stay equal runs.
	require.GreaterOrEqual(t, len(ops), 3)
	assert.Equal(t, Equal, ops[0].Kind)
	assert.Equal(t, Equal, ops[len(ops)-1].Kind)
	for _, op := range ops {
		if op.Kind == Delete {
			assert.Contains(t, op.Text, "quick")
			assert.NotContains(t, op.Text, "brown")
		}
	}
}

func TestDiffInsertOnly(t *testing.T) {
	ops := Diff("alpha beta", "alpha gamma beta")
	var inserted string
	for _, op := range ops {
		switch op.Kind {
		case Insert:
			inserted += op.Text
		case Delete:
			t.Fatalf("pure insertion produced a delete op: %q", op.Text)
		}
	}
	assert.Contains(t, inserted, "gamma")
}

func TestDiffFromEmpty(t *testing.T) {
	ops := Diff("", "brand new text")
	require.Len(t, ops, 1)
	assert.Equal(t, Insert, ops[0].Kind)
	assert.Equal(t, "brand new text", ops[0].Text)
}
