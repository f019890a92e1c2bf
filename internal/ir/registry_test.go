package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySequentialFormat(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "b001", r.RegisterExisting("uuid-1"))
	assert.Equal(t, "b002", r.RegisterExisting("uuid-2"))
	assert.Equal(t, "b003", r.RegisterExisting("uuid-3"))
}

func TestRegistryIdempotentRegistration(t *testing.T) {
	r := NewRegistry()
	first := r.RegisterExisting("uuid-1")
	again := r.RegisterExisting("uuid-1")
	assert.Equal(t, first, again, "same UUID must keep its seqId")

	// The counter never reuses a slot.
	assert.Equal(t, "b002", r.RegisterExisting("uuid-2"))
}

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()
	r.RegisterExisting("uuid-1")

	seq, ok := r.SeqIDFor("uuid-1")
	require.True(t, ok)
	assert.Equal(t, "b001", seq)

	id, ok := r.UUIDFor("b001")
	require.True(t, ok)
	assert.Equal(t, "uuid-1", id)

	_, ok = r.SeqIDFor("unknown")
	assert.False(t, ok)
	_, ok = r.UUIDFor("b999")
	assert.False(t, ok)
}

func TestRegistryGenerate(t *testing.T) {
	r := NewRegistry()
	id, seq := r.Generate()
	assert.NotEmpty(t, id)
	assert.Equal(t, "b001", seq)

	got, ok := r.UUIDFor(seq)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestRegistryGrowsPastThreeDigits(t *testing.T) {
	r := NewRegistry()
	var last string
	for i := 0; i < 1000; i++ {
		last = r.RegisterExisting(fmt.Sprintf("uuid-%d", i))
	}
	assert.Equal(t, "b1000", last)
}

func TestRegistryExportBijection(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 10; i++ {
		r.RegisterExisting(fmt.Sprintf("uuid-%d", i))
	}
	m := r.Export()
	require.Len(t, m, 10)

	seen := make(map[string]bool)
	for _, seq := range m {
		assert.False(t, seen[seq], "seqId %s mapped twice", seq)
		seen[seq] = true
	}
}
