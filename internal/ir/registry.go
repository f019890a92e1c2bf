package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry keeps the two-way mapping between engine-native UUIDs and
// human-readable sequential ids (b001, b002, ...). One registry lives per IR
// extraction and is discarded with it.
type Registry struct {
	counter int
	bySeq   map[string]string // seqId -> uuid
	byUUID  map[string]string // uuid -> seqId
}

// NewRegistry returns an empty registry. The first id issued is b001.
func NewRegistry() *Registry {
	return &Registry{
		bySeq:  make(map[string]string),
		byUUID: make(map[string]string),
	}
}

// Generate mints a fresh UUID and binds it to the next sequential id.
func (r *Registry) Generate() (string, string) {
	id := uuid.NewString()
	return id, r.RegisterExisting(id)
}

// RegisterExisting binds the UUID to the next sequential id, or returns the
// id it already holds. The counter never decreases.
func (r *Registry) RegisterExisting(uuid string) string {
	if seq, ok := r.byUUID[uuid]; ok {
		return seq
	}
	r.counter++
	seq := fmt.Sprintf("b%03d", r.counter)
	r.bySeq[seq] = uuid
	r.byUUID[uuid] = seq
	return seq
}

// SeqIDFor resolves a UUID to its sequential id.
func (r *Registry) SeqIDFor(uuid string) (string, bool) {
	seq, ok := r.byUUID[uuid]
	return seq, ok
}

// UUIDFor resolves a sequential id to its UUID.
func (r *Registry) UUIDFor(seq string) (string, bool) {
	id, ok := r.bySeq[seq]
	return id, ok
}

// Export returns a copy of the uuid -> seqId mapping.
func (r *Registry) Export() map[string]string {
	out := make(map[string]string, len(r.byUUID))
	for k, v := range r.byUUID {
		out[k] = v
	}
	return out
}
