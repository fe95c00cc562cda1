package split

import (
	"slices"

	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

// Kind classifies output chunks.
type Kind int

const (
	// KindEntry is a chunk materialized for a named entry. One per entry,
	// always present in the manifest.
	KindEntry Kind = iota
	// KindCommon is a chunk allocated for implicitly shared nodes.
	KindCommon
	// KindSplit is a chunk materialized for an explicitly requested split
	// point.
	KindSplit
)

// String returns "entry", "common" or "split".
func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindSplit:
		return "split"
	default:
		return "common"
	}
}

// LoadEdge is a dependency of one chunk on another: the source chunk must
// load the target chunk to resolve one or more references. Deferred edges
// are consumed only inside a thunk that performs a dynamic load, so they do
// not constrain load order.
type LoadEdge struct {
	To       int
	Deferred bool
}

// Chunk is one output file under construction.
//
// Exports lists the chunk's top-level members: a single node for entry and
// split chunks, possibly several for grouped common chunks (referencers then
// index into the list). Nodes lists every node whose content is emitted in
// this chunk, including inlined private sub-structure, in forward
// topological order (referencers before referencees).
type Chunk struct {
	Index   int
	Kind    Kind
	Name    string // explicit entry/split name; "" for anonymous chunks
	Mode    vgraph.Mode
	Exports []vgraph.ID
	Nodes   []vgraph.ID

	merged int // index of the surviving chunk after a cycle merge, or -1
}

// Pinned reports whether the chunk's identity is fixed by the caller: entry
// chunks and explicitly named split chunks can never be merged away.
func (c *Chunk) Pinned() bool {
	return c.Kind == KindEntry || (c.Kind == KindSplit && c.Name != "")
}

// Grouped reports whether the chunk holds more than one top-level member.
func (c *Chunk) Grouped() bool { return len(c.Exports) > 1 }

// ExportIndex returns the position of the node in the chunk's export list,
// or -1 if the node is not exported by this chunk.
func (c *Chunk) ExportIndex(id vgraph.ID) int {
	return slices.Index(c.Exports, id)
}

// Deferred reports whether references to this chunk's split value must be
// wrapped in a dynamic-load thunk.
func (c *Chunk) Deferred() bool {
	return c.Kind == KindSplit && c.Mode == vgraph.ModeAsync
}
