package split

import (
	"fmt"
	"slices"

	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

// planner accumulates the chunk assignment: which chunk every reachable node
// lives in, which chunks exist, and the load edges between them.
type planner struct {
	reg *vgraph.Registry
	an  *analysis

	chunks    []*Chunk
	chunkOf   map[vgraph.ID]int
	rootChunk []int          // root walk index -> chunk index
	groups    map[string]int // canonical referencer-set key -> common chunk
	loads     map[int]map[int]bool // from -> to -> deferred
}

// assign applies the hosting/grouping/chaining policy to every node
// reachable from at least one root.
//
// Nodes are processed in forward topological order, so by the time a node is
// assigned every one of its (non-cyclic) referencers already has a chunk.
// Cyclic back-edge referencers are deliberately excluded here; the cycle
// resolver classifies them afterwards.
func assign(reg *vgraph.Registry, an *analysis) (*planner, error) {
	p := &planner{
		reg:       reg,
		an:        an,
		chunkOf:   make(map[vgraph.ID]int),
		rootChunk: make([]int, len(an.roots)),
		groups:    make(map[string]int),
		loads:     make(map[int]map[int]bool),
	}

	// Every entry materializes a chunk named after it. Explicit split points
	// materialize a chunk too, and their node is force-assigned to it.
	for i, root := range an.roots {
		switch root.Kind {
		case vgraph.RootEntry:
			c := p.newChunk(KindEntry, root.Name, vgraph.ModeSync, root.Node)
			p.rootChunk[i] = c.Index
		case vgraph.RootSplit:
			c := p.newChunk(KindSplit, root.Name, root.Mode, root.Node)
			p.rootChunk[i] = c.Index
			p.place(root.Node, c.Index)
		}
	}

	for _, v := range an.topo {
		if _, done := p.chunkOf[v]; done {
			continue // split point, force-extracted above
		}
		rr := an.reachedBy[v]
		if len(rr) == 0 {
			continue // interned but unreachable: emitted nowhere
		}

		// Reached by exactly one root: inline into that root's chunk. Every
		// referencer is necessarily in the same chunk (a referencer reached
		// by any other root would put that root in rr too).
		if len(rr) == 1 {
			p.place(v, p.rootChunk[rr[0]])
			continue
		}

		// Shared. A reaching root whose own top-level export is this node
		// hosts it: the first such root in discovery order wins and no new
		// file is created.
		if host := an.rootExport(v); host >= 0 {
			p.place(v, p.rootChunk[host])
			continue
		}

		refs := p.referencers(v)
		switch len(refs) {
		case 0:
			return nil, fmt.Errorf("node %d shared by %d roots but has no assigned referencer", v, len(rr))
		case 1:
			// All live referencers collapsed into one chunk (typically
			// sub-structure of an already-extracted shared node).
			p.place(v, refs[0])
		default:
			// Allocate or reuse a common chunk. Nodes with an identical
			// referencer set share one grouped chunk; differing sets get
			// their own chunk, chaining the files instead.
			key := groupKey(refs)
			idx, ok := p.groups[key]
			if !ok {
				c := p.newChunk(KindCommon, "", vgraph.ModeSync, v)
				idx = c.Index
				p.groups[key] = idx
				p.place(v, idx)
			} else {
				p.chunks[idx].Exports = append(p.chunks[idx].Exports, v)
				p.place(v, idx)
			}
		}
	}

	// Load edges for every reference that ended up crossing a chunk
	// boundary, plus the virtual edge from each root to its export.
	for _, v := range an.topo {
		cv, ok := p.chunkOf[v]
		if !ok {
			continue
		}
		for _, e := range an.preds[v] {
			if cu := p.chunkOf[e.From]; cu != cv {
				p.addLoad(cu, cv, p.chunks[cv].Deferred())
			}
		}
	}
	for i, root := range an.roots {
		cv := p.chunkOf[root.Node]
		if cu := p.rootChunk[i]; cu != cv {
			p.addLoad(cu, cv, p.chunks[cv].Deferred())
		}
	}

	return p, nil
}

// newChunk allocates a chunk exporting the given node. The node itself is
// not assigned; callers decide that (hosting may place it elsewhere).
func (p *planner) newChunk(kind Kind, name string, mode vgraph.Mode, export vgraph.ID) *Chunk {
	c := &Chunk{
		Index:   len(p.chunks),
		Kind:    kind,
		Name:    name,
		Mode:    mode,
		Exports: []vgraph.ID{export},
		merged:  -1,
	}
	p.chunks = append(p.chunks, c)
	return c
}

// place assigns a node to a chunk, preserving topological member order.
func (p *planner) place(v vgraph.ID, chunk int) {
	p.chunkOf[v] = chunk
	p.chunks[chunk].Nodes = append(p.chunks[chunk].Nodes, v)
}

// referencers computes the node's referencer set: the distinct chunks of its
// forward-edge predecessors, sorted ascending. Back-edge referencers are
// excluded (cycle members share reaching-root sets, so they never change the
// grouping decision; the cycle resolver folds them in afterwards).
func (p *planner) referencers(v vgraph.ID) []int {
	var out []int
	for _, e := range p.an.preds[v] {
		c, ok := p.chunkOf[e.From]
		if !ok {
			continue
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

func (p *planner) addLoad(from, to int, deferred bool) {
	if p.loads[from] == nil {
		p.loads[from] = make(map[int]bool)
	}
	// A sync reference anywhere outweighs deferred ones on the same edge.
	if cur, ok := p.loads[from][to]; ok {
		p.loads[from][to] = cur && deferred
		return
	}
	p.loads[from][to] = deferred
}

func groupKey(refs []int) string {
	return fmt.Sprint(refs)
}
