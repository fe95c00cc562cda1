package split

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

var (
	// ErrUnresolvableCycle is returned when a synchronous cross-chunk cycle
	// cannot be resolved by merging because two or more of the implicated
	// chunks have caller-fixed identities (entries, or explicitly named
	// split points). Emitting the cycle would produce an unloadable file
	// set, so the run aborts instead.
	ErrUnresolvableCycle = errors.New("unresolvable synchronous chunk cycle")

	// ErrChunkGraphCyclic is returned by the final validation pass when the
	// synchronous load graph still contains a cycle. This indicates a bug in
	// the resolver, not a caller error.
	ErrChunkGraphCyclic = errors.New("synchronous chunk graph contains a cycle")
)

// resolve classifies every cyclic back-edge and enforces the hard
// constraint that the synchronous load graph is acyclic:
//
//   - back-edges between chunks become load edges, deferred when they cross
//     an async split boundary;
//   - chunks connected by a synchronous load cycle are merged into one,
//     overriding the referencer-set grouping;
//   - back-edges that end up inside a single chunk mark their target for
//     forward-declare-and-patch emission.
func resolve(p *planner) (map[vgraph.ID]bool, error) {
	for _, e := range p.an.backEdges {
		cu, cv := p.chunkOf[e.From], p.chunkOf[e.To]
		if cu != cv {
			p.addLoad(cu, cv, p.chunks[cv].Deferred())
		}
	}

	if err := p.mergeSyncCycles(); err != nil {
		return nil, err
	}

	patched := make(map[vgraph.ID]bool)
	for _, e := range p.an.backEdges {
		if p.chunkOf[e.From] == p.chunkOf[e.To] {
			patched[e.To] = true
		}
	}

	if err := p.validateAcyclic(); err != nil {
		return nil, err
	}
	return patched, nil
}

// mergeSyncCycles finds strongly connected components of the chunk graph
// restricted to synchronous load edges and merges each multi-chunk
// component into a single chunk. Deferred edges are ignored: a deferred
// boundary needs the other chunk only at invocation time, never at load
// time, so it may legally close a cycle.
func (p *planner) mergeSyncCycles() error {
	for {
		comp := p.syncComponents()
		merged := false
		for _, scc := range comp {
			if len(scc) < 2 {
				continue
			}
			if err := p.mergeComponent(scc); err != nil {
				return err
			}
			merged = true
		}
		if !merged {
			return nil
		}
	}
}

// syncComponents computes strongly connected components over synchronous
// load edges using Tarjan's algorithm.
func (p *planner) syncComponents() [][]int {
	n := len(p.chunks)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	var comps [][]int
	next := 0

	var strong func(v int)
	strong = func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for to, deferred := range p.loads[v] {
			if deferred || p.dead(to) || p.dead(v) {
				continue
			}
			if index[to] == -1 {
				strong(to)
				low[v] = min(low[v], low[to])
			} else if onStack[to] {
				low[v] = min(low[v], index[to])
			}
		}

		if low[v] == index[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			comps = append(comps, scc)
		}
	}

	for i := range p.chunks {
		if !p.dead(i) && index[i] == -1 {
			strong(i)
		}
	}
	return comps
}

// mergeComponent folds all chunks of a sync cycle into a single survivor.
// Precedence for the survivor: entry, then named split, then anonymous
// split, then common; lowest index breaks ties. Two pinned chunks in one
// component is a fatal configuration: neither file can give up its
// caller-visible identity, so there is no survivor to merge into.
func (p *planner) mergeComponent(scc []int) error {
	sort.Ints(scc)

	var pinned []int
	for _, i := range scc {
		if p.chunks[i].Pinned() {
			pinned = append(pinned, i)
		}
	}
	if len(pinned) > 1 {
		names := make([]string, len(pinned))
		for i, c := range pinned {
			names[i] = fmt.Sprintf("%s %q", p.chunks[c].Kind, p.chunks[c].Name)
		}
		return fmt.Errorf("%w: %v require each other synchronously", ErrUnresolvableCycle, names)
	}

	survivor := scc[0]
	for _, i := range scc[1:] {
		if rank(p.chunks[i]) < rank(p.chunks[survivor]) {
			survivor = i
		}
	}

	dst := p.chunks[survivor]
	if p.loads[survivor] == nil {
		p.loads[survivor] = make(map[int]bool)
	}
	for _, i := range scc {
		if i == survivor {
			continue
		}
		src := p.chunks[i]
		src.merged = survivor
		dst.Exports = append(dst.Exports, src.Exports...)
		dst.Nodes = append(dst.Nodes, src.Nodes...)
		for _, v := range src.Nodes {
			p.chunkOf[v] = survivor
		}
		// Redirect loads through the survivor.
		for to, deferred := range p.loads[i] {
			if to != survivor {
				p.addLoad(survivor, to, deferred)
			}
		}
		delete(p.loads, i)
	}
	for from, tos := range p.loads {
		for to, deferred := range tos {
			target := to
			for p.chunks[target].merged >= 0 {
				target = p.chunks[target].merged
			}
			if target != to {
				delete(tos, to)
				if from != target {
					p.addLoad(from, target, deferred)
				}
			}
		}
	}
	delete(p.loads[survivor], survivor)

	// Restore member order: emission relies on topological node order.
	slices.SortFunc(dst.Nodes, func(a, b vgraph.ID) int {
		return p.an.topoPos[a] - p.an.topoPos[b]
	})
	return nil
}

func rank(c *Chunk) int {
	switch {
	case c.Kind == KindEntry:
		return 0
	case c.Kind == KindSplit && c.Name != "":
		return 1
	case c.Kind == KindSplit:
		return 2
	default:
		return 3
	}
}

func (p *planner) dead(i int) bool { return p.chunks[i].merged >= 0 }

// validateAcyclic checks that no synchronous load cycle survived merging.
func (p *planner) validateAcyclic() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[int]int)
	var cyclic bool

	var dfs func(i int)
	dfs = func(i int) {
		color[i] = gray
		for to, deferred := range p.loads[i] {
			if deferred {
				continue
			}
			switch color[to] {
			case white:
				dfs(to)
			case gray:
				cyclic = true
				return
			}
		}
		color[i] = black
	}

	for i := range p.chunks {
		if !p.dead(i) && color[i] == white {
			dfs(i)
			if cyclic {
				return ErrChunkGraphCyclic
			}
		}
	}
	return nil
}
