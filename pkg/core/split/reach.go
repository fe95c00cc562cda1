package split

import (
	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

// edge addresses one outgoing reference: node plus position in its ref list.
type edge struct {
	From vgraph.ID
	Ref  int
	To   vgraph.ID
}

// analysis is the reachability analyzer's output: per-node ordered
// reaching-root sets, root-export flags, the cyclic back-edge set, and a
// forward topological order over the remaining (acyclic) edges.
type analysis struct {
	reg *vgraph.Registry

	// roots is the walk order: entries in caller order, then materialized
	// split points in registration order. Indices below refer to this slice.
	roots  []vgraph.Root
	pruned []vgraph.Root

	reachedBy map[vgraph.ID][]int // ordered root indices reaching the node
	exportOf  map[vgraph.ID][]int // roots whose top-level value is the node

	backEdges []edge
	isBack    map[edge]bool

	topo    []vgraph.ID         // forward-edge topological order, roots first
	topoPos map[vgraph.ID]int   // node -> position in topo
	preds   map[vgraph.ID][]edge // forward-edge predecessors
}

// analyze runs every root walk over the registry. Split points never reached
// by an entry walk are pruned: they contribute no root, no chunk, no file.
func analyze(reg *vgraph.Registry) *analysis {
	an := &analysis{
		reg:       reg,
		reachedBy: make(map[vgraph.ID][]int),
		exportOf:  make(map[vgraph.ID][]int),
		isBack:    make(map[edge]bool),
		topoPos:   make(map[vgraph.ID]int),
		preds:     make(map[vgraph.ID][]edge),
	}

	// Entry reachability decides which split points materialize.
	entryReached := make(map[vgraph.ID]bool)
	var mark func(id vgraph.ID)
	mark = func(id vgraph.ID) {
		if entryReached[id] {
			return
		}
		entryReached[id] = true
		n, _ := reg.Node(id)
		for _, ref := range n.Refs {
			mark(ref.To)
		}
	}
	for _, e := range reg.Entries() {
		mark(e.Node)
	}

	an.roots = append(an.roots, reg.Entries()...)
	for _, sp := range reg.Splits() {
		if entryReached[sp.Node] {
			an.roots = append(an.roots, sp)
		} else {
			an.pruned = append(an.pruned, sp)
		}
	}

	for i, root := range an.roots {
		an.exportOf[root.Node] = append(an.exportOf[root.Node], i)
		an.walk(root.Node, i)
	}

	an.order()
	return an
}

// walk performs one root's depth-first walk, appending the root index to
// every node reached for the first time by this walk. Each walk visits each
// node once, so the per-node root sets stay ordered and duplicate-free.
func (an *analysis) walk(start vgraph.ID, rootIdx int) {
	seen := make(map[vgraph.ID]bool)
	var dfs func(id vgraph.ID)
	dfs = func(id vgraph.ID) {
		if seen[id] {
			return
		}
		seen[id] = true
		an.reachedBy[id] = append(an.reachedBy[id], rootIdx)
		n, _ := an.reg.Node(id)
		for _, ref := range n.Refs {
			dfs(ref.To)
		}
	}
	dfs(start)
}

// order runs a single global depth-first search over all roots in walk
// order, classifying edges to on-path (gray) nodes as cyclic back-edges and
// producing a topological order of the remaining forward edges.
func (an *analysis) order() {
	const (
		white = iota
		gray
		black
	)

	color := make(map[vgraph.ID]int)
	var post []vgraph.ID

	var dfs func(id vgraph.ID)
	dfs = func(id vgraph.ID) {
		color[id] = gray
		n, _ := an.reg.Node(id)
		for i, ref := range n.Refs {
			e := edge{From: id, Ref: i, To: ref.To}
			switch color[ref.To] {
			case white:
				an.preds[ref.To] = append(an.preds[ref.To], e)
				dfs(ref.To)
			case gray:
				an.backEdges = append(an.backEdges, e)
				an.isBack[e] = true
			case black:
				an.preds[ref.To] = append(an.preds[ref.To], e)
			}
		}
		color[id] = black
		post = append(post, id)
	}

	for _, root := range an.roots {
		if color[root.Node] == white {
			dfs(root.Node)
		}
	}

	// Reverse postorder puts every forward-edge source before its target.
	an.topo = make([]vgraph.ID, 0, len(post))
	for i := len(post) - 1; i >= 0; i-- {
		an.topo = append(an.topo, post[i])
		an.topoPos[post[i]] = len(an.topo) - 1
	}
}

// rootExport returns the first root whose top-level value is exactly this
// node, or -1. Roots are recorded in walk order, so the first one is also
// the first in the node's reaching set.
func (an *analysis) rootExport(id vgraph.ID) int {
	if roots := an.exportOf[id]; len(roots) > 0 {
		return roots[0]
	}
	return -1
}
