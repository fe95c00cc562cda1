package split

import (
	"errors"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

// ErrNoEntries is returned by [Run] when the registry has no entries. A run
// with nothing to emit is a caller mistake, not an empty manifest.
var ErrNoEntries = errors.New("no entries registered")

// Result is the finalized chunk graph handed to the renderer: chunk
// membership, emission order, load edges and patch markers. Everything
// downstream works from it: the renderer turns it into file contents, the
// naming layer into filenames.
type Result struct {
	Registry *vgraph.Registry

	// Chunks in manifest order: entries first (caller order), then split
	// and common chunks in allocation order.
	Chunks []*Chunk

	// Pruned lists split points never reached by an entry walk. They
	// produce no chunk, no file and no hash.
	Pruned []vgraph.Root

	chunkOf map[vgraph.ID]int
	loads   map[int][]LoadEdge
	loaders map[int][]int
	patched map[vgraph.ID]bool
}

// Run executes one full chunking pass: reachability analysis over all
// roots, chunk assignment, and cycle resolution. The returned Result is
// immutable; a new run starts from a fresh registry.
func Run(reg *vgraph.Registry, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if len(reg.Entries()) == 0 {
		return nil, ErrNoEntries
	}

	an := analyze(reg)
	logger.Debug("analyzed reachability",
		"nodes", reg.Len(),
		"roots", len(an.roots),
		"pruned_splits", len(an.pruned),
		"back_edges", len(an.backEdges))

	p, err := assign(reg, an)
	if err != nil {
		return nil, err
	}

	patched, err := resolve(p)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Registry: reg,
		Pruned:   an.pruned,
		chunkOf:  make(map[vgraph.ID]int),
		loads:    make(map[int][]LoadEdge),
		loaders:  make(map[int][]int),
		patched:  patched,
	}

	// Compact away merged chunks and reindex.
	remap := make(map[int]int)
	for _, c := range p.chunks {
		if c.merged >= 0 {
			continue
		}
		remap[c.Index] = len(res.Chunks)
		c.Index = len(res.Chunks)
		res.Chunks = append(res.Chunks, c)
	}
	for id, old := range p.chunkOf {
		res.chunkOf[id] = remap[old]
	}
	for from, tos := range p.loads {
		nf, ok := remap[from]
		if !ok {
			continue
		}
		for to, deferred := range tos {
			nt := remap[to]
			res.loads[nf] = append(res.loads[nf], LoadEdge{To: nt, Deferred: deferred})
			res.loaders[nt] = append(res.loaders[nt], nf)
		}
	}
	for i := range res.loads {
		slices.SortFunc(res.loads[i], func(a, b LoadEdge) int { return a.To - b.To })
	}
	for i := range res.loaders {
		slices.Sort(res.loaders[i])
	}

	logger.Debug("assigned chunks",
		"chunks", len(res.Chunks),
		"patched_nodes", len(res.patched))
	return res, nil
}

// ChunkOf returns the index of the chunk holding the node's content.
func (r *Result) ChunkOf(id vgraph.ID) (int, bool) {
	c, ok := r.chunkOf[id]
	return c, ok
}

// Loads returns the chunks the given chunk must load from, sorted by index.
func (r *Result) Loads(i int) []LoadEdge { return r.loads[i] }

// Loaders returns the chunks that load from the given chunk.
func (r *Result) Loaders(i int) []int { return r.loaders[i] }

// Patched reports whether the node must be emitted with the
// forward-declare-and-patch strategy: a placeholder binding first, the real
// content applied after its cycle partners are constructed.
func (r *Result) Patched(id vgraph.ID) bool { return r.patched[id] }

// EmitOrder returns the chunk's nodes in emission order: dependencies
// before dependents, so that every non-patched reference is already bound
// when its referencer's content is constructed.
func (r *Result) EmitOrder(i int) []vgraph.ID {
	nodes := r.Chunks[i].Nodes
	out := make([]vgraph.ID, len(nodes))
	for j, id := range nodes {
		out[len(nodes)-1-j] = id
	}
	return out
}

// Salt returns the identity salt for a chunk: the lowest discovery index
// among its exports. Two chunks with byte-identical rendered content hash
// differently because their members were discovered at different points.
func (r *Result) Salt(i int) int {
	salt := int(r.Chunks[i].Exports[0])
	for _, id := range r.Chunks[i].Exports[1:] {
		if int(id) < salt {
			salt = int(id)
		}
	}
	return salt
}
