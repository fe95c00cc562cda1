package vgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned by [Registry.Intern] when the identity key is
	// empty. Every value must carry a non-empty identity.
	ErrEmptyKey = errors.New("identity key must not be empty")

	// ErrUnknownNode is returned when an operation references a node ID that
	// was never interned in the registry.
	ErrUnknownNode = errors.New("unknown node")

	// ErrEmptyEntryName is returned by [Registry.AddEntry] when the entry
	// name is empty. Entries name output files and must be non-empty.
	ErrEmptyEntryName = errors.New("entry name must not be empty")

	// ErrDuplicateEntryName is returned by [Registry.AddEntry] when an entry
	// with the same name was already registered for this run.
	ErrDuplicateEntryName = errors.New("duplicate entry name")

	// ErrDuplicateSplit is returned by [Registry.AddSplit] when the node was
	// already registered as a split point in this run.
	ErrDuplicateSplit = errors.New("node already registered as split point")
)

// ID identifies a node in the registry arena. IDs are dense integer indices
// assigned in discovery order, so a lower ID always means the value was
// encountered earlier in the run.
type ID int

// Invalid is the zero-like ID for "no node".
const Invalid ID = -1

// Ref is a single outgoing reference from a node's content to another node.
// Path records the access path used to reach the target (a property key or
// array index) and is carried through to the emitted patch assignments.
type Ref struct {
	Path string
	To   ID
}

// Node is one distinct value identity in the serialization graph.
//
// Content is the opaque rendered content supplied by the renderer. The core
// never interprets it beyond hashing; reference slots inside it are resolved
// by the renderer against the expressions the chunk assignment produces.
type Node struct {
	ID      ID
	Key     string // producer-side identity key (unique per run)
	Content string
	Refs    []Ref
}

// Mode selects how a split point's chunk is loaded by its referencers.
type Mode int

const (
	// ModeSync loads the split chunk with a direct synchronous reference.
	ModeSync Mode = iota
	// ModeAsync wraps every use site in a zero-argument thunk that performs
	// a dynamic load on invocation. Async boundaries may legally close
	// cross-chunk cycles.
	ModeAsync
)

// String returns "sync" or "async".
func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "sync"
}

// RootKind distinguishes entries from split points.
type RootKind int

const (
	// RootEntry is a named top-level binding. Entries always materialize an
	// output file.
	RootEntry RootKind = iota
	// RootSplit is an explicitly requested extraction point. Split points
	// materialize a file only when some entry walk reaches them.
	RootSplit
)

// Root is a named binding into the value graph seeding a reachability walk.
type Root struct {
	Kind RootKind
	Name string // entry name, or optional split name ("" = anonymous)
	Mode Mode   // split points only; entries are always sync
	Node ID
}

// Named reports whether the root carries an explicit name.
func (r Root) Named() bool { return r.Name != "" }

// Registry is the per-run node arena and root table. It assigns stable
// identity to each distinct value encountered during traversal and memoizes
// visited state, so a value is analyzed once no matter how many times it is
// referenced.
//
// A Registry belongs to exactly one serialization run. Split-point
// registrations live here rather than in process-wide state, so concurrent
// runs never observe each other's roots.
//
// The zero value is not usable - use New.
type Registry struct {
	nodes   []*Node
	byKey   map[string]ID
	entries []Root
	splits  []Root
	splitAt map[ID]int // node ID -> index into splits
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byKey:   make(map[string]ID),
		splitAt: make(map[ID]int),
	}
}

// Intern returns the node ID for the given identity key, allocating a new
// node on first sight. The second return value reports whether the node was
// newly created, which callers use as the "already visited" signal.
func (r *Registry) Intern(key string) (ID, bool, error) {
	if key == "" {
		return Invalid, false, ErrEmptyKey
	}
	if id, ok := r.byKey[key]; ok {
		return id, false, nil
	}
	id := ID(len(r.nodes))
	r.nodes = append(r.nodes, &Node{ID: id, Key: key})
	r.byKey[key] = id
	return id, true, nil
}

// SetContent attaches the renderer-supplied content and ordered reference
// list to a node. Refs targeting unknown nodes are rejected.
func (r *Registry) SetContent(id ID, content string, refs []Ref) error {
	n, ok := r.node(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	for _, ref := range refs {
		if _, ok := r.node(ref.To); !ok {
			return fmt.Errorf("%w: ref %q -> %d", ErrUnknownNode, ref.Path, ref.To)
		}
	}
	n.Content = content
	n.Refs = refs
	return nil
}

// AddEntry registers a named entry rooted at the given node. Entry order is
// significant: it is the walk order and the manifest order.
func (r *Registry) AddEntry(name string, id ID) error {
	if name == "" {
		return ErrEmptyEntryName
	}
	for _, e := range r.entries {
		if e.Name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateEntryName, name)
		}
	}
	if _, ok := r.node(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	r.entries = append(r.entries, Root{Kind: RootEntry, Name: name, Node: id})
	return nil
}

// AddSplit registers a split point at the given node. The name may be empty
// (anonymous split). Registering the same node twice is an error: the caller
// already holds a handle to the first registration.
func (r *Registry) AddSplit(id ID, name string, mode Mode) error {
	if _, ok := r.node(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if _, dup := r.splitAt[id]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateSplit, id)
	}
	r.splitAt[id] = len(r.splits)
	r.splits = append(r.splits, Root{Kind: RootSplit, Name: name, Mode: mode, Node: id})
	return nil
}

// Node returns the node with the given ID, or false if out of range.
func (r *Registry) Node(id ID) (*Node, bool) { return r.node(id) }

func (r *Registry) node(id ID) (*Node, bool) {
	if id < 0 || int(id) >= len(r.nodes) {
		return nil, false
	}
	return r.nodes[id], true
}

// Lookup returns the node registered under the identity key.
func (r *Registry) Lookup(key string) (*Node, bool) {
	id, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return r.nodes[id], true
}

// Len returns the number of interned nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// Entries returns the registered entries in caller order.
func (r *Registry) Entries() []Root { return r.entries }

// Splits returns the registered split points in registration order.
func (r *Registry) Splits() []Root { return r.splits }

// SplitAt returns the split point registered at the node, if any.
func (r *Registry) SplitAt(id ID) (Root, bool) {
	i, ok := r.splitAt[id]
	if !ok {
		return Root{}, false
	}
	return r.splits[i], true
}

// Roots returns all roots in walk order: entries first in caller order,
// then split points in registration order.
func (r *Registry) Roots() []Root {
	out := make([]Root, 0, len(r.entries)+len(r.splits))
	out = append(out, r.entries...)
	out = append(out, r.splits...)
	return out
}
