package graph

import (
	"encoding/json"
	"fmt"

	"github.com/splitkit/splitkit/pkg/core/vgraph"
	"github.com/splitkit/splitkit/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Split modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// =============================================================================
// Graph - Value Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for value graphs: the input of
// one split run. Used for files, API requests, storage and caching.
//
// The format is designed for round-trip fidelity: import → split → export →
// re-import produces identical chunk assignments.
type Graph struct {
	Nodes   []Node  `json:"nodes" bson:"nodes"`
	Entries []Entry `json:"entries" bson:"entries"`
	Splits  []Split `json:"splits,omitempty" bson:"splits,omitempty"`
}

// Node is one distinct value identity: opaque rendered content plus its
// ordered outgoing references. Keys are caller-chosen and unique. Content
// refers to its i-th outgoing edge with a ${r<i>} placeholder.
type Node struct {
	Key     string `json:"key" bson:"key"`
	Content string `json:"content" bson:"content"`
	Refs    []Ref  `json:"refs,omitempty" bson:"refs,omitempty"`
}

// Ref is one outgoing reference edge, tagged with the access path used to
// reach the target (property key, array index).
type Ref struct {
	Path string `json:"path" bson:"path"`
	To   string `json:"to" bson:"to"`
}

// Entry names a root value that always materializes an output file.
type Entry struct {
	Name string `json:"name" bson:"name"`
	Node string `json:"node" bson:"node"`
}

// Split requests extraction of a node into its own file. Anonymous splits
// leave Name empty; Mode defaults to sync.
type Split struct {
	Node string `json:"node" bson:"node"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
	Mode string `json:"mode,omitempty" bson:"mode,omitempty"`
}

// =============================================================================
// Conversion
// =============================================================================

// parseMode maps the wire mode string to the registry's mode.
func parseMode(s string) (vgraph.Mode, error) {
	switch s {
	case "", ModeSync:
		return vgraph.ModeSync, nil
	case ModeAsync:
		return vgraph.ModeAsync, nil
	default:
		return vgraph.ModeSync, fmt.Errorf("unknown split mode %q", s)
	}
}

// ToRegistry interns the serialized graph into a fresh per-run registry.
// Node order fixes discovery order, so a round-tripped graph splits
// identically.
func ToRegistry(g Graph) (*vgraph.Registry, error) {
	reg := vgraph.New()

	for _, n := range g.Nodes {
		if _, _, err := reg.Intern(n.Key); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Key, err)
		}
	}
	for _, n := range g.Nodes {
		node, _ := reg.Lookup(n.Key)
		refs := make([]vgraph.Ref, len(n.Refs))
		for i, r := range n.Refs {
			target, ok := reg.Lookup(r.To)
			if !ok {
				return nil, fmt.Errorf("node %q: ref %q targets unknown node %q", n.Key, r.Path, r.To)
			}
			refs[i] = vgraph.Ref{Path: r.Path, To: target.ID}
		}
		if err := reg.SetContent(node.ID, n.Content, refs); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Key, err)
		}
	}

	for _, e := range g.Entries {
		// Entry names flow into [name] filename tokens; reject anything
		// that could escape the output directory.
		if err := errors.ValidateName(e.Name); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}
		node, ok := reg.Lookup(e.Node)
		if !ok {
			return nil, fmt.Errorf("entry %q: unknown node %q", e.Name, e.Node)
		}
		if err := reg.AddEntry(e.Name, node.ID); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}
	}
	for _, s := range g.Splits {
		if s.Name != "" {
			if err := errors.ValidateName(s.Name); err != nil {
				return nil, fmt.Errorf("split %q: %w", s.Name, err)
			}
		}
		node, ok := reg.Lookup(s.Node)
		if !ok {
			return nil, fmt.Errorf("split %q: unknown node %q", s.Name, s.Node)
		}
		mode, err := parseMode(s.Mode)
		if err != nil {
			return nil, err
		}
		if err := reg.AddSplit(node.ID, s.Name, mode); err != nil {
			return nil, fmt.Errorf("split on node %q: %w", s.Node, err)
		}
	}

	return reg, nil
}

// FromRegistry exports a registry back to the wire format, nodes in
// discovery order.
func FromRegistry(reg *vgraph.Registry) Graph {
	var g Graph

	for id := vgraph.ID(0); int(id) < reg.Len(); id++ {
		n, _ := reg.Node(id)
		node := Node{Key: n.Key, Content: n.Content}
		for _, r := range n.Refs {
			target, _ := reg.Node(r.To)
			node.Refs = append(node.Refs, Ref{Path: r.Path, To: target.Key})
		}
		g.Nodes = append(g.Nodes, node)
	}

	for _, e := range reg.Entries() {
		n, _ := reg.Node(e.Node)
		g.Entries = append(g.Entries, Entry{Name: e.Name, Node: n.Key})
	}
	for _, s := range reg.Splits() {
		n, _ := reg.Node(s.Node)
		mode := ModeSync
		if s.Mode == vgraph.ModeAsync {
			mode = ModeAsync
		}
		g.Splits = append(g.Splits, Split{Node: n.Key, Name: s.Name, Mode: mode})
	}

	return g
}

// UnmarshalGraph parses JSON bytes into a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("decode: %w", err)
	}
	return g, nil
}
