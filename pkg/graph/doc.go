// Package graph provides serialization types for value graphs.
//
// This package defines the canonical wire format for splitkit's input data,
// used for JSON files, API requests, caching, and manifest archival.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Graph], [Node], [Entry], [Split]: Serialization types (this package)
//   - pkg/core/vgraph.Registry: Internal per-run graph representation
//
// Use [ToRegistry]/[FromRegistry] to convert between them.
//
// # Graph Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [
//	    {"key": "app", "content": "{\"shared\":${r0}}", "refs": [{"path": "shared", "to": "lib"}]},
//	    {"key": "lib", "content": "{\"v\":1}"}
//	  ],
//	  "entries": [{"name": "main", "node": "app"}],
//	  "splits": [{"node": "lib", "name": "vendor", "mode": "async"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("values.json")   // File → Graph
//	graph.WriteGraphFile(g, "output.json")       // Graph → File
//	data, _ := graph.MarshalGraph(g)             // Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)      // []byte → Graph
//	reg, _ := graph.ToRegistry(g)                // Graph → Registry
//
// # Determinism
//
// Node order in the nodes array fixes discovery order, which decides host
// tie-breaks and hash salts. Serializing and re-importing a graph therefore
// reproduces the exact same chunk assignment and filenames.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
