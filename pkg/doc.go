// Package pkg provides the core libraries for splitkit value-graph splitting.
//
// # Overview
//
// Splitkit partitions a graph of named entry values into the minimal set of
// output files that preserves value identity: a value reached from two
// entries is emitted exactly once and imported everywhere else. The pkg
// directory is organized into five main areas:
//
//  1. [core] - Domain logic (value graph, chunk assignment, emission, naming)
//  2. [graph] - Serialization types for value graphs (JSON wire format)
//  3. [pipeline] - Orchestration (split → emit → name) with caching
//  4. [cache], [manifest] - Infrastructure (manifest cache, run archive)
//  5. [render] - Chunk-graph diagrams (Graphviz DOT/SVG)
//
// # Architecture
//
// The typical data flow through splitkit:
//
//	Value graph (JSON)
//	         ↓
//	    [graph] package (intern into a per-run registry)
//	         ↓
//	    [core/split] package (reachability, chunk assignment, cycles)
//	         ↓
//	    [core/emit] package (render chunks to module text)
//	         ↓
//	    [core/naming] package (content hashing, filename patterns)
//	         ↓
//	    Manifest (one file per chunk)
//
// # Quick Start
//
// Split a graph and write the output files:
//
//	import (
//	    "context"
//	    "github.com/splitkit/splitkit/pkg/graph"
//	    "github.com/splitkit/splitkit/pkg/pipeline"
//	)
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), g, pipeline.Options{})
//	result.Manifest.WriteDir("dist")
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/vgraph] - The per-run value registry: identity interning, node
// content with ordered references, entries and split points.
//
// [core/split] - The chunking engine. Walks reachability from every root,
// assigns each node to exactly one chunk (hosted, grouped, or chained),
// and resolves cross-chunk cycles into load edges, merges, or patches.
//
// [core/emit] - Renders each chunk to module text with stable import
// tokens, patched cycle placeholders, and deferred-load thunks.
//
// [core/naming] - Filename patterns ([name], [hash]) and the content hash
// that keys each chunk: text, kind, source-map mode, and identity salt.
//
// ## Serialization
//
// [graph] - The JSON wire format for value graphs and its conversion to and
// from the registry.
//
// ## Infrastructure
//
// [pipeline] - Complete splitting pipeline used by CLI and API. Caches the
// manifest as a pure function of graph + options.
//
// [cache] - Manifest cache backends: file (CLI), memory (tests, LRU), Redis
// (API), null (disabled).
//
// [manifest] - The output file set of a run, plus archive backends (memory,
// MongoDB).
//
// [errors] - Structured error codes shared by CLI and API.
//
// [observability] - Optional instrumentation hooks for pipeline and cache
// events.
//
// ## Visualization
//
// [render/chunklink] - Chunk-graph diagrams using Graphviz: one box per
// output file, dashed edges for deferred loads.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/core/split/...   # Specific package
//
// [core]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/core
// [core/vgraph]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/core/vgraph
// [core/split]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/core/split
// [core/emit]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/core/emit
// [core/naming]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/core/naming
// [graph]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/cache
// [manifest]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/manifest
// [errors]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/errors
// [observability]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/observability
// [render/chunklink]: https://pkg.go.dev/github.com/splitkit/splitkit/pkg/render/chunklink
package pkg
