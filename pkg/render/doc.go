// Package render provides diagram rendering for chunk graphs.
//
// # Overview
//
// This package groups the renderers that turn split results into visual
// outputs. Currently one renderer exists:
//
//   - Chunk-graph diagrams (in [chunklink] subpackage)
//
// # Chunk-Graph Diagrams
//
// The [chunklink] subpackage renders the chunk graph of a split run as a
// node-link diagram using Graphviz. Each output file appears as a box;
// load relationships appear as arrows, dashed when deferred.
//
//	dot := chunklink.ToDOT(res, chunklink.Options{})
//	svg, err := chunklink.RenderSVG(dot)
//
// [chunklink]: github.com/splitkit/splitkit/pkg/render/chunklink
package render
