// Package split implements the chunking core: deciding how many output
// files a value graph becomes, which file holds each value, how the files
// reference one another, and how reference cycles are broken.
//
// A run proceeds in three passes over a [vgraph.Registry]:
//
//  1. Reachability: depth-first walks from every root (entries in caller
//     order, then split points in registration order) record each node's
//     ordered reaching-root set and detect cyclic back-edges. Split points
//     no entry can reach are pruned.
//  2. Assignment: nodes reached by a single root inline into that root's
//     chunk; explicit split points are force-extracted; a shared node whose
//     value is some root's own export is hosted by the first such root;
//     remaining shared nodes are grouped by identical referencer set or
//     chained into their own chunks.
//  3. Cycle resolution: back-edges inside one chunk become
//     forward-declare-and-patch plans; back-edges across chunks become load
//     edges, and any synchronous load cycle forces the implicated chunks to
//     merge. Deferred (async split) boundaries may close cycles legally.
//
// The output is a [Result]: the finalized chunk graph the renderer and the
// naming layer consume.
package split
