// Package vgraph defines the per-run value graph: an arena of nodes with
// stable discovery-order identity, their outgoing references, and the roots
// (entries and split points) that seed reachability walks.
//
// The arena uses integer IDs rather than pointers so that cycle handling and
// chunk assignment can keep ownership explicit: a reference is always an
// index plus an access path, never a live object pointer.
package vgraph
