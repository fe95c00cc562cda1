// Package chunklink renders the chunk graph of a split run as a node-link
// diagram: one box per output file, one edge per load relationship.
package chunklink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/splitkit/splitkit/pkg/core/split"
)

// Options configures chunk diagram rendering.
type Options struct {
	// Filenames labels each chunk with its resolved filename, indexed like
	// the result's chunks. May be nil.
	Filenames []string

	// Detailed includes member counts and export lists in labels.
	Detailed bool
}

// ToDOT converts a chunk graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Entry chunks are drawn bold, split chunks dashed, common chunks grey.
// Deferred load edges are dashed; synchronous ones solid.
func ToDOT(res *split.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph chunks {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, c := range res.Chunks {
		label := fmtLabel(res, c, opts)
		attrs := fmtAttrs(c, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(c), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range res.Chunks {
		for _, e := range res.Loads(c.Index) {
			style := ""
			if e.Deferred {
				style = " [style=dashed, label=\"async\"]"
			}
			fmt.Fprintf(&buf, "  %q -> %q%s;\n", nodeID(c), nodeID(res.Chunks[e.To]), style)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(c *split.Chunk) string {
	return fmt.Sprintf("chunk%d", c.Index)
}

func fmtLabel(res *split.Result, c *split.Chunk, opts Options) string {
	name := c.Name
	if name == "" {
		name = c.Kind.String()
	}
	label := fmt.Sprintf("%s (%s)", name, c.Kind)
	if opts.Filenames != nil && c.Index < len(opts.Filenames) {
		label += "\n" + opts.Filenames[c.Index]
	}
	if opts.Detailed {
		label += fmt.Sprintf("\nnodes: %d, exports: %d", len(c.Nodes), len(c.Exports))
	}
	return label
}

func fmtAttrs(c *split.Chunk, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch c.Kind {
	case split.KindEntry:
		attrs = append(attrs, "penwidth=2")
	case split.KindSplit:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	case split.KindCommon:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
