// Package emit turns a finalized chunk graph into module text. Each chunk
// becomes one ES module: imports for the chunks it loads from, member value
// declarations in dependency order, placeholder-and-patch plumbing for cycle
// members, and a default export reconstructing the chunk's primary value.
//
// Cross-chunk import specifiers are written with stable chunk tokens so the
// text can be hashed before filenames exist; [Finalize] substitutes the
// resolved names afterwards.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/splitkit/splitkit/pkg/core/split"
	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

// Renderer re-renders one node's content given a resolved reference
// expression for each outgoing edge, in edge order. The core treats content
// as opaque; this is the single point where reference slots are filled in.
type Renderer interface {
	Render(n *vgraph.Node, refs []string) (string, error)
}

// TokenRenderer is the default renderer: node content carries ${r0}, ${r1},
// ... placeholders, one per outgoing reference, replaced verbatim.
type TokenRenderer struct{}

func (TokenRenderer) Render(n *vgraph.Node, refs []string) (string, error) {
	if len(refs) != len(n.Refs) {
		return "", fmt.Errorf("node %q: %d resolved refs for %d edges", n.Key, len(refs), len(n.Refs))
	}
	text := n.Content
	for i, expr := range refs {
		text = strings.ReplaceAll(text, fmt.Sprintf("${r%d}", i), expr)
	}
	return text, nil
}

// ChunkToken returns the stable import-specifier token for a chunk index.
func ChunkToken(i int) string { return fmt.Sprintf("__chunk%d__", i) }

func binding(id vgraph.ID) string { return fmt.Sprintf("_v%d", id) }

func groupBinding(chunk int) string { return fmt.Sprintf("_c%d", chunk) }

// Chunks renders every chunk of the result to token-form module text,
// indexed like res.Chunks.
func Chunks(res *split.Result, r Renderer) ([]string, error) {
	if r == nil {
		r = TokenRenderer{}
	}
	texts := make([]string, len(res.Chunks))
	for i := range res.Chunks {
		text, err := renderChunk(res, r, i)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		texts[i] = text
	}
	return texts, nil
}

// Finalize substitutes every chunk token in the rendered texts with its
// resolved filename. Runs after naming, which hashed the token form.
func Finalize(texts, filenames []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		for c, fn := range filenames {
			text = strings.ReplaceAll(text, ChunkToken(c), fn)
		}
		out[i] = text
	}
	return out
}

func renderChunk(res *split.Result, r Renderer, i int) (string, error) {
	c := res.Chunks[i]
	reg := res.Registry

	deferred := make(map[int]bool)
	for _, e := range res.Loads(i) {
		deferred[e.To] = e.Deferred
	}

	// refExpr resolves one reference from this chunk to a target node.
	named := make(map[int]map[vgraph.ID]bool) // sync import needs per chunk
	grouped := make(map[int]bool)             // chunks imported as a whole group
	refExpr := func(to vgraph.ID) string {
		tc, _ := res.ChunkOf(to)
		if tc == i {
			return binding(to)
		}
		if deferred[tc] {
			return fmt.Sprintf(`() => import("./%s").then((m) => m.default)`, ChunkToken(tc))
		}
		if res.Chunks[tc].Grouped() {
			grouped[tc] = true
			return fmt.Sprintf("%s[%d]", groupBinding(tc), res.Chunks[tc].ExportIndex(to))
		}
		if named[tc] == nil {
			named[tc] = make(map[vgraph.ID]bool)
		}
		named[tc][to] = true
		return binding(to)
	}

	// Render member declarations first so the import needs are known.
	var decls strings.Builder
	for _, id := range res.EmitOrder(i) {
		n, ok := reg.Node(id)
		if !ok {
			return "", fmt.Errorf("unknown node %d", id)
		}
		refs := make([]string, len(n.Refs))
		for j, ref := range n.Refs {
			refs[j] = refExpr(ref.To)
		}
		content, err := r.Render(n, refs)
		if err != nil {
			return "", err
		}
		if res.Patched(id) {
			fmt.Fprintf(&decls, "Object.assign(%s, %s);\n", binding(id), content)
		} else {
			fmt.Fprintf(&decls, "const %s = %s;\n", binding(id), content)
		}
	}

	// The default export may pull in one more cross-chunk reference.
	primary := refExpr(c.Exports[0])

	var b strings.Builder
	writeImports(&b, res, named, grouped)

	// Cycle members get their placeholder binding before any declaration,
	// so every reference resolves to the final identity immediately.
	for _, id := range c.Nodes {
		if res.Patched(id) {
			fmt.Fprintf(&b, "const %s = {};\n", binding(id))
		}
	}

	b.WriteString(decls.String())
	writeExports(&b, res, i, primary)
	return b.String(), nil
}

func writeImports(b *strings.Builder, res *split.Result, named map[int]map[vgraph.ID]bool, grouped map[int]bool) {
	var chunks []int
	for tc := range named {
		chunks = append(chunks, tc)
	}
	for tc := range grouped {
		if named[tc] == nil {
			chunks = append(chunks, tc)
		}
	}
	sort.Ints(chunks)

	for _, tc := range chunks {
		if grouped[tc] {
			fmt.Fprintf(b, "import %s from \"./%s\";\n", groupBinding(tc), ChunkToken(tc))
			continue
		}
		var ids []vgraph.ID
		for id := range named[tc] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		specs := make([]string, len(ids))
		for j, id := range ids {
			specs[j] = fmt.Sprintf("v%d as %s", id, binding(id))
		}
		fmt.Fprintf(b, "import { %s } from \"./%s\";\n", strings.Join(specs, ", "), ChunkToken(tc))
	}
}

func writeExports(b *strings.Builder, res *split.Result, i int, primary string) {
	c := res.Chunks[i]

	// Named exports for every member the chunk actually holds, so loaders
	// can bind individual values of merged or hosted chunks.
	var specs []string
	for _, id := range c.Exports {
		if tc, ok := res.ChunkOf(id); ok && tc == i {
			specs = append(specs, fmt.Sprintf("%s as v%d", binding(id), id))
		}
	}
	if len(specs) > 0 {
		fmt.Fprintf(b, "export { %s };\n", strings.Join(specs, ", "))
	}

	switch {
	case c.Grouped():
		members := make([]string, len(c.Exports))
		for j, id := range c.Exports {
			members[j] = binding(id)
		}
		fmt.Fprintf(b, "export default [%s];\n", strings.Join(members, ", "))
	case c.Deferred():
		// Deferred loads resolve to a fixed-shape wrapper: one enumerable,
		// writable, non-configurable value binding plus a hidden type tag.
		fmt.Fprintf(b, "const _m = Object.create(null);\n")
		fmt.Fprintf(b, "Object.defineProperty(_m, \"value\", { value: %s, enumerable: true, writable: true, configurable: false });\n", primary)
		fmt.Fprintf(b, "Object.defineProperty(_m, \"__deferred__\", { value: true, enumerable: false });\n")
		fmt.Fprintf(b, "export default _m;\n")
	default:
		fmt.Fprintf(b, "export default %s;\n", primary)
	}
}
