package chunklink

import (
	"strings"
	"testing"

	"github.com/splitkit/splitkit/pkg/core/split"
	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

func buildResult(t *testing.T) *split.Result {
	t.Helper()
	r := vgraph.New()
	shared, _, _ := r.Intern("shared")
	app, _, _ := r.Intern("app")
	lazy, _, _ := r.Intern("lazy")
	if err := r.SetContent(shared, `{"v":1}`, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.SetContent(app, `{"s":${r0},"l":${r1}}`, []vgraph.Ref{
		{Path: "s", To: shared},
		{Path: "l", To: lazy},
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetContent(lazy, `{"x":2}`, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.AddEntry("app", app); err != nil {
		t.Fatal(err)
	}
	if err := r.AddSplit(shared, "vendor", vgraph.ModeSync); err != nil {
		t.Fatal(err)
	}
	if err := r.AddSplit(lazy, "lazy", vgraph.ModeAsync); err != nil {
		t.Fatal(err)
	}
	res, err := split.Run(r, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestToDOT(t *testing.T) {
	res := buildResult(t)
	dot := ToDOT(res, Options{})

	if !strings.HasPrefix(dot, "digraph chunks {") {
		t.Errorf("missing digraph header:\n%s", dot)
	}
	for _, want := range []string{
		`"chunk0"`,
		"app (entry)",
		"vendor (split)",
		"lazy (split)",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Deferred load edges are dashed.
	if !strings.Contains(dot, `[style=dashed, label="async"]`) {
		t.Errorf("deferred edge not dashed:\n%s", dot)
	}
}

func TestToDOT_FilenamesAndDetail(t *testing.T) {
	res := buildResult(t)
	names := make([]string, len(res.Chunks))
	for i := range names {
		names[i] = "file" + string(rune('0'+i)) + ".js"
	}
	dot := ToDOT(res, Options{Filenames: names, Detailed: true})

	if !strings.Contains(dot, "file0.js") {
		t.Errorf("DOT missing filename label:\n%s", dot)
	}
	if !strings.Contains(dot, "nodes: ") {
		t.Errorf("DOT missing detail line:\n%s", dot)
	}
}
