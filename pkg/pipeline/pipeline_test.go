package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/splitkit/splitkit/pkg/cache"
	"github.com/splitkit/splitkit/pkg/errors"
	"github.com/splitkit/splitkit/pkg/graph"
)

func sharedGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{Key: "shared", Content: `{"v":42}`},
			{Key: "app", Content: `{"s":${r0}}`, Refs: []graph.Ref{{Path: "s", To: "shared"}}},
			{Key: "admin", Content: `{"s":${r0}}`, Refs: []graph.Ref{{Path: "s", To: "shared"}}},
		},
		Entries: []graph.Entry{
			{Name: "app", Node: "app"},
			{Name: "admin", Node: "admin"},
		},
	}
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if o.SourceMap != SourceMapOff {
		t.Errorf("SourceMap = %q, want off", o.SourceMap)
	}
	if o.Logger == nil {
		t.Error("Logger should be defaulted")
	}

	bad := Options{SourceMap: "sometimes"}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("invalid source map should be rejected")
	}

	badPat := Options{EntryPattern: "bundle.js"}
	if err := badPat.ValidateAndSetDefaults(); err == nil {
		t.Error("token-free pattern should be rejected")
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	result, err := r.Execute(ctx, sharedGraph(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.Manifest.Files) != 3 {
		t.Fatalf("files = %d, want 3 (two entries + one common)", len(result.Manifest.Files))
	}
	if result.Stats.NodeCount != 3 || result.Stats.ChunkCount != 3 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash should be set")
	}
	if result.CacheInfo.ManifestHit {
		t.Error("first run should not hit the cache")
	}

	// Entry files keep their stable names under the default pattern.
	if _, ok := result.Manifest.File("app.js"); !ok {
		t.Errorf("missing app.js in manifest: %+v", result.Manifest.Files)
	}

	// Finalized content references real filenames, not tokens.
	for _, f := range result.Manifest.Files {
		if strings.Contains(f.Content, "__chunk") {
			t.Errorf("unfinalized token in %s:\n%s", f.Filename, f.Content)
		}
	}
}

func TestExecute_ManifestCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	first, err := r.Execute(ctx, sharedGraph(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, err := r.Execute(ctx, sharedGraph(), Options{})
	if err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}

	if !second.CacheInfo.ManifestHit {
		t.Error("second run should hit the cache")
	}
	if second.Manifest.RunID != first.Manifest.RunID {
		t.Error("cached run should return the archived manifest")
	}

	// Refresh bypasses the cache and mints a new run.
	third, err := r.Execute(ctx, sharedGraph(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("Execute (refresh): %v", err)
	}
	if third.CacheInfo.ManifestHit {
		t.Error("refresh must not hit the cache")
	}
	if third.Manifest.RunID == first.Manifest.RunID {
		t.Error("refresh should produce a fresh run")
	}
}

func TestExecute_OptionsChangeCacheKey(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	if _, err := r.Execute(ctx, sharedGraph(), Options{}); err != nil {
		t.Fatal(err)
	}
	other, err := r.Execute(ctx, sharedGraph(), Options{SourceMap: SourceMapInline})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheInfo.ManifestHit {
		t.Error("different options must not share a cache entry")
	}
}

func TestExecute_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	// No entries.
	_, err := r.Execute(ctx, graph.Graph{Nodes: []graph.Node{{Key: "a"}}}, Options{})
	if !errors.Is(err, errors.ErrCodeNoEntries) {
		t.Errorf("no-entries error = %v, want NO_ENTRIES", err)
	}

	// Unresolvable synchronous cycle between two entry exports.
	cyclic := graph.Graph{
		Nodes: []graph.Node{
			{Key: "a", Content: `{"b":${r0}}`, Refs: []graph.Ref{{Path: "b", To: "b"}}},
			{Key: "b", Content: `{"a":${r0}}`, Refs: []graph.Ref{{Path: "a", To: "a"}}},
		},
		Entries: []graph.Entry{{Name: "one", Node: "a"}, {Name: "two", Node: "b"}},
	}
	_, err = r.Execute(ctx, cyclic, Options{})
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("cycle error = %v, want CYCLE_UNRESOLVABLE", err)
	}

	// Split named into an entry's filename.
	conflict := sharedGraph()
	conflict.Splits = []graph.Split{{Node: "shared", Name: "app"}}
	_, err = r.Execute(ctx, conflict, Options{SplitPattern: "[name].js"})
	if !errors.Is(err, errors.ErrCodeNameConflict) {
		t.Errorf("conflict error = %v, want NAME_CONFLICT", err)
	}
}

func TestSplit_Standalone(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	res, err := r.Split(sharedGraph(), Options{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Chunks) != 3 {
		t.Errorf("chunks = %d, want 3", len(res.Chunks))
	}
}
