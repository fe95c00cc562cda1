package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/splitkit/splitkit/pkg/core/vgraph"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []Node{
			{Key: "shared", Content: `{"v":1}`},
			{Key: "app", Content: `{"s":${r0}}`, Refs: []Ref{{Path: "s", To: "shared"}}},
			{Key: "admin", Content: `{"s":${r0}}`, Refs: []Ref{{Path: "s", To: "shared"}}},
		},
		Entries: []Entry{
			{Name: "app", Node: "app"},
			{Name: "admin", Node: "admin"},
		},
		Splits: []Split{
			{Node: "shared", Name: "vendor", Mode: ModeAsync},
		},
	}
}

func TestToRegistry(t *testing.T) {
	reg, err := ToRegistry(sampleGraph())
	if err != nil {
		t.Fatalf("ToRegistry: %v", err)
	}

	if reg.Len() != 3 {
		t.Errorf("Len = %d, want 3", reg.Len())
	}
	if len(reg.Entries()) != 2 {
		t.Errorf("entries = %d, want 2", len(reg.Entries()))
	}
	sp := reg.Splits()
	if len(sp) != 1 || sp[0].Name != "vendor" || sp[0].Mode != vgraph.ModeAsync {
		t.Errorf("splits = %+v, want async vendor", sp)
	}

	// Discovery order follows node array order.
	shared, ok := reg.Lookup("shared")
	if !ok || shared.ID != 0 {
		t.Errorf("Lookup(shared) = %+v, want node 0", shared)
	}
	app, ok := reg.Lookup("app")
	if !ok || len(app.Refs) != 1 || app.Refs[0].To != 0 {
		t.Errorf("app refs = %+v, want one edge to node 0", app)
	}
}

func TestToRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		g    Graph
	}{
		{"unknown ref target", Graph{
			Nodes:   []Node{{Key: "a", Refs: []Ref{{Path: "x", To: "ghost"}}}},
			Entries: []Entry{{Name: "a", Node: "a"}},
		}},
		{"unknown entry node", Graph{
			Nodes:   []Node{{Key: "a"}},
			Entries: []Entry{{Name: "a", Node: "ghost"}},
		}},
		{"unknown split node", Graph{
			Nodes:   []Node{{Key: "a"}},
			Entries: []Entry{{Name: "a", Node: "a"}},
			Splits:  []Split{{Node: "ghost"}},
		}},
		{"bad split mode", Graph{
			Nodes:   []Node{{Key: "a"}, {Key: "b"}},
			Entries: []Entry{{Name: "a", Node: "a"}},
			Splits:  []Split{{Node: "b", Mode: "eventually"}},
		}},
		{"duplicate entry name", Graph{
			Nodes:   []Node{{Key: "a"}, {Key: "b"}},
			Entries: []Entry{{Name: "a", Node: "a"}, {Name: "a", Node: "b"}},
		}},
		{"empty entry name", Graph{
			Nodes:   []Node{{Key: "a"}},
			Entries: []Entry{{Name: "", Node: "a"}},
		}},
		{"traversal in entry name", Graph{
			Nodes:   []Node{{Key: "a"}},
			Entries: []Entry{{Name: "../escape", Node: "a"}},
		}},
		{"backslash in split name", Graph{
			Nodes:   []Node{{Key: "a"}, {Key: "b"}},
			Entries: []Entry{{Name: "a", Node: "a"}},
			Splits:  []Split{{Node: "b", Name: `vendor\x`}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToRegistry(tt.g); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	reg, err := ToRegistry(sampleGraph())
	if err != nil {
		t.Fatalf("ToRegistry: %v", err)
	}
	out := FromRegistry(reg)

	data1, err := MarshalGraph(sampleGraph())
	if err != nil {
		t.Fatal(err)
	}
	data2, err := MarshalGraph(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data1, data2) {
		t.Errorf("round trip changed the graph:\n%s\nvs\n%s", data1, data2)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	data, err := MarshalGraph(sampleGraph())
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	if !strings.Contains(string(data), `"entries"`) {
		t.Errorf("marshaled output missing entries:\n%s", data)
	}

	g, err := UnmarshalGraph(data)
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Entries) != 2 || len(g.Splits) != 1 {
		t.Errorf("decoded sizes = %d/%d/%d", len(g.Nodes), len(g.Entries), len(g.Splits))
	}
}

func TestUnmarshalGraph_Invalid(t *testing.T) {
	if _, err := UnmarshalGraph([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestReadWriteGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := WriteGraphFile(sampleGraph(), path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(g.Nodes))
	}

	if _, err := ReadGraphFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	_ = os.Remove(path)
}
