package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

const sampleGraphJSON = `{
  "nodes": [
    {"key": "shared", "content": "{\"v\":42}"},
    {"key": "app", "content": "{\"s\":${r0}}", "refs": [{"path": "s", "to": "shared"}]},
    {"key": "admin", "content": "{\"s\":${r0}}", "refs": [{"path": "s", "to": "shared"}]}
  ],
  "entries": [
    {"name": "app", "node": "app"},
    {"name": "admin", "node": "admin"}
  ]
}`

func writeSampleGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(sampleGraphJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSplitCommand(t *testing.T) {
	input := writeSampleGraph(t)
	out := filepath.Join(t.TempDir(), "dist")

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"split", input, "-o", out, "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("split: %v", err)
	}

	// Two entries plus one shared chunk.
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("output files = %d, want 3", len(entries))
	}
	if _, err := os.Stat(filepath.Join(out, "app.js")); err != nil {
		t.Errorf("missing app.js: %v", err)
	}
}

func TestSplitCommand_MissingInput(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"split", filepath.Join(t.TempDir(), "nope.json"), "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err == nil {
		t.Error("missing input should fail")
	}
}

func TestGraphValidateCommand(t *testing.T) {
	input := writeSampleGraph(t)

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"graph", "validate", input})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("graph validate: %v", err)
	}
}

func TestGraphValidateCommand_BadRef(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"nodes":[{"key":"a","content":"${r0}","refs":[{"path":"x","to":"missing"}]}],"entries":[{"name":"a","node":"a"}]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"graph", "validate", path})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err == nil {
		t.Error("dangling ref should fail validation")
	}
}
