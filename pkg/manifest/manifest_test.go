package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sample() *Manifest {
	return New([]File{
		{Filename: "main.js", Content: "export default 1;\n", Kind: "entry", Name: "main"},
		{Filename: "chunks/common.ab12cd34.js", Content: "export default 2;\n", Kind: "common"},
	}, []string{"never-loaded"})
}

func TestNew_AssignsRunID(t *testing.T) {
	m1 := sample()
	m2 := sample()
	if m1.RunID == "" || m1.RunID == m2.RunID {
		t.Errorf("run IDs = %q, %q, want distinct non-empty", m1.RunID, m2.RunID)
	}
	if m1.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestFile_Lookup(t *testing.T) {
	m := sample()
	f, ok := m.File("main.js")
	if !ok || f.Name != "main" {
		t.Errorf("File(main.js) = %+v ok=%v", f, ok)
	}
	if _, ok := m.File("missing.js"); ok {
		t.Error("File should miss for unknown filename")
	}
}

func TestWriteDir(t *testing.T) {
	dir := t.TempDir()
	m := sample()

	if err := m.WriteDir(dir); err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "chunks", "common.ab12cd34.js"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "export default 2;\n" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteDir_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	m := New([]File{
		{Filename: "ok.js", Content: "x"},
		{Filename: "../escape.js", Content: "y"},
	}, nil)

	if err := m.WriteDir(dir); err == nil {
		t.Fatal("expected traversal error")
	}
	// Atomicity: nothing may have been written.
	if _, err := os.Stat(filepath.Join(dir, "ok.js")); !os.IsNotExist(err) {
		t.Error("no file should be written when validation fails")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	m1 := sample()
	m1.CreatedAt = time.Now().Add(-time.Hour)
	m2 := sample()

	if err := s.Save(ctx, m1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, m2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, m1.RunID)
	if err != nil || got.RunID != m1.RunID {
		t.Errorf("Get = %+v, %v", got, err)
	}

	if _, err := s.Get(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}

	list, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].RunID != m2.RunID {
		t.Errorf("List should return newest first, got %d entries", len(list))
	}

	limited, _ := s.List(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("List limit = %d entries, want 1", len(limited))
	}
}
