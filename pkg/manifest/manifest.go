// Package manifest defines the output of a split run and its storage.
//
// A [Manifest] is the ordered file set one run produced: one [File] per
// chunk, entries first. Manifests are atomic; either the whole file set is
// written, or nothing is.
//
// The [Store] interface archives manifests for later retrieval, with
// in-memory and MongoDB implementations.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/splitkit/splitkit/pkg/errors"
)

// File is one manifest entry: a single output file of the run.
type File struct {
	Filename string `json:"filename" bson:"filename"`
	Content  string `json:"content" bson:"content"`
	Kind     string `json:"kind" bson:"kind"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
}

// Manifest is the complete file set of one split run.
type Manifest struct {
	RunID     string    `json:"run_id" bson:"run_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Files     []File    `json:"files" bson:"files"`

	// Pruned lists names of split points that produced no file.
	Pruned []string `json:"pruned,omitempty" bson:"pruned,omitempty"`
}

// New creates a manifest with a fresh run ID.
func New(files []File, pruned []string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Files:     files,
		Pruned:    pruned,
	}
}

// File returns the manifest entry with the given filename.
func (m *Manifest) File(filename string) (*File, bool) {
	for i := range m.Files {
		if m.Files[i].Filename == filename {
			return &m.Files[i], true
		}
	}
	return nil, false
}

// WriteDir writes every file of the manifest under dir, creating
// subdirectories as needed. Filenames are validated against traversal
// before anything is written, keeping the all-or-nothing contract.
func (m *Manifest) WriteDir(dir string) error {
	for _, f := range m.Files {
		if err := errors.ValidatePath(f.Filename); err != nil {
			return fmt.Errorf("manifest file %q: %w", f.Filename, err)
		}
	}
	for _, f := range m.Files {
		path := filepath.Join(dir, f.Filename)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
