package vgraph

import (
	"errors"
	"testing"
)

func TestIntern_AssignsDiscoveryOrder(t *testing.T) {
	r := New()

	a, fresh, err := r.Intern("a")
	if err != nil {
		t.Fatalf("Intern(a) error: %v", err)
	}
	if !fresh {
		t.Error("Intern(a) should report a new node")
	}
	b, _, _ := r.Intern("b")

	if a != 0 || b != 1 {
		t.Errorf("IDs = %d, %d, want 0, 1", a, b)
	}
}

func TestIntern_MemoizesByKey(t *testing.T) {
	r := New()
	a1, _, _ := r.Intern("a")
	a2, fresh, err := r.Intern("a")
	if err != nil {
		t.Fatalf("Intern error: %v", err)
	}
	if fresh {
		t.Error("second Intern(a) should not report a new node")
	}
	if a1 != a2 {
		t.Errorf("IDs differ: %d vs %d", a1, a2)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestIntern_EmptyKey(t *testing.T) {
	r := New()
	if _, _, err := r.Intern(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Intern(\"\") error = %v, want ErrEmptyKey", err)
	}
}

func TestSetContent_RejectsUnknownRefTarget(t *testing.T) {
	r := New()
	a, _, _ := r.Intern("a")

	err := r.SetContent(a, "{}", []Ref{{Path: "x", To: 99}})
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetContent error = %v, want ErrUnknownNode", err)
	}
}

func TestAddEntry_DuplicateName(t *testing.T) {
	r := New()
	a, _, _ := r.Intern("a")
	b, _, _ := r.Intern("b")

	if err := r.AddEntry("one", a); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	if err := r.AddEntry("one", b); !errors.Is(err, ErrDuplicateEntryName) {
		t.Errorf("AddEntry duplicate error = %v, want ErrDuplicateEntryName", err)
	}
}

func TestAddSplit_DuplicateNode(t *testing.T) {
	r := New()
	a, _, _ := r.Intern("a")

	if err := r.AddSplit(a, "", ModeAsync); err != nil {
		t.Fatalf("AddSplit error: %v", err)
	}
	if err := r.AddSplit(a, "again", ModeSync); !errors.Is(err, ErrDuplicateSplit) {
		t.Errorf("AddSplit duplicate error = %v, want ErrDuplicateSplit", err)
	}

	sp, ok := r.SplitAt(a)
	if !ok {
		t.Fatal("SplitAt(a) not found")
	}
	if sp.Mode != ModeAsync {
		t.Errorf("split mode = %v, want async", sp.Mode)
	}
}

func TestRoots_OrderEntriesThenSplits(t *testing.T) {
	r := New()
	a, _, _ := r.Intern("a")
	b, _, _ := r.Intern("b")
	c, _, _ := r.Intern("c")

	_ = r.AddSplit(c, "lazy", ModeAsync)
	_ = r.AddEntry("one", a)
	_ = r.AddEntry("two", b)

	roots := r.Roots()
	if len(roots) != 3 {
		t.Fatalf("len(Roots()) = %d, want 3", len(roots))
	}
	if roots[0].Name != "one" || roots[1].Name != "two" {
		t.Errorf("entries out of order: %v", roots)
	}
	if roots[2].Kind != RootSplit || roots[2].Name != "lazy" {
		t.Errorf("split not last: %+v", roots[2])
	}
}
