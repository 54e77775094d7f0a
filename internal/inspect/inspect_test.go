package inspect

import (
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/objstore"
	"github.com/mhalvorsen/anvilvcs/internal/tree"
)

func refFor(s string) tree.BlobRef {
	return tree.BlobRef{ContentHash: objhash.HashBytes([]byte(s))}
}

func TestDiffDirectoriesClassifiesChanges(t *testing.T) {
	oldDir := tree.New()
	oldDir.Upsert("a.txt", refFor("a"))
	oldDir.Upsert("removed.txt", refFor("gone"))

	newDir := tree.New()
	newDir.Upsert("a.txt", refFor("a2"))
	newDir.Upsert("added.txt", refFor("new"))

	changes := DiffDirectories(oldDir, newDir)
	if len(changes) != 3 {
		t.Fatalf("DiffDirectories() returned %d changes, want 3: %+v", len(changes), changes)
	}

	byPath := map[string]Change{}
	for _, c := range changes {
		byPath[c.Path] = c
	}

	if byPath["a.txt"].Type != Modified {
		t.Fatalf("a.txt classified as %s, want Modified", byPath["a.txt"].Type)
	}
	if byPath["added.txt"].Type != Added {
		t.Fatalf("added.txt classified as %s, want Added", byPath["added.txt"].Type)
	}
	if byPath["removed.txt"].Type != Removed {
		t.Fatalf("removed.txt classified as %s, want Removed", byPath["removed.txt"].Type)
	}
}

func TestComputeStatusCleanWhenIdentical(t *testing.T) {
	d := tree.New()
	d.Upsert("a.txt", refFor("a"))

	status := ComputeStatus(d, d)
	if !status.Clean() {
		t.Fatalf("expected clean status, got %+v", status.Changes)
	}
}

func TestCatReturnsBlobContent(t *testing.T) {
	store := objstore.NewMemStore()
	h, err := objstore.PutBytes(store, []byte("hello"))
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	d := tree.New()
	d.Upsert("a.txt", tree.BlobRef{ContentHash: h})

	data, err := Cat(store, d, "a.txt")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("Cat() = %q, want %q", data, "hello")
	}
}

func TestCatMissingPath(t *testing.T) {
	store := objstore.NewMemStore()
	d := tree.New()
	if _, err := Cat(store, d, "missing.txt"); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestUnifiedDiffEmptyWhenEqual(t *testing.T) {
	if got := UnifiedDiff([]byte("same"), []byte("same"), "a.txt"); got != "" {
		t.Fatalf("UnifiedDiff() = %q, want empty string", got)
	}
}

func TestUnifiedDiffShowsAddedAndRemovedLines(t *testing.T) {
	out := UnifiedDiff([]byte("line1\nline2\n"), []byte("line1\nline3\n"), "a.txt")
	if out == "" {
		t.Fatal("expected non-empty diff")
	}
	if !contains(out, "-line2") || !contains(out, "+line3") {
		t.Fatalf("UnifiedDiff() = %q, missing expected +/- lines", out)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
