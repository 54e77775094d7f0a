package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/config"
	"github.com/mhalvorsen/anvilvcs/internal/repo"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	root := t.TempDir()
	r, err := repo.Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	metaDir := filepath.Join(root, repo.MetaDirName)
	if err := config.Set(metaDir, "user.name", "Ada", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := config.Set(metaDir, "user.email", "ada@example.com", false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// HEAD starts out empty until the first commit (spec.md §3); seed one
	// so newTestServer's caller sees a checked-out "master" right away.
	if err := os.WriteFile(filepath.Join(root, "seed.txt"), []byte("seed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := r.Add("seed.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("initial commit"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err := NewServer(root)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.repo.Close() })
	return s
}

func TestSnapshotReflectsCleanRepository(t *testing.T) {
	s := newTestServer(t)

	snap := s.snapshot()
	if snap.Branch != "master" {
		t.Fatalf("snapshot Branch = %q, want %q", snap.Branch, "master")
	}
	if snap.Detached {
		t.Fatal("expected non-detached HEAD right after Init")
	}
	if !snap.Clean {
		t.Fatalf("expected clean snapshot, got changes: %+v", snap.Changes)
	}
	if len(snap.Log) != 1 {
		t.Fatalf("snapshot Log has %d entries, want 1 (initial commit)", len(snap.Log))
	}
}

func TestSnapshotRendersMarkdownMessage(t *testing.T) {
	s := newTestServer(t)

	if err := os.WriteFile(filepath.Join(s.root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.repo.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.repo.Commit("**bold** message"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	snap := s.snapshot()
	if len(snap.Log) != 2 {
		t.Fatalf("snapshot Log has %d entries, want 2", len(snap.Log))
	}
	if !contains(snap.Log[0].MessageHTML, "<strong>bold</strong>") {
		t.Fatalf("MessageHTML = %q, want rendered <strong>", snap.Log[0].MessageHTML)
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
