package branch

import (
	"path/filepath"
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndResolve(t *testing.T) {
	s := newStore(t)
	h := objhash.HashBytes([]byte("commit-1"))

	if err := s.Create("main", h); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Resolve("main")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != h {
		t.Fatalf("Resolve() = %s, want %s", got, h)
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	s := newStore(t)
	h := objhash.HashBytes([]byte("commit-1"))
	if err := s.Create("main", h); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create("main", h); err == nil {
		t.Fatal("expected error creating duplicate branch")
	}
}

func TestUpdateRequiresExisting(t *testing.T) {
	s := newStore(t)
	h := objhash.HashBytes([]byte("commit-1"))
	if err := s.Update("missing", h); err == nil {
		t.Fatal("expected error updating nonexistent branch")
	}
}

func TestHeadBranchRoundTrip(t *testing.T) {
	s := newStore(t)
	if err := s.SetHeadToBranch("main"); err != nil {
		t.Fatalf("SetHeadToBranch: %v", err)
	}
	head, err := s.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if head.IsDetached() || head.Branch != "main" {
		t.Fatalf("ReadHead() = %+v, want branch main", head)
	}
}

func TestHeadDetachedRoundTrip(t *testing.T) {
	s := newStore(t)
	h := objhash.HashBytes([]byte("commit-1"))
	if err := s.SetHeadDetached(h); err != nil {
		t.Fatalf("SetHeadDetached: %v", err)
	}
	head, err := s.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if !head.IsDetached() || head.Detached != h {
		t.Fatalf("ReadHead() = %+v, want detached %s", head, h)
	}
}

func TestCurrentCommitFollowsBranch(t *testing.T) {
	s := newStore(t)
	h := objhash.HashBytes([]byte("commit-1"))
	if err := s.Create("main", h); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SetHeadToBranch("main"); err != nil {
		t.Fatalf("SetHeadToBranch: %v", err)
	}
	got, err := s.CurrentCommit()
	if err != nil {
		t.Fatalf("CurrentCommit: %v", err)
	}
	if got != h {
		t.Fatalf("CurrentCommit() = %s, want %s", got, h)
	}
}

func TestListSorted(t *testing.T) {
	s := newStore(t)
	h := objhash.HashBytes([]byte("c"))
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Create(name, h); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("List() = %v, want %v", names, want)
		}
	}
}

func TestAncestryCacheRoundTrip(t *testing.T) {
	s := newStore(t)
	commit := objhash.HashBytes([]byte("c"))
	p1 := objhash.HashBytes([]byte("p1"))
	p2 := objhash.HashBytes([]byte("p2"))

	if err := s.CacheParents(commit, []objhash.Hash{p1, p2}); err != nil {
		t.Fatalf("CacheParents: %v", err)
	}

	got, ok, err := s.CachedParents(commit)
	if err != nil {
		t.Fatalf("CachedParents: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != p1 || got[1] != p2 {
		t.Fatalf("CachedParents() = %v, want [%s %s]", got, p1, p2)
	}
}

func TestAncestryCacheMiss(t *testing.T) {
	s := newStore(t)
	_, ok, err := s.CachedParents(objhash.HashBytes([]byte("unknown")))
	if err != nil {
		t.Fatalf("CachedParents: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestAncestryCacheDBPath(t *testing.T) {
	s := newStore(t)
	commit := objhash.HashBytes([]byte("c"))
	if err := s.CacheParents(commit, nil); err != nil {
		t.Fatalf("CacheParents: %v", err)
	}
	if s.db == nil {
		t.Fatal("expected ancestry.db to be lazily opened")
	}
	if filepath.Base(s.db.Path()) != ancestryDBName {
		t.Fatalf("db path = %s, want basename %s", s.db.Path(), ancestryDBName)
	}
}
