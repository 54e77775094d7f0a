package ancestry

import (
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/vcommit"
	"github.com/mhalvorsen/anvilvcs/internal/vcserr"
)

// fakeGraph is a small in-memory commit graph for testing ancestry
// walks without needing the object store or codec layers.
type fakeGraph map[objhash.Hash]vcommit.Commit

func (g fakeGraph) lookup(h objhash.Hash) (vcommit.Commit, error) {
	c, ok := g[h]
	if !ok {
		return vcommit.Commit{}, vcserr.ErrNotARepository
	}
	return c, nil
}

func hashFor(s string) objhash.Hash { return objhash.HashBytes([]byte(s)) }

// buildLinearHistory builds root -> c1 -> c2 -> c3.
func buildLinearHistory() (fakeGraph, objhash.Hash, objhash.Hash, objhash.Hash, objhash.Hash) {
	g := fakeGraph{}
	root := hashFor("root")
	g[root] = vcommit.Commit{}

	c1 := hashFor("c1")
	g[c1] = vcommit.Commit{Parents: []objhash.Hash{root}}

	c2 := hashFor("c2")
	g[c2] = vcommit.Commit{Parents: []objhash.Hash{c1}}

	c3 := hashFor("c3")
	g[c3] = vcommit.Commit{Parents: []objhash.Hash{c2}}

	return g, root, c1, c2, c3
}

func TestIsAncestorLinear(t *testing.T) {
	g, root, c1, _, c3 := buildLinearHistory()

	ok, err := IsAncestor(g.lookup, root, c3)
	if err != nil {
		t.Fatalf("IsAncestor: %v", err)
	}
	if !ok {
		t.Fatal("expected root to be an ancestor of c3")
	}

	ok, err = IsAncestor(g.lookup, c3, c1)
	if err != nil {
		t.Fatalf("IsAncestor: %v", err)
	}
	if ok {
		t.Fatal("expected c3 not to be an ancestor of c1")
	}
}

func TestLowestCommonAncestorSharedBranch(t *testing.T) {
	g, root, c1, _, _ := buildLinearHistory()

	// Two branches diverging from c1.
	left := hashFor("left")
	g[left] = vcommit.Commit{Parents: []objhash.Hash{c1}}
	right := hashFor("right")
	g[right] = vcommit.Commit{Parents: []objhash.Hash{c1}}

	lca, err := LowestCommonAncestor(g.lookup, left, right)
	if err != nil {
		t.Fatalf("LowestCommonAncestor: %v", err)
	}
	if lca != c1 {
		t.Fatalf("LowestCommonAncestor() = %s, want c1 %s", lca, c1)
	}

	_ = root
}

func TestLowestCommonAncestorSelf(t *testing.T) {
	g, _, c1, _, _ := buildLinearHistory()
	lca, err := LowestCommonAncestor(g.lookup, c1, c1)
	if err != nil {
		t.Fatalf("LowestCommonAncestor: %v", err)
	}
	if lca != c1 {
		t.Fatalf("LowestCommonAncestor(c1, c1) = %s, want %s", lca, c1)
	}
}

func TestLowestCommonAncestorDisjointHistories(t *testing.T) {
	g := fakeGraph{}
	a := hashFor("a-root")
	g[a] = vcommit.Commit{}
	b := hashFor("b-root")
	g[b] = vcommit.Commit{}

	_, err := LowestCommonAncestor(g.lookup, a, b)
	if err != vcserr.ErrNoCommonAncestor {
		t.Fatalf("LowestCommonAncestor() error = %v, want ErrNoCommonAncestor", err)
	}
}

func TestLowestCommonAncestorMergeCommit(t *testing.T) {
	g, _, c1, c2, _ := buildLinearHistory()

	left := hashFor("left")
	g[left] = vcommit.Commit{Parents: []objhash.Hash{c2}}
	right := hashFor("right")
	g[right] = vcommit.Commit{Parents: []objhash.Hash{c2}}

	merge := hashFor("merge")
	g[merge] = vcommit.Commit{Parents: []objhash.Hash{left, right}}

	next := hashFor("next")
	g[next] = vcommit.Commit{Parents: []objhash.Hash{merge}}

	lca, err := LowestCommonAncestor(g.lookup, next, c1)
	if err != nil {
		t.Fatalf("LowestCommonAncestor: %v", err)
	}
	if lca != c1 {
		t.Fatalf("LowestCommonAncestor() = %s, want c1 %s", lca, c1)
	}
}
