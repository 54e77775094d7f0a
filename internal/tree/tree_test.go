package tree

import (
	"math/rand"
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"pgregory.net/rapid"
)

func refFor(s string) BlobRef {
	return BlobRef{ContentHash: objhash.HashBytes([]byte(s))}
}

func TestInsertIsIdempotent(t *testing.T) {
	d := New()
	d.Insert("a.txt", refFor("one"))
	d.Insert("a.txt", refFor("two"))

	got, ok := d.Get("a.txt")
	if !ok {
		t.Fatal("expected entry")
	}
	if got != refFor("one") {
		t.Fatal("Insert must preserve the existing entry")
	}
}

func TestUpsertReplaces(t *testing.T) {
	d := New()
	d.Insert("a.txt", refFor("one"))
	d.Upsert("a.txt", refFor("two"))

	got, _ := d.Get("a.txt")
	if got != refFor("two") {
		t.Fatal("Upsert must replace the existing entry")
	}
}

func TestAddThenRemoveIsNoop(t *testing.T) {
	d := New()
	before := d.Hash()
	d.Upsert("a.txt", refFor("x"))
	d.Remove("a.txt")
	after := d.Hash()
	if before != after {
		t.Fatalf("add+remove changed the hash: %s != %s", before, after)
	}
}

func TestHashStableUnderInsertionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		type pair struct {
			path string
			ref  BlobRef
		}
		pairs := make([]pair, 0, n)
		seen := map[string]bool{}
		for i := 0; i < n; i++ {
			p := rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8}){0,2}`).Draw(t, "path")
			if seen[p] {
				continue
			}
			seen[p] = true
			content := rapid.SliceOf(rapid.Byte()).Draw(t, "content")
			pairs = append(pairs, pair{p, BlobRef{ContentHash: objhash.HashBytes(content)}})
		}

		d1 := New()
		for _, p := range pairs {
			d1.Upsert(p.path, p.ref)
		}

		shuffled := append([]pair(nil), pairs...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		d2 := New()
		for _, p := range shuffled {
			d2.Upsert(p.path, p.ref)
		}

		if d1.Hash() != d2.Hash() {
			t.Fatalf("hash depends on insertion order: %s != %s", d1.Hash(), d2.Hash())
		}
	})
}

func TestEntriesAreSorted(t *testing.T) {
	d := New()
	d.Upsert("z.txt", refFor("z"))
	d.Upsert("a.txt", refFor("a"))
	d.Upsert("m.txt", refFor("m"))

	entries := d.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Path >= entries[i].Path {
			t.Fatalf("entries not sorted: %v", entries)
		}
	}
}
