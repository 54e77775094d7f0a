package objstore

import (
	"path/filepath"
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"pgregory.net/rapid"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "obj"))
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"mem":  NewMemStore(),
		"file": fs,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			rapid.Check(t, func(t *rapid.T) {
				data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
				h := objhash.HashBytes(data)
				if err := store.Put(h, data); err != nil {
					t.Fatalf("Put: %v", err)
				}
				got, err := store.Get(h)
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				if string(got) != string(data) {
					t.Fatalf("round trip mismatch: got %q want %q", got, data)
				}
				has, err := store.Has(h)
				if err != nil || !has {
					t.Fatalf("Has: got (%v, %v), want (true, nil)", has, err)
				}
			})
		})
	}
}

func TestPutIdempotent(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte("idempotence check")
			h := objhash.HashBytes(data)
			if err := store.Put(h, data); err != nil {
				t.Fatal(err)
			}
			if err := store.Put(h, data); err != nil {
				t.Fatalf("second Put should be a no-op, got error: %v", err)
			}
			got, err := store.Get(h)
			if err != nil || string(got) != string(data) {
				t.Fatalf("Get after double Put: %q, %v", got, err)
			}
		})
	}
}

func TestPutRejectsHashMismatch(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			wrong := objhash.HashBytes([]byte("not the data"))
			if err := store.Put(wrong, []byte("actual data")); err == nil {
				t.Fatal("expected hash mismatch error")
			}
		})
	}
}

func TestGetMissingIsError(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			missing := objhash.HashBytes([]byte("never stored"))
			if _, err := store.Get(missing); err == nil {
				t.Fatal("expected error for missing object")
			}
			has, err := store.Has(missing)
			if err != nil {
				t.Fatal(err)
			}
			if has {
				t.Fatal("Has reported true for missing object")
			}
		})
	}
}
