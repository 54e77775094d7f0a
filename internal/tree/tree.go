// Package tree implements the Directory (tree) model: a deterministic
// mapping from repo-relative path to BlobRef.
//
// This is deliberately a flat map, not a trie. The teacher's
// internal/hamtdir builds a Hash Array Mapped Trie keyed by path segment,
// which produces a hash over the trie's bucket structure; spec.md requires
// a much simpler, trie-free formula (rehash of the sorted (path,
// content_hash) pairs), so this package is a from-scratch sibling that
// keeps hamtdir's vocabulary (Entry, insert-is-idempotent vs.
// upsert-replaces) without its nested-hash algorithm.
package tree

import (
	"sort"
	"strings"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
)

// BlobRef identifies the blob that supplies a path's content. The
// historical format also carried a Name field (spec.md §3, §9 Open
// Question 4); this type never had one and never will, so there is
// nothing to ignore on decode.
type BlobRef struct {
	ContentHash objhash.Hash
}

// Entry is one (path, BlobRef) pair, returned by Directory.Entries in
// sorted order.
type Entry struct {
	Path string
	Ref  BlobRef
}

// Directory is a mapping from forward-slash-normalized relative path to
// BlobRef. The zero value is not usable; use New.
type Directory struct {
	entries map[string]BlobRef
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{entries: make(map[string]BlobRef)}
}

// NormalizePath converts a host path separator into the forward-slash form
// Directory stores paths under.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Contains reports whether path has an entry.
func (d *Directory) Contains(path string) bool {
	_, ok := d.entries[path]
	return ok
}

// Get returns the BlobRef stored at path, if any.
func (d *Directory) Get(path string) (BlobRef, bool) {
	ref, ok := d.entries[path]
	return ref, ok
}

// Insert adds (path, ref) only if path has no existing entry; an existing
// entry is left untouched (spec.md §4.4: "idempotent insert: preserves
// existing entry when present").
func (d *Directory) Insert(path string, ref BlobRef) {
	if _, exists := d.entries[path]; exists {
		return
	}
	d.entries[path] = ref
}

// Upsert adds or replaces the entry at path unconditionally.
func (d *Directory) Upsert(path string, ref BlobRef) {
	d.entries[path] = ref
}

// Remove deletes the entry at path, returning it if present.
func (d *Directory) Remove(path string) (BlobRef, bool) {
	ref, ok := d.entries[path]
	if ok {
		delete(d.entries, path)
	}
	return ref, ok
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Entries returns every (path, BlobRef) pair in ascending path order. This
// ordering is load-bearing: Hash depends on it, per spec.md invariant 5.
func (d *Directory) Entries() []Entry {
	out := make([]Entry, 0, len(d.entries))
	for path, ref := range d.entries {
		out = append(out, Entry{Path: path, Ref: ref})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Hash computes the Directory's content hash:
//
//	rehash_string(concat over path-sorted entries of path ∥ content_hash_hex)
//
// Two Directories with the same (path, content_hash) multiset hash equally
// regardless of insertion order (spec.md invariant 5), since Entries always
// iterates in sorted order.
func (d *Directory) Hash() objhash.Hash {
	var sb strings.Builder
	for _, e := range d.Entries() {
		sb.WriteString(e.Path)
		sb.WriteString(e.Ref.ContentHash.String())
	}
	return objhash.RehashString(sb.String())
}

// FromEntries builds a Directory from a slice of entries, useful when
// reconstructing from a decoded encoding. Later entries in the slice win on
// duplicate paths (decoders are expected to produce no duplicates).
func FromEntries(entries []Entry) *Directory {
	d := New()
	for _, e := range entries {
		d.Upsert(e.Path, e.Ref)
	}
	return d
}
