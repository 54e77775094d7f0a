// Package worktree adapts the working directory to and from the
// Directory model: reading file content for staging/commit, and
// materializing a Directory's content back onto disk for checkout
// (spec.md §4.6 "Checkout").
//
// Grounded on the teacher's internal/workspace.Materializer, which
// walks the working directory (skipping the metadata directory),
// reads file content, and applies an add/modify/remove diff back onto
// disk. This package keeps that shape but drops workspace's
// auto-shelving, stash, and HAMT-backed index machinery, none of which
// spec.md's flat staging/checkout model needs.
package worktree

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/objstore"
	"github.com/mhalvorsen/anvilvcs/internal/tree"
	"github.com/mhalvorsen/anvilvcs/internal/vcserr"
)

// Tree adapts filesystem operations for a single working directory root.
type Tree struct {
	root    string
	metaDir string // absolute path to the repo's metadata directory, always skipped
}

// New creates a Tree rooted at root, treating metaDir as the
// repository's metadata directory to exclude from scans and checkouts.
func New(root, metaDir string) *Tree {
	return &Tree{root: root, metaDir: metaDir}
}

// Root returns the working directory root.
func (t *Tree) Root() string { return t.root }

// ValidatePath rejects paths that would escape the working directory or
// collide with the metadata directory (spec.md §7 InvalidPath).
func (t *Tree) ValidatePath(relPath string) error {
	clean := tree.NormalizePath(relPath)
	if clean == "" || strings.HasPrefix(clean, "/") || strings.Contains(clean, "../") || clean == ".." {
		return &vcserr.InvalidPathError{Path: relPath, Reason: "path escapes the working directory"}
	}
	if clean == filepath.Base(t.metaDir) || strings.HasPrefix(clean, filepath.Base(t.metaDir)+"/") {
		return &vcserr.InvalidPathError{Path: relPath, Reason: "path is inside the metadata directory"}
	}
	return nil
}

// ReadFile reads a tracked file's content relative to root.
func (t *Tree) ReadFile(relPath string) ([]byte, error) {
	if err := t.ValidatePath(relPath); err != nil {
		return nil, err
	}
	full := filepath.Join(t.root, relPath)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, vcserr.NewIOError(full, err)
	}
	return data, nil
}

// Scan walks the working directory, skipping the metadata directory,
// and returns every regular file's repo-relative path, sorted.
func (t *Tree) Scan() ([]string, error) {
	var paths []string
	metaBase := filepath.Base(t.metaDir)

	err := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return err
		}
		rel = tree.NormalizePath(rel)
		if rel == metaBase || strings.HasPrefix(rel, metaBase+"/") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, vcserr.NewIOError(t.root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// StoreFile hashes and persists a working-tree file's current content
// into store, returning the resulting BlobRef.
func (t *Tree) StoreFile(relPath string, store objstore.Store) (tree.BlobRef, error) {
	data, err := t.ReadFile(relPath)
	if err != nil {
		return tree.BlobRef{}, err
	}
	h, err := objstore.PutBytes(store, data)
	if err != nil {
		return tree.BlobRef{}, err
	}
	return tree.BlobRef{ContentHash: h}, nil
}

// Checkout materializes target onto disk, writing added/changed paths
// and removing paths that existed in previous but not in target
// (spec.md §4.6: "checkout only ever removes paths that belonged to the
// previous commit's tree; it never touches untracked files").
//
// previous may be nil for a checkout from an empty repository.
func (t *Tree) Checkout(store objstore.Store, previous, target *tree.Directory) error {
	targetEntries := target.Entries()
	wanted := make(map[string]objhash.Hash, len(targetEntries))
	for _, e := range targetEntries {
		wanted[e.Path] = e.Ref.ContentHash
	}

	for _, e := range targetEntries {
		data, err := store.Get(e.Ref.ContentHash)
		if err != nil {
			return err
		}
		full := filepath.Join(t.root, e.Path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return vcserr.NewIOError(full, err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			return vcserr.NewIOError(full, err)
		}
	}

	if previous != nil {
		for _, e := range previous.Entries() {
			if _, stillWanted := wanted[e.Path]; stillWanted {
				continue
			}
			full := filepath.Join(t.root, e.Path)
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return vcserr.NewIOError(full, err)
			}
			removeEmptyParents(t.root, filepath.Dir(full))
		}
	}

	return nil
}

func removeEmptyParents(root, dir string) {
	for dir != root && dir != "." && dir != string(filepath.Separator) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
