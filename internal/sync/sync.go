// Package sync implements a thin, best-effort bulk mirror between two
// ".my-dvcs" directories reachable over the local filesystem (spec.md's
// remote-transport collaborator, scoped in SPEC_FULL.md §1 to a
// file-level pull/push rather than a network protocol: "the spec
// explicitly scopes remote conflict semantics out of the core").
//
// Grounded on the teacher's internal/butterfly.Syncer.SyncUp/SyncDown:
// both sides are resolved to a commit hash, a no-op is taken if the
// hashes already match, and otherwise a fast-forward is required —
// this package keeps that fast-forward-only restriction (checked via
// internal/ancestry.IsAncestor) rather than adopting the teacher's
// FastForwardMerge conflict resolver, since spec.md's merge semantics
// belong to internal/merge and a bulk mirror has no working tree to
// apply a three-way merge against.
package sync

import (
	"fmt"
	"path/filepath"

	"github.com/mhalvorsen/anvilvcs/internal/ancestry"
	"github.com/mhalvorsen/anvilvcs/internal/branch"
	"github.com/mhalvorsen/anvilvcs/internal/codec"
	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/objstore"
	"github.com/mhalvorsen/anvilvcs/internal/repo"
	"github.com/mhalvorsen/anvilvcs/internal/vcommit"
)

// ErrNotFastForward reports that a pull or push would need a genuine
// merge (the destination branch has commits the source does not), which
// this package never attempts.
var ErrNotFastForward = fmt.Errorf("sync: destination branch is not a fast-forward ancestor of the source")

// Endpoint is one ".my-dvcs" directory this package can read from or
// write to.
type Endpoint struct {
	metaDir string
	store   *objstore.FileStore
	branch  *branch.Store
}

// Open prepares an Endpoint over the repository rooted at root.
func Open(root string) (*Endpoint, error) {
	metaDir := filepath.Join(root, repo.MetaDirName)
	store, err := objstore.NewFileStore(filepath.Join(metaDir, "obj"))
	if err != nil {
		return nil, err
	}
	branchStore, err := branch.Open(metaDir)
	if err != nil {
		return nil, err
	}
	return &Endpoint{metaDir: metaDir, store: store, branch: branchStore}, nil
}

// Close releases the endpoint's ancestry cache handle.
func (e *Endpoint) Close() error {
	return e.branch.Close()
}

// CurrentBranch reports the branch HEAD currently points at, for
// callers that want to sync "whatever is checked out" rather than a
// hardcoded branch name.
func (e *Endpoint) CurrentBranch() (name string, detached bool, err error) {
	head, err := e.branch.ReadHead()
	if err != nil {
		return "", false, err
	}
	if head.IsDetached() {
		return "", true, nil
	}
	return head.Branch, false, nil
}

func loadCommit(store objstore.Store, h objhash.Hash) (vcommit.Commit, error) {
	data, err := store.Get(h)
	if err != nil {
		return vcommit.Commit{}, err
	}
	return codec.DecodeCommit(data)
}

func commitLookup(store objstore.Store) ancestry.CommitLookup {
	return func(h objhash.Hash) (vcommit.Commit, error) {
		return loadCommit(store, h)
	}
}

// Pull copies branchName's full history from remote into local and
// fast-forwards local's ref for that branch. If local has no ref for
// branchName yet, it is created.
func Pull(local, remote *Endpoint, branchName string) error {
	return mirror(local, remote, branchName)
}

// Push copies branchName's full history from local into remote and
// fast-forwards remote's ref for that branch, the mirror image of
// Pull.
func Push(local, remote *Endpoint, branchName string) error {
	return mirror(remote, local, branchName)
}

// mirror copies src's branchName history into dst and advances dst's
// ref, refusing to do so unless it would be a fast-forward.
func mirror(dst, src *Endpoint, branchName string) error {
	srcHead, err := src.branch.Resolve(branchName)
	if err != nil {
		return err
	}

	dstHead, dstHasBranch := dstBranchHead(dst, branchName)
	if dstHasBranch && dstHead == srcHead {
		return nil
	}

	if err := copyHistory(dst.store, src.store, srcHead); err != nil {
		return fmt.Errorf("sync: copy history: %w", err)
	}

	if !dstHasBranch {
		return dst.branch.Create(branchName, srcHead)
	}

	isAncestor, err := ancestry.IsAncestor(commitLookup(dst.store), dstHead, srcHead)
	if err != nil {
		return fmt.Errorf("sync: check fast-forward: %w", err)
	}
	if !isAncestor {
		return ErrNotFastForward
	}

	return dst.branch.Update(branchName, srcHead)
}

func dstBranchHead(dst *Endpoint, branchName string) (objhash.Hash, bool) {
	h, err := dst.branch.Resolve(branchName)
	if err != nil {
		return objhash.Hash{}, false
	}
	return h, true
}

// copyHistory copies every object reachable from head (the commit, its
// directory tree, and every blob it references, recursively through
// every parent) from src into dst. Objects already present in dst are
// skipped without being re-read from src, so a repeated sync only pays
// for what changed since the last one.
func copyHistory(dst, src objstore.Store, head objhash.Hash) error {
	visited := map[objhash.Hash]bool{}
	return copyCommit(dst, src, head, visited)
}

func copyCommit(dst, src objstore.Store, h objhash.Hash, visited map[objhash.Hash]bool) error {
	if visited[h] {
		return nil
	}
	visited[h] = true

	if has, err := dst.Has(h); err != nil {
		return err
	} else if has {
		return nil
	}

	data, err := src.Get(h)
	if err != nil {
		return fmt.Errorf("sync: read commit %s: %w", h, err)
	}
	c, err := codec.DecodeCommit(data)
	if err != nil {
		return fmt.Errorf("sync: decode commit %s: %w", h, err)
	}

	if err := copyDirectory(dst, src, c.DirHash, visited); err != nil {
		return err
	}
	if err := dst.Put(h, data); err != nil {
		return err
	}

	for _, parent := range c.Parents {
		if err := copyCommit(dst, src, parent, visited); err != nil {
			return err
		}
	}
	return nil
}

func copyDirectory(dst, src objstore.Store, h objhash.Hash, visited map[objhash.Hash]bool) error {
	if visited[h] {
		return nil
	}
	visited[h] = true

	if has, err := dst.Has(h); err != nil {
		return err
	} else if has {
		return nil
	}

	data, err := src.Get(h)
	if err != nil {
		return fmt.Errorf("sync: read directory %s: %w", h, err)
	}
	dir, err := codec.DecodeDirectory(data)
	if err != nil {
		return fmt.Errorf("sync: decode directory %s: %w", h, err)
	}

	for _, e := range dir.Entries() {
		if err := copyBlob(dst, src, e.Ref.ContentHash); err != nil {
			return err
		}
	}
	return dst.Put(h, data)
}

func copyBlob(dst, src objstore.Store, h objhash.Hash) error {
	if has, err := dst.Has(h); err != nil {
		return err
	} else if has {
		return nil
	}
	data, err := src.Get(h)
	if err != nil {
		return fmt.Errorf("sync: read blob %s: %w", h, err)
	}
	return dst.Put(h, data)
}
