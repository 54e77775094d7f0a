// Package repo implements the Repository orchestrator: the one type
// that wires together the object store, codec, tree/commit model,
// branch/staging state, worktree materialization, ancestry, and merge
// packages into the operations spec.md §5 names (Init, Add/Remove,
// Commit, Checkout, branch management, Merge, and the read-only
// Status/Diff/Cat/Log wrappers).
//
// Grounded on the teacher's internal/commit.CommitBuilder.CreateCommit
// (build tree from workspace files, wrap in a commit object, persist),
// generalized from the teacher's per-file HAMT tree build down to this
// module's flat tree.Directory, and with the teacher's MMR history
// bookkeeping replaced by internal/branch's ancestry cache.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mhalvorsen/anvilvcs/internal/ancestry"
	"github.com/mhalvorsen/anvilvcs/internal/branch"
	"github.com/mhalvorsen/anvilvcs/internal/codec"
	"github.com/mhalvorsen/anvilvcs/internal/config"
	"github.com/mhalvorsen/anvilvcs/internal/inspect"
	"github.com/mhalvorsen/anvilvcs/internal/journal"
	"github.com/mhalvorsen/anvilvcs/internal/merge"
	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/objstore"
	"github.com/mhalvorsen/anvilvcs/internal/staging"
	"github.com/mhalvorsen/anvilvcs/internal/tree"
	"github.com/mhalvorsen/anvilvcs/internal/vcommit"
	"github.com/mhalvorsen/anvilvcs/internal/vcserr"
	"github.com/mhalvorsen/anvilvcs/internal/worktree"
)

// MetaDirName is the repository metadata directory, unchanged from the
// distilled specification regardless of the rest of the rename.
const MetaDirName = ".my-dvcs"

// masterBranch is the branch Commit creates the first time a root
// commit lands on an empty HEAD (spec.md §4.5 step 6).
const masterBranch = "master"

// Repository is a single working copy: a worktree root, its metadata
// directory, the object store, and the branch/staging state rooted
// there.
type Repository struct {
	root    string
	metaDir string
	store   *objstore.FileStore
	wt      *worktree.Tree
	branch  *branch.Store
	stage   *staging.Area
	log     *journal.Log
}

// Init creates a new repository at root (which must exist) and returns
// the opened Repository. HEAD starts in the empty, pre-first-commit
// state (spec.md §3): no branch exists and no commit has been made
// until Commit creates the "master" branch's root commit. It fails if
// root already contains a metadata directory.
func Init(root string) (*Repository, error) {
	metaDir := filepath.Join(root, MetaDirName)
	if _, err := os.Stat(metaDir); err == nil {
		return nil, fmt.Errorf("repo: %s already contains a repository", root)
	}

	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return nil, vcserr.NewIOError(metaDir, err)
	}

	store, err := objstore.NewFileStore(filepath.Join(metaDir, "obj"))
	if err != nil {
		return nil, err
	}

	branchStore, err := branch.Open(metaDir)
	if err != nil {
		return nil, err
	}
	if err := branchStore.SetHeadEmpty(); err != nil {
		return nil, err
	}

	stage, err := staging.Load(metaDir)
	if err != nil {
		return nil, err
	}

	jlog, err := journal.Open(metaDir)
	if err != nil {
		return nil, err
	}
	_ = jlog.Record("init", root)

	return &Repository{
		root:    root,
		metaDir: metaDir,
		store:   store,
		wt:      worktree.New(root, metaDir),
		branch:  branchStore,
		stage:   stage,
		log:     jlog,
	}, nil
}

// Open opens an existing repository rooted at root.
func Open(root string) (*Repository, error) {
	metaDir := filepath.Join(root, MetaDirName)
	if _, err := os.Stat(metaDir); err != nil {
		return nil, vcserr.ErrNotARepository
	}

	store, err := objstore.NewFileStore(filepath.Join(metaDir, "obj"))
	if err != nil {
		return nil, err
	}
	branchStore, err := branch.Open(metaDir)
	if err != nil {
		return nil, err
	}
	stage, err := staging.Load(metaDir)
	if err != nil {
		return nil, err
	}
	jlog, err := journal.Open(metaDir)
	if err != nil {
		return nil, err
	}

	return &Repository{
		root:    root,
		metaDir: metaDir,
		store:   store,
		wt:      worktree.New(root, metaDir),
		branch:  branchStore,
		stage:   stage,
		log:     jlog,
	}, nil
}

// Close releases any resources (the ancestry cache database) held open
// by the repository.
func (r *Repository) Close() error {
	return r.branch.Close()
}

// Root returns the working directory root.
func (r *Repository) Root() string { return r.root }

// WorkingFiles lists every regular file under the working directory,
// excluding the metadata directory, for `add *`-style bulk staging.
func (r *Repository) WorkingFiles() ([]string, error) {
	return r.wt.Scan()
}

// ClearStaged unstages every currently staged path, for `remove *`.
func (r *Repository) ClearStaged() error {
	r.stage.Clear()
	return r.stage.Save(r.metaDir)
}

func storeDirectory(store objstore.Store, d *tree.Directory) (objhash.Hash, error) {
	return objstore.PutBytes(store, codec.EncodeDirectory(d))
}

func loadDirectory(store objstore.Store, h objhash.Hash) (*tree.Directory, error) {
	data, err := store.Get(h)
	if err != nil {
		return nil, err
	}
	d, err := codec.DecodeDirectory(data)
	if err != nil {
		return nil, &vcserr.DecodeError{Kind: "directory", Err: err}
	}
	return d, nil
}

func storeCommit(store objstore.Store, c vcommit.Commit) error {
	h := c.Hash()
	has, err := store.Has(h)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return store.Put(h, codec.EncodeCommit(c))
}

func loadCommit(store objstore.Store, h objhash.Hash) (vcommit.Commit, error) {
	data, err := store.Get(h)
	if err != nil {
		return vcommit.Commit{}, err
	}
	c, err := codec.DecodeCommit(data)
	if err != nil {
		return vcommit.Commit{}, &vcserr.DecodeError{Kind: "commit", Err: err}
	}
	return c, nil
}

func (r *Repository) commitLookup() ancestry.CommitLookup {
	return func(h objhash.Hash) (vcommit.Commit, error) {
		if parents, ok, err := r.branch.CachedParents(h); err == nil && ok {
			c, err := loadCommit(r.store, h)
			if err != nil {
				return vcommit.Commit{}, err
			}
			c.Parents = parents
			return c, nil
		}
		return loadCommit(r.store, h)
	}
}

// currentCommit returns the commit HEAD currently resolves to. It
// returns vcserr.ErrNoCommits if HEAD is still in the pre-first-commit
// empty state.
func (r *Repository) currentCommit() (objhash.Hash, vcommit.Commit, error) {
	head, err := r.branch.ReadHead()
	if err != nil {
		return objhash.Hash{}, vcommit.Commit{}, err
	}
	if head.IsEmpty() {
		return objhash.Hash{}, vcommit.Commit{}, vcserr.ErrNoCommits
	}

	var h objhash.Hash
	if head.IsDetached() {
		h = head.Detached
	} else {
		h, err = r.branch.Resolve(head.Branch)
		if err != nil {
			return objhash.Hash{}, vcommit.Commit{}, err
		}
	}

	c, err := loadCommit(r.store, h)
	if err != nil {
		return objhash.Hash{}, vcommit.Commit{}, err
	}
	return h, c, nil
}

// Add stages relPath for the next commit (spec.md §4.10).
func (r *Repository) Add(relPath string) error {
	if err := r.wt.ValidatePath(relPath); err != nil {
		return err
	}
	r.stage.Add(relPath)
	return r.stage.Save(r.metaDir)
}

// Remove unstages relPath. It is a no-op if relPath was never staged.
func (r *Repository) Remove(relPath string) error {
	r.stage.Remove(relPath)
	return r.stage.Save(r.metaDir)
}

// StagedPaths returns every currently staged path.
func (r *Repository) StagedPaths() []string {
	return r.stage.Paths()
}

// Commit builds a new commit from the current HEAD tree plus the
// staged paths' current working-tree content, advances HEAD to it, and
// clears the staging area (spec.md §4.5, §4.10).
//
// If HEAD is still in the pre-first-commit empty state (spec.md §3),
// this is the first commit: it has no parents and its landing creates
// the "master" branch, which HEAD then follows (spec.md §4.5 step 6).
// Otherwise the new commit's sole parent is HEAD's current commit and
// the branch HEAD names advances to it.
//
// Returns vcserr.ErrEmptyStaging if nothing is staged.
// Returns vcserr.ErrDetachedHead if HEAD points at a commit directly.
func (r *Repository) Commit(message string) (objhash.Hash, error) {
	if r.stage.Len() == 0 {
		return objhash.Hash{}, vcserr.ErrEmptyStaging
	}

	head, err := r.branch.ReadHead()
	if err != nil {
		return objhash.Hash{}, err
	}
	if head.IsDetached() {
		return objhash.Hash{}, vcserr.ErrDetachedHead
	}

	var parents []objhash.Hash
	var dir *tree.Directory
	if head.IsEmpty() {
		dir = tree.New()
	} else {
		parentHash, parentCommit, err := r.currentCommit()
		if err != nil {
			return objhash.Hash{}, err
		}
		parents = []objhash.Hash{parentHash}
		dir, err = loadDirectory(r.store, parentCommit.DirHash)
		if err != nil {
			return objhash.Hash{}, err
		}
	}

	for _, path := range r.stage.Paths() {
		ref, err := r.wt.StoreFile(path, r.store)
		if err != nil {
			return objhash.Hash{}, err
		}
		dir.Upsert(path, ref)
	}

	dirHash, err := storeDirectory(r.store, dir)
	if err != nil {
		return objhash.Hash{}, err
	}

	author, err := config.Author(r.metaDir)
	if err != nil {
		author = "unknown <unknown@example.com>"
	}

	c := vcommit.New(parents, dirHash, author, message, time.Now())
	if err := storeCommit(r.store, c); err != nil {
		return objhash.Hash{}, err
	}
	if err := r.branch.CacheParents(c.Hash(), c.Parents); err != nil {
		return objhash.Hash{}, err
	}

	if head.IsEmpty() {
		if err := r.branch.Create(masterBranch, c.Hash()); err != nil {
			return objhash.Hash{}, err
		}
		if err := r.branch.SetHeadToBranch(masterBranch); err != nil {
			return objhash.Hash{}, err
		}
	} else if err := r.branch.Update(head.Branch, c.Hash()); err != nil {
		return objhash.Hash{}, err
	}

	r.stage.Clear()
	if err := r.stage.Save(r.metaDir); err != nil {
		return objhash.Hash{}, err
	}

	_ = r.log.Record("commit", fmt.Sprintf("%s %s", c.Hash(), message))
	return c.Hash(), nil
}

// CreateBranch creates a new branch pointed at HEAD's current commit.
// Returns vcserr.ErrNoCommits if HEAD is still empty (no commit exists
// yet to branch from).
func (r *Repository) CreateBranch(name string) error {
	head, err := r.branch.ReadHead()
	if err != nil {
		return err
	}
	if head.IsEmpty() {
		return vcserr.ErrNoCommits
	}
	var headCommit objhash.Hash
	if head.IsDetached() {
		headCommit = head.Detached
	} else {
		headCommit, err = r.branch.Resolve(head.Branch)
		if err != nil {
			return err
		}
	}
	if err := r.branch.Create(name, headCommit); err != nil {
		return err
	}
	_ = r.log.Record("branch", "created "+name)
	return nil
}

// Branches lists every branch name.
func (r *Repository) Branches() ([]string, error) {
	return r.branch.List()
}

// HeadStatus reports what HEAD currently points at: a branch name, or
// ("", true) when HEAD is detached.
func (r *Repository) HeadStatus() (branchName string, detached bool, err error) {
	head, err := r.branch.ReadHead()
	if err != nil {
		return "", false, err
	}
	if head.IsDetached() {
		return "", true, nil
	}
	return head.Branch, false, nil
}

// Checkout switches HEAD to target, materializing its tree onto the
// working directory (spec.md §4.6). target is resolved as a branch
// name first; if no branch by that name exists, it is parsed as a
// commit hash instead and HEAD enters the detached state (spec.md
// §4.6 step 2, "checkout(commit_hash)").
func (r *Repository) Checkout(target string) error {
	targetHash, asBranch, err := r.resolveCheckoutTarget(target)
	if err != nil {
		return err
	}

	var previousDir *tree.Directory
	_, currentCommit, err := r.currentCommit()
	switch {
	case err == nil:
		previousDir, err = loadDirectory(r.store, currentCommit.DirHash)
		if err != nil {
			return err
		}
	case err == vcserr.ErrNoCommits:
		previousDir = tree.New()
	default:
		return err
	}

	targetCommit, err := loadCommit(r.store, targetHash)
	if err != nil {
		return err
	}
	targetDir, err := loadDirectory(r.store, targetCommit.DirHash)
	if err != nil {
		return err
	}

	if err := r.wt.Checkout(r.store, previousDir, targetDir); err != nil {
		return err
	}

	if asBranch {
		if err := r.branch.SetHeadToBranch(target); err != nil {
			return err
		}
	} else if err := r.branch.SetHeadDetached(targetHash); err != nil {
		return err
	}

	_ = r.log.Record("checkout", target)
	return nil
}

// resolveCheckoutTarget resolves target as a branch name, falling back
// to a commit hash literal when no branch by that name exists.
func (r *Repository) resolveCheckoutTarget(target string) (hash objhash.Hash, asBranch bool, err error) {
	if h, rerr := r.branch.Resolve(target); rerr == nil {
		return h, true, nil
	} else if _, ok := rerr.(*vcserr.BranchMissingError); !ok {
		return objhash.Hash{}, false, rerr
	}

	h, perr := objhash.ParseLiteral(target)
	if perr != nil {
		return objhash.Hash{}, false, &vcserr.BranchMissingError{Name: target}
	}
	has, herr := r.store.Has(h)
	if herr != nil {
		return objhash.Hash{}, false, herr
	}
	if !has {
		return objhash.Hash{}, false, vcserr.ErrCommitNotFound
	}
	return h, false, nil
}

// Merge three-way merges other into the branch HEAD currently points
// at (spec.md §4.9), committing the result as a merge commit when
// there are no conflicts.
func (r *Repository) Merge(other string) (objhash.Hash, merge.Result, error) {
	head, err := r.branch.ReadHead()
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	if head.IsDetached() {
		return objhash.Hash{}, merge.Result{}, vcserr.ErrDetachedHead
	}
	if head.IsEmpty() {
		return objhash.Hash{}, merge.Result{}, vcserr.ErrNoCommits
	}

	leftHash, err := r.branch.Resolve(head.Branch)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	rightHash, err := r.branch.Resolve(other)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	baseHash, err := ancestry.LowestCommonAncestor(r.commitLookup(), leftHash, rightHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	leftCommit, err := loadCommit(r.store, leftHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	rightCommit, err := loadCommit(r.store, rightHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	baseCommit, err := loadCommit(r.store, baseHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	baseDir, err := loadDirectory(r.store, baseCommit.DirHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	leftDir, err := loadDirectory(r.store, leftCommit.DirHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	rightDir, err := loadDirectory(r.store, rightCommit.DirHash)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	result, err := merge.Merge(r.store, baseDir, leftDir, rightDir)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	if !result.Clean() {
		return objhash.Hash{}, result, &vcserr.MergeConflictError{Conflicts: result.Conflicts}
	}

	mergedDirHash, err := storeDirectory(r.store, result.Merged)
	if err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	author, err := config.Author(r.metaDir)
	if err != nil {
		author = "unknown <unknown@example.com>"
	}
	message := fmt.Sprintf("merge %s into %s", other, head.Branch)
	mergeCommit := vcommit.New([]objhash.Hash{leftHash, rightHash}, mergedDirHash, author, message, time.Now())
	if err := storeCommit(r.store, mergeCommit); err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	if err := r.branch.CacheParents(mergeCommit.Hash(), mergeCommit.Parents); err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}
	if err := r.branch.Update(head.Branch, mergeCommit.Hash()); err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	if err := r.wt.Checkout(r.store, leftDir, result.Merged); err != nil {
		return objhash.Hash{}, merge.Result{}, err
	}

	_ = r.log.Record("merge", fmt.Sprintf("%s -> %s at %s", other, head.Branch, mergeCommit.Hash()))
	return mergeCommit.Hash(), result, nil
}

// Status reports differences between the last commit's tree and the
// current working directory content for staged paths. Before the first
// commit the committed side is the empty tree.
func (r *Repository) Status() (inspect.Status, error) {
	committed := tree.New()
	_, c, err := r.currentCommit()
	switch {
	case err == nil:
		committed, err = loadDirectory(r.store, c.DirHash)
		if err != nil {
			return inspect.Status{}, err
		}
	case err != vcserr.ErrNoCommits:
		return inspect.Status{}, err
	}

	working := tree.New()
	for _, e := range committed.Entries() {
		working.Upsert(e.Path, e.Ref)
	}
	for _, path := range r.stage.Paths() {
		ref, err := r.wt.StoreFile(path, r.store)
		if err != nil {
			return inspect.Status{}, err
		}
		working.Upsert(path, ref)
	}

	return inspect.ComputeStatus(committed, working), nil
}

// Diff compares two commits' trees by hash.
func (r *Repository) Diff(from, to objhash.Hash) ([]inspect.Change, error) {
	fromCommit, err := loadCommit(r.store, from)
	if err != nil {
		return nil, err
	}
	toCommit, err := loadCommit(r.store, to)
	if err != nil {
		return nil, err
	}
	fromDir, err := loadDirectory(r.store, fromCommit.DirHash)
	if err != nil {
		return nil, err
	}
	toDir, err := loadDirectory(r.store, toCommit.DirHash)
	if err != nil {
		return nil, err
	}
	return inspect.DiffDirectories(fromDir, toDir), nil
}

// Cat retrieves path's content as of the commit HEAD currently points
// to.
func (r *Repository) Cat(path string) ([]byte, error) {
	_, c, err := r.currentCommit()
	if err != nil {
		return nil, err
	}
	dir, err := loadDirectory(r.store, c.DirHash)
	if err != nil {
		return nil, err
	}
	return inspect.Cat(r.store, dir, path)
}

// CatAt retrieves path's content as of an arbitrary commit, for the
// `cat <commit-hash> <path>` CLI form rather than HEAD only.
func (r *Repository) CatAt(commitHash objhash.Hash, path string) ([]byte, error) {
	c, err := loadCommit(r.store, commitHash)
	if err != nil {
		return nil, err
	}
	dir, err := loadDirectory(r.store, c.DirHash)
	if err != nil {
		return nil, err
	}
	return inspect.Cat(r.store, dir, path)
}

// Log returns the commit history reachable from HEAD, newest first.
func (r *Repository) Log() ([]journal.Entry, error) {
	head, _, err := r.currentCommit()
	if err != nil {
		return nil, err
	}
	return journal.Walk(r.commitLookup(), head)
}
