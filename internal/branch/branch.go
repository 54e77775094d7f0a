// Package branch manages branch refs and HEAD (spec.md §4.7): a flat
// file per branch holding a commit hash, and a HEAD file that is a
// symbolic pointer to a branch name, a detached commit hash, or empty
// before the first commit.
//
// It also maintains an additive parent-edge cache in a bbolt database
// (ancestry.db), grounded on the teacher's internal/store key-value
// layer. internal/repo's commit lookup lays a cached entry's parents
// over the commit, which it still decodes from the object store, so a
// cache hit does not save reading the commit object. The cache holds
// only parent edges: it is rebuildable from the
// commit objects already in the object store and never participates in
// any hash or invariant, so losing or deleting it changes nothing about
// correctness (spec.md §4.7, §4.8).
package branch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/vcserr"
)

const (
	branchesDirName = "branches"
	headFileName    = "head"
	ancestryDBName  = "ancestry.db"
	detachedPrefix  = "detached:"
)

var bucketParents = []byte("parents")

// Store manages branch refs, HEAD, and the ancestry cache under a
// repository's metadata directory.
type Store struct {
	metaDir string
	db      *bbolt.DB // nil until first use; ancestry cache is optional
}

// Open prepares a Store rooted at metaDir (the repository's ".my-dvcs"
// directory). It does not require the ancestry cache to exist yet.
func Open(metaDir string) (*Store, error) {
	branchesDir := filepath.Join(metaDir, branchesDirName)
	if err := os.MkdirAll(branchesDir, 0o755); err != nil {
		return nil, vcserr.NewIOError(branchesDir, err)
	}
	return &Store{metaDir: metaDir}, nil
}

// Close releases the ancestry cache database, if it was opened.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) branchPath(name string) string {
	return filepath.Join(s.metaDir, branchesDirName, name)
}

func (s *Store) headPath() string {
	return filepath.Join(s.metaDir, headFileName)
}

// Create writes a new branch ref pointing at head. It fails if the
// branch already exists (spec.md §4.7 invariant: branch creation never
// silently overwrites).
func (s *Store) Create(name string, head objhash.Hash) error {
	path := s.branchPath(name)
	if _, err := os.Stat(path); err == nil {
		return &vcserr.BranchExistsError{Name: name}
	} else if !os.IsNotExist(err) {
		return vcserr.NewIOError(path, err)
	}
	return s.writeRef(name, head)
}

// Update overwrites an existing branch's ref to point at head. It fails
// if the branch does not exist.
func (s *Store) Update(name string, head objhash.Hash) error {
	if _, err := s.Resolve(name); err != nil {
		return err
	}
	return s.writeRef(name, head)
}

func (s *Store) writeRef(name string, head objhash.Hash) error {
	path := s.branchPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return vcserr.NewIOError(path, err)
	}
	if err := os.WriteFile(path, []byte(head.String()+"\n"), 0o644); err != nil {
		return vcserr.NewIOError(path, err)
	}
	return nil
}

// Resolve returns the commit hash a branch currently points to.
func (s *Store) Resolve(name string) (objhash.Hash, error) {
	path := s.branchPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return objhash.Hash{}, &vcserr.BranchMissingError{Name: name}
		}
		return objhash.Hash{}, vcserr.NewIOError(path, err)
	}
	h, err := objhash.ParseLiteral(strings.TrimSpace(string(data)))
	if err != nil {
		return objhash.Hash{}, &vcserr.DecodeError{Kind: "branch ref", Err: err}
	}
	return h, nil
}

// Delete removes a branch ref.
func (s *Store) Delete(name string) error {
	path := s.branchPath(name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &vcserr.BranchMissingError{Name: name}
		}
		return vcserr.NewIOError(path, err)
	}
	return nil
}

// List returns every branch name, sorted.
func (s *Store) List() ([]string, error) {
	dir := filepath.Join(s.metaDir, branchesDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, vcserr.NewIOError(dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a branch ref exists.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.branchPath(name))
	return err == nil
}

// HeadRef is the parsed content of the HEAD file: a branch name
// (Branch != "", Detached == zero hash), a detached commit
// (Branch == "", Detached != zero hash), or empty before the first
// commit (both zero; see IsEmpty).
type HeadRef struct {
	Branch   string
	Detached objhash.Hash
}

// IsDetached reports whether HEAD points directly at a commit rather
// than a branch. It is false both for a normal branch HEAD and for the
// pre-first-commit empty HEAD (spec.md §3) — use IsEmpty to tell those
// two apart.
func (h HeadRef) IsDetached() bool { return h.Branch == "" && !h.Detached.IsZero() }

// IsEmpty reports the pre-first-commit state: HEAD names no branch and
// points at no commit (spec.md §3, "empty (pre-first-commit state)").
// Commit (spec.md §4.5 step 6) replaces this with a real branch HEAD
// once the first commit lands.
func (h HeadRef) IsEmpty() bool { return h.Branch == "" && h.Detached.IsZero() }

// ReadHead reads the HEAD file.
func (s *Store) ReadHead() (HeadRef, error) {
	path := s.headPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return HeadRef{}, vcserr.ErrNotARepository
		}
		return HeadRef{}, vcserr.NewIOError(path, err)
	}
	content := strings.TrimSpace(string(data))
	if rest, ok := strings.CutPrefix(content, detachedPrefix); ok {
		h, err := objhash.ParseLiteral(rest)
		if err != nil {
			return HeadRef{}, &vcserr.DecodeError{Kind: "HEAD", Err: err}
		}
		return HeadRef{Detached: h}, nil
	}
	return HeadRef{Branch: content}, nil
}

// SetHeadToBranch points HEAD at a branch name.
func (s *Store) SetHeadToBranch(name string) error {
	return os.WriteFile(s.headPath(), []byte(name+"\n"), 0o644)
}

// SetHeadEmpty clears HEAD to the pre-first-commit empty state: no
// branch name, no detached commit.
func (s *Store) SetHeadEmpty() error {
	if err := os.WriteFile(s.headPath(), []byte("\n"), 0o644); err != nil {
		return vcserr.NewIOError(s.headPath(), err)
	}
	return nil
}

// SetHeadDetached points HEAD directly at a commit hash.
func (s *Store) SetHeadDetached(commit objhash.Hash) error {
	return os.WriteFile(s.headPath(), []byte(detachedPrefix+commit.String()+"\n"), 0o644)
}

// CurrentCommit resolves HEAD (via its branch, if not detached) down to
// a concrete commit hash.
func (s *Store) CurrentCommit() (objhash.Hash, error) {
	head, err := s.ReadHead()
	if err != nil {
		return objhash.Hash{}, err
	}
	if head.IsDetached() {
		return head.Detached, nil
	}
	return s.Resolve(head.Branch)
}

// ensureDB lazily opens the ancestry cache database.
func (s *Store) ensureDB() (*bbolt.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	path := filepath.Join(s.metaDir, ancestryDBName)
	db, err := bbolt.Open(path, 0o666, nil)
	if err != nil {
		return nil, vcserr.NewIOError(path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketParents)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, vcserr.NewIOError(path, err)
	}
	s.db = db
	return db, nil
}

// CacheParents records commit's immediate parents in the ancestry
// cache. Safe to call redundantly; safe to skip entirely (callers that
// hit a cache-open failure may fall back to reading commit objects
// directly).
func (s *Store) CacheParents(commit objhash.Hash, parents []objhash.Hash) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	hexes := make([]string, len(parents))
	for i, p := range parents {
		hexes[i] = p.String()
	}
	value := []byte(strings.Join(hexes, ","))
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketParents).Put([]byte(commit.String()), value)
	})
}

// CachedParents returns a commit's parents from the cache, and whether
// a cache entry existed at all.
func (s *Store) CachedParents(commit objhash.Hash) ([]objhash.Hash, bool, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, false, err
	}
	var raw []byte
	err = db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketParents).Get([]byte(commit.String()))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, vcserr.NewIOError(ancestryDBName, err)
	}
	if raw == nil {
		return nil, false, nil
	}
	if len(raw) == 0 {
		return nil, true, nil
	}
	parts := strings.Split(string(raw), ",")
	parents := make([]objhash.Hash, 0, len(parts))
	for _, p := range parts {
		h, err := objhash.ParseLiteral(p)
		if err != nil {
			return nil, false, fmt.Errorf("branch: corrupt ancestry cache entry: %w", err)
		}
		parents = append(parents, h)
	}
	return parents, true, nil
}
