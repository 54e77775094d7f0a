// Package vcserr defines the sentinel and typed error kinds every other
// package in this module reports (spec.md §7). Callers compare against
// these with errors.Is/errors.As rather than matching message strings.
package vcserr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions with no extra data attached.
var (
	ErrNotARepository   = errors.New("vcserr: not a repository")
	ErrEmptyStaging     = errors.New("vcserr: nothing staged for commit")
	ErrDetachedHead     = errors.New("vcserr: HEAD is detached")
	ErrNoCommonAncestor = errors.New("vcserr: no common ancestor between branches")
	ErrNoCommits        = errors.New("vcserr: repository has no commits yet")
	ErrCommitNotFound   = errors.New("vcserr: no commit with that hash")
)

// IOError wraps an underlying filesystem/storage failure with the path
// that triggered it.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("vcserr: io failure at %q: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err as an IOError rooted at path.
func NewIOError(path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Path: path, Err: err}
}

// DecodeError reports a failure to parse a stored object's canonical
// encoding.
type DecodeError struct {
	Kind string // "commit", "directory", ...
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("vcserr: failed to decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HashMismatchError reports that stored bytes did not hash to the key
// they were stored under.
type HashMismatchError struct {
	Want string
	Got  string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("vcserr: hash mismatch: want %s, got %s", e.Want, e.Got)
}

// BranchExistsError reports an attempt to create a branch that already
// has a ref.
type BranchExistsError struct {
	Name string
}

func (e *BranchExistsError) Error() string {
	return fmt.Sprintf("vcserr: branch %q already exists", e.Name)
}

// BranchMissingError reports a reference to a branch with no ref file.
type BranchMissingError struct {
	Name string
}

func (e *BranchMissingError) Error() string {
	return fmt.Sprintf("vcserr: branch %q does not exist", e.Name)
}

// InvalidPathError reports a path that fails the repository's path
// validation rules (escapes the worktree, empty component, and so on).
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("vcserr: invalid path %q: %s", e.Path, e.Reason)
}

// ConflictKind classifies a single-file merge conflict.
type ConflictKind string

const (
	ConflictContent      ConflictKind = "content"       // both sides edited the same file incompatibly
	ConflictModifyDelete ConflictKind = "modify/delete" // one side edited, the other deleted
	ConflictAddAdd       ConflictKind = "add/add"       // both sides added the same path differently
)

// FileConflict describes a single path in conflict.
type FileConflict struct {
	Path string
	Kind ConflictKind
}

// MergeConflictError reports that a merge could not auto-resolve one or
// more paths.
type MergeConflictError struct {
	Conflicts []FileConflict
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("vcserr: merge produced %d conflict(s)", len(e.Conflicts))
}
