// Package vcommit implements the Commit object: an immutable snapshot of
// parent hashes, a tree hash, author, message and timestamp.
package vcommit

import (
	"strings"
	"time"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
)

// TimestampLayout is the millisecond-precision UTC ISO-like text format
// spec.md §3 requires for Commit.timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Commit is an immutable snapshot. Parents has length 0 for a root commit,
// 1 for a normal commit, and 2+ for a merge commit (spec.md §3).
type Commit struct {
	Parents         []objhash.Hash
	DirHash         objhash.Hash
	Author          string
	Message         string
	TimestampMillis int64 // UTC, milliseconds since Unix epoch
}

// TimestampText renders TimestampMillis in the canonical millisecond UTC
// text format used both for display and for the hash formula.
func (c Commit) TimestampText() string {
	return time.UnixMilli(c.TimestampMillis).UTC().Format(TimestampLayout)
}

// Hash computes the commit hash:
//
//	rehash_string(concat(parent_hash_hexes) ∥ dir_hash_hex ∥ author ∥ message ∥ timestamp)
//
// Identical fields (including millisecond timestamp and parent order)
// yield identical hashes (spec.md invariant / testable property 5); two
// commits built from the same payload within the same millisecond
// legitimately collide and dedup, per spec.md §4.5.
func (c Commit) Hash() objhash.Hash {
	var sb strings.Builder
	for _, p := range c.Parents {
		sb.WriteString(p.String())
	}
	sb.WriteString(c.DirHash.String())
	sb.WriteString(c.Author)
	sb.WriteString(c.Message)
	sb.WriteString(c.TimestampText())
	return objhash.RehashString(sb.String())
}

// IsRoot reports whether this commit has no parents.
func (c Commit) IsRoot() bool { return len(c.Parents) == 0 }

// IsMerge reports whether this commit has two or more parents.
func (c Commit) IsMerge() bool { return len(c.Parents) >= 2 }

// New builds a Commit with the given fields and the timestamp now,
// truncated to millisecond precision (spec.md §4.5: "Timestamp granularity
// is millisecond to reduce same-second hash collisions for scripted
// back-to-back commits").
func New(parents []objhash.Hash, dirHash objhash.Hash, author, message string, now time.Time) Commit {
	return Commit{
		Parents:         append([]objhash.Hash(nil), parents...),
		DirHash:         dirHash,
		Author:          author,
		Message:         message,
		TimestampMillis: now.UTC().UnixMilli(),
	}
}
