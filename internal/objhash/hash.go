// Package objhash implements the content-hash primitive the rest of the
// store is built on: a 256-bit BLAKE3 digest rendered as 64 lowercase hex
// characters.
package objhash

import (
	"encoding/hex"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

// Size is the digest length in bytes.
const Size = 32

// HexLen is the digest length as lowercase hex text.
const HexLen = Size * 2

// Hash is a content digest. The zero Hash is not a valid digest of any
// content; it is used as a sentinel "absent" value by callers that need
// one (e.g. a commit with no parents never stores a zero Hash, it stores
// an empty slice).
type Hash [Size]byte

// String renders the hash as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Less gives the total lexicographic order spec.md requires of hashes.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// HashBytes computes the content hash of a byte sequence.
func HashBytes(data []byte) Hash {
	return blake3.Sum256(data)
}

// RehashString digests a string built by concatenating prior digests (or
// any other text), producing a new Hash. Used when aggregating sub-hashes,
// e.g. a Directory's hash over its sorted (path, content_hash) entries or
// a Commit's hash over its encoded fields.
func RehashString(s string) Hash {
	return blake3.Sum256([]byte(s))
}

// FromLiteral parses an already-formatted 64-char hex digest without
// rehashing anything. Invalid input (wrong length, non-hex characters) is
// a programmer error: the source of a literal hash is always either our
// own canonical encoding or a user-supplied ref that was already validated
// at the CLI boundary, so FromLiteral panics rather than returning an
// error, matching the teacher's `from_literal`-equivalent behavior for
// malformed stored objects.
func FromLiteral(s string) Hash {
	h, err := ParseLiteral(s)
	if err != nil {
		panic(fmt.Sprintf("objhash: FromLiteral: %v", err))
	}
	return h
}

// ParseLiteral is the non-panicking counterpart of FromLiteral, for
// call sites parsing user- or disk-supplied text where a malformed value
// should surface as an error, not a panic (ref files, CLI hash arguments).
func ParseLiteral(s string) (Hash, error) {
	s = strings.TrimSpace(s)
	if len(s) != HexLen {
		return Hash{}, fmt.Errorf("objhash: invalid hash length %d, want %d", len(s), HexLen)
	}
	raw, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return Hash{}, fmt.Errorf("objhash: invalid hash %q: %w", s, err)
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}
