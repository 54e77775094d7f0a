// Package objstore implements the content-addressed object store: a
// key-value mapping from objhash.Hash to the bytes that hash to it.
//
// The store never inspects the bytes it holds; a Commit, a Directory and a
// Blob all look the same to objstore — only the decoder a caller picks
// recovers the type.
package objstore

import "github.com/mhalvorsen/anvilvcs/internal/objhash"

// Store is the content-addressed object store interface.
type Store interface {
	// Put stores data keyed by its own content hash. Put must succeed only
	// if hash == objhash.HashBytes(data); a second Put for a hash already
	// present is a no-op (idempotent dedup).
	Put(hash objhash.Hash, data []byte) error

	// Get retrieves previously-stored bytes by hash.
	Get(hash objhash.Hash) ([]byte, error)

	// Has reports whether hash is present without reading its bytes.
	Has(hash objhash.Hash) (bool, error)
}

// PutBytes hashes data and stores it, returning the hash it was stored
// under. A convenience wrapper used by every writer in this module (blob
// writes, tree writes, commit writes).
func PutBytes(s Store, data []byte) (objhash.Hash, error) {
	h := objhash.HashBytes(data)
	if err := s.Put(h, data); err != nil {
		return objhash.Hash{}, err
	}
	return h, nil
}
