package objstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/mhalvorsen/anvilvcs/internal/objhash"
)

// FileStore is a Store backed by the repository's obj/ directory, fanned
// out by the first two hex characters of the hash (spec.md §6):
//
//	obj/<first-2-hex>/<remaining-62-hex>.obj
//
// Objects are written zstd-compressed; FileStore never rewrites an
// existing object file, so atime/mtime of already-stored objects are
// preserved (spec.md §4.2) and concurrent Put races from independent
// processes are safe by construction.
type FileStore struct {
	root string
}

// NewFileStore opens (creating if necessary) a file-backed object store
// rooted at dir (typically "<repo>/.my-dvcs/obj").
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("objstore: create object dir %s: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

func (f *FileStore) pathFor(hash objhash.Hash) string {
	hex := hash.String()
	return filepath.Join(f.root, hex[:2], hex[2:]+".obj")
}

// Put implements Store.
func (f *FileStore) Put(hash objhash.Hash, data []byte) error {
	computed := objhash.HashBytes(data)
	if computed != hash {
		return fmt.Errorf("objstore: hash mismatch: expected %s, computed %s", hash, computed)
	}

	path := f.pathFor(hash)
	if _, err := os.Stat(path); err == nil {
		return nil // already stored; content-addressed, so this is correct by construction
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("objstore: stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("objstore: create fan-out dir: %w", err)
	}

	compressed, err := compress(data)
	if err != nil {
		return fmt.Errorf("objstore: compress: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("objstore: create temp object: %w", err)
	}
	tmp := tmpFile.Name()
	_, werr := tmpFile.Write(compressed)
	if cerr := tmpFile.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmp, 0o644)
	}
	if werr != nil {
		os.Remove(tmp)
		return fmt.Errorf("objstore: write temp object: %w", werr)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("objstore: rename temp object: %w", err)
	}
	return nil
}

// Get implements Store.
func (f *FileStore) Get(hash objhash.Hash) ([]byte, error) {
	path := f.pathFor(hash)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("objstore: object %s not found", hash)
		}
		return nil, fmt.Errorf("objstore: read %s: %w", path, err)
	}

	data, err := decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("objstore: decode object %s: %w", hash, err)
	}

	if got := objhash.HashBytes(data); got != hash {
		return nil, fmt.Errorf("objstore: corrupted object %s: content hashes to %s", hash, got)
	}
	return data, nil
}

// Has implements Store.
func (f *FileStore) Has(hash objhash.Hash) (bool, error) {
	_, err := os.Stat(f.pathFor(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("objstore: stat: %w", err)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
