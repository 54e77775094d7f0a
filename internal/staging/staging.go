// Package staging implements the staging area: the flat set of paths
// marked for inclusion in the next commit (spec.md §4.10). It is
// persisted as a newline-separated sorted path list under the
// repository's metadata directory, collapsed down from the teacher's
// wsindex.IndexRef (a HAMT-backed index of full file metadata) since
// spec.md's staging area tracks membership only, not content or mode.
package staging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhalvorsen/anvilvcs/internal/vcserr"
)

const fileName = ".tracked_files"

// Area is the staging area for one repository.
type Area struct {
	paths map[string]bool
}

// Load reads the staging area from metaDir, returning an empty Area if
// it has never been written.
func Load(metaDir string) (*Area, error) {
	path := filepath.Join(metaDir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Area{paths: make(map[string]bool)}, nil
		}
		return nil, vcserr.NewIOError(path, err)
	}
	a := &Area{paths: make(map[string]bool)}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			a.paths[line] = true
		}
	}
	return a, nil
}

// Save persists the staging area to metaDir.
func (a *Area) Save(metaDir string) error {
	path := filepath.Join(metaDir, fileName)
	paths := a.Paths()
	if err := os.WriteFile(path, []byte(strings.Join(paths, "\n")), 0o644); err != nil {
		return vcserr.NewIOError(path, err)
	}
	return nil
}

// Add marks path as staged.
func (a *Area) Add(path string) {
	a.paths[path] = true
}

// Remove unmarks path. It is a no-op if path was never staged.
func (a *Area) Remove(path string) {
	delete(a.paths, path)
}

// Contains reports whether path is staged.
func (a *Area) Contains(path string) bool {
	return a.paths[path]
}

// Clear empties the staging area (after a successful commit).
func (a *Area) Clear() {
	a.paths = make(map[string]bool)
}

// Len returns the number of staged paths.
func (a *Area) Len() int {
	return len(a.paths)
}

// Paths returns every staged path in sorted order.
func (a *Area) Paths() []string {
	out := make([]string, 0, len(a.paths))
	for p := range a.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
