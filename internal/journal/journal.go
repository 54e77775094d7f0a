// Package journal implements commit history traversal and the
// repository's operation log (spec.md §4.11).
//
// History walking is grounded on the teacher's cli/log.go
// getTimelineCommits, which walks HEAD back through commit.Parents[0]
// collecting commitInfo records; this package moves that walk down
// into core (spec.md frames log as a core read operation, not a CLI
// concern) and generalizes it to follow every parent of a merge commit
// rather than only the first, so commits reachable only through a
// merged-in branch still show up in `log --all`-equivalent history.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/vcommit"
)

// Entry pairs a commit with its hash, as returned by walking history.
type Entry struct {
	Hash   objhash.Hash
	Commit vcommit.Commit
}

// CommitLookup resolves a commit hash to its decoded Commit.
type CommitLookup func(objhash.Hash) (vcommit.Commit, error)

// Walk returns every commit reachable from head, ordered
// newest-timestamp-first. Each commit appears once even if reachable
// through more than one merge parent.
func Walk(lookup CommitLookup, head objhash.Hash) ([]Entry, error) {
	if head.IsZero() {
		return nil, nil
	}

	visited := map[objhash.Hash]bool{}
	var entries []Entry
	frontier := []objhash.Hash{head}

	for len(frontier) > 0 {
		var next []objhash.Hash
		for _, h := range frontier {
			if visited[h] {
				continue
			}
			visited[h] = true
			c, err := lookup(h)
			if err != nil {
				return nil, fmt.Errorf("journal: walk commit %s: %w", h, err)
			}
			entries = append(entries, Entry{Hash: h, Commit: c})
			next = append(next, c.Parents...)
		}
		frontier = next
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Commit.TimestampMillis > entries[j].Commit.TimestampMillis
	})
	return entries, nil
}

const logFileName = "log.txt"

// Log is the repository's operation log: a line per mutating operation
// (init/commit/branch/checkout/merge/...), newest on top, written
// under metaDir/logs/log.txt. It is diagnostic, not authoritative:
// the on-disk objects and refs remain the source of truth.
type Log struct {
	path string
}

// Open prepares the operation log under metaDir.
func Open(metaDir string) (*Log, error) {
	dir := filepath.Join(metaDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create log dir: %w", err)
	}
	return &Log{path: filepath.Join(dir, logFileName)}, nil
}

// Record adds one timestamped line at the top of the operation log, so
// the file reads newest first.
func (l *Log) Record(op string, detail string) error {
	existing, err := os.ReadFile(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("journal: read log: %w", err)
	}

	ts := time.Now().UTC().Format(vcommit.TimestampLayout)
	line := fmt.Sprintf("%s %s %s\n", ts, op, detail)
	if err := os.WriteFile(l.path, append([]byte(line), existing...), 0o644); err != nil {
		return fmt.Errorf("journal: write log: %w", err)
	}
	return nil
}

// ReadAll returns every recorded line, newest first.
func (l *Log) ReadAll() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: read log: %w", err)
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, string(data[start:i]))
			}
			start = i + 1
		}
	}
	return lines, nil
}
