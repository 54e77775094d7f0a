// Package codec implements the canonical on-disk text encoding for
// Directory and Commit objects (spec.md §4.3), adapted directly from the
// teacher's internal/commit encodeCommit/parseCommit (tree/parent/author,
// blank line, raw message body) and extended with the dir_hash, message
// and timestamp fields spec.md requires plus a parallel directory
// encoding. The encoding is bijective: DecodeCommit(EncodeCommit(c)) == c
// and DecodeDirectory(EncodeDirectory(d)) has the same entries as d
// (spec.md testable property 3), for arbitrary UTF-8 messages and paths.
package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
	"github.com/mhalvorsen/anvilvcs/internal/tree"
	"github.com/mhalvorsen/anvilvcs/internal/vcommit"
)

const (
	fieldParents = "parent_hashes"
	fieldDirHash = "dir_hash"
	fieldAuthor  = "author"
	fieldTime    = "timestamp"
	fieldMessage = "message"
	filesHeader  = "files:"
)

// escape makes s safe to store as a single text line: backslashes,
// newlines and tabs are backslash-escaped so the line can be split back
// out unambiguously regardless of what UTF-8 text it carries.
func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}

func unescape(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("codec: dangling escape at end of %q", s)
		}
		switch s[i] {
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		default:
			return "", fmt.Errorf("codec: invalid escape sequence \\%c in %q", s[i], s)
		}
	}
	return sb.String(), nil
}

// EncodeCommit renders c as canonical text:
//
//	parent_hashes <hex>,<hex>,...
//	dir_hash <hex>
//	author <escaped author>
//	timestamp <unix-millis>
//	message:
//	<raw message bytes, to end of file>
func EncodeCommit(c vcommit.Commit) []byte {
	var sb strings.Builder

	parentHexes := make([]string, len(c.Parents))
	for i, p := range c.Parents {
		parentHexes[i] = p.String()
	}
	fmt.Fprintf(&sb, "%s %s\n", fieldParents, strings.Join(parentHexes, ","))
	fmt.Fprintf(&sb, "%s %s\n", fieldDirHash, c.DirHash.String())
	fmt.Fprintf(&sb, "%s %s\n", fieldAuthor, escape(c.Author))
	fmt.Fprintf(&sb, "%s %d\n", fieldTime, c.TimestampMillis)
	fmt.Fprintf(&sb, "%s:\n", fieldMessage)
	sb.WriteString(c.Message)

	return []byte(sb.String())
}

// DecodeCommit parses the bytes produced by EncodeCommit.
func DecodeCommit(data []byte) (vcommit.Commit, error) {
	text := string(data)
	lines := strings.SplitN(text, "\n", 6)
	if len(lines) < 6 {
		return vcommit.Commit{}, fmt.Errorf("codec: truncated commit encoding")
	}

	var c vcommit.Commit

	parentsLine, ok := cutPrefix(lines[0], fieldParents+" ")
	if !ok {
		return vcommit.Commit{}, fmt.Errorf("codec: commit missing %q field", fieldParents)
	}
	if parentsLine != "" {
		for _, hex := range strings.Split(parentsLine, ",") {
			h, err := objhash.ParseLiteral(hex)
			if err != nil {
				return vcommit.Commit{}, fmt.Errorf("codec: parent hash: %w", err)
			}
			c.Parents = append(c.Parents, h)
		}
	}

	dirLine, ok := cutPrefix(lines[1], fieldDirHash+" ")
	if !ok {
		return vcommit.Commit{}, fmt.Errorf("codec: commit missing %q field", fieldDirHash)
	}
	dirHash, err := objhash.ParseLiteral(dirLine)
	if err != nil {
		return vcommit.Commit{}, fmt.Errorf("codec: dir hash: %w", err)
	}
	c.DirHash = dirHash

	authorLine, ok := cutPrefix(lines[2], fieldAuthor+" ")
	if !ok {
		return vcommit.Commit{}, fmt.Errorf("codec: commit missing %q field", fieldAuthor)
	}
	author, err := unescape(authorLine)
	if err != nil {
		return vcommit.Commit{}, fmt.Errorf("codec: author: %w", err)
	}
	c.Author = author

	tsLine, ok := cutPrefix(lines[3], fieldTime+" ")
	if !ok {
		return vcommit.Commit{}, fmt.Errorf("codec: commit missing %q field", fieldTime)
	}
	ts, err := strconv.ParseInt(tsLine, 10, 64)
	if err != nil {
		return vcommit.Commit{}, fmt.Errorf("codec: timestamp: %w", err)
	}
	c.TimestampMillis = ts

	if lines[4] != fieldMessage+":" {
		return vcommit.Commit{}, fmt.Errorf("codec: expected %q header, got %q", fieldMessage+":", lines[4])
	}

	// The message is everything after the header line: SplitN's last
	// element keeps it whole, since the message body may itself contain
	// newlines.
	c.Message = lines[5]

	return c, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		if s == strings.TrimSuffix(prefix, " ") {
			return "", true
		}
		return "", false
	}
	return s[len(prefix):], true
}

// EncodeDirectory renders d as canonical text:
//
//	files:
//	<escaped path>\t<content hash hex>
//	...
//
// Entries are written in the same ascending path order Directory.Hash
// uses, though decoding does not depend on that order.
func EncodeDirectory(d *tree.Directory) []byte {
	var sb strings.Builder
	sb.WriteString(filesHeader)
	sb.WriteByte('\n')
	for _, e := range d.Entries() {
		sb.WriteString(escape(e.Path))
		sb.WriteByte('\t')
		sb.WriteString(e.Ref.ContentHash.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// DecodeDirectory parses the bytes produced by EncodeDirectory.
func DecodeDirectory(data []byte) (*tree.Directory, error) {
	text := string(data)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || lines[0] != filesHeader {
		return nil, fmt.Errorf("codec: directory missing %q header", filesHeader)
	}

	entries := make([]tree.Entry, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		tabIdx := strings.LastIndexByte(line, '\t')
		if tabIdx < 0 {
			return nil, fmt.Errorf("codec: malformed directory entry %q", line)
		}
		escapedPath, hexHash := line[:tabIdx], line[tabIdx+1:]
		path, err := unescape(escapedPath)
		if err != nil {
			return nil, fmt.Errorf("codec: path: %w", err)
		}
		hash, err := objhash.ParseLiteral(hexHash)
		if err != nil {
			return nil, fmt.Errorf("codec: content hash: %w", err)
		}
		entries = append(entries, tree.Entry{Path: path, Ref: tree.BlobRef{ContentHash: hash}})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return tree.FromEntries(entries), nil
}
