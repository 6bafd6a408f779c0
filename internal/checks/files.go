package checks

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/ignore"
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// fileList is the outcome of resolving a FileSet.
type fileList struct {
	// Files are root-relative slash paths, sorted.
	Files []string
	// Missing are configured trees that do not exist.
	Missing []string
}

// listFiles resolves set against root. Trees that do not exist are
// reported in Missing rather than failing the listing.
func listFiles(ctx context.Context, root string, set config.FileSet) (*fileList, error) {
	matcher, err := ignore.Load(root, set.IgnoreFiles, set.Exclude...)
	if err != nil {
		return nil, err
	}

	var tracked map[string]bool
	if set.TrackedOnly {
		tracked, err = trackedFiles(root)
		if err != nil {
			return nil, err
		}
	}

	seen := map[string]bool{}
	out := &fileList{}
	keep := func(rel string) {
		if seen[rel] || matcher.Match(rel) || !included(set.Include, rel) {
			return
		}
		if tracked != nil && !tracked[rel] {
			return
		}
		seen[rel] = true
		out.Files = append(out.Files, rel)
	}

	for _, tree := range set.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := resolve(root, tree)
		info, err := os.Stat(base)
		if errors.Is(err, fs.ErrNotExist) {
			out.Missing = append(out.Missing, tree)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			keep(relSlash(root, base))
			continue
		}

		err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel := relSlash(root, p)
			if d.IsDir() {
				if d.Name() == ".git" || (p != base && matcher.MatchDir(rel)) {
					return filepath.SkipDir
				}
				return ctx.Err()
			}
			switch {
			case d.Type().IsRegular():
				keep(rel)
			case d.Type()&fs.ModeSymlink != 0:
				// Linked files are scanned; linked directories are not
				// followed.
				if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
					keep(rel)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(out.Files)
	return out, nil
}

func included(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		// Patterns without a slash match the base name anywhere.
		if ok, _ := doublestar.Match(p, path.Base(rel)); ok {
			return true
		}
	}
	return false
}

func relSlash(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// isBinary reports whether the start of r contains a NUL byte.
func isBinary(r *bufio.Reader) (bool, error) {
	sniff, err := r.Peek(binarySniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return false, err
	}
	return bytes.IndexByte(sniff, 0) >= 0, nil
}

// readLines streams name line by line into visit, whatever its size.
// binary is true, and visit is never called, for files that look binary.
func readLines(name string, visit func(n int, line string)) (binary bool, err error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	if binary, err := isBinary(r); binary || err != nil {
		return binary, err
	}
	for n := 1; ; n++ {
		line, err := r.ReadString('\n')
		if line != "" {
			visit(n, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// readText returns the whole contents of a file. ok is false for files
// that look binary.
func readText(name string) (content []byte, ok bool, err error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	if binary, err := isBinary(r); binary || err != nil {
		return nil, false, err
	}
	content, err = io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	return content, true, nil
}

// skipNote appends the trees that were missing and the binary files that
// were not read to a scan summary.
func skipNote(msg string, files *fileList, binary []string) string {
	var notes []string
	if files != nil && len(files.Missing) > 0 {
		notes = append(notes, "missing: "+strings.Join(files.Missing, ", "))
	}
	if len(binary) > 0 {
		notes = append(notes, "binary, not scanned: "+strings.Join(truncateList(binary, maxListedHits), ", "))
	}
	if len(notes) == 0 {
		return msg
	}
	return msg + " (" + strings.Join(notes, "; ") + ")"
}
