// Package ignore turns gitignore-style files into doublestar patterns and
// matches project-relative paths against them.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher reports whether a slash-separated, root-relative path is ignored.
type Matcher struct {
	patterns []string
}

// NewMatcher creates a matcher from doublestar patterns. Invalid patterns
// are dropped.
func NewMatcher(patterns ...string) *Matcher {
	m := &Matcher{}
	for _, p := range deduplicate(patterns) {
		if doublestar.ValidatePattern(p) {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Load reads each ignore file under root and combines their patterns with
// extra. Missing ignore files are not an error.
func Load(root string, ignoreFiles []string, extra ...string) (*Matcher, error) {
	patterns := append([]string(nil), extra...)
	for _, name := range ignoreFiles {
		filePatterns, err := parseFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}
	return NewMatcher(patterns...), nil
}

// Patterns returns the active patterns in load order.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether rel matches any pattern.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// MatchDir reports whether everything below the directory rel is ignored,
// so a walker can skip it.
func (m *Matcher) MatchDir(rel string) bool {
	return m.Match(rel) || m.Match(path.Join(filepath.ToSlash(rel), "x"))
}

func parseFile(name string) ([]string, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		patterns = append(patterns, parseLine(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// parseLine converts one gitignore line into doublestar patterns.
// Comments, blank lines and negations produce nothing.
func parseLine(line string) []string {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return nil
	}
	return toGlobPatterns(line)
}

func toGlobPatterns(pattern string) []string {
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	// A slash anywhere but the end anchors the pattern to the root.
	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" {
		return nil
	}
	if !anchored && !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}

	if dirOnly {
		return []string{pattern + "/**"}
	}
	if strings.HasSuffix(pattern, "/**") {
		return []string{pattern}
	}
	// Without a trailing slash the name may be a file or a directory.
	return []string{pattern, pattern + "/**"}
}

func deduplicate(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}
