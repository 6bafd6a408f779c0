package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
)

const (
	// ForbiddenEnforceFrom is the first phase at which forbidden patterns
	// count as errors.
	ForbiddenEnforceFrom = 0

	// MarkerEnforceFrom is the first phase at which marker comments count
	// as errors. At phase 0 they are reported but never counted.
	MarkerEnforceFrom = 1
)

// maxListedHits caps the locations named in a scan failure.
const maxListedHits = 10

// hit is one matching line.
type hit struct {
	file  string
	line  int
	token string
}

func (h hit) String() string {
	return fmt.Sprintf("%s:%d: %s", h.file, h.line, h.token)
}

// allowList exempts whole files by path and single lines by content.
type allowList []string

func (a allowList) matches(s string) bool {
	for _, entry := range a {
		if entry != "" && strings.Contains(s, entry) {
			return true
		}
	}
	return false
}

// lineScanner visits every non-exempt line of a file set.
type lineScanner struct {
	root  string
	set   config.FileSet
	allow allowList
}

// scanStats describes what a scan covered.
type scanStats struct {
	read   int
	files  *fileList
	binary []string
}

func (st scanStats) note(msg string) string {
	return skipNote(msg, st.files, st.binary)
}

// scan calls visit for each line outside the allow list.
func (s *lineScanner) scan(ctx context.Context, visit func(file string, line int, text string)) (scanStats, error) {
	var st scanStats
	files, err := listFiles(ctx, s.root, s.set)
	if err != nil {
		return st, err
	}
	st.files = files

	logger := logging.FromContext(ctx)
	for _, rel := range files.Files {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if s.allow.matches(rel) {
			logger.Trace(ctx, "file allow-listed", zap.String("file", rel))
			continue
		}
		binary, err := readLines(resolve(s.root, rel), func(n int, text string) {
			if !s.allow.matches(text) {
				visit(rel, n, text)
			}
		})
		if err != nil {
			return st, fmt.Errorf("%s: %w", rel, err)
		}
		if binary {
			logger.Trace(ctx, "binary file skipped", zap.String("file", rel))
			st.binary = append(st.binary, rel)
			continue
		}
		st.read++
	}
	return st, nil
}

// PatternScan fails when any forbidden substring appears in the file set.
type PatternScan struct {
	name     string
	patterns []string
	scanner  lineScanner
}

// NewPatternScan creates the forbidden-pattern scan.
func NewPatternScan(root string, cfg config.ScanConfig) *PatternScan {
	return &PatternScan{
		name:     cfg.Name,
		patterns: cfg.Patterns,
		scanner:  lineScanner{root: root, set: cfg.FileSet, allow: cfg.AllowList},
	}
}

func (c *PatternScan) Name() string { return c.name }

func (c *PatternScan) Run(ctx context.Context) gate.Outcome {
	var hits []string
	st, err := c.scanner.scan(ctx, func(file string, line int, text string) {
		for _, p := range c.patterns {
			if strings.Contains(text, p) {
				hits = append(hits, hit{file, line, p}.String())
			}
		}
	})
	if err != nil {
		return gate.Fail("scan failed: %v", err)
	}
	if len(hits) == 0 {
		return gate.Pass("%s", st.note(fmt.Sprintf("no forbidden patterns in %d files", st.read)))
	}
	return gate.Fail("%s", withTail(
		fmt.Sprintf("%d forbidden pattern occurrence(s)", len(hits)),
		truncateList(hits, maxListedHits),
	))
}

// MarkerCount fails when any marker token appears in the file set.
type MarkerCount struct {
	name    string
	tokens  []string
	scanner lineScanner
}

// NewMarkerCount creates the marker-comment count.
func NewMarkerCount(root string, cfg config.MarkerConfig) *MarkerCount {
	return &MarkerCount{
		name:    cfg.Name,
		tokens:  cfg.Tokens,
		scanner: lineScanner{root: root, set: cfg.FileSet, allow: cfg.AllowList},
	}
}

func (c *MarkerCount) Name() string { return c.name }

func (c *MarkerCount) Run(ctx context.Context) gate.Outcome {
	counts := map[string]int{}
	var hits []string
	total := 0
	st, err := c.scanner.scan(ctx, func(file string, line int, text string) {
		for _, tok := range c.tokens {
			if n := strings.Count(text, tok); n > 0 {
				counts[tok] += n
				total += n
				hits = append(hits, hit{file, line, tok}.String())
			}
		}
	})
	if err != nil {
		return gate.Fail("scan failed: %v", err)
	}
	if total == 0 {
		return gate.Pass("%s", st.note(fmt.Sprintf("no marker comments in %d files", st.read)))
	}

	tally := make([]string, 0, len(counts))
	for tok, n := range counts {
		tally = append(tally, fmt.Sprintf("%s=%d", tok, n))
	}
	sort.Strings(tally)
	return gate.Fail("%s", withTail(
		fmt.Sprintf("%d marker comment(s) (%s)", total, strings.Join(tally, ", ")),
		truncateList(hits, maxListedHits),
	))
}
