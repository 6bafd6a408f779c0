package secrets

import (
	"fmt"
	"regexp"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Finding is one detected secret. The secret value itself is never kept.
type Finding struct {
	RuleID   string
	RuleDesc string
	Line     int
	StartCol int
	EndCol   int
}

func (f Finding) String() string {
	return fmt.Sprintf("line %d: %s", f.Line, f.RuleID)
}

// Detector wraps a Gitleaks detector loaded with the default rule set.
// Building the rule set is expensive, so one Detector serves a whole scan.
// A Detector is not safe for concurrent use.
type Detector struct {
	gitleaks *detect.Detector
	paths    []*regexp.Regexp
}

// NewDetector builds a detector. allowlist may be nil.
func NewDetector(allowlist *Allowlist) (*Detector, error) {
	gl, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}

	d := &Detector{gitleaks: gl}
	if allowlist == nil {
		return d, nil
	}

	global := &gitleaksConfig.Allowlist{Description: "quality gate allowlist"}
	for _, pattern := range allowlist.Paths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRegex, pattern, err)
		}
		d.paths = append(d.paths, re)
		global.Paths = append(global.Paths, (*gitleaksRegexp.Regexp)(re))
	}
	for _, pattern := range allowlist.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRegex, pattern, err)
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	global.StopWords = append(global.StopWords, allowlist.Regexes...)
	gl.Config.Allowlists = append(gl.Config.Allowlists, global)

	return d, nil
}

// AllowsPath reports whether path is exempt from scanning.
func (d *Detector) AllowsPath(path string) bool {
	for _, re := range d.paths {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Scan returns the secrets found in content.
func (d *Detector) Scan(content string) []Finding {
	found := d.gitleaks.DetectString(content)
	result := make([]Finding, 0, len(found))
	for _, f := range found {
		result = append(result, Finding{
			RuleID:   f.RuleID,
			RuleDesc: f.Description,
			Line:     f.StartLine,
			StartCol: f.StartColumn,
			EndCol:   f.EndColumn,
		})
	}
	return result
}
