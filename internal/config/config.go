// Package config loads the quality-gate definition for a project.
//
// A project declares its gates in .quality-gates.yaml at the repository
// root. Phase i of the phases list holds the checks that become active at
// phase i; the forbidden-pattern scan and marker count apply to every phase.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultFileName is looked up in the project root when no explicit
	// config path is given.
	DefaultFileName = ".quality-gates.yaml"

	// DefaultStatusFile is where the last gate status is persisted.
	DefaultStatusFile = ".quality-gates-status"
)

// Check kinds.
const (
	KindFileExists = "file_exists"
	KindDirExists  = "dir_exists"
	KindCommand    = "command"
	KindSecretScan = "secret_scan"
	KindGitClean   = "git_clean"
)

var knownKinds = map[string]bool{
	KindFileExists: true,
	KindDirExists:  true,
	KindCommand:    true,
	KindSecretScan: true,
	KindGitClean:   true,
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete gate definition.
type Config struct {
	StatusFile   string        `koanf:"status_file"`
	CheckTimeout Duration      `koanf:"check_timeout"`
	Phases       []PhaseConfig `koanf:"phases"`
	Forbidden    ScanConfig    `koanf:"forbidden_patterns"`
	Markers      MarkerConfig  `koanf:"markers"`
	Logging      LoggingConfig `koanf:"logging"`
	Metrics      MetricsConfig `koanf:"metrics"`
	Watch        WatchConfig   `koanf:"watch"`
}

// PhaseConfig lists the checks introduced at one phase.
type PhaseConfig struct {
	Name   string        `koanf:"name"`
	Checks []CheckConfig `koanf:"checks"`
}

// CheckConfig declares a single tiered check. Which fields apply depends
// on Kind.
type CheckConfig struct {
	Name string `koanf:"name"`
	Kind string `koanf:"kind"`

	// file_exists, dir_exists
	Path string `koanf:"path"`

	// command
	Command     string            `koanf:"command"`
	Args        []string          `koanf:"args"`
	Dir         string            `koanf:"dir"`
	Env         map[string]string `koanf:"env"`
	PathPrepend []string          `koanf:"path_prepend"`
	Requires    string            `koanf:"requires"`
	Timeout     Duration          `koanf:"timeout"`

	// secret_scan
	FileSet   `koanf:",squash"`
	Allowlist string `koanf:"allowlist"`
}

// FileSet selects the files a scan reads. Paths are trees relative to the
// project root; Include and Exclude are doublestar globs on slash paths.
type FileSet struct {
	Paths       []string `koanf:"paths"`
	Include     []string `koanf:"include"`
	Exclude     []string `koanf:"exclude"`
	IgnoreFiles []string `koanf:"ignore_files"`
	TrackedOnly bool     `koanf:"tracked_only"`
}

// ScanConfig configures the forbidden-pattern scan.
type ScanConfig struct {
	Disabled bool     `koanf:"disabled"`
	Name     string   `koanf:"name"`
	Patterns []string `koanf:"patterns"`
	// AllowList substrings exempt a whole file when found in its path and
	// a single line when found in the line.
	AllowList []string `koanf:"allow_list"`
	FileSet   `koanf:",squash"`
}

// MarkerConfig configures the marker-comment count.
type MarkerConfig struct {
	Disabled  bool     `koanf:"disabled"`
	Name      string   `koanf:"name"`
	Tokens    []string `koanf:"tokens"`
	AllowList []string `koanf:"allow_list"`
	FileSet   `koanf:",squash"`
}

// LoggingConfig selects diagnostic log verbosity.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	File string `koanf:"file"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce    Duration `koanf:"debounce"`
	MinInterval Duration `koanf:"min_interval"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// MaxPhase returns the highest configured phase.
func (c *Config) MaxPhase() int {
	return len(c.Phases) - 1
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Phases) == 0 {
		return fmt.Errorf("%w: at least one phase is required", ErrInvalid)
	}

	names := map[string]string{}
	claim := func(name, where string) error {
		if prev, ok := names[name]; ok {
			return fmt.Errorf("%w: %s: check name %q already used in %s", ErrInvalid, where, name, prev)
		}
		names[name] = where
		return nil
	}

	for i, phase := range c.Phases {
		for j, check := range phase.Checks {
			where := fmt.Sprintf("phases[%d].checks[%d]", i, j)
			if err := check.validate(where); err != nil {
				return err
			}
			if err := claim(check.Name, where); err != nil {
				return err
			}
		}
	}

	if !c.Forbidden.Disabled {
		if err := validateNonEmpty("forbidden_patterns.patterns", c.Forbidden.Patterns); err != nil {
			return err
		}
		if err := c.Forbidden.FileSet.validate("forbidden_patterns"); err != nil {
			return err
		}
		if err := claim(c.Forbidden.Name, "forbidden_patterns"); err != nil {
			return err
		}
	}
	if !c.Markers.Disabled {
		if err := validateNonEmpty("markers.tokens", c.Markers.Tokens); err != nil {
			return err
		}
		if err := c.Markers.FileSet.validate("markers"); err != nil {
			return err
		}
		if err := claim(c.Markers.Name, "markers"); err != nil {
			return err
		}
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: logging.format must be 'console' or 'json', got %q", ErrInvalid, c.Logging.Format)
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

func (cc CheckConfig) validate(where string) error {
	if strings.TrimSpace(cc.Name) == "" {
		return fmt.Errorf("%w: %s: name is required", ErrInvalid, where)
	}
	if !knownKinds[cc.Kind] {
		return fmt.Errorf("%w: %s (%s): unknown kind %q", ErrInvalid, where, cc.Name, cc.Kind)
	}
	switch cc.Kind {
	case KindFileExists, KindDirExists:
		if cc.Path == "" {
			return fmt.Errorf("%w: %s (%s): path is required for %s", ErrInvalid, where, cc.Name, cc.Kind)
		}
	case KindCommand:
		if strings.TrimSpace(cc.Command) == "" {
			return fmt.Errorf("%w: %s (%s): command is required", ErrInvalid, where, cc.Name)
		}
	case KindSecretScan:
		return cc.FileSet.validate(where)
	}
	return nil
}

func (fs FileSet) validate(where string) error {
	for _, group := range [][]string{fs.Include, fs.Exclude} {
		for _, pattern := range group {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("%w: %s: invalid glob %q", ErrInvalid, where, pattern)
			}
		}
	}
	for _, p := range fs.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %s: empty path", ErrInvalid, where)
		}
	}
	return nil
}

func validateNonEmpty(field string, values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalid, field)
	}
	for _, v := range values {
		if v == "" {
			return fmt.Errorf("%w: %s contains an empty entry", ErrInvalid, field)
		}
	}
	return nil
}
