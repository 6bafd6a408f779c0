package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// DefaultAllowlistFile is the project allowlist read when none is named.
const DefaultAllowlistFile = ".gitleaks.toml"

// Allowlist holds path and content regex patterns excluded from detection.
type Allowlist struct {
	Paths   []string // file path patterns, matched against slash paths
	Regexes []string // content patterns
}

// LoadAllowlist reads the [allowlist] table of a gitleaks-style TOML file.
// An empty name means root/.gitleaks.toml. A missing default file yields
// an empty allowlist; a missing named file is an error.
func LoadAllowlist(root, name string) (*Allowlist, error) {
	explicit := name != ""
	name = AllowlistPath(root, name)

	list, err := loadTOML(name)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Allowlist{}, nil
		}
		return nil, err
	}
	return list, nil
}

// AllowlistPath returns the file LoadAllowlist reads for name.
func AllowlistPath(root, name string) string {
	if name == "" {
		name = DefaultAllowlistFile
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(root, name)
	}
	return name
}

func loadTOML(path string) (*Allowlist, error) {
	var config struct {
		Allowlist struct {
			Paths   []string
			Regexes []string
		}
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	for _, pattern := range config.Allowlist.Paths {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid path pattern '%s' in %s: %v",
				ErrInvalidRegex, pattern, path, err)
		}
	}
	for _, pattern := range config.Allowlist.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid content pattern '%s' in %s: %v",
				ErrInvalidRegex, pattern, path, err)
		}
	}

	return &Allowlist{
		Paths:   config.Allowlist.Paths,
		Regexes: config.Allowlist.Regexes,
	}, nil
}
