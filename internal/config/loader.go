package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	envPrefix = "GATE_"
)

// envSections are the nested config sections reachable from the environment.
var envSections = map[string]bool{
	"logging": true,
	"metrics": true,
	"watch":   true,
}

// Load reads the gate definition for the project at root.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GATE_STATUS_FILE, GATE_LOGGING_LEVEL, ...)
//  2. YAML config file
//  3. Built-in defaults
//
// When configPath is empty, root/.quality-gates.yaml is used if it exists
// and defaults apply otherwise. An explicit configPath must exist.
//
// # Environment Variable Mapping
//
// The GATE_ prefix is stripped and the rest lowercased. A leading section
// name is split off with a dot; everything else is a top-level key:
//
//	GATE_STATUS_FILE     -> status_file
//	GATE_CHECK_TIMEOUT   -> check_timeout
//	GATE_LOGGING_LEVEL   -> logging.level
//	GATE_WATCH_DEBOUNCE  -> watch.debounce
func Load(root, configPath string) (*Config, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(root, DefaultFileName)
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps GATE_LOGGING_LEVEL to logging.level and GATE_STATUS_FILE to
// status_file.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 2 && envSections[parts[0]] {
		return parts[0] + "." + parts[1]
	}
	return lower
}

// readConfigFile opens path once and checks its size on the open
// descriptor before reading.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.StatusFile == "" {
		cfg.StatusFile = DefaultStatusFile
	}
	if len(cfg.Phases) == 0 {
		cfg.Phases = []PhaseConfig{{Name: "baseline"}}
	}
	for i := range cfg.Phases {
		if cfg.Phases[i].Name == "" {
			cfg.Phases[i].Name = fmt.Sprintf("phase %d", i)
		}
		for j := range cfg.Phases[i].Checks {
			if cfg.Phases[i].Checks[j].Kind == KindSecretScan {
				applyFileSetDefaults(&cfg.Phases[i].Checks[j].FileSet)
			}
		}
	}

	if cfg.Forbidden.Name == "" {
		cfg.Forbidden.Name = "forbidden patterns"
	}
	if len(cfg.Forbidden.Patterns) == 0 {
		cfg.Forbidden.Patterns = []string{"var_dump(", "print_r(", "console.log(", "debugger;"}
	}
	if cfg.Forbidden.AllowList == nil {
		cfg.Forbidden.AllowList = []string{"tests/", "phpcs:ignore"}
	}
	applyFileSetDefaults(&cfg.Forbidden.FileSet)

	if cfg.Markers.Name == "" {
		cfg.Markers.Name = "marker comments"
	}
	if len(cfg.Markers.Tokens) == 0 {
		cfg.Markers.Tokens = []string{"TODO", "FIXME", "XXX", "HACK"}
	}
	applyFileSetDefaults(&cfg.Markers.FileSet)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(300 * time.Millisecond)
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = Duration(2 * time.Second)
	}
}

func applyFileSetDefaults(fs *FileSet) {
	if len(fs.Paths) == 0 {
		fs.Paths = []string{"src"}
	}
	if fs.IgnoreFiles == nil {
		fs.IgnoreFiles = []string{".gitignore"}
	}
}
