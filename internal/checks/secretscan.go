package checks

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/secrets"
)

// SecretScan runs the Gitleaks rule set over a file set.
type SecretScan struct {
	name      string
	root      string
	set       config.FileSet
	allowlist string

	// detector is reused until the allowlist file changes.
	detector *secrets.Detector
	loadedAt time.Time
}

// NewSecretScan creates a secret_scan check. allowlist names a
// gitleaks-style TOML file; empty means root/.gitleaks.toml if present.
func NewSecretScan(name, root string, set config.FileSet, allowlist string) *SecretScan {
	return &SecretScan{name: name, root: root, set: set, allowlist: allowlist}
}

func (c *SecretScan) Name() string { return c.name }

// loadDetector returns the cached detector, rebuilding it when the
// allowlist file's modification time differs from the last load.
func (c *SecretScan) loadDetector(ctx context.Context) (*secrets.Detector, error) {
	path := secrets.AllowlistPath(c.root, c.allowlist)
	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	if c.detector != nil && modTime.Equal(c.loadedAt) {
		return c.detector, nil
	}

	list, err := secrets.LoadAllowlist(c.root, c.allowlist)
	if err != nil {
		return nil, fmt.Errorf("cannot load allowlist: %w", err)
	}
	d, err := secrets.NewDetector(list)
	if err != nil {
		return nil, err
	}
	if c.detector != nil {
		logging.FromContext(ctx).Debug(ctx, "allowlist changed, detector rebuilt", zap.String("path", path))
	}
	c.detector, c.loadedAt = d, modTime
	return d, nil
}

func (c *SecretScan) Run(ctx context.Context) gate.Outcome {
	detector, err := c.loadDetector(ctx)
	if err != nil {
		return gate.Fail("%v", err)
	}

	files, err := listFiles(ctx, c.root, c.set)
	if err != nil {
		return gate.Fail("cannot list files: %v", err)
	}

	var hits, binary []string
	read := 0
	for _, rel := range files.Files {
		if err := ctx.Err(); err != nil {
			return gate.Fail("scan interrupted: %v", err)
		}
		if detector.AllowsPath(rel) {
			continue
		}
		content, ok, err := readText(resolve(c.root, rel))
		if err != nil {
			return gate.Fail("cannot read %s: %v", rel, err)
		}
		if !ok {
			binary = append(binary, rel)
			continue
		}
		read++
		for _, f := range detector.Scan(string(content)) {
			hits = append(hits, fmt.Sprintf("%s:%d: %s", rel, f.Line, f.RuleID))
		}
	}

	if len(hits) == 0 {
		return gate.Pass("%s", skipNote(fmt.Sprintf("no secrets in %d files", read), files, binary))
	}
	return gate.Fail("%s", withTail(
		fmt.Sprintf("%d potential secret(s)", len(hits)),
		truncateList(hits, maxListedHits),
	))
}
