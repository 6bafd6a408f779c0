package checks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

func initRepo(t *testing.T, root string) *git.Worktree {
	t.Helper()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return wt
}

func commitAll(t *testing.T, wt *git.Worktree) {
	t.Helper()
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err := wt.Commit("snapshot", &git.CommitOptions{
		Author: &object.Signature{Name: "Gate Test", Email: "gate@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestGitClean(t *testing.T) {
	root := t.TempDir()
	wt := initRepo(t, root)
	writeFile(t, root, "composer.json", "{}")

	check := NewGitClean("clean working tree", root)
	out := check.Run(context.Background())
	require.Equal(t, gate.OutcomeFail, out.Status)
	assert.Contains(t, out.Message, "1 uncommitted change(s)")
	assert.Contains(t, out.Message, "composer.json")

	commitAll(t, wt)
	out = check.Run(context.Background())
	assert.Equal(t, gate.OutcomePass, out.Status, out.Message)
}

func TestGitClean_IgnoresGateOutputs(t *testing.T) {
	repoRoot := t.TempDir()
	wt := initRepo(t, repoRoot)
	writeFile(t, repoRoot, "plugin/composer.json", "{}")
	commitAll(t, wt)

	root := filepath.Join(repoRoot, "plugin")
	writeFile(t, root, ".quality-gates-status", "QUALITY_GATES_STATUS=PASSED\n")
	writeFile(t, root, "..quality-gates-status.123.tmp", "")
	writeFile(t, root, "build/gate.prom", "gate_passed 1\n")
	writeFile(t, root, "build/gate.prom.4567", "")

	check := NewGitClean("clean working tree", root, ".quality-gates-status", "build/gate.prom")
	out := check.Run(context.Background())
	assert.Equal(t, gate.OutcomePass, out.Status, out.Message)

	writeFile(t, root, "build/report.txt", "x")
	out = check.Run(context.Background())
	require.Equal(t, gate.OutcomeFail, out.Status)
	assert.Contains(t, out.Message, "1 uncommitted change(s)")
	assert.Contains(t, out.Message, "plugin/build/report.txt")
}

func TestIsOwn(t *testing.T) {
	own := []string{".quality-gates-status", "build/gate.prom"}
	tests := map[string]bool{
		".quality-gates-status":               true,
		"..quality-gates-status.8812.tmp":     true,
		"build/gate.prom":                     true,
		"build/gate.prom3391":                 true,
		"src/.quality-gates-status":           false,
		"gate.prom":                           false,
		"build/other.prom":                    false,
		"..quality-gates-status.8812.partial": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, isOwn(own, name), name)
	}
}

func TestGitClean_NotARepository(t *testing.T) {
	out := NewGitClean("clean working tree", t.TempDir()).Run(context.Background())
	assert.Equal(t, gate.OutcomeSkip, out.Status)
}

func TestListFiles_TrackedOnly(t *testing.T) {
	root := t.TempDir()
	wt := initRepo(t, root)
	writeFile(t, root, "src/Tracked.php", "debugPrint();\n")
	commitAll(t, wt)
	writeFile(t, root, "src/Scratch.php", "debugPrint();\n")

	set := config.FileSet{Paths: []string{"src"}, TrackedOnly: true}
	files, err := listFiles(context.Background(), root, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/Tracked.php"}, files.Files)

	set.TrackedOnly = false
	files, err = listFiles(context.Background(), root, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/Scratch.php", "src/Tracked.php"}, files.Files)
}

func TestListFiles_TrackedOnlyFromSubdirectory(t *testing.T) {
	repoRoot := t.TempDir()
	wt := initRepo(t, repoRoot)
	writeFile(t, repoRoot, "plugin/src/Cart.php", "<?php\n")
	commitAll(t, wt)

	files, err := listFiles(context.Background(), filepath.Join(repoRoot, "plugin"), config.FileSet{
		Paths:       []string{"src"},
		TrackedOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/Cart.php"}, files.Files)
}

func TestListFiles_TrackedOnlyOutsideRepository(t *testing.T) {
	_, err := listFiles(context.Background(), t.TempDir(), config.FileSet{Paths: []string{"src"}, TrackedOnly: true})
	assert.ErrorContains(t, err, "tracked_only")
}
