package checks

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// maxListedChanges caps the paths named in a git_clean failure.
const maxListedChanges = 10

func openRepository(root string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
}

// repoPrefix returns root relative to the repository's worktree as a slash
// path ending in "/", or "" when root is the worktree itself.
func repoPrefix(repo *git.Repository, root string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	top, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		top = wt.Filesystem.Root()
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	rel, err := filepath.Rel(top, absRoot)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel) + "/", nil
}

// trackedFiles returns the index entries under root as root-relative
// slash paths.
func trackedFiles(root string) (map[string]bool, error) {
	repo, err := openRepository(root)
	if err != nil {
		return nil, fmt.Errorf("tracked_only needs a git repository: %w", err)
	}
	prefix, err := repoPrefix(repo, root)
	if err != nil {
		return nil, err
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read git index: %w", err)
	}

	tracked := make(map[string]bool, len(idx.Entries))
	for _, e := range idx.Entries {
		if rel, ok := strings.CutPrefix(e.Name, prefix); ok {
			tracked[rel] = true
		}
	}
	return tracked, nil
}

// GitClean passes when the working tree has no uncommitted changes.
// Files the gate writes itself never count as changes.
type GitClean struct {
	name string
	root string
	// own are root-relative slash paths of gate outputs.
	own []string
}

// NewGitClean creates a git_clean check for the repository containing root.
// own lists files, relative to root, that the gate writes; they and their
// temporary siblings are ignored.
func NewGitClean(name, root string, own ...string) *GitClean {
	return &GitClean{name: name, root: root, own: own}
}

// ownPaths returns the gate's outputs as repository-relative paths.
func (c *GitClean) ownPaths(prefix string) []string {
	var paths []string
	for _, rel := range c.own {
		p := path.Clean(prefix + rel)
		if p != ".." && !strings.HasPrefix(p, "../") {
			paths = append(paths, p)
		}
	}
	return paths
}

// isOwn reports whether name is one of own or a temporary sibling written
// while replacing it.
func isOwn(own []string, name string) bool {
	dir, base := path.Dir(name), path.Base(name)
	for _, p := range own {
		if name == p {
			return true
		}
		if path.Dir(p) != dir {
			continue
		}
		b := path.Base(p)
		if strings.HasPrefix(base, b) ||
			(strings.HasPrefix(base, "."+b+".") && strings.HasSuffix(base, ".tmp")) {
			return true
		}
	}
	return false
}

func (c *GitClean) Name() string { return c.name }

func (c *GitClean) Run(ctx context.Context) gate.Outcome {
	repo, err := openRepository(c.root)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return gate.Skip("not a git repository")
	}
	if err != nil {
		return gate.Fail("cannot open repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return gate.Fail("cannot open worktree: %v", err)
	}
	status, err := wt.Status()
	if err != nil {
		return gate.Fail("cannot read status: %v", err)
	}
	prefix, err := repoPrefix(repo, c.root)
	if err != nil {
		return gate.Fail("cannot locate project in repository: %v", err)
	}
	own := c.ownPaths(prefix)

	var changed []string
	for file, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		if isOwn(own, file) {
			continue
		}
		changed = append(changed, fmt.Sprintf("%c%c %s", st.Staging, st.Worktree, file))
	}
	if len(changed) == 0 {
		return gate.Pass("working tree clean")
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i][3:] < changed[j][3:] })
	return gate.Fail("%s", withTail(
		fmt.Sprintf("%d uncommitted change(s)", len(changed)),
		truncateList(changed, maxListedChanges),
	))
}

// truncateList keeps the first n items and notes how many were dropped.
func truncateList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	out := append([]string(nil), items[:n]...)
	return append(out, fmt.Sprintf("... and %d more", len(items)-n))
}
