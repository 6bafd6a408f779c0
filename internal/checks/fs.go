package checks

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// PathCheck passes when a path exists and has the expected type.
type PathCheck struct {
	name    string
	root    string
	path    string
	wantDir bool
}

// NewFileExists checks that path, relative to root, is a regular file.
func NewFileExists(name, root, path string) *PathCheck {
	return &PathCheck{name: name, root: root, path: path}
}

// NewDirExists checks that path, relative to root, is a directory.
func NewDirExists(name, root, path string) *PathCheck {
	return &PathCheck{name: name, root: root, path: path, wantDir: true}
}

func (c *PathCheck) Name() string { return c.name }

func (c *PathCheck) Run(ctx context.Context) gate.Outcome {
	info, err := os.Stat(resolve(c.root, c.path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return gate.Fail("%s does not exist", c.path)
	case err != nil:
		return gate.Fail("cannot stat %s: %v", c.path, err)
	case c.wantDir && !info.IsDir():
		return gate.Fail("%s is not a directory", c.path)
	case !c.wantDir && !info.Mode().IsRegular():
		return gate.Fail("%s is not a regular file", c.path)
	}
	return gate.Pass("%s found", c.path)
}

// resolve joins a relative path onto root and leaves absolute paths alone.
func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
