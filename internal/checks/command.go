package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
)

// outputTailLines is how much command output a failure message carries.
const outputTailLines = 15

// CommandSpec describes an external program run as a check.
type CommandSpec struct {
	Name string
	// Root is the project root; Dir and relative program paths resolve
	// against it.
	Root string
	Argv []string
	Dir  string
	Env  map[string]string
	// PathPrepend directories are searched before the inherited PATH,
	// both for Argv[0] and Requires.
	PathPrepend []string
	// Requires names a tool that must be present for the check to apply.
	// When it is missing the check is skipped rather than failed.
	Requires string
	Timeout  time.Duration
}

// Command runs a program and passes when it exits 0.
type Command struct {
	spec CommandSpec
}

// NewCommand creates a command check.
func NewCommand(spec CommandSpec) *Command {
	return &Command{spec: spec}
}

func (c *Command) Name() string { return c.spec.Name }

func (c *Command) Run(ctx context.Context) gate.Outcome {
	logger := logging.FromContext(ctx)
	searchPath := c.searchPath()

	if c.spec.Requires != "" {
		if _, err := lookPath(c.spec.Requires, c.spec.Root, searchPath); err != nil {
			return gate.Skip("%s is not installed", c.spec.Requires)
		}
	}
	if len(c.spec.Argv) == 0 {
		return gate.Fail("empty command")
	}

	program, err := lookPath(c.spec.Argv[0], c.spec.Root, searchPath)
	if err != nil {
		return gate.Fail("cannot run %s: %v", c.spec.Argv[0], err)
	}

	if c.spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, c.spec.Argv[1:]...)
	cmd.Dir = c.spec.Root
	if c.spec.Dir != "" {
		cmd.Dir = resolve(c.spec.Root, c.spec.Dir)
	}
	cmd.Env = c.environ(searchPath)

	var out tailBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start).Round(time.Millisecond)

	logger.Trace(ctx, "command output",
		zap.String("check", c.spec.Name),
		zap.Strings("argv", c.spec.Argv),
		zap.String("output", out.String()),
	)

	if runErr == nil {
		return gate.Pass("exit 0 in %s", elapsed)
	}
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return gate.Fail("timed out after %s", elapsed)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return gate.Fail("%s", withTail(fmt.Sprintf("exit status %d", exitErr.ExitCode()), out.Tail(outputTailLines)))
	}
	return gate.Fail("cannot run %s: %v", c.spec.Argv[0], runErr)
}

// searchPath is PathPrepend followed by the inherited PATH.
func (c *Command) searchPath() string {
	dirs := make([]string, 0, len(c.spec.PathPrepend)+1)
	for _, d := range c.spec.PathPrepend {
		dirs = append(dirs, resolve(c.spec.Root, d))
	}
	if inherited := os.Getenv("PATH"); inherited != "" {
		dirs = append(dirs, inherited)
	}
	return strings.Join(dirs, string(os.PathListSeparator))
}

// environ returns the inherited environment with PATH and Env applied.
// os/exec keeps the last value of a duplicated key.
func (c *Command) environ(searchPath string) []string {
	env := append(os.Environ(), "PATH="+searchPath)
	keys := make([]string, 0, len(c.spec.Env))
	for k := range c.spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.spec.Env[k])
	}
	return env
}

// lookPath resolves name the way a shell would with PATH set to
// searchPath. Names containing a separator resolve against root.
func lookPath(name, root, searchPath string) (string, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		candidate := resolve(root, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w in PATH", name, exec.ErrNotFound)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// ParseCommand splits a command line into argv with shell quoting and
// backslash escapes. It is not run by a shell: pipes, redirections and
// command lists are rejected, as are unterminated quotes.
func ParseCommand(line string) ([]string, error) {
	p := shellwords.NewParser()
	argv, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("cannot parse command %q: %w", line, err)
	}
	if p.Position >= 0 {
		return nil, fmt.Errorf("command %q uses shell operators; wrap it in sh -c '...'", line)
	}
	return argv, nil
}

func withTail(head string, tail []string) string {
	if len(tail) == 0 {
		return head
	}
	return head + "\n" + strings.Join(tail, "\n")
}

// maxCapturedOutput bounds what a single command keeps in memory.
const maxCapturedOutput = 256 * 1024

// tailBuffer keeps the last maxCapturedOutput bytes written to it.
type tailBuffer struct {
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - maxCapturedOutput; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string { return string(b.buf) }

// Tail returns the last n non-empty lines.
func (b *tailBuffer) Tail(n int) []string {
	lines := strings.Split(strings.TrimRight(string(b.buf), "\n"), "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			kept = append(kept, strings.TrimRight(lines[i], "\r"))
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
