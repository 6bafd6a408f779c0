package checks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
)

func runCommand(t *testing.T, spec CommandSpec) gate.Outcome {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "cmd"
	}
	if spec.Root == "" {
		spec.Root = t.TempDir()
	}
	return NewCommand(spec).Run(context.Background())
}

func TestCommand_ExitCodes(t *testing.T) {
	out := runCommand(t, CommandSpec{Argv: []string{"sh", "-c", "exit 0"}})
	assert.Equal(t, gate.OutcomePass, out.Status)

	out = runCommand(t, CommandSpec{Argv: []string{"sh", "-c", "echo first; echo 'phpcs: 3 errors' >&2; exit 2"}})
	assert.Equal(t, gate.OutcomeFail, out.Status)
	assert.Contains(t, out.Message, "exit status 2")
	assert.Contains(t, out.Message, "phpcs: 3 errors")
	assert.Contains(t, out.Message, "first")
}

func TestCommand_MissingProgramFails(t *testing.T) {
	out := runCommand(t, CommandSpec{Argv: []string{"definitely-not-a-real-tool-7f3a"}})
	assert.Equal(t, gate.OutcomeFail, out.Status)
	assert.Contains(t, out.Message, "definitely-not-a-real-tool-7f3a")
}

func TestCommand_RequiresSkips(t *testing.T) {
	root := t.TempDir()

	out := runCommand(t, CommandSpec{
		Root:     root,
		Argv:     []string{"vendor/bin/phpunit"},
		Requires: "vendor/bin/phpunit",
	})
	assert.Equal(t, gate.OutcomeSkip, out.Status)
	assert.Equal(t, "vendor/bin/phpunit is not installed", out.Message)

	writeScript(t, filepath.Join(root, "vendor", "bin"), "phpunit", "echo OK; exit 0")
	out = runCommand(t, CommandSpec{
		Root:     root,
		Argv:     []string{"vendor/bin/phpunit"},
		Requires: "vendor/bin/phpunit",
	})
	assert.Equal(t, gate.OutcomePass, out.Status, out.Message)
}

func TestCommand_PathPrepend(t *testing.T) {
	root := t.TempDir()
	writeScript(t, filepath.Join(root, "mamp", "bin"), "mysql", `test "$1" = "--version"`)

	out := runCommand(t, CommandSpec{Root: root, Argv: []string{"mysql", "--version"}})
	if out.Status == gate.OutcomePass {
		t.Skip("a mysql client is installed on this machine")
	}

	out = runCommand(t, CommandSpec{
		Root:        root,
		Argv:        []string{"mysql", "--version"},
		PathPrepend: []string{"mamp/bin"},
		Requires:    "mysql",
	})
	assert.Equal(t, gate.OutcomePass, out.Status, out.Message)
}

func TestCommand_EnvAndDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plugin/readme.txt", "woo")

	out := runCommand(t, CommandSpec{
		Root: root,
		Dir:  "plugin",
		Env:  map[string]string{"WP_ENV": "testing"},
		Argv: []string{"sh", "-c", `test "$WP_ENV" = testing && test -f readme.txt`},
	})
	assert.Equal(t, gate.OutcomePass, out.Status, out.Message)
}

func TestCommand_Timeout(t *testing.T) {
	out := runCommand(t, CommandSpec{
		Argv:    []string{"sleep", "5"},
		Timeout: 50 * time.Millisecond,
	})
	assert.Equal(t, gate.OutcomeFail, out.Status)
	assert.Contains(t, out.Message, "timed out")
}

func TestCommand_TracesOutput(t *testing.T) {
	tl := logging.NewTestLogger()
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	NewCommand(CommandSpec{Name: "echo", Root: t.TempDir(), Argv: []string{"sh", "-c", "echo hello"}}).Run(ctx)

	tl.AssertLogged(t, logging.TraceLevel, "command output")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "command output")
	tl.AssertField(t, "command output", "check", "echo")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"composer run phpcs", []string{"composer", "run", "phpcs"}},
		{"  wp   plugin activate  ", []string{"wp", "plugin", "activate"}},
		{`sh -c 'echo "hi there"'`, []string{"sh", "-c", `echo "hi there"`}},
		{`grep "two words" src`, []string{"grep", "two words", "src"}},
		{`ls My\ Plugin`, []string{"ls", "My Plugin"}},
		{`sh -c 'phpcs && phpunit'`, []string{"sh", "-c", "phpcs && phpunit"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Rejects(t *testing.T) {
	for _, in := range []string{
		`sh -c 'echo`,
		`grep "unterminated src`,
		`composer install && vendor/bin/phpunit`,
		`phpcs | tee out.txt`,
		`phpunit > report.txt`,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCommand(in)
			assert.Error(t, err)
		})
	}
}

func TestTailBuffer(t *testing.T) {
	var b tailBuffer
	for i := 0; i < 30; i++ {
		_, err := b.Write([]byte("line\n\n"))
		require.NoError(t, err)
	}
	assert.Len(t, b.Tail(5), 5)

	var big tailBuffer
	_, _ = big.Write(make([]byte, maxCapturedOutput+10))
	assert.Len(t, big.String(), maxCapturedOutput)
}
