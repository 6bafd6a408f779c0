package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"empty line", "", nil},
		{"whitespace only", "   ", nil},
		{"comment", "# this is a comment", nil},
		{"negation skipped", "!important.txt", nil},
		{"simple file glob", "*.log", []string{"**/*.log", "**/*.log/**"}},
		{"bare name", "vendor", []string{"**/vendor", "**/vendor/**"}},
		{"directory with slash", "node_modules/", []string{"**/node_modules/**"}},
		{"nested path", "assets/cache", []string{"assets/cache", "assets/cache/**"}},
		{"anchored path", "/dist", []string{"dist", "dist/**"}},
		{"double star pattern", "**/build/", []string{"**/build/**"}},
		{"windows line ending", "*.min.js\r", []string{"**/*.min.js", "**/*.min.js/**"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLine(tt.line))
		})
	}
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(
		append(append(parseLine("vendor/"), parseLine("*.min.js")...), parseLine("/build")...)...,
	)

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/autoload.php", true},
		{"src/vendor/lib.php", true},
		{"assets/js/app.min.js", true},
		{"assets/js/app.js", false},
		{"build/out.php", true},
		{"src/build/out.php", false},
		{"./src/Plugin.php", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}

	assert.True(t, m.MatchDir("vendor"))
	assert.False(t, m.MatchDir("src"))
}

func TestMatcher_Nil(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything"))
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	gitignore := `# Build outputs
dist/
node_modules/

*.log
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte(gitignore), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".gateignore"), []byte("node_modules/\nfixtures/\n"), 0o644))

	m, err := Load(tmpDir, []string{".gitignore", ".gateignore", ".missingignore"}, "**/*.bak")
	require.NoError(t, err)

	count := 0
	for _, p := range m.Patterns() {
		if p == "**/node_modules/**" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "**/*.bak", m.Patterns()[0])

	assert.True(t, m.Match("dist/app.js"))
	assert.True(t, m.Match("tests/fixtures/dump.php"))
	assert.True(t, m.Match("debug.log"))
	assert.True(t, m.Match("src/old.php.bak"))
	assert.False(t, m.Match("src/Plugin.php"))
}

func TestNewMatcher_DropsInvalid(t *testing.T) {
	m := NewMatcher("[a-", "**/*.php")
	assert.Equal(t, []string{"**/*.php"}, m.Patterns())
}

func TestDeduplicate(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, deduplicate([]string{"a", "b", "a", "c", "b", "d"}))
}
