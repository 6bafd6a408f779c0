package statusfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

var ts = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func TestEncode(t *testing.T) {
	got := string(Encode(gate.NewGateStatus(1, 3, ts)))
	assert.Equal(t, "QUALITY_GATES_STATUS=FAILED\nPHASE=1\nTIMESTAMP=2026-10-15T09:30:00Z\nERRORS=3\n", got)
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".quality-gates-status")

	want := gate.NewGateStatus(0, 0, ts)
	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Overwrite leaves no temporary files behind.
	require.NoError(t, Write(path, gate.NewGateStatus(2, 4, ts)))
	got, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ErrorCount)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWrite_MissingDirectory(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "nope", "status"), gate.NewGateStatus(0, 0, ts))
	assert.Error(t, err)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "status"))
	assert.True(t, os.IsNotExist(err))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid with comments", "# written by gate-evaluator\nQUALITY_GATES_STATUS=PASSED\nPHASE=2\n\nTIMESTAMP=2026-10-15T09:30:00Z\nERRORS=0\nEXTRA=1\n", false},
		{"missing key", "QUALITY_GATES_STATUS=PASSED\nPHASE=0\nERRORS=0\n", true},
		{"no separator", "QUALITY_GATES_STATUS PASSED\n", true},
		{"unknown state", "QUALITY_GATES_STATUS=MAYBE\nPHASE=0\nTIMESTAMP=2026-10-15T09:30:00Z\nERRORS=0\n", true},
		{"bad phase", "QUALITY_GATES_STATUS=PASSED\nPHASE=x\nTIMESTAMP=2026-10-15T09:30:00Z\nERRORS=0\n", true},
		{"bad timestamp", "QUALITY_GATES_STATUS=PASSED\nPHASE=0\nTIMESTAMP=yesterday\nERRORS=0\n", true},
		{"status disagrees", "QUALITY_GATES_STATUS=PASSED\nPHASE=0\nTIMESTAMP=2026-10-15T09:30:00Z\nERRORS=2\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			assert.NoError(t, err)
		})
	}
}
