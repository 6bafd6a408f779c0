// Package statusfile persists the last gate decision as KEY=VALUE lines:
//
//	QUALITY_GATES_STATUS=PASSED
//	PHASE=1
//	TIMESTAMP=2026-10-15T09:30:00Z
//	ERRORS=0
//
// Shell scripts source the file, so values are never quoted.
package statusfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// Keys written to the file, in order.
const (
	KeyStatus    = "QUALITY_GATES_STATUS"
	KeyPhase     = "PHASE"
	KeyTimestamp = "TIMESTAMP"
	KeyErrors    = "ERRORS"
)

// ErrMalformed is wrapped when a status file cannot be parsed.
var ErrMalformed = errors.New("malformed status file")

// Encode renders status in file form.
func Encode(status gate.GateStatus) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", KeyStatus, status.Status)
	fmt.Fprintf(&buf, "%s=%d\n", KeyPhase, status.Phase)
	fmt.Fprintf(&buf, "%s=%s\n", KeyTimestamp, status.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buf, "%s=%d\n", KeyErrors, status.ErrorCount)
	return buf.Bytes()
}

// Write replaces path with status. The file is written to a temporary
// sibling and renamed into place, so readers see either the old or the
// new status.
func Write(path string, status gate.GateStatus) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create status file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(Encode(status)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close status file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod status file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// Read loads the status stored at path.
func Read(path string) (gate.GateStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gate.GateStatus{}, err
	}
	return Decode(data)
}

// Decode parses file content. Blank lines, comments and unknown keys are
// ignored; all four known keys are required.
func Decode(data []byte) (gate.GateStatus, error) {
	values := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return gate.GateStatus{}, fmt.Errorf("%w: line %d: missing '='", ErrMalformed, n)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return gate.GateStatus{}, err
	}

	for _, k := range []string{KeyStatus, KeyPhase, KeyTimestamp, KeyErrors} {
		if _, ok := values[k]; !ok {
			return gate.GateStatus{}, fmt.Errorf("%w: missing %s", ErrMalformed, k)
		}
	}

	var s gate.GateStatus
	switch state := gate.State(values[KeyStatus]); state {
	case gate.StatePassed, gate.StateFailed:
		s.Status = state
	default:
		return s, fmt.Errorf("%w: unknown %s %q", ErrMalformed, KeyStatus, state)
	}

	var err error
	if s.Phase, err = strconv.Atoi(values[KeyPhase]); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrMalformed, KeyPhase, err)
	}
	if s.ErrorCount, err = strconv.Atoi(values[KeyErrors]); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrMalformed, KeyErrors, err)
	}
	if s.Timestamp, err = time.Parse(time.RFC3339, values[KeyTimestamp]); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrMalformed, KeyTimestamp, err)
	}
	if (s.ErrorCount == 0) != (s.Status == gate.StatePassed) {
		return s, fmt.Errorf("%w: %s=%s disagrees with %s=%d", ErrMalformed, KeyStatus, s.Status, KeyErrors, s.ErrorCount)
	}
	return s, nil
}
