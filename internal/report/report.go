// Package report renders gate results for people and pipelines.
package report

import (
	"fmt"
	"io"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Reporter receives each check as it completes and the final result.
type Reporter interface {
	CheckDone(run gate.CheckRun)
	Finish(result *gate.PhaseResult) error
}

// New returns the reporter for format writing to w. color only affects
// the text format.
func New(format string, w io.Writer, color bool) (Reporter, error) {
	switch format {
	case "", FormatText:
		return NewConsole(w, color), nil
	case FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}
