package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// JSON writes a single document once the evaluation finishes.
type JSON struct {
	w io.Writer
}

// NewJSON creates a JSON reporter.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Document is the JSON report layout.
type Document struct {
	RunID      string      `json:"run_id"`
	Status     gate.State  `json:"status"`
	Phase      int         `json:"phase"`
	ErrorCount int         `json:"errors"`
	Timestamp  time.Time   `json:"timestamp"`
	Checks     []CheckLine `json:"checks"`
}

// CheckLine is one check in a Document.
type CheckLine struct {
	Name       string             `json:"name"`
	Tier       int                `json:"tier"`
	Final      bool               `json:"final,omitempty"`
	Status     gate.OutcomeStatus `json:"status"`
	Counted    bool               `json:"counted"`
	Message    string             `json:"message,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

// CheckDone is a no-op; the document is written in Finish.
func (j *JSON) CheckDone(gate.CheckRun) {}

func (j *JSON) Finish(result *gate.PhaseResult) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(result))
}

// NewDocument converts a result into its JSON layout.
func NewDocument(result *gate.PhaseResult) Document {
	doc := Document{
		RunID:      result.RunID,
		Status:     result.Status.Status,
		Phase:      result.Status.Phase,
		ErrorCount: result.Status.ErrorCount,
		Timestamp:  result.Status.Timestamp,
		Checks:     make([]CheckLine, 0, len(result.Runs)),
	}
	for _, run := range result.Runs {
		doc.Checks = append(doc.Checks, CheckLine{
			Name:       run.Name,
			Tier:       run.Tier,
			Final:      run.Final,
			Status:     run.Outcome.Status,
			Counted:    run.Counted,
			Message:    run.Outcome.Message,
			DurationMS: run.Outcome.Duration.Milliseconds(),
		})
	}
	return doc
}
