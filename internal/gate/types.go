package gate

import (
	"context"
	"fmt"
	"time"
)

// OutcomeStatus is the three-valued result of a single check.
type OutcomeStatus string

const (
	OutcomePass OutcomeStatus = "PASS"
	OutcomeFail OutcomeStatus = "FAIL"
	// OutcomeSkip marks a check that could not apply, e.g. an optional tool
	// is not installed. Skips never count as errors.
	OutcomeSkip OutcomeStatus = "SKIP"
)

// Outcome is what a check reports back to the evaluator.
type Outcome struct {
	Status   OutcomeStatus
	Message  string
	Duration time.Duration
}

// Pass builds a passing outcome.
func Pass(format string, args ...any) Outcome {
	return Outcome{Status: OutcomePass, Message: fmt.Sprintf(format, args...)}
}

// Fail builds a failing outcome.
func Fail(format string, args ...any) Outcome {
	return Outcome{Status: OutcomeFail, Message: fmt.Sprintf(format, args...)}
}

// Skip builds a skipped outcome.
func Skip(format string, args ...any) Outcome {
	return Outcome{Status: OutcomeSkip, Message: fmt.Sprintf(format, args...)}
}

// Check is a named pass/fail test.
//
// Run must not depend on other checks having run. It should honour ctx
// cancellation when it does blocking work.
type Check interface {
	Name() string
	Run(ctx context.Context) Outcome
}

type funcCheck struct {
	name string
	fn   func(ctx context.Context) Outcome
}

func (c *funcCheck) Name() string                    { return c.name }
func (c *funcCheck) Run(ctx context.Context) Outcome { return c.fn(ctx) }

// NewCheck adapts a function into a Check.
func NewCheck(name string, fn func(ctx context.Context) Outcome) Check {
	return &funcCheck{name: name, fn: fn}
}

// NewErrorCheck adapts a function returning an error. A nil error passes
// with passMsg; a non-nil error fails with the error text.
func NewErrorCheck(name, passMsg string, fn func(ctx context.Context) error) Check {
	return NewCheck(name, func(ctx context.Context) Outcome {
		if err := fn(ctx); err != nil {
			return Fail("%v", err)
		}
		return Pass("%s", passMsg)
	})
}

// State is the terminal gate decision.
type State string

const (
	StatePassed State = "PASSED"
	StateFailed State = "FAILED"
)

// GateStatus is the record produced once per evaluation.
type GateStatus struct {
	Status     State
	Phase      int
	Timestamp  time.Time
	ErrorCount int
}

// NewGateStatus derives the state from errorCount so the two cannot
// disagree.
func NewGateStatus(phase, errorCount int, ts time.Time) GateStatus {
	state := StatePassed
	if errorCount > 0 {
		state = StateFailed
	}
	return GateStatus{
		Status:     state,
		Phase:      phase,
		Timestamp:  ts,
		ErrorCount: errorCount,
	}
}

// Passed reports whether the gate passed.
func (s GateStatus) Passed() bool {
	return s.Status == StatePassed
}

// CheckRun records one executed check.
type CheckRun struct {
	Name    string
	Tier    int
	Final   bool
	Outcome Outcome
	// Counted is true when the outcome contributed to the error count.
	Counted bool
}

// PhaseResult is the full record of one evaluation.
type PhaseResult struct {
	Phase  int
	RunID  string
	Runs   []CheckRun
	Status GateStatus
}

// ErrorCount returns the number of counted failures.
func (r *PhaseResult) ErrorCount() int {
	n := 0
	for _, run := range r.Runs {
		if run.Counted {
			n++
		}
	}
	return n
}

// Tally returns how many runs ended in each outcome status.
func (r *PhaseResult) Tally() map[OutcomeStatus]int {
	tally := map[OutcomeStatus]int{
		OutcomePass: 0,
		OutcomeFail: 0,
		OutcomeSkip: 0,
	}
	for _, run := range r.Runs {
		tally[run.Outcome.Status]++
	}
	return tally
}

// Names returns the executed check names in run order.
func (r *PhaseResult) Names() []string {
	names := make([]string, 0, len(r.Runs))
	for _, run := range r.Runs {
		names = append(names, run.Name)
	}
	return names
}
