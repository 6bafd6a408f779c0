package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
)

// Observer is notified after each check completes, in run order.
type Observer func(run CheckRun)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithObserver installs a per-check observer.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) { e.observer = o }
}

// WithClock overrides the wall clock used for GateStatus timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithCheckTimeout bounds each check's context. Zero disables the bound.
// Checks that ignore their context are not interrupted, but any outcome
// they return after the deadline is recorded as a failure.
func WithCheckTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.timeout = d }
}

// Evaluator runs a registry's checks for a target phase.
type Evaluator struct {
	registry *Registry
	observer Observer
	now      func() time.Time
	timeout  time.Duration
}

// NewEvaluator creates an evaluator over registry.
func NewEvaluator(registry *Registry, opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs tiers 0..phase and the final checks, and returns the
// result. The only error it returns wraps ErrConfiguration, and in that
// case no check has run.
func (e *Evaluator) Evaluate(ctx context.Context, phase int) (*PhaseResult, error) {
	if err := e.registry.validatePhase(phase); err != nil {
		return nil, err
	}

	result := &PhaseResult{Phase: phase, RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.FromContext(ctx)
	logger.Debug(ctx, "evaluation started", zap.Int("phase", phase))

	for tier := 0; tier <= phase; tier++ {
		for _, check := range e.registry.Tier(tier) {
			run := CheckRun{Name: check.Name(), Tier: tier}
			run.Outcome = e.runCheck(ctx, check)
			run.Counted = run.Outcome.Status == OutcomeFail
			e.record(ctx, result, run)
		}
	}

	for _, fc := range e.registry.Final() {
		run := CheckRun{Name: fc.Check.Name(), Tier: fc.EnforceFrom, Final: true}
		run.Outcome = e.runCheck(ctx, fc.Check)
		run.Counted = run.Outcome.Status == OutcomeFail && phase >= fc.EnforceFrom
		e.record(ctx, result, run)
	}

	result.Status = NewGateStatus(phase, result.ErrorCount(), e.now())
	logger.Info(ctx, "evaluation finished",
		zap.Int("phase", phase),
		zap.String("status", string(result.Status.Status)),
		zap.Int("errors", result.Status.ErrorCount),
		zap.Int("checks", len(result.Runs)),
	)
	return result, nil
}

func (e *Evaluator) record(ctx context.Context, result *PhaseResult, run CheckRun) {
	result.Runs = append(result.Runs, run)
	logging.FromContext(ctx).Debug(ctx, "check completed",
		zap.String("check", run.Name),
		zap.Int("tier", run.Tier),
		zap.Bool("final", run.Final),
		zap.String("outcome", string(run.Outcome.Status)),
		zap.Bool("counted", run.Counted),
		zap.Duration("duration", run.Outcome.Duration),
	)
	e.notify(ctx, run)
}

// notify calls the observer. A panicking observer is logged and the
// evaluation continues.
func (e *Evaluator) notify(ctx context.Context, run CheckRun) {
	if e.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error(ctx, "observer panicked",
				zap.String("check", run.Name),
				zap.Any("panic", r),
			)
		}
	}()
	e.observer(run)
}

// runCheck converts every way a check can misbehave into a FAIL outcome.
func (e *Evaluator) runCheck(ctx context.Context, check Check) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Fail("check panicked: %v", r)
		}
		out.Duration = time.Since(start)
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out = check.Run(ctx)

	switch out.Status {
	case OutcomePass, OutcomeFail, OutcomeSkip:
	default:
		return Fail("check returned unknown outcome %q", out.Status)
	}
	if out.Status != OutcomeFail && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Fail("timed out after %s", e.timeout)
	}
	return out
}

// String renders a short human description of the status.
func (s GateStatus) String() string {
	return fmt.Sprintf("%s (phase %d, %d errors)", s.Status, s.Phase, s.ErrorCount)
}
