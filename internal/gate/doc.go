// Package gate evaluates phased quality gates.
//
// # Overview
//
// A Registry groups checks into tiers. Tier t holds the checks that become
// active at phase t. Evaluating phase N runs every check of tiers 0..N in
// registration order, then the registry's final checks once, and folds the
// outcomes into a GateStatus:
//
//	reg := gate.NewRegistry()
//	reg.MustRegister(0, gate.NewCheck("composer.json present", probe))
//	reg.MustRegisterFinal(markerCheck, 1)
//
//	ev := gate.NewEvaluator(reg, gate.WithObserver(printLine))
//	result, err := ev.Evaluate(ctx, 1)
//	if errors.Is(err, gate.ErrConfiguration) {
//	    // invalid phase or empty registry, nothing ran
//	}
//	fmt.Println(result.Status.Status, result.Status.ErrorCount)
//
// # Outcomes
//
// Checks return PASS, FAIL or SKIP. Only FAIL outcomes are counted, and a
// final check's failure is counted only from its enforcement phase onward.
// A check that panics or overruns its timeout is recorded as FAIL, and a
// panicking observer is logged; nothing escapes Evaluate except
// configuration errors.
//
// # Concurrency
//
// Checks run one at a time on the calling goroutine. An Evaluator holds no
// per-run state and may be reused for repeated evaluations.
package gate
