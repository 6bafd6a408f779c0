package main

import (
	"errors"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// Exit codes. These form the contract with CI jobs and git hooks.
const (
	ExitPassed        = 0 // every counted check passed
	ExitFailed        = 1 // at least one counted check failed
	ExitInvalidConfig = 2 // bad phase, flags or configuration; no check ran
	ExitRuntimeError  = 3 // the gate ran but its result could not be persisted
)

// exitError carries an exit code out of a command. A silent exitError has
// already been reported and prints nothing more.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: ExitInvalidConfig, err: err}
}

func runtimeError(err error) error {
	return &exitError{code: ExitRuntimeError, err: err}
}

// gateFailed is returned after the report has been printed.
var gateFailed = &exitError{code: ExitFailed, silent: true}

// exitCode maps an error returned by Execute to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitPassed
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, gate.ErrConfiguration) || errors.Is(err, config.ErrInvalid) {
		return ExitInvalidConfig
	}
	return ExitRuntimeError
}

func silent(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.silent
}
