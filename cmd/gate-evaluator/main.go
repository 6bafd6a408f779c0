// Package main implements gate-evaluator, the phased quality-gate runner.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(normalizeArgs(args))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil && !silent(err) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

var negativeNumber = regexp.MustCompile(`^-[0-9]+$`)

// normalizeArgs moves negative numbers behind "--" so the flag parser
// treats them as a phase argument rather than a shorthand flag.
func normalizeArgs(args []string) []string {
	var rest, negatives []string
	for _, a := range args {
		if a == "--" {
			return args
		}
		if negativeNumber.MatchString(a) {
			negatives = append(negatives, a)
			continue
		}
		rest = append(rest, a)
	}
	if len(negatives) == 0 {
		return args
	}
	return append(append(rest, "--"), negatives...)
}
