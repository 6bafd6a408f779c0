package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/metrics"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/report"
)

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "gate-evaluator [phase]",
		Short: "Run the quality gates for a development phase",
		Long: `gate-evaluator runs every check registered for phases 0 through the
given phase, then the forbidden-pattern scan and the marker-comment count.
It prints one line per check and a summary, writes the status file and
exits 0 when the gate passes or 1 when it fails.

Examples:
  # Run the phase 0 gate in the current project
  gate-evaluator

  # Run the phase 2 gate for another checkout with JSON output
  gate-evaluator --root ../woo-ai-assistant --format json 2

  # Export metrics for the node_exporter textfile collector
  gate-evaluator --metrics-file /var/lib/node_exporter/gate.prom 1`,
		Version:       version,
		Args:          phaseArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(cmd, opts, args)
		},
	}
	opts.bind(cmd)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configError(err)
	})

	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newChecksCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

func runGate(cmd *cobra.Command, opts *options, args []string) error {
	phase, err := parsePhase(args)
	if err != nil {
		return err
	}
	s, err := opts.load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	reporter, err := report.New(opts.format, cmd.OutOrStdout(), opts.color())
	if err != nil {
		return configError(err)
	}
	reg, err := s.registry()
	if err != nil {
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), s.logger)
	result, err := s.evaluator(reg, reporter.CheckDone).Evaluate(ctx, phase)
	if err != nil {
		return configError(err)
	}
	if err := reporter.Finish(result); err != nil {
		s.logger.Warn(ctx, "failed to print report", zap.Error(err))
	}

	if err := s.persist(ctx, metrics.New(), result); err != nil {
		return err
	}
	if !result.Status.Passed() {
		return gateFailed
	}
	return nil
}
