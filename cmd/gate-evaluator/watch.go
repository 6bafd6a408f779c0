package main

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/ignore"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/metrics"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/report"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/watch"
)

func newWatchCmd(opts *options) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "watch [phase]",
		Short: "Re-run the gate whenever project files change",
		Long: `Run the gate once, then again each time files under the project root
change. Changes are debounced and runs are rate limited; see the watch
section of the config file. Files matched by .gitignore, the status file
and the metrics file never trigger a run.

Examples:
  # Watch the phase 1 gate with a live dashboard
  gate-evaluator watch --tui 1`,
		Args: phaseArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args, tui)
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "show an interactive dashboard")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *options, args []string, tui bool) error {
	phase, err := parsePhase(args)
	if err != nil {
		return err
	}
	s, err := opts.load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	reg, err := s.registry()
	if err != nil {
		return err
	}
	if _, err := reg.Plan(phase); err != nil {
		return configError(err)
	}

	var reporter report.Reporter
	var observer gate.Observer
	if !tui {
		if reporter, err = report.New(opts.format, cmd.OutOrStdout(), opts.color()); err != nil {
			return configError(err)
		}
		observer = reporter.CheckDone
	}

	ctx, cancel := context.WithCancel(logging.WithLogger(cmd.Context(), s.logger))
	defer cancel()

	ev := s.evaluator(reg, observer)
	rec := metrics.New()
	runner := func(ctx context.Context) (*gate.PhaseResult, error) {
		result, err := ev.Evaluate(ctx, phase)
		if err != nil {
			return nil, err
		}
		if err := s.persist(ctx, rec, result); err != nil {
			return result, err
		}
		return result, nil
	}

	matcher, err := ignore.Load(s.root, s.cfg.Forbidden.IgnoreFiles, s.watchExclusions()...)
	if err != nil {
		return configError(err)
	}
	w, err := watch.New(watch.Options{
		Root:        s.root,
		Ignore:      matcher,
		Debounce:    s.cfg.Watch.Debounce.Duration(),
		MinInterval: s.cfg.Watch.MinInterval.Duration(),
	}, runner)
	if err != nil {
		return runtimeError(err)
	}
	defer w.Close()

	if !tui {
		return w.Run(ctx, &textHandler{out: cmd.OutOrStdout(), reporter: reporter, logger: s.logger, ctx: ctx})
	}

	program := tea.NewProgram(watch.NewModel(phase),
		tea.WithContext(ctx),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithInput(cmd.InOrStdin()),
	)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, watch.ProgramHandler{Program: program}) }()

	_, runErr := program.Run()
	cancel()
	watchErr := <-done
	if runErr != nil && ctx.Err() == nil {
		return runtimeError(runErr)
	}
	return watchErr
}

// watchExclusions are paths the gate itself writes.
func (s *session) watchExclusions() []string {
	var out []string
	for _, p := range []string{s.cfg.StatusFile, s.cfg.Metrics.File} {
		if p == "" {
			continue
		}
		rel := relTo(s.root, s.path(p))
		out = append(out, rel+"*", path.Join(path.Dir(rel), "."+path.Base(rel)+".*.tmp"))
	}
	return out
}

// textHandler prints a report after each run.
type textHandler struct {
	out      io.Writer
	reporter report.Reporter
	logger   *logging.Logger
	ctx      context.Context
}

func (h *textHandler) Started(changed []string) {
	if len(changed) == 0 {
		return
	}
	fmt.Fprintf(h.out, "\n--- changed: %s\n", strings.Join(changed, ", "))
}

func (h *textHandler) Finished(ev watch.Event) {
	if ev.Result != nil {
		if err := h.reporter.Finish(ev.Result); err != nil {
			h.logger.Warn(h.ctx, "failed to print report", zap.Error(err))
		}
	}
	if ev.Err != nil {
		fmt.Fprintln(h.out, "Error:", ev.Err)
	}
}
