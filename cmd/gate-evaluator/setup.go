package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/checks"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/metrics"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/report"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/statusfile"
)

// options holds the persistent flags.
type options struct {
	configPath   string
	root         string
	statusFile   string
	format       string
	metricsFile  string
	checkTimeout time.Duration
	logLevel     string
	noColor      bool
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "config file (default <root>/"+config.DefaultFileName+")")
	f.StringVar(&o.root, "root", ".", "project root")
	f.StringVar(&o.statusFile, "status-file", "", "status file (default from config, "+config.DefaultStatusFile+")")
	f.StringVar(&o.format, "format", report.FormatText, "report format: text or json")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	f.DurationVar(&o.checkTimeout, "check-timeout", 0, "per-check time limit (0 uses the config value, none by default)")
	f.StringVar(&o.logLevel, "log-level", "", "diagnostic log level: trace, debug, info, warn, error")
	f.BoolVar(&o.noColor, "no-color", false, "disable colored output")
}

// session is everything a command needs after configuration is loaded.
type session struct {
	root   string
	cfg    *config.Config
	logger *logging.Logger
}

// load reads configuration and applies flag overrides.
func (o *options) load(cmd *cobra.Command) (*session, error) {
	root, err := filepath.Abs(o.root)
	if err != nil {
		return nil, configError(fmt.Errorf("invalid root: %w", err))
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, configError(fmt.Errorf("project root %s is not a directory", root))
	}

	cfg, err := config.Load(root, o.configPath)
	if err != nil {
		return nil, configError(err)
	}

	if o.statusFile != "" {
		cfg.StatusFile = o.statusFile
	}
	if o.metricsFile != "" {
		cfg.Metrics.File = o.metricsFile
	}
	if o.checkTimeout > 0 {
		cfg.CheckTimeout = config.Duration(o.checkTimeout)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logCfg := logging.NewDefaultConfig()
	logCfg.Format = cfg.Logging.Format
	logCfg.Output = cmd.ErrOrStderr()
	if logCfg.Level, err = logging.LevelFromString(cfg.Logging.Level); err != nil {
		return nil, configError(fmt.Errorf("invalid log level %q", cfg.Logging.Level))
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, configError(err)
	}

	return &session{root: root, cfg: cfg, logger: logger}, nil
}

// color reports whether styled output is wanted.
func (o *options) color() bool {
	return !o.noColor && os.Getenv("NO_COLOR") == ""
}

func (s *session) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

func (s *session) registry() (*gate.Registry, error) {
	reg, err := checks.Build(s.cfg, s.root)
	if err != nil {
		return nil, configError(err)
	}
	return reg, nil
}

func (s *session) evaluator(reg *gate.Registry, observer gate.Observer) *gate.Evaluator {
	opts := []gate.Option{gate.WithCheckTimeout(s.cfg.CheckTimeout.Duration())}
	if observer != nil {
		opts = append(opts, gate.WithObserver(observer))
	}
	return gate.NewEvaluator(reg, opts...)
}

// persist writes metrics, then the status file as the final action.
func (s *session) persist(ctx context.Context, rec *metrics.Recorder, result *gate.PhaseResult) error {
	if file := s.path(s.cfg.Metrics.File); file != "" {
		rec.Observe(result)
		if err := rec.WriteTextfile(file); err != nil {
			s.logger.Error(ctx, "failed to write metrics", zap.String("path", file), zap.Error(err))
		}
	}
	if err := statusfile.Write(s.path(s.cfg.StatusFile), result.Status); err != nil {
		return runtimeError(err)
	}
	return nil
}

// parsePhase reads the optional phase argument.
func parsePhase(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	phase, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, configError(&gate.ConfigError{Reason: fmt.Sprintf("phase must be an integer, got %q", args[0])})
	}
	return phase, nil
}

// phaseArgs accepts at most one positional phase.
func phaseArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return configError(fmt.Errorf("accepts at most one phase argument, received %d", len(args)))
	}
	return nil
}

func relTo(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
