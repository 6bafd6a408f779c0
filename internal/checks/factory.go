package checks

import (
	"fmt"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/config"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// Build creates the registry for cfg. Phase i of cfg.Phases becomes tier
// i; the forbidden-pattern scan and marker count become final checks.
func Build(cfg *config.Config, root string) (*gate.Registry, error) {
	reg := gate.NewRegistry()
	reg.DeclarePhases(cfg.MaxPhase())

	own := gateOutputs(cfg, root)
	for tier, phase := range cfg.Phases {
		for _, cc := range phase.Checks {
			check, err := newCheck(cc, root, own)
			if err != nil {
				return nil, fmt.Errorf("phase %d (%s): %w", tier, phase.Name, err)
			}
			if err := reg.Register(tier, check); err != nil {
				return nil, err
			}
		}
	}

	if !cfg.Forbidden.Disabled {
		if err := reg.RegisterFinal(NewPatternScan(root, cfg.Forbidden), ForbiddenEnforceFrom); err != nil {
			return nil, err
		}
	}
	if !cfg.Markers.Disabled {
		if err := reg.RegisterFinal(NewMarkerCount(root, cfg.Markers), MarkerEnforceFrom); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// gateOutputs returns the files the gate writes under root, as
// root-relative slash paths.
func gateOutputs(cfg *config.Config, root string) []string {
	var out []string
	for _, p := range []string{cfg.StatusFile, cfg.Metrics.File} {
		if p != "" {
			out = append(out, relSlash(root, resolve(root, p)))
		}
	}
	return out
}

// New creates a single tiered check from its configuration.
func New(cc config.CheckConfig, root string) (gate.Check, error) {
	return newCheck(cc, root, nil)
}

func newCheck(cc config.CheckConfig, root string, own []string) (gate.Check, error) {
	switch cc.Kind {
	case config.KindFileExists:
		return NewFileExists(cc.Name, root, cc.Path), nil
	case config.KindDirExists:
		return NewDirExists(cc.Name, root, cc.Path), nil
	case config.KindCommand:
		argv, err := ParseCommand(cc.Command)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", cc.Name, err)
		}
		argv = append(argv, cc.Args...)
		if len(argv) == 0 {
			return nil, fmt.Errorf("check %q: empty command", cc.Name)
		}
		return NewCommand(CommandSpec{
			Name:        cc.Name,
			Root:        root,
			Argv:        argv,
			Dir:         cc.Dir,
			Env:         cc.Env,
			PathPrepend: cc.PathPrepend,
			Requires:    cc.Requires,
			Timeout:     cc.Timeout.Duration(),
		}), nil
	case config.KindSecretScan:
		return NewSecretScan(cc.Name, root, cc.FileSet, cc.Allowlist), nil
	case config.KindGitClean:
		return NewGitClean(cc.Name, root, own...), nil
	default:
		return nil, fmt.Errorf("check %q: unknown kind %q", cc.Name, cc.Kind)
	}
}
