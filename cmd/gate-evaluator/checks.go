package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// plan is the YAML layout printed by the checks command.
type plan struct {
	Phase  int           `yaml:"phase"`
	Checks []plannedLine `yaml:"checks"`
}

type plannedLine struct {
	Name     string `yaml:"name"`
	Tier     int    `yaml:"tier"`
	Final    bool   `yaml:"final,omitempty"`
	Enforced bool   `yaml:"enforced"`
}

func newChecksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "checks [phase]",
		Short: "List the checks a phase would run",
		Long: `List, in run order, the checks an evaluation of the given phase would
run, without running them. Final checks that would not count toward the
error total at this phase are marked enforced: false.

Examples:
  gate-evaluator checks 1`,
		Args: phaseArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := parsePhase(args)
			if err != nil {
				return err
			}
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			reg, err := s.registry()
			if err != nil {
				return err
			}
			planned, err := reg.Plan(phase)
			if err != nil {
				return configError(err)
			}

			out := plan{Phase: phase, Checks: make([]plannedLine, 0, len(planned))}
			for _, p := range planned {
				out.Checks = append(out.Checks, plannedLine{
					Name:     p.Name,
					Tier:     p.Tier,
					Final:    p.Final,
					Enforced: p.Enforced,
				})
			}
			return writeYAML(cmd, out)
		},
	}
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return runtimeError(err)
	}
	return enc.Close()
}
