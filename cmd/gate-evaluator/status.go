package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/statusfile"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the last recorded gate status",
		Long: `Print the status file written by the last evaluation. The exit code
mirrors the recorded status: 0 for PASSED, 1 for FAILED.

Examples:
  # Fail a deploy script when the last gate did not pass
  gate-evaluator status || exit 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			path := s.path(s.cfg.StatusFile)

			status, err := statusfile.Read(path)
			if errors.Is(err, fs.ErrNotExist) {
				return runtimeError(fmt.Errorf("no gate status recorded at %s", path))
			}
			if err != nil {
				return runtimeError(err)
			}

			if _, err := cmd.OutOrStdout().Write(statusfile.Encode(status)); err != nil {
				return runtimeError(err)
			}
			if !status.Passed() {
				return gateFailed
			}
			return nil
		},
	}
}
