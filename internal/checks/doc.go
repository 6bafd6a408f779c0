// Package checks implements the concrete gate checks a project can
// configure and builds a gate.Registry from a config.Config.
//
// Tiered kinds:
//
//   - file_exists, dir_exists: a path under the project root
//   - command: an external program judged by its exit code; skipped when
//     its required tool is not installed
//   - secret_scan: Gitleaks rules over a file set
//   - git_clean: the working tree has no uncommitted changes
//
// Every registry also carries up to two final checks that run at every
// phase: the forbidden-pattern scan (enforced from phase 0) and the
// marker-comment count (enforced from phase 1).
package checks
