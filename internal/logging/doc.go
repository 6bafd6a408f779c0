// Package logging provides structured diagnostic logging for gate runs.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Context field injection (run_id of the current evaluation)
//   - Secret redaction at the encoder, so command output captured by
//     checks cannot leak tokens into CI logs
//
// Diagnostic logs go to stderr by default. Stdout is reserved for the
// per-check report lines that pipelines parse.
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithLogger(ctx, logger)
//	ctx = logging.WithRunID(ctx, runID)
//	logging.FromContext(ctx).Info(ctx, "evaluation finished", zap.Int("errors", n))
//
// # Testing
//
// Use TestLogger for assertions:
//
//	tl := logging.NewTestLogger()
//	ctx := logging.WithLogger(ctx, tl.Logger)
//	...
//	tl.AssertLogged(t, zapcore.InfoLevel, "evaluation finished")
//	tl.AssertField(t, "evaluation finished", "status", "PASSED")
package logging
