package gate

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every error that aborts an evaluation
// before any check runs.
var ErrConfiguration = errors.New("configuration error")

// ConfigError describes an invalid evaluation request.
type ConfigError struct {
	Reason string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
