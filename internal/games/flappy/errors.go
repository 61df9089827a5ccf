package flappy

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid simulator config")

// ConfigError reports a configuration the simulator refuses to build.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("flappy: invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets callers match any ConfigError with errors.Is(err, ErrInvalidConfig).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
