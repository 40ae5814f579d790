package layout

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks programming errors in view or window setup. It is
// the only error class the engine returns; data problems are recovered.
var ErrConfiguration = errors.New("layout: invalid configuration")

// ConfigError describes a single invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("layout: invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func configErr(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// Diagnostic records an event that was skipped while classifying input.
type Diagnostic struct {
	SourceID string `json:"source_id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%q: %s", d.Title, d.Reason)
}
