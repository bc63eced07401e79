package optimizer

import (
	"errors"
	"fmt"
)

// Sentinel errors for fatal run conditions. Match with errors.Is; the typed
// errors below carry the details.
var (
	ErrInvalidProfile = errors.New("invalid client profile")
	ErrNoUsableRows   = errors.New("no usable rows to optimize")
)

// ConfigError reports a profile or limit value outside its valid range.
// It is returned before any row is processed.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidProfile }

// StructuralError reports input with zero usable rows. Skipped carries the
// per-row reasons so the caller can explain why nothing was usable.
type StructuralError struct {
	TotalRows int
	Skipped   []SkipReason
}

// SkipReason is the row identifier and reason carried by a StructuralError.
type SkipReason struct {
	RowID  string
	Line   int
	Reason string
}

func (e *StructuralError) Error() string {
	if e.TotalRows == 0 {
		return "no data to optimize: input contains no rows"
	}
	return fmt.Sprintf("no data to optimize: all %d rows were unusable", e.TotalRows)
}

func (e *StructuralError) Unwrap() error { return ErrNoUsableRows }
