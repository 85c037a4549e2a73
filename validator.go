package shpsql

import (
	"errors"
	"fmt"
	"strings"
)

// validator handles validation logic for Options
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validateOptions checks option combinations. Options must be normalized.
func (v *validator) validateOptions(opts Options) error {
	if opts.Input.NoAttributes && opts.Input.NoGeometry {
		return fmt.Errorf("%w: a dataset needs either its shapes (.shp) or its attributes (.dbf)", ErrUsage)
	}
	if opts.Mode == OutputDelimited && opts.Geometry != GeometryText {
		return fmt.Errorf("%w: delimited output requires geometry as text", ErrUsage)
	}
	if opts.Key.Column() == "" {
		return fmt.Errorf("%w: key column name cannot be empty", ErrUsage)
	}
	if strings.TrimSpace(opts.GeometryField) == "" {
		return fmt.Errorf("%w: geometry field name cannot be empty", ErrUsage)
	}

	for _, name := range []string{opts.Table, opts.GeometryField, opts.Key.Column()} {
		if err := v.validateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// validateIdentifier rejects names that cannot be backquoted.
// An empty name is accepted; callers check presence separately.
func (v *validator) validateIdentifier(name string) error {
	if name == "" {
		return nil
	}
	_, err := QuoteIdentifier(name)
	return err
}

// validatePaths checks that at least one input dataset is named
func (v *validator) validatePaths(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: no input datasets", ErrUsage)
	}
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%w: %w", ErrUsage, errors.New("path cannot be empty"))
		}
	}
	return nil
}
