package shpsql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error messages and error creation functions for consistency
var (
	// ErrUsage indicates invalid or conflicting options, or no input datasets
	ErrUsage = errors.New("shpsql: invalid usage")

	// ErrFormat indicates a malformed query, remap or identifier
	ErrFormat = errors.New("shpsql: malformed argument")

	// ErrOutput indicates that the output could not be opened or written
	ErrOutput = errors.New("shpsql: cannot write output")

	// ErrDatasetOpen indicates that an input dataset could not be opened
	ErrDatasetOpen = errors.New("shpsql: cannot open dataset")

	// ErrSchemaMismatch indicates that an input dataset does not share the
	// field names of the first dataset of the run
	ErrSchemaMismatch = errors.New("shpsql: dataset fields differ from the first dataset")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("shpsql: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
