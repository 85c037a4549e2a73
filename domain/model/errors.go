// Package model provides domain model for shpsql
package model

import "errors"

var (
	// ErrInvalidValue is returned when a raw value cannot be decoded for its field
	ErrInvalidValue = errors.New("model: invalid value")

	// ErrUndefinedFieldType is returned for a field type outside the known set
	ErrUndefinedFieldType = errors.New("model: undefined field type")

	// ErrFieldCount is returned when a record does not match its field descriptors
	ErrFieldCount = errors.New("model: record does not match field count")
)
