package source

import "errors"

var (
	// ErrUnsupportedFormat indicates the path does not name a dataset format shpsql can read
	ErrUnsupportedFormat = errors.New("source: unsupported dataset format")

	// ErrInvalidData indicates malformed or truncated dataset content
	ErrInvalidData = errors.New("source: invalid data format")

	// ErrUnsupportedFieldType indicates an attribute field type without a column mapping
	ErrUnsupportedFieldType = errors.New("source: unsupported field type")

	// ErrUnsupportedShapeType indicates a shape type that cannot be converted to a geometry
	ErrUnsupportedShapeType = errors.New("source: unsupported shape type")

	// ErrMissingComponent indicates a required dataset file could not be found
	ErrMissingComponent = errors.New("source: missing dataset component")

	// ErrNoLayer indicates a container format holds no readable layer
	ErrNoLayer = errors.New("source: no layer found")
)
