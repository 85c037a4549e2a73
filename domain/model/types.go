// Package model provides domain model for shpsql
package model

import "fmt"

// FieldType represents the attribute field type of a dataset column
type FieldType int

const (
	// FieldTypeCharacter represents fixed width text
	FieldTypeCharacter FieldType = iota
	// FieldTypeDate represents a calendar date stored as text
	FieldTypeDate
	// FieldTypeNumber represents a fixed point number
	FieldTypeNumber
	// FieldTypeFloating represents a floating point number
	FieldTypeFloating
	// FieldTypeLogical represents a single character boolean
	FieldTypeLogical
)

// String returns the name of the field type
func (ft FieldType) String() string {
	switch ft {
	case FieldTypeCharacter:
		return "Character"
	case FieldTypeDate:
		return "Date"
	case FieldTypeNumber:
		return "Number"
	case FieldTypeFloating:
		return "Floating"
	case FieldTypeLogical:
		return "Logical"
	default:
		return fmt.Sprintf("FieldType(%d)", int(ft))
	}
}

// IsNumeric reports whether values of this type carry decimals
func (ft FieldType) IsNumeric() bool {
	return ft == FieldTypeNumber || ft == FieldTypeFloating
}

// FieldDescriptor describes one attribute column of a dataset.
// Values are immutable once read from a dataset.
type FieldDescriptor struct {
	// Name is the original field name
	Name string
	// Type is the field type
	Type FieldType
	// Length is the display width
	Length int
	// Decimals is the number of digits after the decimal point
	Decimals int
}

// NewFieldDescriptor creates a new FieldDescriptor.
// Decimals are dropped for non numeric types and negative widths are clamped.
func NewFieldDescriptor(name string, fieldType FieldType, length, decimals int) FieldDescriptor {
	if length < 1 {
		length = 1
	}
	if decimals < 0 || !fieldType.IsNumeric() {
		decimals = 0
	}
	return FieldDescriptor{
		Name:     name,
		Type:     fieldType,
		Length:   length,
		Decimals: decimals,
	}
}

// String returns a compact description such as "POP:Number(9,0)"
func (fd FieldDescriptor) String() string {
	return fmt.Sprintf("%s:%s(%d,%d)", fd.Name, fd.Type, fd.Length, fd.Decimals)
}
