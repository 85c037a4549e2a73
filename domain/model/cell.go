package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// logicalUnknown is the dBASE marker for an uninitialized logical value
const logicalUnknown = '?'

// Cell is one typed value of a record. The kind is carried once per cell;
// the field descriptor is only consulted for the display precision.
type Cell struct {
	kind FieldType
	// text holds Character and Date values, and the digits of Number
	// values without decimals that do not fit an int64
	text     string
	integer  int64
	real     float64
	logical  byte
	decimals int
}

// NewCharacterCell creates a Character cell
func NewCharacterCell(value string) Cell {
	return Cell{kind: FieldTypeCharacter, text: value}
}

// NewDateCell creates a Date cell holding the date text
func NewDateCell(value string) Cell {
	return Cell{kind: FieldTypeDate, text: value}
}

// NewIntegerCell creates a Number cell without decimals
func NewIntegerCell(value int64) Cell {
	return Cell{kind: FieldTypeNumber, integer: value}
}

// NewNumberCell creates a Number cell rendered with the given decimals.
// A zero decimals count rounds the value to an integer, half to even.
func NewNumberCell(value float64, decimals int) Cell {
	if decimals <= 0 {
		return newWholeCell(strconv.FormatFloat(value, 'f', 0, 64))
	}
	return Cell{kind: FieldTypeNumber, real: value, decimals: decimals}
}

// newWholeCell creates a Number cell without decimals from its decimal digits.
// Values beyond the int64 range keep their digits.
func newWholeCell(digits string) Cell {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return NewIntegerCell(n)
	}
	return Cell{kind: FieldTypeNumber, text: digits}
}

// wholeDigits returns value without a leading plus sign and leading zeros
// when it is an optionally signed run of decimal digits
func wholeDigits(value string) (string, bool) {
	sign, digits := "", value
	switch {
	case strings.HasPrefix(digits, "-"):
		sign, digits = "-", digits[1:]
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}
	if digits == "" {
		return "", false
	}
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return "", false
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0", true
	}
	return sign + digits, true
}

// NewFloatingCell creates a Floating cell rendered with the given decimals
func NewFloatingCell(value float64, decimals int) Cell {
	if decimals < 0 {
		decimals = 0
	}
	return Cell{kind: FieldTypeFloating, real: value, decimals: decimals}
}

// NewLogicalCell creates a Logical cell
func NewLogicalCell(value byte) Cell {
	if value == 0 || value == ' ' {
		value = logicalUnknown
	}
	return Cell{kind: FieldTypeLogical, logical: value}
}

// Type returns the kind of value held by the cell
func (c Cell) Type() FieldType {
	return c.kind
}

// Text returns the text of a Character or Date cell
func (c Cell) Text() string {
	return c.text
}

// Integer returns the value of a Number cell without decimals.
// It is 0 for values beyond the int64 range; String keeps their digits.
func (c Cell) Integer() int64 {
	return c.integer
}

// Float returns the numeric value of a Number or Floating cell
func (c Cell) Float() float64 {
	if c.kind == FieldTypeNumber && c.decimals == 0 {
		if c.text != "" {
			f, _ := strconv.ParseFloat(c.text, 64)
			return f
		}
		return float64(c.integer)
	}
	return c.real
}

// Logical returns the character of a Logical cell
func (c Cell) Logical() byte {
	return c.logical
}

// Decimals returns the display precision of a numeric cell
func (c Cell) Decimals() int {
	return c.decimals
}

// String returns the textual value of the cell. Numbers use their display format.
func (c Cell) String() string {
	switch c.kind {
	case FieldTypeCharacter, FieldTypeDate:
		return c.text
	case FieldTypeNumber:
		if c.decimals == 0 {
			if c.text != "" {
				return c.text
			}
			return strconv.FormatInt(c.integer, 10)
		}
		return strconv.FormatFloat(c.real, 'f', c.decimals, 64)
	case FieldTypeFloating:
		return strconv.FormatFloat(c.real, 'f', c.decimals, 64)
	case FieldTypeLogical:
		return string(c.logical)
	default:
		panic(fmt.Sprintf("model: cell with undefined type %v", c.kind))
	}
}

// ParseCell converts the raw text of a value into a cell for the given field.
// Blank numbers become zero, as dBASE writers leave unset numbers blank.
func ParseCell(field FieldDescriptor, raw string) (Cell, error) {
	switch field.Type {
	case FieldTypeCharacter:
		return NewCharacterCell(strings.TrimRight(raw, " \x00")), nil
	case FieldTypeDate:
		return NewDateCell(normalizeDate(strings.TrimSpace(raw))), nil
	case FieldTypeNumber:
		value := strings.TrimSpace(raw)
		if isBlankNumber(value) {
			return NewNumberCell(0, field.Decimals), nil
		}
		if field.Decimals == 0 {
			if digits, ok := wholeDigits(value); ok {
				return newWholeCell(digits), nil
			}
		}
		f, err := parseFinite(field, value)
		if err != nil {
			return Cell{}, err
		}
		return NewNumberCell(f, field.Decimals), nil
	case FieldTypeFloating:
		value := strings.TrimSpace(raw)
		if isBlankNumber(value) {
			return NewFloatingCell(0, field.Decimals), nil
		}
		f, err := parseFinite(field, value)
		if err != nil {
			return Cell{}, err
		}
		return NewFloatingCell(f, field.Decimals), nil
	case FieldTypeLogical:
		value := strings.TrimSpace(raw)
		if value == "" {
			return NewLogicalCell(logicalUnknown), nil
		}
		return NewLogicalCell(value[0]), nil
	default:
		return Cell{}, fmt.Errorf("%w: %v", ErrUndefinedFieldType, field.Type)
	}
}

// parseFinite parses a numeric value, rejecting infinities and NaN
func parseFinite(field FieldDescriptor, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: field %s: %q is not a number", ErrInvalidValue, field.Name, value)
	}
	return f, nil
}

// isBlankNumber reports whether a numeric field holds no value.
// dBASE fills overflowing numbers with asterisks.
func isBlankNumber(value string) bool {
	return value == "" || strings.Trim(value, "*") == ""
}

// normalizeDate turns the dBASE YYYYMMDD layout into YYYY-MM-DD
func normalizeDate(value string) string {
	if len(value) != 8 {
		return value
	}
	for i := range len(value) {
		if value[i] < '0' || value[i] > '9' {
			return value
		}
	}
	return value[0:4] + "-" + value[4:6] + "-" + value[6:8]
}
