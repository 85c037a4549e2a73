package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// valueClass is the kind of a single raw value seen during inference
type valueClass int

const (
	classText valueClass = iota
	classDate
	classInteger
	classReal
	classLogical
)

// Type inference constants
const (
	// MinFieldLength is the smallest width given to an inferred field
	MinFieldLength = 1
	// MaxCharacterLength is the widest Character field that can be declared
	MaxCharacterLength = 255
)

// datePattern matches ISO8601 calendar dates, the only layout stored in DATE columns
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// logicalValues are the spellings accepted as booleans, mapped to their dBASE character
var logicalValues = map[string]byte{
	"true":  'T',
	"false": 'F',
	"t":     'T',
	"f":     'F',
	"yes":   'Y',
	"no":    'N',
	"y":     'Y',
	"n":     'N',
}

// isDate checks if a string value is an ISO8601 calendar date
func isDate(value string) bool {
	if !datePattern.MatchString(value) {
		return false
	}
	_, err := time.Parse(time.DateOnly, value)
	return err == nil
}

// isInteger checks if a value is an integer with optimized parsing
func isInteger(value string) bool {
	// Quick pre-check: must start with digit or sign
	if len(value) == 0 {
		return false
	}
	first := value[0]
	if first != '+' && first != '-' && (first < '0' || first > '9') {
		return false
	}

	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// isReal checks if a value is a plain decimal number.
// Exponents, infinities and NaN are rejected as they cannot be declared DOUBLE(l,d).
func isReal(value string) bool {
	hasDigit := false
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == '-' || r == '+':
		default:
			return false
		}
	}
	if !hasDigit {
		return false
	}

	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

// classifyValue determines the class of a single trimmed value
func classifyValue(value string) valueClass {
	if isDate(value) {
		return classDate
	}
	if isInteger(value) {
		return classInteger
	}
	if isReal(value) {
		return classReal
	}
	if _, ok := logicalValues[strings.ToLower(value)]; ok {
		return classLogical
	}
	return classText
}

// fractionDigits returns the number of digits after the decimal point
func fractionDigits(value string) int {
	if i := strings.IndexByte(value, '.'); i >= 0 {
		return len(value) - i - 1
	}
	return 0
}

// InferFieldDescriptor infers a field descriptor from the raw values of one column.
//
// Priority follows the mixed-value rules: any text makes the column Character,
// dates only stay Date when every value is a date, a single fractional value
// turns an integer column into a Number with decimals. Empty values do not vote.
func InferFieldDescriptor(name string, values []string) FieldDescriptor {
	counts := make(map[valueClass]int)
	nonEmpty := 0
	maxLength := 0
	maxDecimals := 0

	for _, raw := range values {
		if n := utf8.RuneCountInString(raw); n > maxLength {
			maxLength = n
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		nonEmpty++

		class := classifyValue(value)
		counts[class]++
		if class == classReal {
			maxDecimals = max(maxDecimals, fractionDigits(value))
		}
	}

	characterField := func() FieldDescriptor {
		return NewFieldDescriptor(name, FieldTypeCharacter, min(max(maxLength, MinFieldLength), MaxCharacterLength), 0)
	}

	if nonEmpty == 0 || counts[classText] > 0 {
		return characterField()
	}

	numeric := counts[classInteger] + counts[classReal]
	switch {
	case counts[classDate] == nonEmpty:
		return NewFieldDescriptor(name, FieldTypeDate, len(time.DateOnly), 0)
	case counts[classLogical] == nonEmpty:
		return NewFieldDescriptor(name, FieldTypeLogical, 1, 0)
	case numeric == nonEmpty && counts[classReal] > 0:
		// Leave room for the sign, one integer digit and the point
		length := max(maxLength, maxDecimals+2)
		return NewFieldDescriptor(name, FieldTypeNumber, length, maxDecimals)
	case numeric == nonEmpty:
		return NewFieldDescriptor(name, FieldTypeNumber, max(maxLength, MinFieldLength), 0)
	default:
		return characterField()
	}
}

// InferFieldDescriptors infers the descriptors of every column from row data
func InferFieldDescriptors(header []string, rows [][]string) []FieldDescriptor {
	fields := make([]FieldDescriptor, len(header))
	for i, name := range header {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		fields[i] = InferFieldDescriptor(name, values)
	}
	return fields
}

// ParseTextCell converts a value of a text based source into a cell.
// Boolean spellings are mapped to their dBASE character.
func ParseTextCell(field FieldDescriptor, raw string) (Cell, error) {
	if field.Type == FieldTypeLogical {
		if c, ok := logicalValues[strings.ToLower(strings.TrimSpace(raw))]; ok {
			return NewLogicalCell(c), nil
		}
	}
	return ParseCell(field, raw)
}
