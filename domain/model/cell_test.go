package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{name: "Character", cell: NewCharacterCell("Springfield"), want: "Springfield"},
		{name: "Date", cell: NewDateCell("2004-05-01"), want: "2004-05-01"},
		{name: "Integer", cell: NewIntegerCell(1000), want: "1000"},
		{name: "Negative integer", cell: NewIntegerCell(-42), want: "-42"},
		{name: "Number with decimals", cell: NewNumberCell(3.14159, 2), want: "3.14"},
		{name: "Number without decimals rounds", cell: NewNumberCell(12.9, 0), want: "13"},
		{name: "Number without decimals rounds half to even", cell: NewNumberCell(2.5, 0), want: "2"},
		{name: "Number beyond int64", cell: NewNumberCell(1e20, 0), want: "100000000000000000000"},
		{name: "Floating", cell: NewFloatingCell(1.5, 3), want: "1.500"},
		{name: "Logical", cell: NewLogicalCell('T'), want: "T"},
		{name: "Blank logical", cell: NewLogicalCell(' '), want: "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cell.String())
		})
	}
}

func TestCell_UndefinedTypePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		_ = Cell{kind: FieldType(99)}.String()
	})
}

func TestParseCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		field    FieldDescriptor
		raw      string
		wantType FieldType
		want     string
	}{
		{
			name:     "Character trims trailing padding",
			field:    NewFieldDescriptor("NAME", FieldTypeCharacter, 12, 0),
			raw:      "  Springfield ",
			wantType: FieldTypeCharacter,
			want:     "  Springfield",
		},
		{
			name:     "Date is normalized",
			field:    NewFieldDescriptor("D", FieldTypeDate, 8, 0),
			raw:      "20040501",
			wantType: FieldTypeDate,
			want:     "2004-05-01",
		},
		{
			name:     "Date in other layout is kept",
			field:    NewFieldDescriptor("D", FieldTypeDate, 10, 0),
			raw:      "2004-05-01",
			wantType: FieldTypeDate,
			want:     "2004-05-01",
		},
		{
			name:     "Padded integer",
			field:    NewFieldDescriptor("POP", FieldTypeNumber, 9, 0),
			raw:      "     1000",
			wantType: FieldTypeNumber,
			want:     "1000",
		},
		{
			name:     "Integer field with fraction",
			field:    NewFieldDescriptor("POP", FieldTypeNumber, 9, 0),
			raw:      "  1000.0",
			wantType: FieldTypeNumber,
			want:     "1000",
		},
		{
			name:     "Fraction in integer field is rounded",
			field:    NewFieldDescriptor("POP", FieldTypeNumber, 5, 0),
			raw:      "  1.5",
			wantType: FieldTypeNumber,
			want:     "2",
		},
		{
			name:     "Negative fraction in integer field is rounded",
			field:    NewFieldDescriptor("POP", FieldTypeNumber, 5, 0),
			raw:      " -1.6",
			wantType: FieldTypeNumber,
			want:     "-2",
		},
		{
			name:     "Wide integer keeps its digits",
			field:    NewFieldDescriptor("ID", FieldTypeNumber, 20, 0),
			raw:      "99999999999999999999",
			wantType: FieldTypeNumber,
			want:     "99999999999999999999",
		},
		{
			name:     "Wide negative integer keeps its digits",
			field:    NewFieldDescriptor("ID", FieldTypeNumber, 20, 0),
			raw:      "-0009999999999999999999",
			wantType: FieldTypeNumber,
			want:     "-9999999999999999999",
		},
		{
			name:     "Signed integer",
			field:    NewFieldDescriptor("POP", FieldTypeNumber, 9, 0),
			raw:      "    +0042",
			wantType: FieldTypeNumber,
			want:     "42",
		},
		{
			name:     "Number with decimals",
			field:    NewFieldDescriptor("AREA", FieldTypeNumber, 12, 3),
			raw:      "   12.5",
			wantType: FieldTypeNumber,
			want:     "12.500",
		},
		{
			name:     "Blank number is zero",
			field:    NewFieldDescriptor("POP", FieldTypeNumber, 9, 0),
			raw:      "         ",
			wantType: FieldTypeNumber,
			want:     "0",
		},
		{
			name:     "Overflow marker is zero",
			field:    NewFieldDescriptor("AREA", FieldTypeFloating, 6, 2),
			raw:      "******",
			wantType: FieldTypeFloating,
			want:     "0.00",
		},
		{
			name:     "Floating",
			field:    NewFieldDescriptor("LAT", FieldTypeFloating, 19, 11),
			raw:      "  4.2500000000e+01",
			wantType: FieldTypeFloating,
			want:     "42.50000000000",
		},
		{
			name:     "Logical",
			field:    NewFieldDescriptor("OK", FieldTypeLogical, 1, 0),
			raw:      "F",
			wantType: FieldTypeLogical,
			want:     "F",
		},
		{
			name:     "Blank logical",
			field:    NewFieldDescriptor("OK", FieldTypeLogical, 1, 0),
			raw:      " ",
			wantType: FieldTypeLogical,
			want:     "?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cell, err := ParseCell(tt.field, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, cell.Type())
			assert.Equal(t, tt.want, cell.String())
		})
	}
}

func TestParseCell_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseCell(NewFieldDescriptor("POP", FieldTypeNumber, 9, 0), "many")
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseCell(NewFieldDescriptor("LAT", FieldTypeFloating, 9, 2), "north")
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseCell(NewFieldDescriptor("POP", FieldTypeNumber, 9, 0), "NaN")
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseCell(NewFieldDescriptor("LAT", FieldTypeFloating, 9, 2), "+Inf")
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseCell(FieldDescriptor{Name: "X", Type: FieldType(9), Length: 1}, "x")
	require.ErrorIs(t, err, ErrUndefinedFieldType)
}

func TestCell_WideInteger(t *testing.T) {
	t.Parallel()

	cell, err := ParseCell(NewFieldDescriptor("ID", FieldTypeNumber, 20, 0), "99999999999999999999")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cell.Integer())
	assert.InDelta(t, 1e20, cell.Float(), 1e5)

	cell, err = ParseCell(NewFieldDescriptor("ID", FieldTypeNumber, 20, 0), "9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), cell.Integer())
	assert.Equal(t, "9223372036854775807", cell.String())
}
