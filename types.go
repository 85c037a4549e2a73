package shpsql

import (
	"fmt"

	"github.com/nao1215/shpsql/domain/model"
)

// maxIntLength is the widest number stored in a 32-bit INT column
const maxIntLength = 9

// ColumnType returns the MySQL column type of an attribute field.
// An undefined field type is a programming error and panics.
func ColumnType(field model.FieldDescriptor) string {
	switch field.Type {
	case model.FieldTypeCharacter:
		return fmt.Sprintf("CHAR(%d) NOT NULL", field.Length)
	case model.FieldTypeDate:
		return "DATE NOT NULL"
	case model.FieldTypeNumber:
		if field.Decimals > 0 {
			return fmt.Sprintf("DOUBLE(%d,%d) NOT NULL", field.Length, field.Decimals)
		}
		if field.Length <= maxIntLength {
			return fmt.Sprintf("INT(%d) NOT NULL", field.Length)
		}
		return fmt.Sprintf("BIGINT(%d) NOT NULL", field.Length)
	case model.FieldTypeFloating:
		return fmt.Sprintf("DOUBLE(%d,%d) NOT NULL", field.Length, field.Decimals)
	case model.FieldTypeLogical:
		return "CHAR(1) NOT NULL"
	default:
		panic(fmt.Sprintf("shpsql: field %s has undefined type %v", field.Name, field.Type))
	}
}
