package shpsql

import (
	"strings"

	"github.com/nao1215/shpsql/domain/model"
)

// delimitedReplacer escapes the bytes a bulk loader treats specially
var delimitedReplacer = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`)

// QuoteLiteral renders text as a single quoted SQL literal. Embedded single
// quotes are doubled.
func QuoteLiteral(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(text, "'", "''"))
	b.WriteByte('\'')
	return b.String()
}

// EscapeDelimited renders text as one field of a tab separated row.
// Backslash, tab and newline are written as \\, \t and \n.
func EscapeDelimited(text string) string {
	return delimitedReplacer.Replace(text)
}

// RenderCell renders one attribute value for the given output mode.
// Numbers use the display format carried by the cell in both modes.
func RenderCell(cell model.Cell, mode OutputMode) string {
	switch cell.Type() {
	case model.FieldTypeCharacter, model.FieldTypeDate:
		if mode == OutputDelimited {
			return EscapeDelimited(cell.Text())
		}
		return QuoteLiteral(cell.Text())
	case model.FieldTypeLogical:
		if mode == OutputDelimited {
			return cell.String()
		}
		return QuoteLiteral(cell.String())
	default:
		return cell.String()
	}
}
