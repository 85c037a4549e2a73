package shpsql

import (
	"fmt"
	"strings"

	"github.com/nao1215/shpsql/domain/model"
)

const (
	// statementSeparator separates the values of an INSERT statement
	statementSeparator = ", "
	// delimitedSeparator separates the values of a delimited row
	delimitedSeparator = "\t"
	// delimitedNull is the bulk loader placeholder for a generated key
	delimitedNull = `\N`
)

// EmitRecord returns one record as an INSERT statement or a delimited row.
// A separator precedes every value except the first one written.
func EmitRecord(record *model.Record, layout Layout, mode OutputMode) (string, error) {
	if mode == OutputDelimited && layout.Geometry != GeometryText {
		return "", fmt.Errorf("%w: delimited output requires geometry as text", ErrUsage)
	}

	hasAttributes, hasGeometry := layout.HasAttributes, layout.HasGeometry
	if ds := record.Dataset(); ds != nil {
		hasAttributes, hasGeometry = ds.HasAttributes(), ds.HasGeometry()
	}

	separator := statementSeparator
	if mode == OutputDelimited {
		separator = delimitedSeparator
	}

	var b strings.Builder
	if mode == OutputStatement {
		table, err := QuoteIdentifier(layout.Table)
		if err != nil {
			return "", err
		}
		b.WriteString("INSERT INTO " + table + " VALUES (")
	}

	first := true
	writeValue := func(value string) {
		if !first {
			b.WriteString(separator)
		}
		first = false
		b.WriteString(value)
	}

	if layout.Key.IsAutoIncrement() {
		if mode == OutputDelimited {
			writeValue(delimitedNull)
		} else {
			writeValue("NULL")
		}
	}

	if hasAttributes {
		for _, cell := range record.Cells() {
			writeValue(RenderCell(cell, mode))
		}
	}

	if hasGeometry {
		writeValue(renderGeometryValue(record, layout.Geometry, mode))
	}

	if mode == OutputStatement {
		b.WriteString("\n);")
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// renderGeometryValue renders the geometry of a record as a column value
func renderGeometryValue(record *model.Record, policy GeometryPolicy, mode OutputMode) string {
	text := RenderGeometry(record.Geometry())
	if mode == OutputDelimited {
		return EscapeDelimited(text)
	}
	if policy == GeometryText {
		return QuoteLiteral(text)
	}
	return "GEOMFROMTEXT(" + QuoteLiteral(text) + ")"
}
