package shpsql

import (
	"strings"

	"github.com/nao1215/shpsql/domain/model"
)

// Layout is the resolved shape of the output table. It is fixed once the
// first dataset is opened and shared by the schema and record emitters.
type Layout struct {
	// Table is the output table name
	Table string
	// Fields are the attribute fields of the first dataset
	Fields []model.FieldDescriptor
	// Remap resolves output column names; nil maps every field to itself
	Remap *RemapTable
	// Key is the primary key policy
	Key KeyPolicy
	// Geometry is the geometry representation
	Geometry GeometryPolicy
	// GeometryField is the geometry column name
	GeometryField string
	// HasAttributes reports whether attribute columns are written
	HasAttributes bool
	// HasGeometry reports whether the geometry column is written
	HasGeometry bool
}

// columnName returns the quoted output name of a field
func (l Layout) columnName(field model.FieldDescriptor) (string, error) {
	name := field.Name
	if l.Remap != nil {
		name = l.Remap.Resolve(field.Name)
	}
	return QuoteIdentifier(name)
}

// EmitSchema returns the DROP TABLE and CREATE TABLE statements of the layout.
// Every column and index line ends with a comma; the PRIMARY KEY clause closes the body.
func EmitSchema(layout Layout) (string, error) {
	table, err := QuoteIdentifier(layout.Table)
	if err != nil {
		return "", err
	}
	key, err := QuoteIdentifier(layout.Key.Column())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("DROP TABLE IF EXISTS " + table + ";\n")
	b.WriteString("CREATE TABLE " + table + " (\n")

	if layout.Key.IsAutoIncrement() {
		writeColumn(&b, key, "INT UNSIGNED NOT NULL auto_increment")
	}

	if layout.HasAttributes {
		for _, field := range layout.Fields {
			name, err := layout.columnName(field)
			if err != nil {
				return "", err
			}
			writeColumn(&b, name, ColumnType(field))
		}
	}

	if layout.HasGeometry {
		geometry, err := QuoteIdentifier(layout.GeometryField)
		if err != nil {
			return "", err
		}
		if layout.Geometry == GeometryText {
			writeColumn(&b, geometry, "MEDIUMTEXT NOT NULL")
		} else {
			writeColumn(&b, geometry, "GEOMETRY NOT NULL")
			b.WriteString("  SPATIAL INDEX (" + geometry + "),\n")
		}
	}

	b.WriteString("  PRIMARY KEY (" + key + ")\n")
	b.WriteString(");\n\n")
	return b.String(), nil
}

// writeColumn writes one column definition line
func writeColumn(b *strings.Builder, name, columnType string) {
	b.WriteString("  ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(columnType)
	b.WriteString(",\n")
}
