package shpsql

import (
	"fmt"

	"github.com/nao1215/shpsql/domain/model"
)

const (
	// DefaultKeyColumn is the auto-increment key used when no key is given
	DefaultKeyColumn = "id"
	// DefaultGeometryField is the geometry column name in binary mode
	DefaultGeometryField = "geo"
	// DefaultGeometryTextField is the geometry column name in text mode
	DefaultGeometryTextField = "geo_as_text"
)

// KeyPolicy decides how the primary key column is sourced
type KeyPolicy struct {
	autoIncrement bool
	column        string
}

// AutoIncrementKey returns a policy adding a database generated key column
func AutoIncrementKey(column string) KeyPolicy {
	return KeyPolicy{autoIncrement: true, column: column}
}

// ExistingKey returns a policy using an existing output column as primary key.
// The column is named after remapping.
func ExistingKey(column string) KeyPolicy {
	return KeyPolicy{column: column}
}

// ResolveKeyPolicy builds the key policy from the two mutually exclusive
// command line values. Empty values mean the option was not given.
func ResolveKeyPolicy(autoIncrement, primary string) (KeyPolicy, error) {
	switch {
	case autoIncrement != "" && primary != "":
		return KeyPolicy{}, fmt.Errorf("%w: an auto-increment key and a primary key cannot both be set", ErrUsage)
	case primary != "":
		return ExistingKey(primary), nil
	case autoIncrement != "":
		return AutoIncrementKey(autoIncrement), nil
	default:
		return AutoIncrementKey(DefaultKeyColumn), nil
	}
}

// IsAutoIncrement reports whether the key column is generated by the database
func (k KeyPolicy) IsAutoIncrement() bool {
	return k.autoIncrement
}

// Column returns the key column name
func (k KeyPolicy) Column() string {
	return k.column
}

// String returns the string representation of KeyPolicy
func (k KeyPolicy) String() string {
	if k.autoIncrement {
		return "auto-increment(" + k.column + ")"
	}
	return "existing(" + k.column + ")"
}

// GeometryPolicy decides how geometry is represented in the output
type GeometryPolicy int

const (
	// GeometryBinary wraps geometry text in a conversion call into a GEOMETRY column
	GeometryBinary GeometryPolicy = iota
	// GeometryText stores geometry as plain text
	GeometryText
)

// String returns the string representation of GeometryPolicy
func (g GeometryPolicy) String() string {
	switch g {
	case GeometryBinary:
		return "binary"
	case GeometryText:
		return "text"
	default:
		return "binary"
	}
}

// OutputMode represents the shape of the emitted rows
type OutputMode int

const (
	// OutputStatement emits INSERT statements preceded by the schema
	OutputStatement OutputMode = iota
	// OutputDelimited emits one tab separated line per record for a bulk loader
	OutputDelimited
)

// String returns the string representation of OutputMode
func (m OutputMode) String() string {
	switch m {
	case OutputStatement:
		return "statement"
	case OutputDelimited:
		return "delimited"
	default:
		return "statement"
	}
}

// Options configures one export run. The value is built once and never
// changes while the run is in progress.
//
// Example:
//
//	options := NewOptions().
//		WithTable("cities").
//		WithGeometry(GeometryText).
//		WithMode(OutputDelimited)
//
//	exporter, err := NewExporter(options)
type Options struct {
	// Table is the output table name; empty derives it from the first input
	Table string
	// GeometryField is the geometry column name; empty selects the policy default
	GeometryField string
	// Key is the primary key policy
	Key KeyPolicy
	// Geometry is the geometry representation
	Geometry GeometryPolicy
	// Mode is the row format
	Mode OutputMode
	// NoSchema suppresses the table definition
	NoSchema bool
	// NoData suppresses the records
	NoData bool
	// Input disables parts of the input datasets
	Input model.InputFlags
	// Query is a "FIELD=VALUE" record filter; empty selects every record
	Query string
	// Remaps are "OLD=NEW" field renames
	Remaps []string
	// RemapFile is a YAML file of field renames; Remaps take precedence
	RemapFile string
}

// NewOptions creates default options (auto-increment `id` key, binary geometry, statements).
//
// Modify with:
//   - WithTable(): Set the output table name
//   - WithKey(): Change the primary key policy
//   - WithGeometry(): Output geometry as text
//   - WithMode(): Output delimited rows
func NewOptions() Options {
	return Options{
		Key:      AutoIncrementKey(DefaultKeyColumn),
		Geometry: GeometryBinary,
		Mode:     OutputStatement,
	}
}

// WithTable sets the output table name
func (o Options) WithTable(table string) Options {
	o.Table = table
	return o
}

// WithGeometryField sets the geometry column name
func (o Options) WithGeometryField(name string) Options {
	o.GeometryField = name
	return o
}

// WithKey sets the primary key policy
func (o Options) WithKey(key KeyPolicy) Options {
	o.Key = key
	return o
}

// WithGeometry sets the geometry representation
func (o Options) WithGeometry(policy GeometryPolicy) Options {
	o.Geometry = policy
	return o
}

// WithMode sets the row format. Delimited rows never carry a schema.
func (o Options) WithMode(mode OutputMode) Options {
	o.Mode = mode
	return o
}

// WithNoSchema suppresses the table definition
func (o Options) WithNoSchema(noSchema bool) Options {
	o.NoSchema = noSchema
	return o
}

// WithNoData suppresses the records
func (o Options) WithNoData(noData bool) Options {
	o.NoData = noData
	return o
}

// WithInputFlags disables parts of the input datasets
func (o Options) WithInputFlags(flags model.InputFlags) Options {
	o.Input = flags
	return o
}

// WithQuery sets the "FIELD=VALUE" record filter
func (o Options) WithQuery(query string) Options {
	o.Query = query
	return o
}

// WithRemap adds "OLD=NEW" field renames
func (o Options) WithRemap(args ...string) Options {
	o.Remaps = append(append([]string(nil), o.Remaps...), args...)
	return o
}

// WithRemapFile sets the YAML rename file
func (o Options) WithRemapFile(path string) Options {
	o.RemapFile = path
	return o
}

// normalize fills the values implied by other options
func (o Options) normalize() Options {
	if o.Key.Column() == "" && !o.Key.IsAutoIncrement() {
		o.Key = AutoIncrementKey(DefaultKeyColumn)
	}
	if o.GeometryField == "" {
		o.GeometryField = DefaultGeometryField
		if o.Geometry == GeometryText {
			o.GeometryField = DefaultGeometryTextField
		}
	}
	if o.Mode == OutputDelimited {
		o.NoSchema = true
	}
	o.Input = o.Input.Normalize()
	return o
}
