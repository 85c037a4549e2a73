package model

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
)

// Table is an in-memory dataset. Readers of formats that must be decoded
// as a whole (spreadsheets, columnar files) load their rows into a Table.
type Table struct {
	// name is the identifier the dataset was opened with
	name string
	// fields are the attribute field descriptors
	fields []FieldDescriptor
	// rows holds one cell slice per record
	rows [][]Cell
	// geometries holds one geometry per record when hasGeometry is set
	geometries []orb.Geometry
	// hasGeometry reports whether records carry a geometry
	hasGeometry bool
	// projection is the spatial reference, may be nil
	projection *Projection
}

// NewTable create new Table.
func NewTable(name string, fields []FieldDescriptor) *Table {
	return &Table{
		name:   name,
		fields: fields,
	}
}

// WithGeometry marks the table as carrying geometry in the given projection
func (t *Table) WithGeometry(projection *Projection) *Table {
	t.hasGeometry = true
	t.projection = projection
	return t
}

// Restrict returns a view of the table without the parts disabled by flags.
// The receiver is left unchanged.
func (t *Table) Restrict(flags InputFlags) *Table {
	view := *t
	if flags.NoAttributes {
		view.fields = nil
		view.rows = make([][]Cell, len(t.rows))
	}
	if flags.NoGeometry {
		view.hasGeometry = false
		view.geometries = nil
		view.projection = nil
	}
	if flags.NoProjection {
		view.projection = nil
	}
	return &view
}

// AddRow appends a record. The geometry is ignored when the table has none.
func (t *Table) AddRow(cells []Cell, geometry orb.Geometry) error {
	if len(cells) != len(t.fields) {
		return fmt.Errorf("%w: %s: got %d cells for %d fields", ErrFieldCount, t.name, len(cells), len(t.fields))
	}
	t.rows = append(t.rows, cells)
	if t.hasGeometry {
		t.geometries = append(t.geometries, geometry)
	}
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Name return table name.
func (t *Table) Name() string {
	return t.name
}

// Fields returns the attribute field descriptors
func (t *Table) Fields() []FieldDescriptor {
	return t.fields
}

// HasAttributes reports whether the table has attribute fields
func (t *Table) HasAttributes() bool {
	return len(t.fields) > 0
}

// HasGeometry reports whether records carry a geometry
func (t *Table) HasGeometry() bool {
	return t.hasGeometry
}

// Projection returns the spatial reference
func (t *Table) Projection() *Projection {
	return t.projection
}

// Scan iterates the rows selected by match in insertion order
func (t *Table) Scan(ctx context.Context, match Predicate) (Scan, error) {
	return &tableScan{ctx: ctx, table: t, match: match, pos: -1}, nil
}

// Close implements Dataset. A Table holds no external resources.
func (t *Table) Close() error {
	return nil
}

// tableScan iterates a Table
type tableScan struct {
	ctx     context.Context
	table   *Table
	match   Predicate
	pos     int
	current *Record
	err     error
}

func (s *tableScan) Next() bool {
	for s.pos+1 < len(s.table.rows) {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return false
		}
		s.pos++
		var geometry orb.Geometry
		if s.table.hasGeometry {
			geometry = s.table.geometries[s.pos]
		}
		record := NewRecord(s.table, s.table.rows[s.pos], geometry)
		if s.match.Matches(record) {
			s.current = record
			return true
		}
	}
	s.current = nil
	return false
}

func (s *tableScan) Record() *Record {
	return s.current
}

func (s *tableScan) Err() error {
	return s.err
}

func (s *tableScan) Close() error {
	s.current = nil
	return nil
}
