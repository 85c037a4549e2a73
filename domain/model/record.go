package model

import (
	"strings"

	"github.com/paulmach/orb"
)

// Record is one row of a dataset: cells aligned with the dataset fields,
// an optional geometry and a back-reference to the owning dataset.
type Record struct {
	cells    []Cell
	geometry orb.Geometry
	dataset  Dataset
}

// NewRecord creates a new Record
func NewRecord(dataset Dataset, cells []Cell, geometry orb.Geometry) *Record {
	return &Record{
		cells:    cells,
		geometry: geometry,
		dataset:  dataset,
	}
}

// Cells returns the attribute cells in dataset field order
func (r *Record) Cells() []Cell {
	return r.cells
}

// Geometry returns the geometry of the record, nil when it has none
func (r *Record) Geometry() orb.Geometry {
	return r.geometry
}

// Dataset returns the dataset the record was read from
func (r *Record) Dataset() Dataset {
	return r.dataset
}

// Value returns the cell of the named field. Field names match case-insensitively.
func (r *Record) Value(fieldName string) (Cell, bool) {
	if r.dataset == nil {
		return Cell{}, false
	}
	for i, field := range r.dataset.Fields() {
		if i >= len(r.cells) {
			break
		}
		if strings.EqualFold(field.Name, fieldName) {
			return r.cells[i], true
		}
	}
	return Cell{}, false
}

// Predicate selects records during a scan
type Predicate func(record *Record) bool

// Matches reports whether the record is selected by the predicate.
// A nil predicate selects every record.
func (p Predicate) Matches(record *Record) bool {
	return p == nil || p(record)
}
