package model

import "context"

// Projection is the spatial reference of a dataset. It is handed to the
// geometry renderer as is; shpsql never interprets the definition.
type Projection struct {
	// Definition is the projection text (usually OGC WKT) found with the dataset
	Definition string
	// SRID is the numeric reference identifier, 0 when unknown
	SRID int
}

// InputFlags disables parts of a dataset when it is opened
type InputFlags struct {
	// NoAttributes skips the attribute table (.dbf)
	NoAttributes bool
	// NoGeometry skips the geometry (.shp); it implies NoIndex
	NoGeometry bool
	// NoIndex skips the shape index (.shx)
	NoIndex bool
	// NoProjection skips the projection definition (.prj)
	NoProjection bool
}

// Normalize returns the flags with implied values set
func (f InputFlags) Normalize() InputFlags {
	if f.NoGeometry {
		f.NoIndex = true
	}
	return f
}

// Dataset is one geographic vector data source
type Dataset interface {
	// Name returns the identifier the dataset was opened with
	Name() string
	// Fields returns the attribute field descriptors in column order
	Fields() []FieldDescriptor
	// HasAttributes reports whether records carry attribute cells
	HasAttributes() bool
	// HasGeometry reports whether records carry a geometry
	HasGeometry() bool
	// Projection returns the spatial reference, nil when unknown or disabled
	Projection() *Projection
	// Scan starts a sequential read of the records selected by match.
	// A nil match selects every record.
	Scan(ctx context.Context, match Predicate) (Scan, error)
	// Close releases the resources held by the dataset
	Close() error
}

// Scan iterates the records of a dataset in storage order.
//
//	scan, err := dataset.Scan(ctx, nil)
//	if err != nil {
//		return err
//	}
//	defer scan.Close()
//	for scan.Next() {
//		record := scan.Record()
//	}
//	return scan.Err()
type Scan interface {
	// Next advances to the next selected record
	Next() bool
	// Record returns the current record
	Record() *Record
	// Err returns the error that stopped the iteration, if any
	Err() error
	// Close releases the resources held by the scan
	Close() error
}
