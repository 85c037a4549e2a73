package shpsql

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// emptyGeometry is written for records that carry no shape
const emptyGeometry = "GEOMETRYCOLLECTION EMPTY"

// RenderGeometry returns the well-known text of a geometry.
// A missing shape renders as an empty collection so the column stays NOT NULL.
func RenderGeometry(g orb.Geometry) string {
	if g == nil {
		return emptyGeometry
	}
	if c, ok := g.(orb.Collection); ok && len(c) == 0 {
		return emptyGeometry
	}
	return wkt.MarshalString(g)
}
