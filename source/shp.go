package source

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ESRI shape file layout
const (
	shpHeaderSize       = 100
	shpFileCode         = 9994
	shpRecordHeaderSize = 8
	shpPointSize        = 16
	shpBoxSize          = 32
)

// ShapeType is the ESRI shape type code
type ShapeType int32

// Shape types. Z and M variants are read as their XY counterparts.
const (
	ShapeNull        ShapeType = 0
	ShapePoint       ShapeType = 1
	ShapePolyLine    ShapeType = 3
	ShapePolygon     ShapeType = 5
	ShapeMultiPoint  ShapeType = 8
	ShapePointZ      ShapeType = 11
	ShapePolyLineZ   ShapeType = 13
	ShapePolygonZ    ShapeType = 15
	ShapeMultiPointZ ShapeType = 18
	ShapePointM      ShapeType = 21
	ShapePolyLineM   ShapeType = 23
	ShapePolygonM    ShapeType = 25
	ShapeMultiPointM ShapeType = 28
	ShapeMultiPatch  ShapeType = 31
)

// base returns the XY shape type of a Z or M variant
func (s ShapeType) base() ShapeType {
	switch s {
	case ShapePointZ, ShapePointM:
		return ShapePoint
	case ShapePolyLineZ, ShapePolyLineM:
		return ShapePolyLine
	case ShapePolygonZ, ShapePolygonM:
		return ShapePolygon
	case ShapeMultiPointZ, ShapeMultiPointM:
		return ShapeMultiPoint
	default:
		return s
	}
}

// shpFile is a shape file held in memory with the offsets of its records
type shpFile struct {
	shapeType ShapeType
	data      []byte
	// offsets are byte positions of record headers
	offsets []int
}

// parseSHP validates the file header and locates the records.
// When index is not nil the offsets come from the shape index instead of a
// sequential walk over the record headers.
func parseSHP(data []byte, index []int) (*shpFile, error) {
	if len(data) < shpHeaderSize {
		return nil, fmt.Errorf("%w: shp header is truncated", ErrInvalidData)
	}
	if code := binary.BigEndian.Uint32(data[0:]); code != shpFileCode {
		return nil, fmt.Errorf("%w: shp file code %d", ErrInvalidData, code)
	}

	f := &shpFile{
		shapeType: ShapeType(binary.LittleEndian.Uint32(data[32:])),
		data:      data,
	}
	if index != nil {
		f.offsets = index
		return f, nil
	}

	for pos := shpHeaderSize; pos+shpRecordHeaderSize <= len(data); {
		length := int(binary.BigEndian.Uint32(data[pos+4:])) * 2
		f.offsets = append(f.offsets, pos)
		pos += shpRecordHeaderSize + length
	}
	return f, nil
}

// len returns the number of shape records
func (f *shpFile) len() int {
	return len(f.offsets)
}

// geometry decodes shape record i. A null shape yields a nil geometry.
func (f *shpFile) geometry(i int) (orb.Geometry, error) {
	if i < 0 || i >= len(f.offsets) {
		return nil, fmt.Errorf("%w: shp record %d out of range", ErrInvalidData, i)
	}
	pos := f.offsets[i]
	if pos+shpRecordHeaderSize > len(f.data) {
		return nil, fmt.Errorf("%w: shp record %d is truncated", ErrInvalidData, i)
	}
	length := int(binary.BigEndian.Uint32(f.data[pos+4:])) * 2
	start := pos + shpRecordHeaderSize
	if start+length > len(f.data) || length < 4 {
		return nil, fmt.Errorf("%w: shp record %d is truncated", ErrInvalidData, i)
	}

	g, err := decodeShape(f.data[start : start+length])
	if err != nil {
		return nil, fmt.Errorf("shp record %d: %w", i, err)
	}
	return g, nil
}

// shapeReader reads little endian values from a record body
type shapeReader struct {
	buf []byte
	pos int
	err error
}

func (r *shapeReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("%w: shape content is truncated", ErrInvalidData)
		return false
	}
	return true
}

func (r *shapeReader) readInt() int {
	if !r.need(4) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.buf[r.pos:])) //nolint:gosec // two's complement field
	r.pos += 4
	return int(v)
}

func (r *shapeReader) readPoint() orb.Point {
	if !r.need(shpPointSize) {
		return orb.Point{}
	}
	x := math.Float64frombits(binary.LittleEndian.Uint64(r.buf[r.pos:]))
	y := math.Float64frombits(binary.LittleEndian.Uint64(r.buf[r.pos+8:]))
	r.pos += shpPointSize
	return orb.Point{x, y}
}

func (r *shapeReader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

// count reads a non negative element count that must fit in the remaining bytes
func (r *shapeReader) count(elemSize int) int {
	n := r.readInt()
	if r.err == nil && (n < 0 || n*elemSize > len(r.buf)-r.pos) {
		r.err = fmt.Errorf("%w: shape element count %d", ErrInvalidData, n)
		return 0
	}
	return n
}

// decodeShape converts one record body into a geometry
func decodeShape(body []byte) (orb.Geometry, error) {
	r := &shapeReader{buf: body}
	shapeType := ShapeType(r.readInt())

	var g orb.Geometry
	switch shapeType.base() {
	case ShapeNull:
		return nil, nil
	case ShapePoint:
		g = r.readPoint()
	case ShapeMultiPoint:
		r.skip(shpBoxSize)
		n := r.count(shpPointSize)
		mp := make(orb.MultiPoint, 0, n)
		for range n {
			mp = append(mp, r.readPoint())
		}
		g = mp
	case ShapePolyLine, ShapePolygon:
		r.skip(shpBoxSize)
		numParts := r.count(4)
		numPoints := r.readInt()
		parts := make([]int, numParts)
		for i := range parts {
			parts[i] = r.readInt()
		}
		if r.err == nil && (numPoints < 0 || numPoints*shpPointSize > len(body)-r.pos) {
			return nil, fmt.Errorf("%w: shape point count %d", ErrInvalidData, numPoints)
		}
		points := make([]orb.Point, numPoints)
		for i := range points {
			points[i] = r.readPoint()
		}
		if r.err != nil {
			return nil, r.err
		}
		rings, err := splitParts(points, parts)
		if err != nil {
			return nil, err
		}
		if shapeType.base() == ShapePolyLine {
			g = lineGeometry(rings)
		} else {
			g = polygonGeometry(rings)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedShapeType, shapeType)
	}

	if r.err != nil {
		return nil, r.err
	}
	return g, nil
}

// splitParts cuts the point list at the part start indexes
func splitParts(points []orb.Point, parts []int) ([][]orb.Point, error) {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > len(points) {
			return nil, fmt.Errorf("%w: shape part %d spans %d..%d of %d points", ErrInvalidData, i, start, end, len(points))
		}
		out = append(out, points[start:end])
	}
	return out, nil
}

// lineGeometry returns a LineString for a single part, a MultiLineString otherwise
func lineGeometry(parts [][]orb.Point) orb.Geometry {
	if len(parts) == 1 {
		return orb.LineString(parts[0])
	}
	mls := make(orb.MultiLineString, len(parts))
	for i, p := range parts {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// polygonGeometry groups rings into polygons. Outer rings are clockwise;
// a counter clockwise ring is a hole of the outer ring that contains it.
func polygonGeometry(parts [][]orb.Point) orb.Geometry {
	var polygons orb.MultiPolygon
	var holes []orb.Ring

	for _, p := range parts {
		ring := orb.Ring(p)
		if ring.Orientation() == orb.CCW {
			holes = append(holes, ring)
			continue
		}
		polygons = append(polygons, orb.Polygon{ring})
	}

	for _, hole := range holes {
		owner := -1
		if len(hole) > 0 {
			for i := range polygons {
				if planar.RingContains(polygons[i][0], hole[0]) {
					owner = i
					break
				}
			}
		}
		if owner < 0 {
			// an unowned hole is kept as a shell so no coordinates are lost
			polygons = append(polygons, orb.Polygon{hole})
			continue
		}
		polygons[owner] = append(polygons[owner], hole)
	}

	if len(polygons) == 1 {
		return polygons[0]
	}
	return polygons
}

// parseSHX reads the record offsets of a shape index
func parseSHX(data []byte) ([]int, error) {
	if len(data) < shpHeaderSize {
		return nil, fmt.Errorf("%w: shx header is truncated", ErrInvalidData)
	}
	if code := binary.BigEndian.Uint32(data[0:]); code != shpFileCode {
		return nil, fmt.Errorf("%w: shx file code %d", ErrInvalidData, code)
	}

	n := (len(data) - shpHeaderSize) / shpRecordHeaderSize
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = int(binary.BigEndian.Uint32(data[shpHeaderSize+i*shpRecordHeaderSize:])) * 2
	}
	return offsets, nil
}
