package source

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// testField describes one dBASE field of a generated test table
type testField struct {
	name     string
	kind     byte
	length   int
	decimals int
}

// testRow is one generated dBASE record
type testRow struct {
	values  []string
	deleted bool
}

// buildDBF encodes a dBASE III table. Values are left padded for numbers
// and right padded otherwise, as dBASE writers do.
func buildDBF(t *testing.T, fields []testField, rows []testRow) []byte {
	t.Helper()

	recordLen := 1
	for _, f := range fields {
		recordLen += f.length
	}
	headerLen := dbfHeaderSize + len(fields)*dbfDescriptorSize + 1

	var buf bytes.Buffer
	header := make([]byte, dbfHeaderSize)
	header[0] = 0x03
	binary.LittleEndian.PutUint32(header[dbfRecordCountPos:], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[dbfHeaderLenPos:], uint16(headerLen))
	binary.LittleEndian.PutUint16(header[dbfRecordLenPos:], uint16(recordLen))
	buf.Write(header)

	for _, f := range fields {
		desc := make([]byte, dbfDescriptorSize)
		copy(desc, f.name)
		desc[dbfFieldTypePos] = f.kind
		desc[dbfFieldLengthPos] = byte(f.length)
		desc[dbfFieldDecimalPos] = byte(f.decimals)
		buf.Write(desc)
	}
	buf.WriteByte(dbfHeaderEnd)

	for _, row := range rows {
		require.Len(t, row.values, len(fields))
		if row.deleted {
			buf.WriteByte(dbfDeletedFlag)
		} else {
			buf.WriteByte(' ')
		}
		for i, f := range fields {
			v := []byte(row.values[i])
			require.LessOrEqual(t, len(v), f.length)
			pad := bytes.Repeat([]byte{' '}, f.length-len(v))
			if f.kind == 'N' || f.kind == 'F' {
				buf.Write(pad)
				buf.Write(v)
			} else {
				buf.Write(v)
				buf.Write(pad)
			}
		}
	}
	buf.WriteByte(0x1A)
	return buf.Bytes()
}

// shapeHeader encodes the 100 byte header shared by .shp and .shx
func shapeHeader(shapeType ShapeType, fileLen int) []byte {
	h := make([]byte, shpHeaderSize)
	binary.BigEndian.PutUint32(h[0:], shpFileCode)
	binary.BigEndian.PutUint32(h[24:], uint32(fileLen/2))
	binary.LittleEndian.PutUint32(h[28:], 1000)
	binary.LittleEndian.PutUint32(h[32:], uint32(shapeType))
	return h
}

func putFloat(buf *bytes.Buffer, f float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	buf.Write(b[:])
}

func putInt(buf *bytes.Buffer, n int) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(int32(n)))
	buf.Write(b[:])
}

// encodeShape encodes a record body for a geometry; nil encodes a null shape
func encodeShape(t *testing.T, g orb.Geometry) []byte {
	t.Helper()

	var buf bytes.Buffer
	writeParts := func(shapeType ShapeType, parts [][]orb.Point) {
		putInt(&buf, int(shapeType))
		buf.Write(make([]byte, shpBoxSize))
		total := 0
		for _, p := range parts {
			total += len(p)
		}
		putInt(&buf, len(parts))
		putInt(&buf, total)
		start := 0
		for _, p := range parts {
			putInt(&buf, start)
			start += len(p)
		}
		for _, p := range parts {
			for _, pt := range p {
				putFloat(&buf, pt[0])
				putFloat(&buf, pt[1])
			}
		}
	}

	switch g := g.(type) {
	case nil:
		putInt(&buf, int(ShapeNull))
	case orb.Point:
		putInt(&buf, int(ShapePoint))
		putFloat(&buf, g[0])
		putFloat(&buf, g[1])
	case orb.MultiPoint:
		putInt(&buf, int(ShapeMultiPoint))
		buf.Write(make([]byte, shpBoxSize))
		putInt(&buf, len(g))
		for _, pt := range g {
			putFloat(&buf, pt[0])
			putFloat(&buf, pt[1])
		}
	case orb.LineString:
		writeParts(ShapePolyLine, [][]orb.Point{g})
	case orb.MultiLineString:
		parts := make([][]orb.Point, len(g))
		for i, ls := range g {
			parts[i] = ls
		}
		writeParts(ShapePolyLine, parts)
	case orb.Polygon:
		parts := make([][]orb.Point, len(g))
		for i, r := range g {
			parts[i] = r
		}
		writeParts(ShapePolygon, parts)
	default:
		t.Fatalf("cannot encode %T", g)
	}
	return buf.Bytes()
}

// buildSHP encodes a shape file and its index
func buildSHP(t *testing.T, shapeType ShapeType, geometries []orb.Geometry) (shp, shx []byte) {
	t.Helper()

	var records, index bytes.Buffer
	offset := shpHeaderSize
	for i, g := range geometries {
		body := encodeShape(t, g)
		var rh [shpRecordHeaderSize]byte
		binary.BigEndian.PutUint32(rh[0:], uint32(i+1))
		binary.BigEndian.PutUint32(rh[4:], uint32(len(body)/2))
		records.Write(rh[:])
		records.Write(body)

		var ih [shpRecordHeaderSize]byte
		binary.BigEndian.PutUint32(ih[0:], uint32(offset/2))
		binary.BigEndian.PutUint32(ih[4:], uint32(len(body)/2))
		index.Write(ih[:])
		offset += shpRecordHeaderSize + len(body)
	}

	shp = append(shapeHeader(shapeType, shpHeaderSize+records.Len()), records.Bytes()...)
	shx = append(shapeHeader(shapeType, shpHeaderSize+index.Len()), index.Bytes()...)
	return shp, shx
}

// cityFields are the attribute fields of the generated city dataset
var cityFields = []testField{
	{name: "NAME", kind: 'C', length: 11},
	{name: "POP", kind: 'N', length: 9},
}

// writeCities writes a small shapefile to dir and returns its base path
func writeCities(t *testing.T, dir string) string {
	t.Helper()

	base := filepath.Join(dir, "cities")
	dbf := buildDBF(t, cityFields, []testRow{
		{values: []string{"Springfield", "1000"}},
		{values: []string{"Ogdenville", "20"}, deleted: true},
		{values: []string{"Shelbyville", "500"}},
	})
	shp, shx := buildSHP(t, ShapePoint, []orb.Geometry{
		orb.Point{1, 2},
		orb.Point{3, 4},
		orb.Point{5, 6},
	})

	writeFile(t, base+".dbf", dbf)
	writeFile(t, base+".shp", shp)
	writeFile(t, base+".shx", shx)
	writeFile(t, base+".prj", []byte(`GEOGCS["GCS_WGS_1984"]`+"\n"))
	return base
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
}
