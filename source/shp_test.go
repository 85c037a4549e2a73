package source

import (
	"encoding/binary"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeShape(t *testing.T) {
	t.Parallel()

	outer := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	hole := orb.Ring{{2, 2}, {8, 2}, {8, 8}, {2, 8}, {2, 2}}
	other := orb.Ring{{20, 20}, {20, 30}, {30, 30}, {30, 20}, {20, 20}}

	tests := []struct {
		name string
		in   orb.Geometry
		want orb.Geometry
	}{
		{
			name: "null shape",
			in:   nil,
			want: nil,
		},
		{
			name: "point",
			in:   orb.Point{1.5, -2.25},
			want: orb.Point{1.5, -2.25},
		},
		{
			name: "multipoint",
			in:   orb.MultiPoint{{1, 2}, {3, 4}},
			want: orb.MultiPoint{{1, 2}, {3, 4}},
		},
		{
			name: "single part polyline",
			in:   orb.LineString{{0, 0}, {1, 1}, {2, 0}},
			want: orb.LineString{{0, 0}, {1, 1}, {2, 0}},
		},
		{
			name: "multi part polyline",
			in:   orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}},
			want: orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}},
		},
		{
			name: "polygon with hole",
			in:   orb.Polygon{outer, hole},
			want: orb.Polygon{outer, hole},
		},
		{
			name: "two outer rings",
			in:   orb.Polygon{outer, other},
			want: orb.MultiPolygon{{outer}, {other}},
		},
		{
			name: "hole is attached to the ring containing it",
			in:   orb.Polygon{other, outer, hole},
			want: orb.MultiPolygon{{other}, {outer, hole}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := decodeShape(encodeShape(t, tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeShape_ZVariantReadsXY(t *testing.T) {
	t.Parallel()

	body := encodeShape(t, orb.Point{7, 8})
	binary.LittleEndian.PutUint32(body, uint32(ShapePointZ))
	// Z value follows the XY pair
	body = append(body, make([]byte, 8)...)

	got, err := decodeShape(body)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{7, 8}, got)
}

func TestDecodeShape_Errors(t *testing.T) {
	t.Parallel()

	t.Run("multipatch", func(t *testing.T) {
		t.Parallel()

		body := make([]byte, 4)
		binary.LittleEndian.PutUint32(body, uint32(ShapeMultiPatch))
		_, err := decodeShape(body)
		require.ErrorIs(t, err, ErrUnsupportedShapeType)
	})

	t.Run("truncated point", func(t *testing.T) {
		t.Parallel()

		body := encodeShape(t, orb.Point{1, 2})
		_, err := decodeShape(body[:10])
		require.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("point count beyond record", func(t *testing.T) {
		t.Parallel()

		body := encodeShape(t, orb.MultiPoint{{1, 2}})
		binary.LittleEndian.PutUint32(body[4+shpBoxSize:], 1000)
		_, err := decodeShape(body)
		require.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("part index beyond points", func(t *testing.T) {
		t.Parallel()

		body := encodeShape(t, orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}})
		// second part start
		binary.LittleEndian.PutUint32(body[4+shpBoxSize+8+4:], 9)
		_, err := decodeShape(body)
		require.ErrorIs(t, err, ErrInvalidData)
	})
}

func TestParseSHP(t *testing.T) {
	t.Parallel()

	geometries := []orb.Geometry{orb.Point{1, 2}, nil, orb.Point{5, 6}}
	shp, shx := buildSHP(t, ShapePoint, geometries)

	t.Run("sequential walk", func(t *testing.T) {
		t.Parallel()

		f, err := parseSHP(shp, nil)
		require.NoError(t, err)
		assert.Equal(t, ShapePoint, f.shapeType)
		require.Equal(t, 3, f.len())
		for i, want := range geometries {
			got, err := f.geometry(i)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("offsets from index", func(t *testing.T) {
		t.Parallel()

		index, err := parseSHX(shx)
		require.NoError(t, err)
		require.Len(t, index, 3)

		f, err := parseSHP(shp, index)
		require.NoError(t, err)
		got, err := f.geometry(2)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{5, 6}, got)
	})

	t.Run("bad file code", func(t *testing.T) {
		t.Parallel()

		bad := append([]byte(nil), shp...)
		binary.BigEndian.PutUint32(bad, 1234)
		_, err := parseSHP(bad, nil)
		require.ErrorIs(t, err, ErrInvalidData)

		_, err = parseSHX(bad)
		require.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("record out of range", func(t *testing.T) {
		t.Parallel()

		f, err := parseSHP(shp, nil)
		require.NoError(t, err)
		_, err = f.geometry(3)
		require.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("truncated header", func(t *testing.T) {
		t.Parallel()

		_, err := parseSHP(shp[:50], nil)
		require.ErrorIs(t, err, ErrInvalidData)
	})
}
