package shpsql

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/shpsql/domain/model"
)

func TestRemapTable_Resolve(t *testing.T) {
	t.Parallel()

	table := NewRemapTable()
	require.NoError(t, table.Set("pop", "population"))
	table.Seed([]model.FieldDescriptor{
		model.NewFieldDescriptor("NAME", model.FieldTypeCharacter, 10, 0),
		model.NewFieldDescriptor("POP", model.FieldTypeNumber, 9, 0),
	})

	tests := []struct {
		original string
		expected string
	}{
		{"POP", "population"},
		{"Pop", "population"},
		{"NAME", "NAME"},
		{"name", "NAME"},
		{"UNKNOWN", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, table.Resolve(tt.original))
		})
	}
	assert.Equal(t, 2, table.Len())
	assert.Empty(t, table.Unused())
}

func TestRemapTable_Set(t *testing.T) {
	t.Parallel()

	t.Run("later override wins", func(t *testing.T) {
		t.Parallel()

		table := NewRemapTable()
		require.NoError(t, table.Set("POP", "a"))
		require.NoError(t, table.Set("pop", "b"))
		assert.Equal(t, "b", table.Resolve("POP"))
		assert.Equal(t, 1, table.Len())
	})

	t.Run("empty names are rejected", func(t *testing.T) {
		t.Parallel()

		table := NewRemapTable()
		require.ErrorIs(t, table.Set("", "x"), ErrFormat)
		require.ErrorIs(t, table.Set("x", ""), ErrFormat)
	})

	t.Run("backquote in target is rejected", func(t *testing.T) {
		t.Parallel()

		require.ErrorIs(t, NewRemapTable().Set("POP", "po`p"), ErrFormat)
	})
}

func TestRemapTable_UnusedAndClone(t *testing.T) {
	t.Parallel()

	overrides := NewRemapTable()
	require.NoError(t, overrides.Set("ZIP", "postcode"))
	require.NoError(t, overrides.Set("AREA", "area_km2"))

	clone := overrides.Clone()
	clone.Seed([]model.FieldDescriptor{model.NewFieldDescriptor("area", model.FieldTypeFloating, 10, 2)})

	assert.Equal(t, []string{"ZIP"}, clone.Unused())
	assert.Equal(t, []string{"AREA", "ZIP"}, overrides.Unused())
	assert.Equal(t, 2, overrides.Len())
	assert.Equal(t, "area_km2", clone.Resolve("AREA"))
}

func TestParseRemap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg      string
		original string
		target   string
		wantErr  bool
	}{
		{arg: "POP=population", original: "POP", target: "population"},
		{arg: "A=b=c", original: "A", target: "b=c"},
		{arg: "POP", wantErr: true},
		{arg: "=population", wantErr: true},
		{arg: "POP=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			t.Parallel()

			original, target, err := ParseRemap(tt.arg)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.original, original)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestLoadRemapFile(t *testing.T) {
	t.Parallel()

	t.Run("mapping", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "remap.yaml")
		require.NoError(t, os.WriteFile(path, []byte("NAME: city_name\nPOP: population\n"), 0o600))

		mapping, err := LoadRemapFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"NAME": "city_name", "POP": "population"}, mapping)
	})

	t.Run("not a mapping", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "remap.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- NAME\n- POP\n"), 0o600))

		_, err := LoadRemapFile(path)
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadRemapFile(filepath.Join(t.TempDir(), "none.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestBuildRemapTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "remap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("NAME: city_name\nPOP: population\n"), 0o600))

	table, err := buildRemapTable(path, []string{"pop=inhabitants"})
	require.NoError(t, err)
	assert.Equal(t, "city_name", table.Resolve("NAME"))
	assert.Equal(t, "inhabitants", table.Resolve("POP"))

	_, err = buildRemapTable("", []string{"broken"})
	require.ErrorIs(t, err, ErrFormat)
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()

	quoted, err := QuoteIdentifier("NAME")
	require.NoError(t, err)
	assert.Equal(t, "`NAME`", quoted)

	quoted, err = QuoteIdentifier("with space")
	require.NoError(t, err)
	assert.Equal(t, "`with space`", quoted)

	_, err = QuoteIdentifier("bad`name")
	require.ErrorIs(t, err, ErrFormat)
}
