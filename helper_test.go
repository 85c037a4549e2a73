package shpsql

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/shpsql/domain/model"
	"github.com/nao1215/shpsql/source"
)

// cityFields are NAME:Character(10) and POP:Number(9,0)
func cityFields() []model.FieldDescriptor {
	return []model.FieldDescriptor{
		model.NewFieldDescriptor("NAME", model.FieldTypeCharacter, 10, 0),
		model.NewFieldDescriptor("POP", model.FieldTypeNumber, 9, 0),
	}
}

// citiesTable is an attribute-only dataset holding Springfield
func citiesTable(t *testing.T) *model.Table {
	t.Helper()

	table := model.NewTable("cities", cityFields())
	require.NoError(t, table.AddRow([]model.Cell{
		model.NewCharacterCell("Springfield"),
		model.NewIntegerCell(1000),
	}, nil))
	return table
}

// citiesWithGeometry holds Springfield at POINT(1 2) and Shelbyville without a shape
func citiesWithGeometry(t *testing.T) *model.Table {
	t.Helper()

	table := model.NewTable("cities", cityFields()).WithGeometry(&model.Projection{SRID: 4326})
	require.NoError(t, table.AddRow([]model.Cell{
		model.NewCharacterCell("Springfield"),
		model.NewIntegerCell(1000),
	}, orb.Point{1, 2}))
	require.NoError(t, table.AddRow([]model.Cell{
		model.NewCharacterCell("Shelbyville"),
		model.NewIntegerCell(500),
	}, nil))
	return table
}

// trackedDataset counts Close calls of a dataset
type trackedDataset struct {
	model.Dataset
	closed int
}

func (d *trackedDataset) Close() error {
	d.closed++
	return d.Dataset.Close()
}

// errNoFixture is returned by fixtureOpener for unknown paths
var errNoFixture = errors.New("no fixture")

// fixtureOpener opens in-memory datasets by path
func fixtureOpener(datasets map[string]model.Dataset) Opener {
	return func(_ context.Context, path string, _ source.Options) (model.Dataset, error) {
		ds, ok := datasets[path]
		if !ok {
			return nil, errNoFixture
		}
		return ds, nil
	}
}
