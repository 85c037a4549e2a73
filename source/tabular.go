package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/shpsql/compression"
	"github.com/nao1215/shpsql/domain/model"
)

// newInferredTable builds an attribute-only table from a header and text rows.
// Field types are inferred from the values; short rows are padded with empty values.
func newInferredTable(name string, header []string, rows [][]string) (*model.Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrInvalidData, name)
	}
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	fields := model.InferFieldDescriptors(header, rows)
	table := model.NewTable(name, fields)
	for i, row := range rows {
		cells := make([]model.Cell, len(fields))
		for j, field := range fields {
			var raw string
			if j < len(row) {
				raw = row[j]
			}
			cell, err := model.ParseTextCell(field, raw)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", name, i+1, err)
			}
			cells[j] = cell
		}
		if err := table.AddRow(cells, nil); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// validateHeader rejects empty and duplicate column names, compared case-insensitively
func validateHeader(header []string) error {
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidData, i+1)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate column name %q", ErrInvalidData, name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// OpenDelimited reads a CSV or TSV file. The first record is the header.
func OpenDelimited(path string, comma rune) (*model.Table, error) {
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	if comma == '\t' {
		reader.LazyQuotes = true
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidData, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrInvalidData, path)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return newInferredTable(path, header, records[1:])
}

// OpenXLSX reads the first sheet of an Excel workbook. The first row is the header.
func OpenXLSX(path string) (*model.Table, error) {
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, err
	}

	xlsxFile, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidData, path, err)
	}
	defer func() {
		_ = xlsxFile.Close()
	}()

	sheets := xlsxFile.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLayer, path)
	}

	rows, err := xlsxFile.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: sheet %s: %w", ErrInvalidData, path, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrInvalidData, path)
	}
	return newInferredTable(path, rows[0], rows[1:])
}

// OpenParquet reads a Parquet file through its Arrow representation
func OpenParquet(ctx context.Context, path string) (*model.Table, error) {
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty parquet file", ErrInvalidData, path)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidData, path, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidData, path, err)
	}
	defer table.Release()

	schema := table.Schema()
	header := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	var rows [][]string
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make([]string, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValueString(col, i)
			}
			rows = append(rows, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidData, path, err)
	}
	return newInferredTable(path, header, rows)
}

// arrowValueString renders one Arrow value as the text the type inference expects.
// Nulls become empty values.
func arrowValueString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch a := col.(type) {
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(i)), 'f', -1, 32)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'f', -1, 64)
	case *array.Date32:
		return a.Value(i).ToTime().Format("2006-01-02")
	case *array.Date64:
		return a.Value(i).ToTime().Format("2006-01-02")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC().Format("2006-01-02 15:04:05")
	default:
		return col.ValueStr(i)
	}
}
