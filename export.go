package shpsql

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nao1215/shpsql/domain/model"
	"github.com/nao1215/shpsql/source"
)

// Opener opens one input dataset
type Opener func(ctx context.Context, path string, opts source.Options) (model.Dataset, error)

// Exporter converts datasets into MySQL statements or bulk loader rows.
// Options are validated once by NewExporter and never change afterwards.
type Exporter struct {
	opts      Options
	filter    *Filter
	overrides *RemapTable
	open      Opener
	logger    *slog.Logger
	validator *validator
}

// NewExporter validates the options and creates an Exporter.
// Usage and format errors are reported here, before any dataset is opened.
func NewExporter(opts Options) (*Exporter, error) {
	opts = opts.normalize()
	v := newValidator()
	if err := v.validateOptions(opts); err != nil {
		return nil, err
	}

	var filter *Filter
	if opts.Query != "" {
		f, err := ParseFilter(opts.Query)
		if err != nil {
			return nil, err
		}
		filter = &f
	}

	overrides, err := buildRemapTable(opts.RemapFile, opts.Remaps)
	if err != nil {
		return nil, err
	}

	return &Exporter{
		opts:      opts,
		filter:    filter,
		overrides: overrides,
		open:      source.Open,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator: v,
	}, nil
}

// WithLogger sets the logger receiving diagnostics
func (e *Exporter) WithLogger(logger *slog.Logger) *Exporter {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithOpener replaces the dataset opener, source.Open by default
func (e *Exporter) WithOpener(open Opener) *Exporter {
	if open != nil {
		e.open = open
	}
	return e
}

// Options returns the normalized options of the exporter
func (e *Exporter) Options() Options {
	return e.opts
}

// exportRun holds the state of one Export call
type exportRun struct {
	table  string
	layout *Layout
	out    *bufio.Writer
}

// Export writes the datasets named by paths to w, in the given order.
// The first dataset fixes the table layout; its schema is written once.
// Output already written is not rolled back when an error occurs.
func (e *Exporter) Export(ctx context.Context, w io.Writer, paths ...string) error {
	if err := e.validator.validatePaths(paths); err != nil {
		return err
	}

	table := e.opts.Table
	if table == "" {
		table = tableFromFilePath(paths[0])
	}
	if err := e.validator.validateIdentifier(table); err != nil {
		return err
	}

	run := &exportRun{
		table: table,
		out:   bufio.NewWriter(w),
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, e.flush(run))
		}
		if err := e.exportDataset(ctx, run, path); err != nil {
			return errors.Join(err, e.flush(run))
		}
	}
	return e.flush(run)
}

// flush writes the buffered output
func (e *Exporter) flush(run *exportRun) error {
	if err := run.out.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}

// exportDataset writes the schema (for the first dataset) and the records of one dataset
func (e *Exporter) exportDataset(ctx context.Context, run *exportRun, path string) (err error) {
	ds, err := e.open(ctx, path, source.Options{Flags: e.opts.Input, Logger: e.logger})
	if err != nil {
		if errors.Is(err, source.ErrUnsupportedFormat) {
			return NewErrorContext("open dataset", path).Error(err)
		}
		return NewErrorContext("open dataset", path).Error(fmt.Errorf("%w: %w", ErrDatasetOpen, err))
	}
	defer func() {
		if closeErr := ds.Close(); closeErr != nil && err == nil {
			err = NewErrorContext("close dataset", path).Error(closeErr)
		}
	}()

	if projection := ds.Projection(); projection != nil {
		e.logger.Debug("dataset projection", slog.String("path", path), slog.Int("srid", projection.SRID))
	}

	if run.layout == nil {
		layout := e.newLayout(run.table, ds)
		run.layout = &layout
		if !e.opts.NoSchema {
			schema, err := EmitSchema(layout)
			if err != nil {
				return NewErrorContext("emit schema", path).WithTable(run.table).Error(err)
			}
			if _, err := run.out.WriteString(schema); err != nil {
				return fmt.Errorf("%w: %w", ErrOutput, err)
			}
		}
	} else if err := checkCompatible(*run.layout, ds); err != nil {
		return NewErrorContext("open dataset", path).WithTable(run.table).Error(err)
	}

	if e.opts.NoData {
		return nil
	}

	count, err := e.exportRecords(ctx, run, ds)
	if err != nil {
		return NewErrorContext("export records", path).WithTable(run.table).Error(err)
	}
	e.logger.Debug("exported dataset", slog.String("path", path), slog.Int("records", count))
	return nil
}

// exportRecords streams the selected records of a dataset
func (e *Exporter) exportRecords(ctx context.Context, run *exportRun, ds model.Dataset) (int, error) {
	var match model.Predicate
	if e.filter != nil {
		match = e.filter.Predicate()
	}

	scan, err := ds.Scan(ctx, match)
	if err != nil {
		return 0, err
	}
	defer scan.Close()

	count := 0
	for scan.Next() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		text, err := EmitRecord(scan.Record(), *run.layout, e.opts.Mode)
		if err != nil {
			return count, err
		}
		if _, err := run.out.WriteString(text); err != nil {
			return count, fmt.Errorf("%w: %w", ErrOutput, err)
		}
		count++
	}
	if err := scan.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// newLayout fixes the table layout from the first dataset
func (e *Exporter) newLayout(table string, ds model.Dataset) Layout {
	remap := e.overrides.Clone()
	remap.Seed(ds.Fields())
	for _, name := range remap.Unused() {
		e.logger.Warn("remapped field not found in dataset", slog.String("field", name), slog.String("dataset", ds.Name()))
	}

	return Layout{
		Table:         table,
		Fields:        ds.Fields(),
		Remap:         remap,
		Key:           e.opts.Key,
		Geometry:      e.opts.Geometry,
		GeometryField: e.opts.GeometryField,
		HasAttributes: ds.HasAttributes(),
		HasGeometry:   ds.HasGeometry(),
	}
}

// checkCompatible reports whether a later dataset fits the layout of the first one.
// Field names, types and decimals must match.
func checkCompatible(layout Layout, ds model.Dataset) error {
	if ds.HasAttributes() != layout.HasAttributes || ds.HasGeometry() != layout.HasGeometry {
		return fmt.Errorf("%w: %s: attribute or geometry presence differs", ErrSchemaMismatch, ds.Name())
	}
	fields := ds.Fields()
	if len(fields) != len(layout.Fields) {
		return fmt.Errorf("%w: %s: %d fields, want %d", ErrSchemaMismatch, ds.Name(), len(fields), len(layout.Fields))
	}
	for i, field := range fields {
		want := layout.Fields[i]
		if !strings.EqualFold(field.Name, want.Name) {
			return fmt.Errorf("%w: %s: field %d is %s, want %s", ErrSchemaMismatch, ds.Name(), i+1, field.Name, want.Name)
		}
		// widths may differ; the first dataset declares the column
		if field.Type != want.Type || field.Decimals != want.Decimals {
			return fmt.Errorf("%w: %s: field %s is %v with %d decimals, want %v with %d decimals",
				ErrSchemaMismatch, ds.Name(), field.Name, field.Type, field.Decimals, want.Type, want.Decimals)
		}
	}
	return nil
}
