package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/shpsql"
	"github.com/nao1215/shpsql/domain/model"
	"github.com/nao1215/shpsql/source"
)

// Version is the semantic version (set by build flags)
var Version = "0.5.0"

// Exit codes
const (
	exitOK          = 0
	exitUsage       = 1
	exitUnsupported = 2
	exitOpen        = 3
)

// rootFlags holds the command line options
type rootFlags struct {
	debug            bool
	noDBF            bool
	noSHP            bool
	noSHX            bool
	noPRJ            bool
	noSchema         bool
	noData           bool
	table            string
	query            string
	geometryField    string
	output           string
	remaps           []string
	remapFile        string
	autoIncrementKey string
	primaryKey       string
	geometryAsText   bool
	delimited        bool
}

// flagGroups orders the usage text
var flagGroups = []struct {
	title string
	names []string
}{
	{title: "General Options", names: []string{"help", "debug", "version"}},
	{title: "Input Options", names: []string{"no-dbf", "no-shp", "no-shx", "no-prj"}},
	{title: "Filter Options", names: []string{"query"}},
	{title: "Database Options", names: []string{"table", "remap", "remap-file", "auto-increment-key", "primary-key", "geometry-field"}},
	{title: "Output Options", names: []string{"output", "no-schema", "no-data", "delimited", "geometry-as-text"}},
}

// newRootCmd creates the shpsql command writing records to stdout and diagnostics to stderr
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "shpsql [options] <dataset> [<dataset> ...]",
		Short: "Convert geographic datasets into MySQL statements",
		Long: `shpsql converts ESRI Shapefiles, GeoPackages and attribute tables (CSV, TSV,
XLSX, Parquet) into MySQL DROP/CREATE TABLE and INSERT statements, or into
tab separated rows for LOAD DATA INFILE.

All datasets are loaded into the same table. The first dataset decides the
table layout; the others must carry the same fields.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: no input datasets", shpsql.ErrUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), flags, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.SortFlags = false
	f.BoolP("help", "?", false, "Display this help and exit.")
	f.BoolVarP(&flags.debug, "debug", "d", false, "Output debugging information while running.")
	f.BoolVarP(&flags.noDBF, "no-dbf", "D", false, "Don't use a DBF (database) file.")
	f.BoolVarP(&flags.noSHP, "no-shp", "S", false, "Don't use a SHP (shape) file, implies --no-shx.")
	f.BoolVarP(&flags.noSHX, "no-shx", "X", false, "Don't use a SHX (shape index) file.")
	f.BoolVarP(&flags.noPRJ, "no-prj", "P", false, "Don't use a PRJ (projection) file.")
	f.StringVarP(&flags.query, "query", "q", "", "Attribute query of form `FIELD=value`.")
	f.StringVarP(&flags.table, "table", "t", "", "Table `name` to load records into (default: base name of the first dataset).")
	f.StringArrayVarP(&flags.remaps, "remap", "r", nil, "Remap a field to another name, as `old=new`. May be repeated.")
	f.StringVar(&flags.remapFile, "remap-file", "", "YAML `file` mapping field names to new names.")
	f.StringVarP(&flags.autoIncrementKey, "auto-increment-key", "a", "", "Name of auto-incremented primary key `field` (default id).")
	f.StringVarP(&flags.primaryKey, "primary-key", "p", "", "Name (after remap) of existing `field` to use as primary key.")
	f.StringVarP(&flags.geometryField, "geometry-field", "g", "", "Name of GEOMETRY `field` (default geo or geo_as_text).")
	f.StringVarP(&flags.output, "output", "o", shpsql.StdoutPath, "Output to a `file` instead of stdout; .gz, .xz and .zst are compressed.")
	f.BoolVarP(&flags.noSchema, "no-schema", "s", false, "Don't output any schema, only the data.")
	f.BoolVarP(&flags.noData, "no-data", "n", false, "Don't output any data, only the schema.")
	f.BoolVarP(&flags.delimited, "delimited", "i", false, "Output data in delimited format. Implies --no-schema.")
	f.BoolVarP(&flags.geometryAsText, "geometry-as-text", "G", false, "Output geometry as text rather than GEOMETRY.")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", shpsql.ErrUsage, err)
	})
	cmd.SetUsageFunc(usage)
	return cmd
}

// usage writes the flags grouped by concern
func usage(cmd *cobra.Command) error {
	w := cmd.ErrOrStderr()
	if _, err := fmt.Fprintf(w, "Usage: %s\n", cmd.UseLine()); err != nil {
		return err
	}
	for _, group := range flagGroups {
		set := pflag.NewFlagSet(group.title, pflag.ContinueOnError)
		set.SortFlags = false
		for _, name := range group.names {
			if flag := cmd.Flags().Lookup(name); flag != nil {
				set.AddFlag(flag)
			}
		}
		if !set.HasFlags() {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s:\n%s", group.title, set.FlagUsages()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// newOptions builds the export options from the command line
func newOptions(flags *rootFlags) (shpsql.Options, error) {
	key, err := shpsql.ResolveKeyPolicy(flags.autoIncrementKey, flags.primaryKey)
	if err != nil {
		return shpsql.Options{}, err
	}

	geometry := shpsql.GeometryBinary
	if flags.geometryAsText {
		geometry = shpsql.GeometryText
	}
	mode := shpsql.OutputStatement
	if flags.delimited {
		mode = shpsql.OutputDelimited
	}

	return shpsql.NewOptions().
		WithTable(flags.table).
		WithGeometryField(flags.geometryField).
		WithKey(key).
		WithGeometry(geometry).
		WithMode(mode).
		WithNoSchema(flags.noSchema).
		WithNoData(flags.noData).
		WithInputFlags(model.InputFlags{
			NoAttributes: flags.noDBF,
			NoGeometry:   flags.noSHP,
			NoIndex:      flags.noSHX,
			NoProjection: flags.noPRJ,
		}).
		WithQuery(flags.query).
		WithRemap(flags.remaps...).
		WithRemapFile(flags.remapFile), nil
}

// newLogger creates the diagnostics logger
func newLogger(stderr io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// runExport validates the options, then opens the output and exports every dataset
func runExport(ctx context.Context, flags *rootFlags, paths []string, stdout, stderr io.Writer) error {
	opts, err := newOptions(flags)
	if err != nil {
		return err
	}
	exporter, err := shpsql.NewExporter(opts)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, flags.debug)
	logger.Debug("starting export",
		slog.Int("datasets", len(paths)),
		slog.String("key", opts.Key.String()),
		slog.String("geometry", opts.Geometry.String()),
		slog.String("mode", opts.Mode.String()))

	w, closer, err := shpsql.OpenOutput(flags.output, stdout)
	if err != nil {
		return err
	}
	exportErr := exporter.WithLogger(logger).Export(ctx, w, paths...)
	if closeErr := closer(); closeErr != nil {
		return errors.Join(exportErr, fmt.Errorf("%w: %w", shpsql.ErrOutput, closeErr))
	}
	return exportErr
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, source.ErrUnsupportedFormat):
		return exitUnsupported
	case errors.Is(err, shpsql.ErrDatasetOpen):
		return exitOpen
	default:
		return exitUsage
	}
}

// run executes the command line and returns the exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintln(stderr, "Error:", err)
	if errors.Is(err, shpsql.ErrUsage) {
		_ = cmd.Usage()
	}
	return exitCode(err)
}
