package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nao1215/shpsql/compression"
	"github.com/nao1215/shpsql/domain/model"
)

// Format represents a dataset format
type Format int

const (
	// FormatUnsupported represents an unknown format
	FormatUnsupported Format = iota
	// FormatShapefile represents an ESRI Shapefile
	FormatShapefile
	// FormatGeoPackage represents an OGC GeoPackage
	FormatGeoPackage
	// FormatCSV represents comma separated values
	FormatCSV
	// FormatTSV represents tab separated values
	FormatTSV
	// FormatXLSX represents an Excel workbook
	FormatXLSX
	// FormatParquet represents an Apache Parquet file
	FormatParquet
)

// File extensions
const (
	extSHP     = ".shp"
	extSHX     = ".shx"
	extDBF     = ".dbf"
	extPRJ     = ".prj"
	extCPG     = ".cpg"
	extGPKG    = ".gpkg"
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extXLSX    = ".xlsx"
	extParquet = ".parquet"
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatShapefile:
		return "shapefile"
	case FormatGeoPackage:
		return "geopackage"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "unsupported"
	}
}

// DetectFormat determines the dataset format from a path.
// A path without extension is taken as a shapefile base name.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(compression.TrimExtension(path))) {
	case "", extSHP, extSHX, extDBF, extPRJ, extCPG:
		return FormatShapefile
	case extGPKG:
		return FormatGeoPackage
	case extCSV:
		return FormatCSV
	case extTSV:
		return FormatTSV
	case extXLSX:
		return FormatXLSX
	case extParquet:
		return FormatParquet
	default:
		return FormatUnsupported
	}
}

// TrimExtensions removes the compression extension and then the dataset
// extension from a path, leaving the base name shared by all components.
func TrimExtensions(path string) string {
	base := compression.TrimExtension(path)
	if DetectFormat(path) == FormatUnsupported {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Options configures how a dataset is opened
type Options struct {
	// Flags disables parts of a dataset: attributes, geometry, shape index and projection
	Flags model.InputFlags
	// Logger receives diagnostics; nil discards them
	Logger *slog.Logger
}

// logger returns the configured logger or a discarding one
func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Open opens the dataset named by path.
// ErrUnsupportedFormat is returned when no reader can be constructed for the path;
// other errors mean the dataset exists in a known format but could not be opened.
func Open(ctx context.Context, path string, opts Options) (model.Dataset, error) {
	logger := opts.logger()
	format := DetectFormat(path)
	logger.Debug("opening dataset", slog.String("path", path), slog.String("format", format.String()))

	switch format {
	case FormatShapefile:
		shapefile, err := OpenShapefile(path, opts.Flags, logger)
		if err != nil {
			return nil, err
		}
		return shapefile, nil
	case FormatGeoPackage:
		gpkg, err := OpenGeoPackage(ctx, path, opts.Flags.Normalize(), logger)
		if err != nil {
			return nil, err
		}
		return gpkg, nil
	case FormatCSV, FormatTSV, FormatXLSX, FormatParquet:
		table, err := openTable(ctx, path, format)
		if err != nil {
			return nil, err
		}
		table = table.Restrict(opts.Flags.Normalize())
		if !table.HasAttributes() && !table.HasGeometry() {
			return nil, fmt.Errorf("%w: %s: attribute table disabled and no geometry", ErrMissingComponent, path)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// openTable opens an attribute-only tabular file
func openTable(ctx context.Context, path string, format Format) (*model.Table, error) {
	switch format {
	case FormatCSV:
		return OpenDelimited(path, ',')
	case FormatTSV:
		return OpenDelimited(path, '\t')
	case FormatXLSX:
		return OpenXLSX(path)
	default:
		return OpenParquet(ctx, path)
	}
}
