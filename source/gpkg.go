package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"github.com/nao1215/shpsql/compression"
	"github.com/nao1215/shpsql/domain/model"
)

// GeoPackage binary header
const (
	gpkgMagic        = "GP"
	gpkgHeaderSize   = 8
	gpkgFlagsPos     = 3
	gpkgEnvelopeMask = 0x0E
	gpkgEmptyFlag    = 0x10
)

// Widths given to GeoPackage columns, which carry no declared width
const (
	gpkgIntegerLength  = 20
	gpkgFloatingLength = 19
	gpkgFloatingDigits = 11
	gpkgDateTimeLength = 24
)

var gpkgTextLength = regexp.MustCompile(`^(?:TEXT|VARCHAR|CHAR)\s*\((\d+)\)$`)

// GeoPackage is a feature or attribute table of an OGC GeoPackage
type GeoPackage struct {
	name       string
	db         *sql.DB
	table      string
	geomColumn string
	columns    []string
	fields     []model.FieldDescriptor
	projection *model.Projection
	// tempPath is the decompressed copy removed on Close
	tempPath string
	logger   *slog.Logger
}

// OpenGeoPackage opens the first feature table of a GeoPackage, or its
// first attribute table when it has no features. Attribute columns, the
// geometry column and the projection are dropped as flags request.
func OpenGeoPackage(ctx context.Context, path string, flags model.InputFlags, logger *slog.Logger) (*GeoPackage, error) {
	g := &GeoPackage{name: path, logger: logger}

	dbPath := path
	if compression.Detect(path) != compression.None {
		tmp, err := decompressToTemp(path)
		if err != nil {
			return nil, err
		}
		g.tempPath = tmp
		dbPath = tmp
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingComponent, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		g.removeTemp()
		return nil, fmt.Errorf("failed to open geopackage: %w", err)
	}
	g.db = db

	if err := g.load(ctx); err != nil {
		_ = g.Close()
		return nil, err
	}
	g.restrict(flags)
	if !g.HasAttributes() && !g.HasGeometry() {
		_ = g.Close()
		return nil, fmt.Errorf("%w: %s: table %s has nothing left to read", ErrMissingComponent, path, g.table)
	}
	logger.Debug("opened geopackage",
		slog.String("dataset", path),
		slog.String("table", g.table),
		slog.Int("fields", len(g.fields)),
		slog.Bool("geometry", g.geomColumn != ""))
	return g, nil
}

// decompressToTemp writes the decompressed content of path to a temporary file
func decompressToTemp(path string) (string, error) {
	reader, cleanup, err := compression.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = cleanup() }()

	tmp, err := os.CreateTemp("", "shpsql-*.gpkg")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// load reads the table metadata
func (g *GeoPackage) load(ctx context.Context) error {
	err := g.db.QueryRowContext(ctx,
		`SELECT table_name FROM gpkg_contents
		 WHERE data_type IN ('features', 'attributes')
		 ORDER BY data_type = 'features' DESC, table_name LIMIT 1`).Scan(&g.table)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNoLayer, g.name)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidData, g.name, err)
	}

	var srsID sql.NullInt64
	err = g.db.QueryRowContext(ctx,
		`SELECT column_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, g.table).
		Scan(&g.geomColumn, &srsID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		g.geomColumn = ""
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrInvalidData, g.name, err)
	case srsID.Valid:
		g.projection = &model.Projection{SRID: int(srsID.Int64)}
		var definition sql.NullString
		err = g.db.QueryRowContext(ctx,
			`SELECT definition FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, srsID.Int64).Scan(&definition)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s: %w", ErrInvalidData, g.name, err)
		}
		if definition.Valid && definition.String != "undefined" {
			g.projection.Definition = definition.String
		}
	}

	rows, err := g.db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?)`, g.table)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidData, g.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return err
		}
		if strings.EqualFold(name, g.geomColumn) {
			continue
		}
		fd, ok := gpkgFieldDescriptor(name, declared)
		if !ok {
			g.logger.Warn("skipping column without attribute mapping",
				slog.String("table", g.table),
				slog.String("column", name),
				slog.String("type", declared))
			continue
		}
		g.columns = append(g.columns, name)
		g.fields = append(g.fields, fd)
	}
	return rows.Err()
}

// restrict drops the parts of the table disabled by flags
func (g *GeoPackage) restrict(flags model.InputFlags) {
	if flags.NoAttributes {
		g.columns = nil
		g.fields = nil
	}
	if flags.NoGeometry {
		g.geomColumn = ""
		g.projection = nil
	}
	if flags.NoProjection {
		g.projection = nil
	}
}

// gpkgFieldDescriptor maps a declared GeoPackage column type
func gpkgFieldDescriptor(name, declared string) (model.FieldDescriptor, bool) {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if m := gpkgTextLength.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return model.NewFieldDescriptor(name, model.FieldTypeCharacter, min(n, model.MaxCharacterLength), 0), true
	}

	switch t {
	case "BOOLEAN":
		return model.NewFieldDescriptor(name, model.FieldTypeLogical, 1, 0), true
	case "TINYINT":
		return model.NewFieldDescriptor(name, model.FieldTypeNumber, 4, 0), true
	case "SMALLINT":
		return model.NewFieldDescriptor(name, model.FieldTypeNumber, 6, 0), true
	case "MEDIUMINT":
		return model.NewFieldDescriptor(name, model.FieldTypeNumber, 9, 0), true
	case "INT", "INTEGER":
		return model.NewFieldDescriptor(name, model.FieldTypeNumber, gpkgIntegerLength, 0), true
	case "FLOAT", "DOUBLE", "REAL":
		return model.NewFieldDescriptor(name, model.FieldTypeFloating, gpkgFloatingLength, gpkgFloatingDigits), true
	case "TEXT", "VARCHAR", "CHAR", "":
		return model.NewFieldDescriptor(name, model.FieldTypeCharacter, model.MaxCharacterLength, 0), true
	case "DATE":
		return model.NewFieldDescriptor(name, model.FieldTypeDate, 10, 0), true
	case "DATETIME":
		return model.NewFieldDescriptor(name, model.FieldTypeCharacter, gpkgDateTimeLength, 0), true
	default:
		return model.FieldDescriptor{}, false
	}
}

// Name returns the path the dataset was opened with
func (g *GeoPackage) Name() string {
	return g.name
}

// Table returns the name of the table being read
func (g *GeoPackage) Table() string {
	return g.table
}

// Fields returns the attribute field descriptors
func (g *GeoPackage) Fields() []model.FieldDescriptor {
	return g.fields
}

// HasAttributes reports whether the table has attribute columns
func (g *GeoPackage) HasAttributes() bool {
	return len(g.fields) > 0
}

// HasGeometry reports whether the table is a feature table
func (g *GeoPackage) HasGeometry() bool {
	return g.geomColumn != ""
}

// Projection returns the spatial reference of the geometry column
func (g *GeoPackage) Projection() *model.Projection {
	return g.projection
}

// Scan queries the table in rowid order
func (g *GeoPackage) Scan(ctx context.Context, match model.Predicate) (model.Scan, error) {
	selected := make([]string, 0, len(g.columns)+1)
	for _, c := range g.columns {
		selected = append(selected, quoteSQLite(c))
	}
	if g.geomColumn != "" {
		selected = append(selected, quoteSQLite(g.geomColumn))
	}
	if len(selected) == 0 {
		selected = append(selected, "NULL")
	}

	query := "SELECT " + strings.Join(selected, ", ") + " FROM " + quoteSQLite(g.table) + " ORDER BY rowid"
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", g.table, err)
	}
	return &gpkgScan{dataset: g, rows: rows, match: match}, nil
}

// Close closes the database and removes any decompressed copy
func (g *GeoPackage) Close() error {
	var err error
	if g.db != nil {
		err = g.db.Close()
		g.db = nil
	}
	g.removeTemp()
	return err
}

func (g *GeoPackage) removeTemp() {
	if g.tempPath != "" {
		_ = os.Remove(g.tempPath)
		g.tempPath = ""
	}
}

// quoteSQLite quotes an SQLite identifier
func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type gpkgScan struct {
	dataset *GeoPackage
	rows    *sql.Rows
	match   model.Predicate
	current *model.Record
	err     error
}

func (s *gpkgScan) Next() bool {
	g := s.dataset
	for s.err == nil && s.rows.Next() {
		values := make([]any, len(g.columns)+1)
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		width := len(g.columns)
		if g.geomColumn != "" || width == 0 {
			width++
		}
		if err := s.rows.Scan(dest[:width]...); err != nil {
			s.err = err
			return false
		}

		cells := make([]model.Cell, len(g.fields))
		for i, field := range g.fields {
			cell, err := gpkgCell(field, values[i])
			if err != nil {
				s.err = err
				return false
			}
			cells[i] = cell
		}

		var geometry orb.Geometry
		if g.geomColumn != "" {
			blob, _ := values[len(g.columns)].([]byte)
			geom, err := decodeGeoPackageBinary(blob)
			if err != nil {
				s.err = err
				return false
			}
			geometry = geom
		}

		record := model.NewRecord(g, cells, geometry)
		if s.match.Matches(record) {
			s.current = record
			return true
		}
	}
	if s.err == nil {
		s.err = s.rows.Err()
	}
	s.current = nil
	return false
}

func (s *gpkgScan) Record() *model.Record {
	return s.current
}

func (s *gpkgScan) Err() error {
	return s.err
}

func (s *gpkgScan) Close() error {
	s.current = nil
	return s.rows.Close()
}

// gpkgCell converts a value returned by the driver into a cell.
// NULL becomes the empty value of the field type.
func gpkgCell(field model.FieldDescriptor, value any) (model.Cell, error) {
	switch v := value.(type) {
	case nil:
		return model.ParseCell(field, "")
	case int64:
		switch field.Type {
		case model.FieldTypeLogical:
			if v != 0 {
				return model.NewLogicalCell('T'), nil
			}
			return model.NewLogicalCell('F'), nil
		case model.FieldTypeNumber:
			return model.NewIntegerCell(v), nil
		case model.FieldTypeFloating:
			return model.NewFloatingCell(float64(v), field.Decimals), nil
		default:
			return model.ParseCell(field, strconv.FormatInt(v, 10))
		}
	case float64:
		switch field.Type {
		case model.FieldTypeNumber:
			return model.NewNumberCell(v, field.Decimals), nil
		case model.FieldTypeFloating:
			return model.NewFloatingCell(v, field.Decimals), nil
		default:
			return model.ParseCell(field, strconv.FormatFloat(v, 'f', -1, 64))
		}
	case bool:
		if v {
			return model.NewLogicalCell('T'), nil
		}
		return model.NewLogicalCell('F'), nil
	case time.Time:
		// the driver parses DATE and DATETIME columns
		if field.Type == model.FieldTypeDate {
			return model.NewDateCell(v.Format(time.DateOnly)), nil
		}
		return model.ParseCell(field, v.Format(time.DateTime))
	case string:
		return model.ParseTextCell(field, v)
	case []byte:
		return model.ParseTextCell(field, string(v))
	default:
		return model.ParseCell(field, fmt.Sprint(v))
	}
}

// decodeGeoPackageBinary strips the GeoPackage header and decodes the WKB body.
// A missing or empty geometry decodes to nil.
func decodeGeoPackageBinary(blob []byte) (orb.Geometry, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob) < gpkgHeaderSize || string(blob[:2]) != gpkgMagic {
		return nil, fmt.Errorf("%w: geometry blob has no GeoPackage header", ErrInvalidData)
	}

	flags := blob[gpkgFlagsPos]
	if flags&gpkgEmptyFlag != 0 {
		return nil, nil
	}

	var envelope int
	switch (flags & gpkgEnvelopeMask) >> 1 {
	case 0:
		envelope = 0
	case 1:
		envelope = 32
	case 2, 3:
		envelope = 48
	case 4:
		envelope = 64
	default:
		return nil, fmt.Errorf("%w: geometry envelope indicator %d", ErrInvalidData, (flags&gpkgEnvelopeMask)>>1)
	}

	start := gpkgHeaderSize + envelope
	if start > len(blob) {
		return nil, fmt.Errorf("%w: geometry blob is truncated", ErrInvalidData)
	}
	geometry, err := wkb.Unmarshal(blob[start:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return geometry, nil
}
