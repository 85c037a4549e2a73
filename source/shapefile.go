package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/text/encoding"

	"github.com/nao1215/shpsql/compression"
	"github.com/nao1215/shpsql/domain/model"
)

// Shapefile is an ESRI Shapefile dataset. All components are loaded into
// memory when the dataset is opened; records are decoded during the scan.
type Shapefile struct {
	name       string
	attributes *dbfTable
	shapes     *shpFile
	projection *model.Projection
	numRecords int
}

// findComponent locates the file holding one component of a shapefile.
// Lower and upper case extensions are tried, each plain and compressed.
func findComponent(base, ext string) (string, bool) {
	suffixes := append([]string{""}, compression.Extensions()...)
	for _, e := range []string{ext, strings.ToUpper(ext)} {
		for _, suffix := range suffixes {
			candidate := base + e + suffix
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

// readComponent reads a required component
func readComponent(base, ext string) ([]byte, error) {
	path, ok := findComponent(base, ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s: %w", ErrMissingComponent, base, ext, os.ErrNotExist)
	}
	return compression.ReadFile(path)
}

// OpenShapefile opens the shapefile whose components share the base name of path
func OpenShapefile(path string, flags model.InputFlags, logger *slog.Logger) (*Shapefile, error) {
	flags = flags.Normalize()
	if flags.NoAttributes && flags.NoGeometry {
		return nil, fmt.Errorf("%w: %s: neither attributes nor geometry requested", ErrMissingComponent, path)
	}

	base := TrimExtensions(path)
	s := &Shapefile{name: path}

	if !flags.NoAttributes {
		data, err := readComponent(base, extDBF)
		if err != nil {
			return nil, err
		}
		s.attributes, err = parseDBF(data, codePage(base, logger))
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", base, extDBF, err)
		}
	}

	if !flags.NoGeometry {
		var index []int
		if !flags.NoIndex {
			data, err := readComponent(base, extSHX)
			if err != nil {
				return nil, err
			}
			index, err = parseSHX(data)
			if err != nil {
				return nil, fmt.Errorf("%s%s: %w", base, extSHX, err)
			}
		}

		data, err := readComponent(base, extSHP)
		if err != nil {
			return nil, err
		}
		s.shapes, err = parseSHP(data, index)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", base, extSHP, err)
		}
	}

	if !flags.NoProjection {
		if prj, ok := findComponent(base, extPRJ); ok {
			data, err := compression.ReadFile(prj)
			if err != nil {
				return nil, err
			}
			s.projection = &model.Projection{Definition: strings.TrimSpace(string(data))}
		} else {
			logger.Debug("no projection file", slog.String("base", base))
		}
	}

	switch {
	case s.attributes != nil && s.shapes != nil:
		s.numRecords = s.attributes.numRecords
		if n := s.shapes.len(); n != s.numRecords {
			logger.Warn("shape and attribute record counts differ",
				slog.String("dataset", path),
				slog.Int("shapes", n),
				slog.Int("attributes", s.numRecords))
		}
	case s.attributes != nil:
		s.numRecords = s.attributes.numRecords
	default:
		s.numRecords = s.shapes.len()
	}

	logger.Debug("opened shapefile",
		slog.String("dataset", path),
		slog.Int("records", s.numRecords),
		slog.Bool("attributes", s.attributes != nil),
		slog.Bool("geometry", s.shapes != nil))
	return s, nil
}

// codePage returns the decoder named by the .cpg file, nil when absent or UTF-8
func codePage(base string, logger *slog.Logger) *encoding.Decoder {
	path, ok := findComponent(base, extCPG)
	if !ok {
		return nil
	}
	data, err := compression.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read code page file", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	decoder, ok := codePageDecoder(string(data))
	if !ok {
		logger.Warn("unknown code page, reading text as is",
			slog.String("path", path),
			slog.String("code_page", strings.TrimSpace(string(data))))
	}
	return decoder
}

// Name returns the path the dataset was opened with
func (s *Shapefile) Name() string {
	return s.name
}

// Fields returns the attribute field descriptors, none when attributes are disabled
func (s *Shapefile) Fields() []model.FieldDescriptor {
	if s.attributes == nil {
		return nil
	}
	return s.attributes.descriptors()
}

// HasAttributes reports whether the attribute table was opened
func (s *Shapefile) HasAttributes() bool {
	return s.attributes != nil
}

// HasGeometry reports whether the shape file was opened
func (s *Shapefile) HasGeometry() bool {
	return s.shapes != nil
}

// Projection returns the content of the .prj file
func (s *Shapefile) Projection() *model.Projection {
	return s.projection
}

// Len returns the number of records, deleted ones included
func (s *Shapefile) Len() int {
	return s.numRecords
}

// Scan reads the records in storage order, skipping deleted attribute records
func (s *Shapefile) Scan(ctx context.Context, match model.Predicate) (model.Scan, error) {
	return &shapefileScan{ctx: ctx, dataset: s, match: match, pos: -1}, nil
}

// Close releases the file contents
func (s *Shapefile) Close() error {
	s.attributes = nil
	s.shapes = nil
	return nil
}

// errClosed is returned when a closed dataset is scanned
var errClosed = errors.New("source: dataset is closed")

type shapefileScan struct {
	ctx     context.Context
	dataset *Shapefile
	match   model.Predicate
	pos     int
	current *model.Record
	err     error
}

func (s *shapefileScan) Next() bool {
	d := s.dataset
	if s.err != nil {
		return false
	}
	if d.attributes == nil && d.shapes == nil {
		s.err = errClosed
		return false
	}

	for s.pos+1 < d.numRecords {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return false
		}
		s.pos++

		var cells []model.Cell
		if d.attributes != nil {
			var deleted bool
			var err error
			cells, deleted, err = d.attributes.record(s.pos)
			if err != nil {
				s.err = err
				return false
			}
			if deleted {
				continue
			}
		}

		var geometry orb.Geometry
		if d.shapes != nil && s.pos < d.shapes.len() {
			g, err := d.shapes.geometry(s.pos)
			if err != nil {
				s.err = err
				return false
			}
			geometry = g
		}

		record := model.NewRecord(d, cells, geometry)
		if s.match.Matches(record) {
			s.current = record
			return true
		}
	}
	s.current = nil
	return false
}

func (s *shapefileScan) Record() *model.Record {
	return s.current
}

func (s *shapefileScan) Err() error {
	return s.err
}

func (s *shapefileScan) Close() error {
	s.current = nil
	return nil
}
