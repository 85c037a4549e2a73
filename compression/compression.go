// Package compression wraps readers and writers with the codec implied by a file extension.
package compression

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Type represents the compression type of a file
type Type int

const (
	// None represents no compression
	None Type = iota
	// GZ represents gzip compression
	GZ
	// BZ2 represents bzip2 compression
	BZ2
	// XZ represents xz compression
	XZ
	// ZSTD represents zstd compression
	ZSTD
)

// Compression file extensions
const (
	ExtGZ   = ".gz"
	ExtBZ2  = ".bz2"
	ExtXZ   = ".xz"
	ExtZSTD = ".zst"
)

// ErrUnsupported is returned when a codec cannot serve the requested direction
var ErrUnsupported = errors.New("compression: unsupported")

// String returns the string representation of Type
func (c Type) String() string {
	switch c {
	case None:
		return "none"
	case GZ:
		return "gz"
	case BZ2:
		return "bz2"
	case XZ:
		return "xz"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// Extension returns the file extension for the compression type
func (c Type) Extension() string {
	switch c {
	case GZ:
		return ExtGZ
	case BZ2:
		return ExtBZ2
	case XZ:
		return ExtXZ
	case ZSTD:
		return ExtZSTD
	default:
		return ""
	}
}

// Extensions lists every recognised compression extension
func Extensions() []string {
	return []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD}
}

// Handler wraps streams with a compression codec
type Handler interface {
	// NewReader wraps an io.Reader with a decompression reader if needed
	NewReader(reader io.Reader) (io.Reader, func() error, error)
	// NewWriter wraps an io.Writer with a compression writer if needed
	NewWriter(writer io.Writer) (io.Writer, func() error, error)
	// Extension returns the file extension for this compression type (e.g., ".gz")
	Extension() string
}

// handler implements the Handler interface
type handler struct {
	compressionType Type
}

// NewHandler creates a new compression handler for the given compression type
func NewHandler(compressionType Type) Handler {
	return &handler{compressionType: compressionType}
}

func noop() error { return nil }

// NewReader creates a decompression reader based on the compression type
func (h *handler) NewReader(reader io.Reader) (io.Reader, func() error, error) {
	switch h.compressionType {
	case None:
		return reader, noop, nil
	case GZ:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil
	case BZ2:
		return bzip2.NewReader(reader), noop, nil
	case XZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, noop, nil
	case ZSTD:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: reading %v", ErrUnsupported, h.compressionType)
	}
}

// NewWriter creates a compression writer based on the compression type
func (h *handler) NewWriter(writer io.Writer) (io.Writer, func() error, error) {
	switch h.compressionType {
	case None:
		return writer, noop, nil
	case GZ:
		gzWriter := gzip.NewWriter(writer)
		return gzWriter, gzWriter.Close, nil
	case XZ:
		xzWriter, err := xz.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzWriter, xzWriter.Close, nil
	case ZSTD:
		zstdWriter, err := zstd.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zstdWriter, zstdWriter.Close, nil
	default:
		// bzip2 has no writer in the standard library
		return nil, nil, fmt.Errorf("%w: writing %v", ErrUnsupported, h.compressionType)
	}
}

// Extension returns the file extension for this compression type
func (h *handler) Extension() string {
	return h.compressionType.Extension()
}

// Detect detects the compression type from a file path
func Detect(path string) Type {
	path = strings.ToLower(path)

	switch {
	case strings.HasSuffix(path, ExtGZ):
		return GZ
	case strings.HasSuffix(path, ExtBZ2):
		return BZ2
	case strings.HasSuffix(path, ExtXZ):
		return XZ
	case strings.HasSuffix(path, ExtZSTD):
		return ZSTD
	default:
		return None
	}
}

// TrimExtension removes the compression extension from a file path if present
func TrimExtension(path string) string {
	for _, ext := range Extensions() {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// OpenReader opens a file and returns a reader that handles decompression
func OpenReader(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader, cleanup, err := NewHandler(Detect(path)).NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return reader, func() error {
		cleanupErr := cleanup()
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}

// ReadFile reads a whole file, decompressing it when its extension asks for it
func ReadFile(path string) ([]byte, error) {
	reader, cleanup, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(reader)
	if cleanupErr := cleanup(); err == nil {
		err = cleanupErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// CreateWriter creates a file and returns a writer that compresses with the
// codec implied by the path extension
func CreateWriter(path string) (io.Writer, func() error, error) {
	file, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer, cleanup, err := NewHandler(Detect(path)).NewWriter(file)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, nil, err
	}

	return writer, func() error {
		cleanupErr := cleanup()
		if syncErr := file.Sync(); syncErr != nil && cleanupErr == nil {
			cleanupErr = syncErr
		}
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}
