package shpsql

import (
	"fmt"
	"io"

	"github.com/nao1215/shpsql/compression"
)

// StdoutPath names standard output as the output path
const StdoutPath = "-"

// OpenOutput opens the destination of an export. An empty path or "-"
// selects stdout; a path ending in a compression extension is compressed.
// The returned function flushes and closes the destination.
func OpenOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == StdoutPath {
		return stdout, func() error { return nil }, nil
	}
	w, closer, err := compression.CreateWriter(path)
	if err != nil {
		return nil, nil, NewErrorContext("open output", path).Error(fmt.Errorf("%w: %w", ErrOutput, err))
	}
	return w, closer, nil
}
